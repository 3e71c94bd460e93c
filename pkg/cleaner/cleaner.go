// Package cleaner turns fetched HTML into text the agent's model reads.
package cleaner

// Cleaner transforms HTML content into a cleaner format for the model.
type Cleaner interface {
	// Clean transforms the input HTML into a cleaned format.
	Clean(html string) (string, error)

	// Name returns the cleaner type for logging/debugging.
	Name() string
}
