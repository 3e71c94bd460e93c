package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// boilerplateSelectors match elements that never carry offer prices.
// Navigation is dropped too: the agent receives page links separately.
var boilerplateSelectors = []string{
	"script", "style", "noscript", "template", "svg", "iframe", "canvas",
	"nav", "header", "footer",
	"[aria-hidden=true]",
	"#cookie-banner", ".cookie-banner", "#cookies", ".cookies", "[id*=cookie]", "[class*=cookie-consent]",
}

// BoilerplateCleaner removes page chrome from HTML before conversion.
type BoilerplateCleaner struct {
	selector string
}

// NewBoilerplate creates a cleaner that removes the default boilerplate
// elements plus any extra CSS selectors.
func NewBoilerplate(extra ...string) *BoilerplateCleaner {
	selectors := append(append([]string{}, boilerplateSelectors...), extra...)
	return &BoilerplateCleaner{selector: strings.Join(selectors, ", ")}
}

// Clean returns the HTML with boilerplate elements removed.
func (c *BoilerplateCleaner) Clean(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find(c.selector).Remove()
	return doc.Html()
}

// Name returns the cleaner type.
func (c *BoilerplateCleaner) Name() string {
	return "boilerplate"
}
