package fetcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jmylchreest/pricecheck/pkg/fetcher"
)

// storageState is the browser storage file layout written by Playwright and
// similar tools. Only cookies are used.
type storageState struct {
	Cookies []fetcher.Cookie `json:"cookies"`
}

// LoadCookies reads cookies from a JSON file. The file may be a storage state
// document ({"cookies": [...]}) or a bare array of cookies, as exported by
// most browser extensions. Cookies without a name are skipped.
func LoadCookies(path string) ([]fetcher.Cookie, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- operator-supplied cookies file
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies file: %w", err)
	}
	return ParseCookies(data)
}

// ParseCookies decodes the formats accepted by LoadCookies.
func ParseCookies(data []byte) ([]fetcher.Cookie, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var cookies []fetcher.Cookie
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &cookies); err != nil {
			return nil, fmt.Errorf("invalid cookies array: %w", err)
		}
	case '{':
		var state storageState
		if err := json.Unmarshal(data, &state); err != nil {
			return nil, fmt.Errorf("invalid storage state: %w", err)
		}
		cookies = state.Cookies
	default:
		return nil, fmt.Errorf("invalid cookies file: expected a JSON object or array")
	}

	out := cookies[:0]
	for _, c := range cookies {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
