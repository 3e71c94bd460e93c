package fetcher

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseContent fills Title, Text and Links of content from its HTML.
// Links are resolved against content.URL, deduplicated, and fragment-only or
// non-HTTP links (mailto:, tel:, javascript:) are dropped.
func ParseContent(content *Content) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content.HTML))
	if err != nil {
		return err
	}

	if content.Title == "" {
		content.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	// Links are collected before scripts are removed so <noscript> navigation survives.
	baseURL, _ := url.Parse(content.URL)
	seen := make(map[string]bool)
	content.Links = content.Links[:0]
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		linkURL, err := url.Parse(href)
		if err != nil {
			return
		}
		if !linkURL.IsAbs() && baseURL != nil {
			linkURL = baseURL.ResolveReference(linkURL)
		}
		if linkURL.Scheme != "http" && linkURL.Scheme != "https" {
			return
		}
		linkURL.Fragment = ""

		abs := linkURL.String()
		if seen[abs] {
			return
		}
		seen[abs] = true

		text := CleanText(s.Text())
		if text == "" {
			text, _ = s.Attr("title")
			text = CleanText(text)
		}
		content.Links = append(content.Links, Link{Text: text, URL: abs})
	})

	doc.Find("script, style, noscript, iframe, svg").Remove()

	var textParts []string
	doc.Find("body").Each(func(_ int, s *goquery.Selection) {
		if text := CleanText(s.Text()); text != "" {
			textParts = append(textParts, text)
		}
	})
	content.Text = strings.Join(textParts, "\n")

	return nil
}

// CleanText normalizes whitespace in text.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SameSite reports whether two URLs share a host, ignoring a leading "www.".
func SameSite(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return strings.TrimPrefix(strings.ToLower(ua.Hostname()), "www.") ==
		strings.TrimPrefix(strings.ToLower(ub.Hostname()), "www.")
}
