package cleaner

import (
	"errors"
	"strings"
	"testing"
)

func TestNoopCleaner_Clean(t *testing.T) {
	c := NewNoop()

	tests := []struct {
		name  string
		input string
	}{
		{"empty_string", ""},
		{"plain_text", "Hello, World!"},
		{"html_content", "<html><body><h1>Title</h1></body></html>"},
		{"whitespace", "  \n\t  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Clean(tt.input)
			if err != nil {
				t.Errorf("Clean() error = %v, want nil", err)
			}
			if got != tt.input {
				t.Errorf("Clean() = %q, want %q", got, tt.input)
			}
		})
	}

	if got := c.Name(); got != "noop" {
		t.Errorf("Name() = %q, want %q", got, "noop")
	}
}

type upperCleaner struct{}

func (upperCleaner) Clean(s string) (string, error) { return strings.ToUpper(s), nil }
func (upperCleaner) Name() string                   { return "upper" }

type failingCleaner struct{}

func (failingCleaner) Clean(string) (string, error) { return "", errors.New("boom") }
func (failingCleaner) Name() string                 { return "failing" }

func TestChainCleaner(t *testing.T) {
	t.Run("empty chain passes through", func(t *testing.T) {
		got, err := NewChain().Clean("unchanged")
		if err != nil || got != "unchanged" {
			t.Errorf("Clean() = %q, %v", got, err)
		}
	})

	t.Run("applies in order", func(t *testing.T) {
		c := NewChain(NewNoop(), upperCleaner{})
		got, err := c.Clean("abc")
		if err != nil {
			t.Fatalf("Clean() error = %v", err)
		}
		if got != "ABC" {
			t.Errorf("Clean() = %q", got)
		}
		if c.Name() != "chain(noop->upper)" {
			t.Errorf("Name() = %q", c.Name())
		}
	})

	t.Run("stops on error", func(t *testing.T) {
		c := NewChain(failingCleaner{}, upperCleaner{})
		if _, err := c.Clean("abc"); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestMarkdownCleaner_Clean(t *testing.T) {
	c := NewMarkdown()

	html := `<h1>Ceny</h1><p>A paragraph.</p><ul><li>3B</li><li>4A</li></ul>`
	got, err := c.Clean(html)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	for _, want := range []string{"# Ceny", "A paragraph.", "- 3B", "- 4A"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
	if c.Name() != "markdown" {
		t.Errorf("Name() = %q", c.Name())
	}
}

func TestMarkdownCleaner_StripImagesAndLinks(t *testing.T) {
	html := `<p><img src="/plan.png" alt="plan"> <a href="/oferta/3b">Mieszkanie 3B</a> 450 000 PLN</p>`

	got, err := NewMarkdown(WithStripImages(true), WithStripLinks(true)).Clean(html)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if strings.Contains(got, "plan.png") || strings.Contains(got, "/oferta/3b") {
		t.Errorf("expected image and link targets removed, got %q", got)
	}
	if !strings.Contains(got, "Mieszkanie 3B") || !strings.Contains(got, "450 000 PLN") {
		t.Errorf("expected text kept, got %q", got)
	}

	kept, err := NewMarkdown().Clean(html)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if !strings.Contains(kept, "/oferta/3b") {
		t.Errorf("expected link target without options, got %q", kept)
	}
}

func TestCleanWhitespace(t *testing.T) {
	got := cleanWhitespace("\n\na  \n\n\n\nb\n\n")
	if got != "a\n\nb" {
		t.Errorf("cleanWhitespace() = %q", got)
	}
}

func TestBoilerplateCleaner(t *testing.T) {
	html := `<html><body>
<header>Logo</header><nav><a href="/">Home</a></nav>
<div id="cookie-consent">We use cookies</div>
<main><table><tr><td>3B</td><td>450 000 PLN</td></tr></table></main>
<aside class="promo">Promo</aside>
<footer>Kontakt</footer><script>track()</script>
</body></html>`

	got, err := NewBoilerplate("aside.promo").Clean(html)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	for _, gone := range []string{"Logo", "Home", "We use cookies", "Promo", "Kontakt", "track()"} {
		if strings.Contains(got, gone) {
			t.Errorf("expected %q removed, got %q", gone, got)
		}
	}
	if !strings.Contains(got, "450 000 PLN") {
		t.Errorf("expected listing kept, got %q", got)
	}
}

func TestBoilerplateThenMarkdown(t *testing.T) {
	c := NewChain(NewBoilerplate(), NewMarkdown(WithStripImages(true)))
	got, err := c.Clean(`<nav>Menu</nav><h2>Oferta</h2><p>Cena 450 000 zł</p>`)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if strings.Contains(got, "Menu") {
		t.Errorf("nav should be removed: %q", got)
	}
	if !strings.Contains(got, "## Oferta") || !strings.Contains(got, "450 000 zł") {
		t.Errorf("unexpected output %q", got)
	}
	if c.Name() != "chain(boilerplate->markdown)" {
		t.Errorf("Name() = %q", c.Name())
	}
}
