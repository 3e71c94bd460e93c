package fetcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmylchreest/pricecheck/pkg/fetcher"
)

func TestDetectChallengePage(t *testing.T) {
	tests := []struct {
		name  string
		title string
		html  string
		want  string
	}{
		{"cloudflare title", "Just a moment...", "<html></html>", "cloudflare"},
		{"cloudflare script", "Osiedle", `<script>window._cf_chl_opt={}</script>`, "cloudflare"},
		{"turnstile", "", `<div class="cf-turnstile"></div>`, "cloudflare-turnstile"},
		{"hcaptcha", "", `<script src="https://hcaptcha.com/1/api.js"></script>`, "hcaptcha"},
		{"recaptcha", "", `<div class="g-recaptcha"></div>`, "recaptcha"},
		{"access denied", "Access Denied", "", "anti-bot"},
		{"robot or human", "", "<p>Are you a robot or human?</p>", "anti-bot"},
		{"normal page", "Mieszkania na sprzedaż", "<h1>Cennik</h1><p>450 000 PLN</p>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectChallengePage(tt.title, tt.html); got != tt.want {
				t.Errorf("detectChallengePage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseCookies(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    []fetcher.Cookie
		wantErr bool
	}{
		{
			name: "storage state",
			data: `{"cookies": [{"name": "consent", "value": "yes", "domain": ".dev.example", "path": "/", "expires": -1, "httpOnly": false}], "origins": []}`,
			want: []fetcher.Cookie{{Name: "consent", Value: "yes", Domain: ".dev.example", Path: "/"}},
		},
		{
			name: "array",
			data: `[{"name": "a", "value": "1"}, {"name": " ", "value": "skip"}, {"name": "b", "value": "2", "domain": "dev.example"}]`,
			want: []fetcher.Cookie{{Name: "a", Value: "1"}, {Name: "b", Value: "2", Domain: "dev.example"}},
		},
		{name: "empty", data: "  \n", want: nil},
		{name: "state without cookies", data: `{"origins": []}`, want: nil},
		{name: "not json", data: "name=value", wantErr: true},
		{name: "broken array", data: `[{"name": }]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCookies([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCookies() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseCookies() = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("cookie %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoadCookies(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cookies.json")
	if err := os.WriteFile(path, []byte(`{"cookies": [{"name": "s", "value": "v"}]}`), 0o600); err != nil {
		t.Fatal(err)
	}

	cookies, err := LoadCookies(path)
	if err != nil {
		t.Fatalf("LoadCookies() error = %v", err)
	}
	if len(cookies) != 1 || cookies[0].Name != "s" {
		t.Errorf("cookies = %+v", cookies)
	}

	_, err = LoadCookies(filepath.Join(dir, "missing.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist", err)
	}
}

func TestCookieParams(t *testing.T) {
	params, err := cookieParams("https://www.dev.example/oferta", []fetcher.Cookie{
		{Name: "a", Value: "1"},
		{Name: "b", Value: "2", Domain: ".dev.example", Path: "/oferta"},
	})
	if err != nil {
		t.Fatalf("cookieParams() error = %v", err)
	}
	if len(params) != 2 {
		t.Fatalf("params = %d", len(params))
	}
	if params[0].Domain != "www.dev.example" || params[0].Path != "/" || !params[0].Secure {
		t.Errorf("default cookie = %+v", params[0])
	}
	if params[1].Domain != ".dev.example" || params[1].Path != "/oferta" {
		t.Errorf("scoped cookie = %+v", params[1])
	}

	if _, err := cookieParams("://bad", nil); err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Headless {
		t.Error("browser should be headless by default")
	}
	if cfg.Timeout <= 0 || cfg.UserAgent == "" {
		t.Errorf("config = %+v", cfg)
	}
}

func TestFindChromePath_Env(t *testing.T) {
	t.Setenv(chromeEnvVar, "/opt/chrome/chrome")
	if got := FindChromePath(); got != "/opt/chrome/chrome" {
		t.Errorf("FindChromePath() = %q", got)
	}
}
