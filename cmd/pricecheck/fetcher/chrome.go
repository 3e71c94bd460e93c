package fetcher

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/jmylchreest/pricecheck/internal/logger"
)

// chromeEnvVar overrides the Chrome binary search.
const chromeEnvVar = "CHROME_PATH"

// Chrome/Chromium binaries, by name for PATH lookup or by install location.
var chromeBinaryNames = []string{
	"google-chrome-stable",
	"google-chrome",
	"chromium",
	"chromium-browser",
	"chrome",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
	"/snap/bin/chromium",
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

// FindChromePath returns the Chrome binary to launch, or "" to let chromedp
// use its own lookup. CHROME_PATH wins over the search.
func FindChromePath() string {
	if p := os.Getenv(chromeEnvVar); p != "" {
		logger.Debug("using Chrome binary from environment", "path", p)
		return p
	}
	for _, name := range chromeBinaryNames {
		if filepath.IsAbs(name) {
			if info, err := os.Stat(name); err == nil && !info.IsDir() {
				logger.Debug("found Chrome binary", "path", name)
				return name
			}
			continue
		}
		if path, err := exec.LookPath(name); err == nil {
			logger.Debug("found Chrome binary", "name", name, "path", path)
			return path
		}
	}
	logger.Warn("no Chrome binary found, dynamic fetch mode may not work (set CHROME_PATH or use --fetch-mode static)")
	return ""
}
