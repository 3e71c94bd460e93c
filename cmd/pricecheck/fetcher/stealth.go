package fetcher

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// stealthScript hides the most common automation fingerprints before any
// page script runs.
const stealthScript = `
(() => {
    Object.defineProperty(navigator, 'webdriver', { get: () => undefined, configurable: true });

    if (navigator.plugins.length === 0) {
        const fake = [{ name: 'Chrome PDF Viewer', filename: 'internal-pdf-viewer' }];
        Object.defineProperty(navigator, 'plugins', { get: () => fake, configurable: true });
    }

    Object.defineProperty(navigator, 'languages', {
        get: () => Object.freeze(['pl-PL', 'pl', 'en-US', 'en']),
        configurable: true
    });

    if (!window.chrome) {
        window.chrome = {};
    }
    if (!window.chrome.runtime) {
        window.chrome.runtime = { connect() {}, sendMessage() {} };
    }

    const query = Permissions.prototype.query;
    Permissions.prototype.query = function (p) {
        if (p && p.name === 'notifications') {
            return Promise.resolve({ state: Notification.permission });
        }
        return query.call(this, p);
    };

    const patchWebGL = (proto) => {
        if (!proto) return;
        const getParameter = proto.getParameter;
        proto.getParameter = function (param) {
            if (param === 37445) return 'Intel Inc.';
            if (param === 37446) return 'Intel Iris OpenGL Engine';
            return getParameter.call(this, param);
        };
    };
    try { patchWebGL(WebGLRenderingContext.prototype); } catch (e) {}
    try { patchWebGL(WebGL2RenderingContext.prototype); } catch (e) {}

    if (!navigator.hardwareConcurrency) {
        Object.defineProperty(navigator, 'hardwareConcurrency', { get: () => 8, configurable: true });
    }
})();
`

// stealthAllocatorOptions returns Chrome flags that remove automation markers.
func stealthAllocatorOptions() []chromedp.ExecAllocatorOption {
	return []chromedp.ExecAllocatorOption{
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("excludeSwitches", "enable-automation"),
		chromedp.Flag("useAutomationExtension", false),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-features", "IsolateOrigins,site-per-process"),
		chromedp.Flag("lang", "pl-PL,pl,en-US,en"),
		chromedp.Flag("accept-lang", "pl-PL,pl;q=0.9,en-US;q=0.8,en;q=0.7"),
	}
}

// injectStealthScript registers the stealth script for every new document.
// It must run before navigation.
func injectStealthScript() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
		return err
	})
}

// captureScreenshot grabs the current viewport for debugging. It returns nil
// when the browser can no longer answer.
func captureScreenshot(ctx context.Context) []byte {
	var buf []byte
	captureCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := chromedp.Run(captureCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil
	}
	return buf
}
