package session

import "github.com/chromedp/chromedp"

// allocatorOptions configures the Chrome process for one isolated session.
// The flags mirror what X.com is known to probe: navigator.webdriver via the
// AutomationControlled blink feature, the "Chrome is being controlled" infobar
// via enable-automation, and a bot-looking default user agent.
func allocatorOptions(profileDir, userAgent string, headless bool) []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(profileDir),
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1920, 1080),
	)
}

// stealthScripts run on every new document before page scripts do, masking
// the fingerprint surface a headless automation session normally exposes.
var stealthScripts = []string{
	`Object.defineProperty(navigator, 'webdriver', { get: () => undefined });`,
	`window.chrome = window.chrome || {}; window.chrome.runtime = {};`,
	`Object.defineProperty(navigator, 'languages', { get: () => ['en-US','en'] });`,
	`Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });`,
}
