package harness

import (
	"fmt"

	"github.com/feedbackhq/ui-contract-tests/browser"
	"github.com/feedbackhq/ui-contract-tests/browser/cdpdriver"
	"github.com/feedbackhq/ui-contract-tests/browser/pwdriver"
	"github.com/feedbackhq/ui-contract-tests/config"
	"github.com/feedbackhq/ui-contract-tests/framework"
)

// OpenDriver starts the browser automation engine selected in the configuration.
func OpenDriver(cfg config.Config, logger framework.Logger) (browser.Driver, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	switch cfg.Driver {
	case config.DriverPlaywright:
		logger.Printf("Starting Playwright (%s, headless=%t)", cfg.Browser, cfg.Headless)
		return pwdriver.Launch(pwdriver.Options{Browser: cfg.Browser, Headless: cfg.Headless, Install: true})
	case config.DriverChromedp:
		logger.Printf("Starting Chrome over DevTools (headless=%t)", cfg.Headless)
		return cdpdriver.Launch(cdpdriver.Options{
			Headless: cfg.Headless,
			ExecPath: cfg.ChromePath,
			Logf:     framework.LoggerWithPrefix(logger, "[chromedp] ").Printf,
		})
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}
