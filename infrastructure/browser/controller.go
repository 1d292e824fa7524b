package browser

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"events_widget/domain/entities"
	"events_widget/domain/interfaces"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

const (
	EngineChromium = "chromium"
	EngineFirefox  = "firefox"
	EngineWebKit   = "webkit"
)

const (
	defaultLocale   = "ru-RU"
	defaultTimezone = "Europe/Moscow"
)

// matchNothing is a valid selector that never matches
const matchNothing = ":not(*)"

var userAgents = map[string]string{
	EngineFirefox: "Mozilla/5.0 (X11; Linux x86_64; rv:91.0) Gecko/20100101 Firefox/91.0",
	EngineWebKit:  "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Safari/605.1.15",
}

// LaunchOptions configures a browser backend
type LaunchOptions struct {
	Engine       string
	Headless     bool
	SlowMo       time.Duration
	Install      bool
	QueryTimeout time.Duration // upper bound for single element reads
}

type browserController struct {
	pw           *playwright.Playwright
	browser      playwright.Browser
	engine       string
	queryTimeout time.Duration
	logger       *logrus.Logger
}

// NewBrowserController - starts playwright and launches the requested engine
func NewBrowserController(opts LaunchOptions, logger *logrus.Logger) (interfaces.Browser, error) {
	if opts.Install {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{opts.Engine}}); err != nil {
			return nil, fmt.Errorf("failed to install playwright browsers: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	var browserType playwright.BrowserType
	switch opts.Engine {
	case EngineChromium, "":
		browserType = pw.Chromium
	case EngineFirefox:
		browserType = pw.Firefox
	case EngineWebKit:
		browserType = pw.WebKit
	default:
		pw.Stop()
		return nil, fmt.Errorf("unknown browser engine %q", opts.Engine)
	}

	browser, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		SlowMo:   playwright.Float(float64(opts.SlowMo.Milliseconds())),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	engine := opts.Engine
	if engine == "" {
		engine = EngineChromium
	}

	logger.WithField("engine", engine).Debug("browser launched")

	return &browserController{
		pw:           pw,
		browser:      browser,
		engine:       engine,
		queryTimeout: opts.QueryTimeout,
		logger:       logger,
	}, nil
}

func (b *browserController) Name() string {
	return b.engine
}

// NewPage - opens a page in its own context
func (b *browserController) NewPage(ctx context.Context) (interfaces.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	contextOptions := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  entities.ViewportDesktop.Width,
			Height: entities.ViewportDesktop.Height,
		},
		Locale:     playwright.String(defaultLocale),
		TimezoneId: playwright.String(defaultTimezone),
	}
	if ua, ok := userAgents[b.engine]; ok {
		contextOptions.UserAgent = playwright.String(ua)
	}

	browserContext, err := b.browser.NewContext(contextOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := browserContext.NewPage()
	if err != nil {
		browserContext.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	page.OnDialog(func(dialog playwright.Dialog) {
		dialog.Accept()
	})

	return &playwrightPage{
		page:         page,
		context:      browserContext,
		queryTimeout: b.queryTimeout,
	}, nil
}

// Close - closes the browser and stops the driver
func (b *browserController) Close() error {
	var closeErr error

	if b.browser != nil {
		if err := b.browser.Close(); err != nil && !isClosedErr(err) {
			closeErr = fmt.Errorf("failed to close browser: %w", err)
		}
		b.browser = nil
	}

	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			if closeErr != nil {
				closeErr = fmt.Errorf("%v; failed to stop playwright: %w", closeErr, err)
			} else {
				closeErr = fmt.Errorf("failed to stop playwright: %w", err)
			}
		}
		b.pw = nil
	}

	return closeErr
}

type playwrightPage struct {
	page         playwright.Page
	context      playwright.BrowserContext
	queryTimeout time.Duration
}

// Navigate - navigates to the specified URL
func (p *playwrightPage) Navigate(ctx context.Context, url string, opts interfaces.NavigateOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: waitUntil(opts.WaitUntil),
		Timeout:   ms(opts.Timeout),
	})
	return err
}

func (p *playwrightPage) Locate(patterns ...entities.Pattern) interfaces.Locator {
	return &playwrightLocator{
		loc: union(func(selector string) playwright.Locator {
			return p.page.Locator(selector)
		}, patterns),
		queryTimeout: p.queryTimeout,
	}
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) Title() (string, error) {
	return p.page.Title()
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) SetViewportSize(width, height int) error {
	return p.page.SetViewportSize(width, height)
}

func (p *playwrightPage) WaitForLoadState(state interfaces.LoadState, timeout time.Duration) error {
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   loadState(state),
		Timeout: ms(timeout),
	})
}

func (p *playwrightPage) WaitForTimeout(d time.Duration) {
	p.page.WaitForTimeout(float64(d.Milliseconds()))
}

func (p *playwrightPage) WaitForFunction(expression string, timeout time.Duration) error {
	_, err := p.page.WaitForFunction(expression, nil, playwright.PageWaitForFunctionOptions{
		Timeout: ms(timeout),
	})
	return err
}

func (p *playwrightPage) Screenshot(fullPage bool) ([]byte, error) {
	return p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(fullPage),
	})
}

// Close - closes the page and its context, ignoring already-closed targets
func (p *playwrightPage) Close() error {
	var closeErr error
	if err := p.page.Close(); err != nil && !isClosedErr(err) {
		closeErr = fmt.Errorf("failed to close page: %w", err)
	}
	if err := p.context.Close(); err != nil && !isClosedErr(err) {
		if closeErr != nil {
			closeErr = fmt.Errorf("%v; failed to close context: %w", closeErr, err)
		} else {
			closeErr = fmt.Errorf("failed to close context: %w", err)
		}
	}
	return closeErr
}

type playwrightLocator struct {
	loc          playwright.Locator
	queryTimeout time.Duration
}

func (l *playwrightLocator) wrap(loc playwright.Locator) *playwrightLocator {
	return &playwrightLocator{loc: loc, queryTimeout: l.queryTimeout}
}

func (l *playwrightLocator) Count() (int, error) {
	return l.loc.Count()
}

func (l *playwrightLocator) Nth(index int) interfaces.Locator {
	return l.wrap(l.loc.Nth(index))
}

func (l *playwrightLocator) First() interfaces.Locator {
	return l.wrap(l.loc.First())
}

func (l *playwrightLocator) Locate(patterns ...entities.Pattern) interfaces.Locator {
	return l.wrap(union(func(selector string) playwright.Locator {
		return l.loc.Locator(selector)
	}, patterns))
}

func (l *playwrightLocator) TextContent() (string, error) {
	return l.loc.TextContent(playwright.LocatorTextContentOptions{Timeout: ms(l.queryTimeout)})
}

func (l *playwrightLocator) GetAttribute(name string) (string, error) {
	return l.loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{Timeout: ms(l.queryTimeout)})
}

func (l *playwrightLocator) TagName() (string, error) {
	result, err := l.loc.Evaluate("el => el.tagName.toLowerCase()", nil, playwright.LocatorEvaluateOptions{
		Timeout: ms(l.queryTimeout),
	})
	if err != nil {
		return "", err
	}
	tag, _ := result.(string)
	return tag, nil
}

func (l *playwrightLocator) IsVisible() (bool, error) {
	return l.loc.IsVisible()
}

func (l *playwrightLocator) WaitVisible(timeout time.Duration) error {
	return l.loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: ms(timeout),
	})
}

func (l *playwrightLocator) Click(timeout time.Duration) error {
	return l.loc.Click(playwright.LocatorClickOptions{Timeout: ms(timeout)})
}

func (l *playwrightLocator) SelectOption(choice interfaces.OptionChoice) error {
	var values playwright.SelectOptionValues
	if choice.Value != "" {
		values.Values = &[]string{choice.Value}
	} else {
		values.Labels = &[]string{choice.Label}
	}
	_, err := l.loc.SelectOption(values, playwright.LocatorSelectOptionOptions{Timeout: ms(l.queryTimeout)})
	return err
}

// union combines pattern locators with Or; playwright keeps document order
func union(newLocator func(selector string) playwright.Locator, patterns []entities.Pattern) playwright.Locator {
	if len(patterns) == 0 {
		return newLocator(matchNothing)
	}
	var result playwright.Locator
	for _, p := range patterns {
		loc := newLocator(p.Selector())
		if p.HasTextMatch != "" {
			loc = loc.Filter(playwright.LocatorFilterOptions{
				HasText: regexp.MustCompile(p.HasTextMatch),
			})
		}
		if result == nil {
			result = loc
		} else {
			result = result.Or(loc)
		}
	}
	return result
}

func waitUntil(state interfaces.LoadState) *playwright.WaitUntilState {
	switch state {
	case interfaces.LoadStateNetworkIdle:
		return playwright.WaitUntilStateNetworkidle
	case interfaces.LoadStateDOMContentLoaded:
		return playwright.WaitUntilStateDomcontentloaded
	}
	return playwright.WaitUntilStateLoad
}

func loadState(state interfaces.LoadState) *playwright.LoadState {
	switch state {
	case interfaces.LoadStateNetworkIdle:
		return playwright.LoadStateNetworkidle
	case interfaces.LoadStateDOMContentLoaded:
		return playwright.LoadStateDomcontentloaded
	}
	return playwright.LoadStateLoad
}

// ms converts a duration to playwright milliseconds; zero keeps the driver default
func ms(d time.Duration) *float64 {
	if d <= 0 {
		return nil
	}
	return playwright.Float(float64(d.Milliseconds()))
}

// isClosedErr - reports errors caused by targets that are already gone
func isClosedErr(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "closed") || strings.Contains(errStr, "target closed")
}
