package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"events_widget/domain/entities"
	"events_widget/domain/interfaces"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

const (
	defaultQueryTimeout = 5 * time.Second
	pollInterval        = 100 * time.Millisecond
	networkQuietPeriod  = 500 * time.Millisecond
)

// resolveScript evaluates a locator chain in the page. Kind values follow entities.PatternKind.
const resolveScript = `
function __resolve(chain) {
	const norm = s => (s || '').replace(/\s+/g, ' ').trim();
	const skip = el => /^(SCRIPT|STYLE|NOSCRIPT|TEMPLATE|HEAD|TITLE)$/.test(el.tagName);
	const text = el => norm(el.textContent);
	const order = arr => Array.from(new Set(arr)).sort((a, b) =>
		a === b ? 0 : (a.compareDocumentPosition(b) & Node.DOCUMENT_POSITION_FOLLOWING ? -1 : 1));
	const deepest = (root, pred) => Array.from(root.querySelectorAll('*')).filter(el =>
		!skip(el) && pred(el) && !Array.from(el.children).some(c => !skip(c) && pred(c)));
	const near = (el, sel) => {
		const r = el.getBoundingClientRect();
		return Array.from(document.querySelectorAll(sel)).some(a => {
			if (a === el) return false;
			const q = a.getBoundingClientRect();
			const dx = Math.max(0, q.left - r.right, r.left - q.right);
			const dy = Math.max(0, q.top - r.bottom, r.top - q.bottom);
			return Math.max(dx, dy) <= 50;
		});
	};
	const match = (root, p) => {
		if (p.kind === 1) return deepest(root, el => text(el) === norm(p.expr));
		if (p.kind === 2) {
			const re = new RegExp(p.expr, p.ignore_case ? 'i' : '');
			return deepest(root, el => re.test(text(el)));
		}
		let found = Array.from(root.querySelectorAll(p.expr));
		if (p.has_text) {
			const needle = norm(p.has_text).toLowerCase();
			found = found.filter(el => text(el).toLowerCase().includes(needle));
		}
		if (p.has_text_match) {
			const re = new RegExp(p.has_text_match);
			found = found.filter(el => re.test(el.textContent || ''));
		}
		if (p.near) found = found.filter(el => near(el, p.near));
		return found;
	};
	let els = [document];
	for (const step of chain) {
		if (step.patterns) {
			const out = [];
			for (const root of els) for (const p of step.patterns) out.push(...match(root, p));
			els = order(out);
		} else {
			let i = step.nth;
			if (i < 0) i += els.length;
			els = (i >= 0 && i < els.length) ? [els[i]] : [];
		}
	}
	return els;
}
function __single(els) {
	if (els.length === 0) throw new Error('no element matches');
	if (els.length > 1) throw new Error('strict mode violation: ' + els.length + ' elements match');
	return els[0];
}
function __visible(el) {
	const r = el.getBoundingClientRect();
	const s = getComputedStyle(el);
	return r.width > 0 && r.height > 0 && s.visibility !== 'hidden' && s.display !== 'none';
}
`

type chromedpController struct {
	allocCtx     context.Context
	allocCancel  context.CancelFunc
	queryTimeout time.Duration
	logger       *logrus.Logger
}

// NewChromedpController - creates a Chrome DevTools backend. Every page runs in its own browser process.
func NewChromedpController(opts LaunchOptions, logger *logrus.Logger) (interfaces.Browser, error) {
	if opts.Engine != "" && opts.Engine != EngineChromium {
		return nil, fmt.Errorf("chromedp supports only %s, got %q", EngineChromium, opts.Engine)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(entities.ViewportDesktop.Width, entities.ViewportDesktop.Height),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("lang", defaultLocale),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	queryTimeout := opts.QueryTimeout
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}

	return &chromedpController{
		allocCtx:     allocCtx,
		allocCancel:  allocCancel,
		queryTimeout: queryTimeout,
		logger:       logger,
	}, nil
}

func (c *chromedpController) Name() string {
	return EngineChromium
}

func (c *chromedpController) NewPage(ctx context.Context) (interfaces.Page, error) {
	tabCtx, cancel := chromedp.NewContext(c.allocCtx, chromedp.WithLogf(c.logger.Debugf))

	err := chromedp.Run(tabCtx,
		emulation.SetTimezoneOverride(defaultTimezone),
		emulation.SetLocaleOverride().WithLocale(defaultLocale),
		chromedp.EmulateViewport(int64(entities.ViewportDesktop.Width), int64(entities.ViewportDesktop.Height)),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	return &chromedpPage{ctx: tabCtx, cancel: cancel, queryTimeout: c.queryTimeout}, nil
}

func (c *chromedpController) Close() error {
	c.allocCancel()
	return nil
}

type chromedpPage struct {
	ctx          context.Context
	cancel       context.CancelFunc
	queryTimeout time.Duration
}

type chainStep struct {
	Patterns []entities.Pattern `json:"patterns,omitempty"`
	Nth      *int               `json:"nth,omitempty"`
}

func (p *chromedpPage) run(timeout time.Duration, actions ...chromedp.Action) error {
	if timeout <= 0 {
		timeout = p.queryTimeout
	}
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// evaluate runs body with `els` bound to the resolved chain
func (p *chromedpPage) evaluate(chain []chainStep, body string, out any) error {
	encoded, err := json.Marshal(chain)
	if err != nil {
		return fmt.Errorf("failed to encode locator: %w", err)
	}
	expr := fmt.Sprintf("(() => {%s\nconst els = __resolve(%s);\n%s\n})()", resolveScript, encoded, body)
	return p.run(p.queryTimeout, chromedp.Evaluate(expr, out))
}

func (p *chromedpPage) Navigate(ctx context.Context, url string, opts interfaces.NavigateOptions) error {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	navCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return p.waitReady(navCtx, opts.WaitUntil)
}

func (p *chromedpPage) waitReady(ctx context.Context, state interfaces.LoadState) error {
	want := "complete"
	if state == interfaces.LoadStateDOMContentLoaded {
		want = "interactive"
	}
	for {
		var ready string
		if err := chromedp.Run(ctx, chromedp.Evaluate(`document.readyState`, &ready)); err != nil {
			return err
		}
		if ready == "complete" || ready == want {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	if state != interfaces.LoadStateNetworkIdle {
		return nil
	}
	// no network tracking here; a quiet period stands in for networkidle
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(networkQuietPeriod):
		return nil
	}
}

func (p *chromedpPage) Locate(patterns ...entities.Pattern) interfaces.Locator {
	return &chromedpLocator{page: p, chain: []chainStep{{Patterns: nonNil(patterns)}}}
}

func (p *chromedpPage) Content() (string, error) {
	var html string
	err := p.run(0, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (p *chromedpPage) Title() (string, error) {
	var title string
	err := p.run(0, chromedp.Title(&title))
	return title, err
}

func (p *chromedpPage) URL() string {
	var location string
	if err := p.run(0, chromedp.Location(&location)); err != nil {
		return ""
	}
	return location
}

func (p *chromedpPage) SetViewportSize(width, height int) error {
	return p.run(0, chromedp.EmulateViewport(int64(width), int64(height)))
}

func (p *chromedpPage) WaitForLoadState(state interfaces.LoadState, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = p.queryTimeout
	}
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	return p.waitReady(ctx, state)
}

func (p *chromedpPage) WaitForTimeout(d time.Duration) {
	select {
	case <-p.ctx.Done():
	case <-time.After(d):
	}
}

func (p *chromedpPage) WaitForFunction(expression string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = p.queryTimeout
	}
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	expr := fmt.Sprintf("Boolean((%s)())", expression)
	for {
		var ok bool
		if err := chromedp.Run(ctx, chromedp.Evaluate(expr, &ok)); err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for function: %w", ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

func (p *chromedpPage) Screenshot(fullPage bool) ([]byte, error) {
	var buf []byte
	action := chromedp.CaptureScreenshot(&buf)
	if fullPage {
		// quality 100 keeps PNG encoding
		action = chromedp.FullScreenshot(&buf, 100)
	}
	err := p.run(30*time.Second, action)
	return buf, err
}

func (p *chromedpPage) Close() error {
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close chrome: %w", err)
	}
	return nil
}

type chromedpLocator struct {
	page  *chromedpPage
	chain []chainStep
}

func (l *chromedpLocator) extend(step chainStep) *chromedpLocator {
	chain := make([]chainStep, len(l.chain), len(l.chain)+1)
	copy(chain, l.chain)
	return &chromedpLocator{page: l.page, chain: append(chain, step)}
}

func (l *chromedpLocator) Count() (int, error) {
	var n int
	err := l.page.evaluate(l.chain, "return els.length;", &n)
	return n, err
}

func (l *chromedpLocator) Nth(index int) interfaces.Locator {
	return l.extend(chainStep{Nth: &index})
}

func (l *chromedpLocator) First() interfaces.Locator {
	return l.Nth(0)
}

func (l *chromedpLocator) Locate(patterns ...entities.Pattern) interfaces.Locator {
	return l.extend(chainStep{Patterns: nonNil(patterns)})
}

func (l *chromedpLocator) TextContent() (string, error) {
	var text string
	err := l.page.evaluate(l.chain, "return __single(els).textContent || '';", &text)
	return text, err
}

func (l *chromedpLocator) GetAttribute(name string) (string, error) {
	encoded, _ := json.Marshal(name)
	var value string
	err := l.page.evaluate(l.chain, fmt.Sprintf("const v = __single(els).getAttribute(%s); return v === null ? '' : v;", encoded), &value)
	return value, err
}

func (l *chromedpLocator) TagName() (string, error) {
	var tag string
	err := l.page.evaluate(l.chain, "return __single(els).tagName.toLowerCase();", &tag)
	return tag, err
}

func (l *chromedpLocator) IsVisible() (bool, error) {
	var ok bool
	err := l.page.evaluate(l.chain, "return els.length === 0 ? false : __visible(__single(els));", &ok)
	return ok, err
}

func (l *chromedpLocator) WaitVisible(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		var ok bool
		err := l.page.evaluate(l.chain, "return els.length > 0 && __visible(els[0]);", &ok)
		if err == nil && ok {
			return nil
		}
		if time.Now().After(deadline) {
			if err != nil {
				return err
			}
			return fmt.Errorf("element not visible after %s", timeout)
		}
		time.Sleep(pollInterval)
	}
}

func (l *chromedpLocator) Click(timeout time.Duration) error {
	if err := l.WaitVisible(timeout); err != nil {
		return err
	}
	var ok bool
	return l.page.evaluate(l.chain, "const el = __single(els); el.scrollIntoView({block: 'center'}); el.click(); return true;", &ok)
}

func (l *chromedpLocator) SelectOption(choice interfaces.OptionChoice) error {
	encoded, _ := json.Marshal(choice)
	body := fmt.Sprintf(`
		const el = __single(els);
		if (el.tagName !== 'SELECT') throw new Error('element is not a <select> element');
		const c = %s;
		const opt = Array.from(el.options).find(o => (c.Value && o.value === c.Value) || (c.Label && o.label.trim() === c.Label));
		if (!opt) throw new Error('no option matches');
		el.value = opt.value;
		opt.selected = true;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;`, encoded)
	var ok bool
	return l.page.evaluate(l.chain, body, &ok)
}

func nonNil(patterns []entities.Pattern) []entities.Pattern {
	if patterns == nil {
		return []entities.Pattern{}
	}
	return patterns
}
