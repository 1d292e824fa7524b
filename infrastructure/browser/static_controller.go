package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"events_widget/domain/entities"
	"events_widget/domain/interfaces"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// ErrNoDocument is returned by static pages queried before a successful navigation
var ErrNoDocument = errors.New("no document loaded")

// ErrNoElement is returned when an element operation finds nothing to act on
var ErrNoElement = errors.New("no element matches")

// nearDepth is how many ancestors are searched for a Near anchor
const nearDepth = 1

type staticBrowser struct {
	client *http.Client
	logger *logrus.Logger
}

// NewStaticBrowser - creates a browser that fetches HTML without running scripts.
// Patterns are evaluated against the parsed markup.
func NewStaticBrowser(logger *logrus.Logger) interfaces.Browser {
	return &staticBrowser{
		client: &http.Client{},
		logger: logger,
	}
}

func (b *staticBrowser) Name() string {
	return "static"
}

func (b *staticBrowser) NewPage(ctx context.Context) (interfaces.Page, error) {
	return &StaticPage{client: b.client, viewport: entities.ViewportDesktop}, nil
}

func (b *staticBrowser) Close() error {
	return nil
}

// StaticPage is a page backed by a parsed HTML document
type StaticPage struct {
	mu       sync.Mutex
	client   *http.Client
	url      string
	doc      *goquery.Document
	viewport entities.Viewport
}

// NewStaticPage - creates a page with markup already loaded, as if navigated to rawURL
func NewStaticPage(rawURL, markup string) (*StaticPage, error) {
	p := &StaticPage{client: &http.Client{}, viewport: entities.ViewportDesktop}
	if err := p.load(rawURL, strings.NewReader(markup)); err != nil {
		return nil, err
	}
	return p, nil
}

// Navigate - loads an http(s) or file URL
func (p *StaticPage) Navigate(ctx context.Context, rawURL string, opts interfaces.NavigateOptions) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	if u.Scheme == "file" {
		f, err := os.Open(u.Path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", u.Path, err)
		}
		defer f.Close()
		return p.load(rawURL, f)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	return p.load(resp.Request.URL.String(), resp.Body)
}

func (p *StaticPage) load(rawURL string, r io.Reader) error {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.doc = doc
	p.url = rawURL
	return nil
}

func (p *StaticPage) document() (*goquery.Document, error) {
	if p.doc == nil {
		return nil, ErrNoDocument
	}
	return p.doc, nil
}

// Locate - returns a lazy group over the whole document
func (p *StaticPage) Locate(patterns ...entities.Pattern) interfaces.Locator {
	return &staticLocator{page: p, resolve: func() ([]*html.Node, error) {
		doc, err := p.document()
		if err != nil {
			return nil, err
		}
		return matchPatterns(doc, []*html.Node{doc.Nodes[0]}, patterns)
	}}
}

func (p *StaticPage) Content() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	doc, err := p.document()
	if err != nil {
		return "", err
	}
	return doc.Html()
}

func (p *StaticPage) Title() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	doc, err := p.document()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(doc.Find("title").First().Text()), nil
}

func (p *StaticPage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *StaticPage) SetViewportSize(width, height int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewport = entities.Viewport{Width: width, Height: height}
	return nil
}

// WaitForLoadState - a parsed document is always fully loaded
func (p *StaticPage) WaitForLoadState(state interfaces.LoadState, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.document()
	return err
}

// WaitForTimeout - static documents never change, so there is nothing to wait for
func (p *StaticPage) WaitForTimeout(d time.Duration) {}

func (p *StaticPage) WaitForFunction(expression string, timeout time.Duration) error {
	return fmt.Errorf("wait for function: %w", interfaces.ErrUnsupported)
}

func (p *StaticPage) Screenshot(fullPage bool) ([]byte, error) {
	return nil, fmt.Errorf("screenshot: %w", interfaces.ErrUnsupported)
}

func (p *StaticPage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.doc = nil
	return nil
}

type staticLocator struct {
	page    *StaticPage
	resolve func() ([]*html.Node, error)
}

func (l *staticLocator) derive(step func([]*html.Node) ([]*html.Node, error)) *staticLocator {
	parent := l.resolve
	return &staticLocator{page: l.page, resolve: func() ([]*html.Node, error) {
		nodes, err := parent()
		if err != nil {
			return nil, err
		}
		return step(nodes)
	}}
}

func (l *staticLocator) nodes() ([]*html.Node, error) {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	return l.resolve()
}

// single resolves the group under strict rules: exactly one element
func (l *staticLocator) single() (*html.Node, error) {
	nodes, err := l.resolve()
	if err != nil {
		return nil, err
	}
	switch len(nodes) {
	case 0:
		return nil, ErrNoElement
	case 1:
		return nodes[0], nil
	}
	return nil, fmt.Errorf("strict mode violation: %d elements match", len(nodes))
}

func (l *staticLocator) Count() (int, error) {
	nodes, err := l.nodes()
	return len(nodes), err
}

func (l *staticLocator) Nth(index int) interfaces.Locator {
	return l.derive(func(nodes []*html.Node) ([]*html.Node, error) {
		i := index
		if i < 0 {
			i += len(nodes)
		}
		if i < 0 || i >= len(nodes) {
			return nil, nil
		}
		return nodes[i : i+1], nil
	})
}

func (l *staticLocator) First() interfaces.Locator {
	return l.Nth(0)
}

func (l *staticLocator) Locate(patterns ...entities.Pattern) interfaces.Locator {
	return l.derive(func(nodes []*html.Node) ([]*html.Node, error) {
		doc, err := l.page.document()
		if err != nil {
			return nil, err
		}
		return matchPatterns(doc, nodes, patterns)
	})
}

func (l *staticLocator) TextContent() (string, error) {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	n, err := l.single()
	if err != nil {
		return "", err
	}
	return goquery.NewDocumentFromNode(n).Text(), nil
}

func (l *staticLocator) GetAttribute(name string) (string, error) {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	n, err := l.single()
	if err != nil {
		return "", err
	}
	v, _ := attr(n, name)
	return v, nil
}

func (l *staticLocator) TagName() (string, error) {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	n, err := l.single()
	if err != nil {
		return "", err
	}
	return strings.ToLower(n.Data), nil
}

func (l *staticLocator) IsVisible() (bool, error) {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	nodes, err := l.resolve()
	if err != nil {
		return false, err
	}
	switch len(nodes) {
	case 0:
		return false, nil
	case 1:
		return visible(nodes[0]), nil
	}
	return false, fmt.Errorf("strict mode violation: %d elements match", len(nodes))
}

func (l *staticLocator) WaitVisible(timeout time.Duration) error {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	nodes, err := l.resolve()
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return fmt.Errorf("waiting for element to be visible: %w", ErrNoElement)
	}
	if !visible(nodes[0]) {
		return errors.New("waiting for element to be visible: element is hidden")
	}
	return nil
}

// Click - checks that a click would land on a single visible element. Static pages run no handlers.
func (l *staticLocator) Click(timeout time.Duration) error {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	n, err := l.single()
	if err != nil {
		return err
	}
	if !visible(n) {
		return errors.New("element is not visible")
	}
	return nil
}

func (l *staticLocator) SelectOption(choice interfaces.OptionChoice) error {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	n, err := l.single()
	if err != nil {
		return err
	}
	if !strings.EqualFold(n.Data, "select") {
		return fmt.Errorf("element is not a <select> element: <%s>", n.Data)
	}

	sel := goquery.NewDocumentFromNode(n).Find("option")
	var target *html.Node
	sel.EachWithBreak(func(_ int, opt *goquery.Selection) bool {
		value, ok := opt.Attr("value")
		if !ok {
			value = strings.TrimSpace(opt.Text())
		}
		label := strings.TrimSpace(opt.Text())
		if (choice.Value != "" && value == choice.Value) || (choice.Label != "" && label == choice.Label) {
			target = opt.Nodes[0]
			return false
		}
		return true
	})
	if target == nil {
		return fmt.Errorf("no option matches value=%q label=%q", choice.Value, choice.Label)
	}

	sel.RemoveAttr("selected")
	goquery.NewDocumentFromNode(target).SetAttr("selected", "selected")
	return nil
}

// matchPatterns returns elements under any of roots matching any pattern, in document order
func matchPatterns(doc *goquery.Document, roots []*html.Node, patterns []entities.Pattern) ([]*html.Node, error) {
	matched := make(map[*html.Node]bool)
	for _, p := range patterns {
		for _, root := range roots {
			nodes, err := matchPattern(doc, root, p)
			if err != nil {
				return nil, err
			}
			for _, n := range nodes {
				matched[n] = true
			}
		}
	}
	return inDocumentOrder(doc.Nodes[0], matched), nil
}

func matchPattern(doc *goquery.Document, root *html.Node, p entities.Pattern) ([]*html.Node, error) {
	scope := goquery.NewDocumentFromNode(root)

	switch p.Kind {
	case entities.PatternText:
		want := normalizeSpace(p.Expr)
		return deepest(scope, func(n *html.Node) bool {
			return normalizeSpace(visibleText(n)) == want
		}), nil

	case entities.PatternTextMatch:
		re, err := compileText(p.Expr, p.IgnoreCase)
		if err != nil {
			return nil, err
		}
		return deepest(scope, func(n *html.Node) bool {
			return re.MatchString(normalizeSpace(visibleText(n)))
		}), nil
	}

	compiled, err := cascadia.Compile(p.Expr)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", p.Expr, err)
	}
	found := scope.FindMatcher(compiled)

	if p.HasText != "" {
		needle := strings.ToLower(normalizeSpace(p.HasText))
		found = found.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return strings.Contains(strings.ToLower(normalizeSpace(visibleText(s.Nodes[0]))), needle)
		})
	}
	if p.HasTextMatch != "" {
		re, err := compileText(p.HasTextMatch, false)
		if err != nil {
			return nil, err
		}
		found = found.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return re.MatchString(visibleText(s.Nodes[0]))
		})
	}
	if p.Near != "" {
		anchor, err := cascadia.Compile(p.Near)
		if err != nil {
			return nil, fmt.Errorf("invalid near selector %q: %w", p.Near, err)
		}
		found = found.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return nearAnchor(s.Nodes[0], anchor)
		})
	}
	return found.Nodes, nil
}

func compileText(expr string, ignoreCase bool) (*regexp.Regexp, error) {
	if ignoreCase {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid text pattern %q: %w", expr, err)
	}
	return re, nil
}

// deepest returns matching elements that have no matching element child
func deepest(scope *goquery.Document, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	scope.Find("*").Each(func(_ int, s *goquery.Selection) {
		n := s.Nodes[0]
		if skipText(n) || !match(n) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && !skipText(c) && match(c) {
				return
			}
		}
		out = append(out, n)
	})
	return out
}

// nearAnchor approximates layout proximity: an anchor within the element or its parent
func nearAnchor(n *html.Node, anchor cascadia.Selector) bool {
	cur := n
	for i := 0; i <= nearDepth && cur != nil; i++ {
		for _, a := range anchor.MatchAll(cur) {
			if a != n {
				return true
			}
		}
		cur = cur.Parent
	}
	return false
}

func inDocumentOrder(root *html.Node, set map[*html.Node]bool) []*html.Node {
	out := make([]*html.Node, 0, len(set))
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && set[n] {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// visibleText concatenates rendered text, skipping script-like subtrees
func visibleText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && skipText(n) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func skipText(n *html.Node) bool {
	switch strings.ToLower(n.Data) {
	case "script", "style", "noscript", "template", "head", "title":
		return true
	}
	return false
}

// visible approximates rendering: hidden attributes and inline styles only
func visible(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if skipText(cur) {
			return false
		}
		if _, ok := attr(cur, "hidden"); ok {
			return false
		}
		if typ, _ := attr(cur, "type"); strings.EqualFold(cur.Data, "input") && strings.EqualFold(typ, "hidden") {
			return false
		}
		style, _ := attr(cur, "style")
		style = strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
