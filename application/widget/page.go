package widget

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"events_widget/application/inspector"
	"events_widget/application/locator"
	"events_widget/domain/entities"
	"events_widget/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// DefaultURL is the address of the widget under test
const DefaultURL = "https://dev.3snet.info/eventswidget/"

const (
	visibleTimeout     = 5 * time.Second
	loadStateTimeout   = 10 * time.Second
	clickTimeout       = 5 * time.Second
	dynamicSettle      = 2 * time.Second
	interactionSettle  = time.Second
	maxEventTitles     = 10
	maxTextCandidates  = 20
	visibleTextLimit   = 100
	minVisibleTextSize = 2
)

// navigationAttempts are tried in order until one succeeds
var navigationAttempts = []interfaces.NavigateOptions{
	{WaitUntil: interfaces.LoadStateNetworkIdle, Timeout: 30 * time.Second},
	{WaitUntil: interfaces.LoadStateDOMContentLoaded, Timeout: 15 * time.Second},
	{WaitUntil: interfaces.LoadStateLoad, Timeout: 10 * time.Second},
}

// previewReadyScript is true once the preview area shows events or an empty state
const previewReadyScript = `() => {
	const preview = document.querySelector('[class*="preview"], [class*="widget-preview"], .preview-container');
	if (!preview) return false;
	const events = preview.querySelectorAll('[class*="event"], [class*="item"], .event-card');
	const emptyState = preview.querySelector('[class*="empty"], [class*="no-data"], [class*="no-events"]');
	return events.length > 0 || emptyState !== null;
}`

// Options configures an EventsWidgetPage
type Options struct {
	URL          string
	ArtifactsDir string // screenshots are written here when set
}

// EventsWidgetPage is the page object of the events widget. It owns every wait;
// the resolver and the inspector below it never wait.
type EventsWidgetPage struct {
	page      interfaces.Page
	resolver  *locator.Resolver
	inspector *inspector.Inspector
	opts      Options
	logger    *logrus.Logger
}

// NewEventsWidgetPage - creates the page object over page
func NewEventsWidgetPage(page interfaces.Page, opts Options, logger *logrus.Logger) *EventsWidgetPage {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	resolver := locator.NewResolver(page, logger)
	return &EventsWidgetPage{
		page:      page,
		resolver:  resolver,
		inspector: inspector.NewInspector(resolver, logger),
		opts:      opts,
		logger:    logger,
	}
}

// Resolver - returns the locator resolver of the page
func (w *EventsWidgetPage) Resolver() *locator.Resolver {
	return w.resolver
}

// Inspector - returns the structural inspector of the page
func (w *EventsWidgetPage) Inspector() *inspector.Inspector {
	return w.inspector
}

// URL - returns the configured widget address
func (w *EventsWidgetPage) URL() string {
	return w.opts.URL
}

// Navigate opens the widget, relaxing the load condition on each failed attempt.
// Only the error of the last attempt is returned.
func (w *EventsWidgetPage) Navigate(ctx context.Context) error {
	var err error
	for _, attempt := range navigationAttempts {
		if err = w.page.Navigate(ctx, w.opts.URL, attempt); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("navigation canceled: %w", ctx.Err())
		}
		w.logger.WithFields(logrus.Fields{
			"url":        w.opts.URL,
			"wait_until": attempt.WaitUntil,
		}).WithError(err).Warn("navigation attempt failed")
	}
	return fmt.Errorf("failed to open %s: %w", w.opts.URL, err)
}

// IsPageLoaded - reports whether the widget page is open
func (w *EventsWidgetPage) IsPageLoaded() bool {
	current := w.resolver.URL().Value
	if current != "" && (strings.Contains(current, w.opts.URL) || strings.Contains(current, "eventswidget")) {
		return true
	}
	return w.bodyVisible()
}

// Title - returns the page title, "" when unavailable
func (w *EventsWidgetPage) Title() string {
	return w.resolver.Title().Value
}

// PageInfo - returns address, title and body text size
func (w *EventsWidgetPage) PageInfo() entities.PageInfo {
	body := w.resolver.Resolve(entities.RoleBody).First().TextContent()
	return entities.PageInfo{
		URL:            w.resolver.URL().Value,
		Title:          w.Title(),
		BodyTextLength: len([]rune(body.Value)),
	}
}

// IsWidgetVisible - waits for the DOM and reports whether the body is shown
func (w *EventsWidgetPage) IsWidgetVisible() bool {
	if err := w.page.WaitForLoadState(interfaces.LoadStateDOMContentLoaded, loadStateTimeout); err != nil {
		return false
	}
	return w.bodyVisible()
}

// EventsCount - returns the number of event items after dynamic content settles
func (w *EventsWidgetPage) EventsCount() int {
	w.page.WaitForTimeout(dynamicSettle)
	return w.resolver.Resolve(entities.RoleEventItem).Count().Value
}

// EventTitles - returns up to 10 non-empty event titles
func (w *EventsWidgetPage) EventTitles() []string {
	w.page.WaitForTimeout(dynamicSettle)

	titles := make([]string, 0)
	group := w.resolver.Resolve(entities.RoleEventTitle)
	for i := 0; i < min(group.Count().Value, maxEventTitles); i++ {
		if t := strings.TrimSpace(group.Nth(i).TextContent().Value); t != "" {
			titles = append(titles, t)
		}
	}
	return titles
}

// ClickFirstEvent clicks the first event item if there is one
func (w *EventsWidgetPage) ClickFirstEvent() error {
	events := w.resolver.Resolve(entities.RoleEventItem)
	if events.Count().Value == 0 {
		return nil
	}
	if res := events.First().Click(clickTimeout); !res.OK() {
		return res.Err()
	}
	w.page.WaitForTimeout(interactionSettle)
	return nil
}

// IsResponsive - resizes the viewport and reports whether the body is still shown
func (w *EventsWidgetPage) IsResponsive(vp entities.Viewport) bool {
	if err := w.page.SetViewportSize(vp.Width, vp.Height); err != nil {
		w.logger.WithError(err).WithField("viewport", vp.Name).Debug("failed to resize viewport")
		return false
	}
	w.page.WaitForTimeout(interactionSettle)
	return w.bodyVisible()
}

// HasInteractiveElements - reports whether anything clickable is present
func (w *EventsWidgetPage) HasInteractiveElements() bool {
	return w.resolver.Resolve(entities.RoleInteractive).Count().Value > 0
}

// Content - returns the page markup, "" when unavailable
func (w *EventsWidgetPage) Content() string {
	return w.resolver.Content().Value
}

// WaitForContentLoad - waits for network idle, then lets the page settle
func (w *EventsWidgetPage) WaitForContentLoad(timeout time.Duration) {
	if err := w.page.WaitForLoadState(interfaces.LoadStateNetworkIdle, timeout); err != nil {
		return
	}
	w.page.WaitForTimeout(interactionSettle)
}

// IsGeneratePreviewButtonVisible - reports whether the generate preview button shows up
func (w *EventsWidgetPage) IsGeneratePreviewButtonVisible() bool {
	return w.resolver.Resolve(entities.RoleGeneratePreviewButton).First().WaitVisible(visibleTimeout).Value
}

// ClickGeneratePreview - clicks the generate preview button and waits for the preview to load
func (w *EventsWidgetPage) ClickGeneratePreview() bool {
	if !w.resolver.Resolve(entities.RoleGeneratePreviewButton).First().Click(clickTimeout).Value {
		return false
	}
	w.page.WaitForTimeout(dynamicSettle)
	return true
}

// SelectTheme - selects label in the theme control, or its first real option when label is empty
func (w *EventsWidgetPage) SelectTheme(label string) bool {
	return w.selectIn(locator.SlotTheme, label)
}

// SelectCountry - selects label in the country control, or its first real option when label is empty
func (w *EventsWidgetPage) SelectCountry(label string) bool {
	return w.selectIn(locator.SlotCountry, label)
}

func (w *EventsWidgetPage) selectIn(slot locator.ControlSlot, label string) bool {
	control, ok := w.resolver.Control(slot)
	if !ok {
		return false
	}

	choice := interfaces.OptionChoice{Label: label}
	if label == "" {
		// option 0 is the placeholder
		options := control.Options()
		if options.Count().Value <= 1 {
			return false
		}
		value := options.Nth(1).Attribute("value").Value
		if value == "" {
			return false
		}
		choice = interfaces.OptionChoice{Value: value}
	}

	if !control.SelectOption(choice).Value {
		return false
	}
	w.logger.WithFields(logrus.Fields{"control": slot.String(), "value": choice.Value, "label": choice.Label}).Debug("option selected")
	w.page.WaitForTimeout(interactionSettle)
	return true
}

// IsPreviewAreaVisible - reports whether the preview area shows up
func (w *EventsWidgetPage) IsPreviewAreaVisible() bool {
	return w.resolver.Resolve(entities.RolePreviewArea).First().WaitVisible(visibleTimeout).Value
}

// IsPreviewEmpty - reports an empty state or a preview without events. Unknown counts as empty.
func (w *EventsWidgetPage) IsPreviewEmpty() bool {
	empty := w.resolver.Resolve(entities.RoleEmptyState).Count()
	if !empty.OK() || empty.Value > 0 {
		return true
	}
	events := w.previewEvents().Count()
	return !events.OK() || events.Value == 0
}

// PreviewEventsCount - returns the number of events inside the preview area
func (w *EventsWidgetPage) PreviewEventsCount() int {
	if !w.IsPreviewAreaVisible() {
		return 0
	}
	return w.previewEvents().Count().Value
}

func (w *EventsWidgetPage) previewEvents() locator.Group {
	return w.resolver.Resolve(entities.RolePreviewArea).WithinRole(entities.RolePreviewEvent)
}

// HasThemeSelector - reports whether a theme control exists
func (w *EventsWidgetPage) HasThemeSelector() bool {
	_, ok := w.resolver.Control(locator.SlotTheme)
	return ok
}

// HasCountrySelector - reports whether a country control exists
func (w *EventsWidgetPage) HasCountrySelector() bool {
	_, ok := w.resolver.Control(locator.SlotCountry)
	return ok
}

// ThemeOptions - returns the theme option entries
func (w *EventsWidgetPage) ThemeOptions() []entities.OptionEntry {
	return w.inspector.ThemeOptions()
}

// CountryOptions - returns the country option entries
func (w *EventsWidgetPage) CountryOptions() []entities.OptionEntry {
	return w.inspector.CountryOptions()
}

// WaitForPreviewGeneration - waits until the preview shows events or an empty state
func (w *EventsWidgetPage) WaitForPreviewGeneration(timeout time.Duration) bool {
	if err := w.page.WaitForFunction(previewReadyScript, timeout); err != nil {
		w.logger.WithError(err).Debug("preview did not settle")
		return false
	}
	return true
}

// ErrorMessage - returns the text of the first error indicator, "" when there is none.
// Indicator patterns are tried one by one, not as a union.
func (w *EventsWidgetPage) ErrorMessage() string {
	for _, p := range w.resolver.Patterns(entities.RoleErrorIndicator) {
		group := w.resolver.Query(entities.RoleErrorIndicator, p)
		if group.Count().Value > 0 {
			return group.First().TextContent().Value
		}
	}
	return ""
}

// DebugPageStructure - returns a structural snapshot of the page
func (w *EventsWidgetPage) DebugPageStructure() entities.DebugSnapshot {
	return w.inspector.Snapshot()
}

// HasClearButtons - reports whether any clear button exists
func (w *EventsWidgetPage) HasClearButtons() bool {
	return w.resolver.Resolve(entities.RoleClearButton).Count().Value > 0
}

// ClickClearCountry clicks the clear button next to the country control,
// falling back to the first generic clear button
func (w *EventsWidgetPage) ClickClearCountry() bool {
	target := w.resolver.Resolve(entities.RoleClearCountryButton)
	if target.Count().Value == 0 {
		target = w.resolver.Resolve(entities.RoleClearButton)
		if target.Count().Value == 0 {
			return false
		}
	}
	if !target.First().Click(clickTimeout).Value {
		return false
	}
	w.page.WaitForTimeout(interactionSettle)
	return true
}

// CheckTextOverlapping - returns the overlap report of the page
func (w *EventsWidgetPage) CheckTextOverlapping() entities.OverlapReport {
	return w.inspector.CheckOverlap()
}

// VisibleTextElements - returns texts of the first visible text candidates
func (w *EventsWidgetPage) VisibleTextElements() []string {
	texts := make([]string, 0)
	candidates := w.resolver.Resolve(entities.RoleVisibleTextCandidate)
	for i := 0; i < min(candidates.Count().Value, maxTextCandidates); i++ {
		el := candidates.Nth(i)
		if !el.IsVisible().Value {
			continue
		}
		t := strings.TrimSpace(el.TextContent().Value)
		if len([]rune(t)) > minVisibleTextSize {
			texts = append(texts, truncate(t, visibleTextLimit))
		}
	}
	return texts
}

// Screenshot captures the full page and, when an artifacts directory is configured, writes it as name
func (w *EventsWidgetPage) Screenshot(name string) ([]byte, error) {
	png, err := w.page.Screenshot(true)
	if err != nil {
		return nil, fmt.Errorf("failed to take screenshot: %w", err)
	}
	if w.opts.ArtifactsDir == "" {
		return png, nil
	}

	if err := os.MkdirAll(w.opts.ArtifactsDir, 0o755); err != nil {
		return png, fmt.Errorf("failed to create artifacts dir: %w", err)
	}
	path := filepath.Join(w.opts.ArtifactsDir, name)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return png, fmt.Errorf("failed to write screenshot: %w", err)
	}
	return png, nil
}

func (w *EventsWidgetPage) bodyVisible() bool {
	return w.resolver.Resolve(entities.RoleBody).First().WaitVisible(visibleTimeout).Value
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Wait - pauses for d to let the page apply changes
func (w *EventsWidgetPage) Wait(d time.Duration) {
	w.page.WaitForTimeout(d)
}
