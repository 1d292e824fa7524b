package suite

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"events_widget/application/widget"
	"events_widget/domain/entities"
	"events_widget/domain/interfaces"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Scenario is one end-to-end check of the widget
type Scenario struct {
	Info entities.ScenarioInfo
	Run  func(c *Context)
}

// Filter selects scenarios by marker and by name substring. The zero Filter selects everything.
type Filter struct {
	Markers []entities.Marker
	Keyword string
}

// Match - reports whether info passes the filter
func (f Filter) Match(info entities.ScenarioInfo) bool {
	if f.Keyword != "" {
		kw := strings.ToLower(f.Keyword)
		if !strings.Contains(strings.ToLower(info.Name), kw) && !strings.Contains(strings.ToLower(info.Title), kw) {
			return false
		}
	}
	if len(f.Markers) == 0 {
		return true
	}
	for _, m := range f.Markers {
		if info.HasMarker(m) {
			return true
		}
	}
	return false
}

// Select - returns the scenarios matching f, in order
func Select(scenarios []Scenario, f Filter) []Scenario {
	selected := make([]Scenario, 0, len(scenarios))
	for _, sc := range scenarios {
		if f.Match(sc.Info) {
			selected = append(selected, sc)
		}
	}
	return selected
}

// Options configures a Runner
type Options struct {
	URL          string
	ArtifactsDir string
	Workers      int
	// OnResult is called once per finished scenario, never concurrently
	OnResult func(entities.ScenarioResult)
}

// Summary aggregates the results of a run in scenario order
type Summary struct {
	Results []entities.ScenarioResult
	Counts  map[entities.Outcome]int
}

// Failed - reports whether any scenario failed
func (s Summary) Failed() bool {
	return s.Counts[entities.OutcomeFailed] > 0
}

// Runner executes scenarios, each on its own page
type Runner struct {
	browser interfaces.Browser
	store   interfaces.EvidenceStore
	opts    Options
	logger  *logrus.Logger
	mu      sync.Mutex
}

// NewRunner - creates a runner over browser, writing evidence to store
func NewRunner(browser interfaces.Browser, store interfaces.EvidenceStore, opts Options, logger *logrus.Logger) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{browser: browser, store: store, opts: opts, logger: logger}
}

// Run executes scenarios on up to Workers parallel sessions.
// It returns an error only when ctx is canceled; scenario failures are reported in the Summary.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) (Summary, error) {
	results := make([]entities.ScenarioResult, len(scenarios))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for i, sc := range scenarios {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = r.RunScenario(gctx, sc)
			r.report(results[i])
			return nil
		})
	}
	_ = g.Wait()

	summary := Summary{Results: make([]entities.ScenarioResult, 0, len(results)), Counts: map[entities.Outcome]int{}}
	for _, res := range results {
		if res.Outcome == "" {
			continue
		}
		summary.Results = append(summary.Results, res)
		summary.Counts[res.Outcome]++
	}

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("run canceled: %w", err)
	}
	return summary, nil
}

// RunScenario executes one scenario in a fresh page that is closed whatever the outcome
func (r *Runner) RunScenario(ctx context.Context, sc Scenario) entities.ScenarioResult {
	log := r.logger.WithFields(logrus.Fields{
		"scenario": sc.Info.Name,
		"browser":  r.browser.Name(),
	})
	result := entities.ScenarioResult{Info: sc.Info, Browser: r.browser.Name(), Start: time.Now()}

	record := r.store.Open(sc.Info, r.browser.Name())
	record.AttachText("Браузер", strings.ToUpper(r.browser.Name()))

	page, err := r.browser.NewPage(ctx)
	if err != nil {
		result.Outcome = entities.OutcomeFailed
		result.Message = fmt.Sprintf("failed to open page: %v", err)
	} else {
		defer func() {
			if err := page.Close(); err != nil {
				log.WithError(err).Warn("failed to close page")
			}
		}()

		wp := widget.NewEventsWidgetPage(page, widget.Options{URL: r.opts.URL, ArtifactsDir: r.opts.ArtifactsDir}, r.logger)
		c := newContext(ctx, wp, record, log)
		result.Outcome, result.Message = execute(c, sc)

		if result.Outcome == entities.OutcomeFailed {
			c.AttachScreenshot(fmt.Sprintf("screenshot_%s_%s", r.browser.Name(), sc.Info.Name),
				fmt.Sprintf("failure_%s_%s.png", r.browser.Name(), sc.Info.Name))
		}
	}

	result.Duration = time.Since(result.Start)
	if err := record.Finish(result); err != nil {
		log.WithError(err).Error("failed to store result")
	}

	log.WithFields(logrus.Fields{
		"outcome":  result.Outcome,
		"duration": result.Duration.Round(time.Millisecond),
	}).Debug("scenario finished")
	return result
}

// execute runs the scenario body, translating unwinds and panics into an outcome
func execute(c *Context, sc Scenario) (outcome entities.Outcome, message string) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if s, ok := rec.(stop); ok {
			outcome, message = s.outcome, s.message
			return
		}
		outcome, message = entities.OutcomeFailed, fmt.Sprintf("panic: %v", rec)
	}()

	sc.Run(c)
	if c.failed() {
		return entities.OutcomeFailed, c.failureMessage()
	}
	return entities.OutcomePassed, ""
}

func (r *Runner) report(res entities.ScenarioResult) {
	if r.opts.OnResult == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts.OnResult(res)
}
