package terminal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"events_widget/application/suite"
	"events_widget/application/widget"
	"events_widget/domain/entities"
	"events_widget/domain/interfaces"
	"events_widget/infrastructure/browser"
	"events_widget/infrastructure/config"
	"events_widget/infrastructure/logger"
	"events_widget/infrastructure/storage"

	"github.com/sirupsen/logrus"
)

// ErrScenariosFailed is returned by run when at least one scenario failed
var ErrScenariosFailed = errors.New("scenarios failed")

type TerminalInterface struct {
	opts    *config.Options
	logger  *logrus.Logger
	colors  *logger.Colors
	out     io.Writer
	browser interfaces.Browser
}

// NewTerminalInterface - creates the CLI for opts, printing to out
func NewTerminalInterface(opts *config.Options, out io.Writer) *TerminalInterface {
	return &TerminalInterface{
		opts:   opts,
		logger: logger.New(opts.Debug, out),
		colors: logger.NewColors(opts.NoColor),
		out:    out,
	}
}

// Run executes the selected command
func (t *TerminalInterface) Run(ctx context.Context) error {
	switch t.opts.Command {
	case config.CommandList:
		return t.list()
	case config.CommandInspect:
		return t.inspect(ctx)
	}
	return t.run(ctx)
}

// Close - releases the browser, if one was started
func (t *TerminalInterface) Close() error {
	if t.browser == nil {
		return nil
	}
	err := t.browser.Close()
	t.browser = nil
	return err
}

func (t *TerminalInterface) selected() []suite.Scenario {
	return suite.Select(suite.Catalog(t.opts.LoadBudget), suite.Filter{
		Markers: t.opts.MarkerSet(),
		Keyword: t.opts.Keyword,
	})
}

func (t *TerminalInterface) list() error {
	for _, sc := range t.selected() {
		markers := make([]string, 0, len(sc.Info.Markers))
		for _, m := range sc.Info.Markers {
			markers = append(markers, string(m))
		}
		fmt.Fprintf(t.out, "%-45s %-14s %-9s %s\n",
			t.colors.Title("%s", sc.Info.Name), sc.Info.Group, sc.Info.Severity, t.colors.Info("[%s]", strings.Join(markers, ",")))
	}
	return nil
}

func (t *TerminalInterface) run(ctx context.Context) error {
	scenarios := t.selected()
	if len(scenarios) == 0 {
		fmt.Fprintln(t.out, t.colors.Warn("no scenarios match the filter"))
		return nil
	}

	b, err := t.startBrowser()
	if err != nil {
		return err
	}

	store, err := storage.NewEvidenceStore(t.opts.ResultsDir, t.logger)
	if err != nil {
		return err
	}
	if err := store.WriteEnvironment(t.opts.Environment()); err != nil {
		t.logger.WithError(err).Warn("environment properties not written")
	}

	fmt.Fprintln(t.out, t.colors.Title("Events Widget: %d scenarios on %s/%s", len(scenarios), t.opts.Driver, b.Name()))

	runner := suite.NewRunner(b, store, suite.Options{
		URL:          t.opts.URL,
		ArtifactsDir: t.opts.ArtifactsDir,
		Workers:      t.opts.Workers,
		OnResult:     t.printResult,
	}, t.logger)

	summary, err := runner.Run(ctx, scenarios)
	t.printSummary(summary)
	if err != nil {
		return err
	}
	if summary.Failed() {
		return ErrScenariosFailed
	}
	return nil
}

func (t *TerminalInterface) inspect(ctx context.Context) error {
	b, err := t.startBrowser()
	if err != nil {
		return err
	}

	page, err := b.NewPage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	wp := widget.NewEventsWidgetPage(page, widget.Options{URL: t.opts.URL, ArtifactsDir: t.opts.ArtifactsDir}, t.logger)
	if err := wp.Navigate(ctx); err != nil {
		return err
	}

	report := struct {
		Snapshot entities.DebugSnapshot `json:"snapshot"`
		Overlap  entities.OverlapReport `json:"overlap"`
		Themes   []entities.OptionEntry `json:"theme_options"`
		Country  []entities.OptionEntry `json:"country_options"`
	}{
		Snapshot: wp.DebugPageStructure(),
		Overlap:  wp.CheckTextOverlapping(),
		Themes:   wp.ThemeOptions(),
		Country:  wp.CountryOptions(),
	}

	enc := json.NewEncoder(t.out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func (t *TerminalInterface) startBrowser() (interfaces.Browser, error) {
	launch := browser.LaunchOptions{
		Engine:       t.opts.Browser,
		Headless:     !t.opts.Headed,
		SlowMo:       t.opts.SlowMo,
		Install:      t.opts.Install,
		QueryTimeout: t.opts.QueryTimeout,
	}

	var (
		b   interfaces.Browser
		err error
	)
	switch t.opts.Driver {
	case config.DriverChromedp:
		b, err = browser.NewChromedpController(launch, t.logger)
	case config.DriverStatic:
		b = browser.NewStaticBrowser(t.logger)
	default:
		b, err = browser.NewBrowserController(launch, t.logger)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}
	t.browser = b
	return b, nil
}

func (t *TerminalInterface) printResult(res entities.ScenarioResult) {
	line := fmt.Sprintf("%s %-45s %6.1fs", t.colors.Outcome(res.Outcome), res.Info.Name, res.Duration.Seconds())
	if res.Message != "" && res.Outcome != entities.OutcomePassed {
		line += "  " + headline(res.Message)
	}
	fmt.Fprintln(t.out, line)
}

func (t *TerminalInterface) printSummary(s suite.Summary) {
	fmt.Fprintln(t.out)
	fmt.Fprintf(t.out, "%s: %d passed, %d failed, %d xfailed, %d skipped\n",
		t.colors.Title("Итого"),
		s.Counts[entities.OutcomePassed], s.Counts[entities.OutcomeFailed],
		s.Counts[entities.OutcomeXFailed], s.Counts[entities.OutcomeSkipped])
	fmt.Fprintln(t.out, t.colors.Info("results: %s", t.opts.ResultsDir))
}

// headline picks the most telling line of a multi-line assertion message
func headline(s string) string {
	lines := strings.Split(s, "\n")
	for _, prefix := range []string{"Messages:", "Error:"} {
		for _, line := range lines {
			if _, after, ok := strings.Cut(line, prefix); ok {
				return strings.TrimSpace(after)
			}
		}
	}
	return firstLine(s)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
