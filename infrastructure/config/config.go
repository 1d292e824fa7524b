package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"events_widget/domain/entities"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Commands of the CLI
const (
	CommandList    = "list"
	CommandRun     = "run"
	CommandInspect = "inspect"
)

// Drivers
const (
	DriverPlaywright = "playwright"
	DriverChromedp   = "chromedp"
	DriverStatic     = "static"
)

// Options holds all command-line options. Every option can also come from the environment or .env.
type Options struct {
	URL          string        `long:"url" env:"WIDGET_URL" default:"https://dev.3snet.info/eventswidget/" description:"widget address"`
	Driver       string        `long:"driver" env:"DRIVER" default:"playwright" choice:"playwright" choice:"chromedp" choice:"static" description:"browser backend"`
	Browser      string        `short:"b" long:"browser" env:"BROWSER" default:"chromium" choice:"chromium" choice:"firefox" choice:"webkit" description:"browser engine"`
	Headed       bool          `long:"headed" env:"HEADED" description:"show the browser window"`
	SlowMo       time.Duration `long:"slow-mo" env:"SLOW_MO" description:"delay between browser operations"`
	Install      bool          `long:"install" env:"PLAYWRIGHT_INSTALL" description:"install playwright browsers before the run"`
	QueryTimeout time.Duration `long:"query-timeout" env:"QUERY_TIMEOUT" default:"5s" description:"timeout of a single element read"`
	LoadBudget   time.Duration `long:"load-budget" env:"LOAD_BUDGET" default:"30s" description:"page load time limit"`

	ResultsDir   string `long:"results-dir" env:"ALLURE_RESULTS_DIR" default:"allure-results" description:"allure results directory"`
	ArtifactsDir string `long:"artifacts-dir" env:"ARTIFACTS_DIR" default:"artifacts" description:"screenshot directory"`

	Workers int      `short:"n" long:"workers" env:"WORKERS" default:"1" description:"parallel browser sessions"`
	Markers []string `short:"m" long:"marker" env:"MARKERS" env-delim:"," choice:"smoke" choice:"regression" choice:"ui" description:"run scenarios with marker (repeatable)"`
	Keyword string   `short:"k" long:"keyword" env:"KEYWORD" description:"run scenarios whose name contains keyword"`

	Debug   bool `short:"d" long:"debug" description:"enable debug logging"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`

	// Command is the first positional argument, run when omitted
	Command string `no-flag:"true"`
}

// Parse loads envFile (".env" when empty, a missing file is fine) and parses args.
// A help request is returned as a *flags.Error of type flags.ErrHelp.
func Parse(args []string, envFile string) (*Options, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	var o Options
	parser := flags.NewParser(&o, flags.HelpFlag|flags.PassDoubleDash)
	parser.Usage = "[OPTIONS] [list|run|inspect]"

	rest, err := parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	o.Command = CommandRun
	if len(rest) > 0 {
		o.Command = rest[0]
	}
	if len(rest) > 1 {
		return nil, fmt.Errorf("unexpected arguments: %v", rest[1:])
	}

	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &o, nil
}

// Validate - checks option combinations
func (o *Options) Validate() error {
	switch o.Command {
	case CommandList, CommandRun, CommandInspect:
	default:
		return fmt.Errorf("unknown command %q", o.Command)
	}
	if o.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", o.Workers)
	}
	if o.Driver == DriverChromedp && o.Browser != "chromium" {
		return fmt.Errorf("driver %s supports only chromium, got %s", DriverChromedp, o.Browser)
	}
	if o.LoadBudget <= 0 {
		return fmt.Errorf("load budget must be positive, got %s", o.LoadBudget)
	}
	return nil
}

// MarkerSet - returns the selected markers
func (o *Options) MarkerSet() []entities.Marker {
	markers := make([]entities.Marker, 0, len(o.Markers))
	for _, m := range o.Markers {
		markers = append(markers, entities.Marker(m))
	}
	return markers
}

// Environment - returns run properties for the report
func (o *Options) Environment() map[string]string {
	return map[string]string{
		"url":      o.URL,
		"driver":   o.Driver,
		"browser":  o.Browser,
		"headless": fmt.Sprintf("%t", !o.Headed),
		"workers":  fmt.Sprintf("%d", o.Workers),
	}
}
