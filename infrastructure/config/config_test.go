package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"events_widget/domain/entities"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"WIDGET_URL", "DRIVER", "BROWSER", "HEADED", "SLOW_MO", "PLAYWRIGHT_INSTALL", "QUERY_TIMEOUT",
	"LOAD_BUDGET", "ALLURE_RESULTS_DIR", "ARTIFACTS_DIR", "WORKERS", "MARKERS", "KEYWORD", "NO_COLOR",
}

// clearEnv unsets every option variable for the test and restores them afterwards
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestParse_Defaults(t *testing.T) {
	clearEnv(t)

	opts, err := Parse(nil, noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, CommandRun, opts.Command)
	assert.Equal(t, "https://dev.3snet.info/eventswidget/", opts.URL)
	assert.Equal(t, DriverPlaywright, opts.Driver)
	assert.Equal(t, "chromium", opts.Browser)
	assert.False(t, opts.Headed)
	assert.Equal(t, 5*time.Second, opts.QueryTimeout)
	assert.Equal(t, 30*time.Second, opts.LoadBudget)
	assert.Equal(t, "allure-results", opts.ResultsDir)
	assert.Equal(t, "artifacts", opts.ArtifactsDir)
	assert.Equal(t, 1, opts.Workers)
	assert.Empty(t, opts.MarkerSet())
	assert.Empty(t, opts.Keyword)
}

func TestParse_Flags(t *testing.T) {
	clearEnv(t)

	opts, err := Parse([]string{
		"-b", "firefox", "-n", "3", "-m", "smoke", "-m", "ui", "-k", "bug",
		"--headed", "--slow-mo", "250ms", "--url", "http://localhost:8080/eventswidget/", "list",
	}, noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, CommandList, opts.Command)
	assert.Equal(t, "firefox", opts.Browser)
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, []entities.Marker{entities.MarkerSmoke, entities.MarkerUI}, opts.MarkerSet())
	assert.Equal(t, "bug", opts.Keyword)
	assert.True(t, opts.Headed)
	assert.Equal(t, 250*time.Millisecond, opts.SlowMo)
	assert.Equal(t, "http://localhost:8080/eventswidget/", opts.URL)
}

func TestParse_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("DRIVER", "static")
	t.Setenv("WORKERS", "2")
	t.Setenv("MARKERS", "smoke,regression")
	t.Setenv("BROWSER", "webkit")

	opts, err := Parse([]string{"inspect"}, noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, CommandInspect, opts.Command)
	assert.Equal(t, DriverStatic, opts.Driver)
	assert.Equal(t, 2, opts.Workers)
	assert.Equal(t, []entities.Marker{entities.MarkerSmoke, entities.MarkerRegression}, opts.MarkerSet())
	assert.Equal(t, "webkit", opts.Browser)

	opts, err = Parse([]string{"-b", "firefox"}, noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "firefox", opts.Browser, "flags take precedence over the environment")
}

func TestParse_EnvFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("WIDGET_URL=http://widget.local/eventswidget/\nLOAD_BUDGET=45s\n"), 0o600))

	opts, err := Parse(nil, envFile)
	require.NoError(t, err)
	assert.Equal(t, "http://widget.local/eventswidget/", opts.URL)
	assert.Equal(t, 45*time.Second, opts.LoadBudget)
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"unknown command", []string{"deploy"}, `unknown command "deploy"`},
		{"extra arguments", []string{"run", "extra"}, "unexpected arguments"},
		{"chromedp needs chromium", []string{"--driver", "chromedp", "-b", "firefox"}, "supports only chromium"},
		{"workers", []string{"-n", "0"}, "workers must be positive"},
		{"load budget", []string{"--load-budget", "0s"}, "load budget must be positive"},
		{"bad browser", []string{"-b", "opera"}, "opera"},
		{"bad marker", []string{"-m", "nightly"}, "nightly"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Parse(tc.args, noEnvFile(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParse_Help(t *testing.T) {
	clearEnv(t)

	_, err := Parse([]string{"--help"}, noEnvFile(t))
	var flagsErr *flags.Error
	require.True(t, errors.As(err, &flagsErr))
	assert.Equal(t, flags.ErrHelp, flagsErr.Type)
	assert.Contains(t, flagsErr.Message, "list|run|inspect")
}

func TestOptions_Environment(t *testing.T) {
	opts := Options{URL: "http://widget.local/", Driver: DriverChromedp, Browser: "chromium", Workers: 4}
	assert.Equal(t, map[string]string{
		"url":      "http://widget.local/",
		"driver":   "chromedp",
		"browser":  "chromium",
		"headless": "true",
		"workers":  "4",
	}, opts.Environment())
}
