//go:build e2e

package suite

import (
	"context"
	"os"
	"testing"
	"time"

	"events_widget/application/widget"
	"events_widget/domain/entities"
	"events_widget/infrastructure/browser"
	"events_widget/infrastructure/storage"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCatalogLive runs the smoke scenarios against the deployed widget with playwright.
// WIDGET_URL overrides the address.
func TestCatalogLive(t *testing.T) {
	url := os.Getenv("WIDGET_URL")
	if url == "" {
		url = widget.DefaultURL
	}

	logger := logrus.New()
	b, err := browser.NewBrowserController(browser.LaunchOptions{
		Engine:       browser.EngineChromium,
		Headless:     true,
		Install:      true,
		QueryTimeout: 5 * time.Second,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	store, err := storage.NewEvidenceStore(t.TempDir(), logger)
	require.NoError(t, err)
	runner := NewRunner(b, store, Options{URL: url, ArtifactsDir: t.TempDir(), Workers: 2}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	summary, err := runner.Run(ctx, Select(Catalog(DefaultLoadBudget), Filter{Markers: []entities.Marker{entities.MarkerSmoke}}))
	require.NoError(t, err)
	for _, res := range summary.Results {
		assert.NotEqual(t, entities.OutcomeFailed, res.Outcome, "%s: %s", res.Info.Name, res.Message)
	}
}
