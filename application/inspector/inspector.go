package inspector

import (
	"events_widget/application/locator"

	"github.com/sirupsen/logrus"
)

const (
	maxControls       = 10
	maxOptions        = 20
	maxSampleOptions  = 5
	maxOverlapSamples = 5
	maxButtonTexts    = 10
	sampleTextLimit   = 50
)

// Inspector reads structural facts from the live page. It keeps no state between calls.
type Inspector struct {
	resolver *locator.Resolver
	logger   *logrus.Logger
}

// NewInspector - creates an inspector over resolver
func NewInspector(resolver *locator.Resolver, logger *logrus.Logger) *Inspector {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Inspector{resolver: resolver, logger: logger}
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
