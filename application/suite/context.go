package suite

import (
	"context"
	"fmt"
	"strings"

	"events_widget/application/widget"
	"events_widget/domain/entities"
	"events_widget/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// stop unwinds a scenario with a final outcome
type stop struct {
	outcome entities.Outcome
	message string
}

// Context is handed to a running scenario. It satisfies require.TestingT,
// so scenarios assert with testify; FailNow, Skip and XFail end the scenario.
type Context struct {
	ctx      context.Context
	page     *widget.EventsWidgetPage
	reporter interfaces.Reporter
	logger   *logrus.Entry
	failures []string
}

// Outcome - returns the outcome the scenario ends with
func (s stop) Outcome() entities.Outcome {
	return s.outcome
}

func newContext(ctx context.Context, page *widget.EventsWidgetPage, reporter interfaces.Reporter, logger *logrus.Entry) *Context {
	return &Context{ctx: ctx, page: page, reporter: reporter, logger: logger}
}

// Ctx - returns the context of the run
func (c *Context) Ctx() context.Context {
	return c.ctx
}

// Page - returns the page object of the scenario
func (c *Context) Page() *widget.EventsWidgetPage {
	return c.page
}

// Errorf records an assertion failure and lets the scenario continue
func (c *Context) Errorf(format string, args ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))
	c.failures = append(c.failures, msg)
	c.logger.Debug(msg)
}

// FailNow ends the scenario as failed with the recorded failures
func (c *Context) FailNow() {
	panic(stop{outcome: entities.OutcomeFailed, message: c.failureMessage()})
}

func (c *Context) Helper() {}

// Fail ends the scenario as failed
func (c *Context) Fail(format string, args ...any) {
	c.Errorf(format, args...)
	c.FailNow()
}

// Skip ends the scenario as skipped. Used when the page lacks the capability under test.
func (c *Context) Skip(format string, args ...any) {
	panic(stop{outcome: entities.OutcomeSkipped, message: fmt.Sprintf(format, args...)})
}

// XFail ends the scenario as a reproduced known defect
func (c *Context) XFail(format string, args ...any) {
	panic(stop{outcome: entities.OutcomeXFailed, message: fmt.Sprintf(format, args...)})
}

// Logf - writes to the scenario log
func (c *Context) Logf(format string, args ...any) {
	c.logger.Infof(format, args...)
}

// Step runs fn as a named report step
func (c *Context) Step(name string, fn func()) {
	c.logger.WithField("step", name).Debug("step")
	c.reporter.Step(name, fn)
}

// AttachText - attaches formatted text evidence
func (c *Context) AttachText(name, format string, args ...any) {
	c.reporter.AttachText(name, fmt.Sprintf(format, args...))
}

// AttachJSON - attaches v as JSON evidence
func (c *Context) AttachJSON(name string, v any) {
	c.reporter.AttachJSON(name, v)
}

// AttachScreenshot captures the page and attaches it. A failed capture is logged and ignored.
func (c *Context) AttachScreenshot(name, file string) {
	png, err := c.page.Screenshot(file)
	if err != nil {
		c.logger.WithError(err).Warn("screenshot skipped")
		if png == nil {
			return
		}
	}
	c.reporter.AttachImage(name, png)
}

func (c *Context) failed() bool {
	return len(c.failures) > 0
}

func (c *Context) failureMessage() string {
	if len(c.failures) == 0 {
		return "scenario failed"
	}
	return strings.Join(c.failures, "\n")
}
