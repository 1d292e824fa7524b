package logger

import (
	"fmt"
	"io"
	"os"

	"events_widget/domain/entities"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// New creates the logger. debug or DEBUG=true in the environment selects the debug level.
func New(debug bool, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006/01/02 15:04:05",
		FullTimestamp:   true,
		DisableSorting:  true,
	})

	if debug || os.Getenv("DEBUG") == "true" {
		l.SetLevel(logrus.DebugLevel)
		l.Debug("debug logging enabled")
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}

// Colors formats terminal output
type Colors struct {
	green  *color.Color
	red    *color.Color
	yellow *color.Color
	cyan   *color.Color
	bold   *color.Color
}

// NewColors creates the palette. noColor turns colouring off globally.
func NewColors(noColor bool) *Colors {
	if noColor {
		color.NoColor = true
	}
	return &Colors{
		green:  color.New(color.FgGreen),
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
		cyan:   color.New(color.FgCyan),
		bold:   color.New(color.Bold),
	}
}

// Outcome renders an outcome label
func (c *Colors) Outcome(o entities.Outcome) string {
	label := fmt.Sprintf("%-7s", o)
	switch o {
	case entities.OutcomePassed:
		return c.green.Sprint(label)
	case entities.OutcomeFailed:
		return c.red.Sprint(label)
	case entities.OutcomeXFailed:
		return c.yellow.Sprint(label)
	}
	return c.cyan.Sprint(label)
}

func (c *Colors) Title(format string, args ...any) string {
	return c.bold.Sprintf(format, args...)
}

func (c *Colors) Info(format string, args ...any) string {
	return c.cyan.Sprintf(format, args...)
}

func (c *Colors) Warn(format string, args ...any) string {
	return c.yellow.Sprintf(format, args...)
}

func (c *Colors) Error(format string, args ...any) string {
	return c.red.Sprintf(format, args...)
}
