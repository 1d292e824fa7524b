package interfaces

import (
	"context"
	"errors"
	"time"

	"events_widget/domain/entities"
)

// ErrUnsupported is returned by drivers for capabilities they cannot provide
var ErrUnsupported = errors.New("operation not supported by driver")

// LoadState is a page lifecycle milestone a driver can wait for
type LoadState string

const (
	LoadStateLoad             LoadState = "load"
	LoadStateDOMContentLoaded LoadState = "domcontentloaded"
	LoadStateNetworkIdle      LoadState = "networkidle"
)

// NavigateOptions controls a single navigation attempt
type NavigateOptions struct {
	WaitUntil LoadState
	Timeout   time.Duration
}

// OptionChoice picks an option of a <select> by value or by label
type OptionChoice struct {
	Value string
	Label string
}

// Browser provisions isolated pages. Every page owns its own browser context.
type Browser interface {
	// Name returns the engine name, e.g. "chromium"
	Name() string

	// NewPage opens a page in a fresh context
	NewPage(ctx context.Context) (Page, error)

	// Close releases the browser
	Close() error
}

// Page is the browser automation capability for one document
type Page interface {
	// Navigate loads url in the page
	Navigate(ctx context.Context, url string, opts NavigateOptions) error

	// Locate returns a lazy group of all elements matching any of the patterns, in document order
	Locate(patterns ...entities.Pattern) Locator

	// Content returns the serialized document
	Content() (string, error)

	// Title returns the document title
	Title() (string, error)

	// URL returns the current address
	URL() string

	// SetViewportSize resizes the viewport
	SetViewportSize(width, height int) error

	// WaitForLoadState waits until state is reached
	WaitForLoadState(state LoadState, timeout time.Duration) error

	// WaitForTimeout pauses for d
	WaitForTimeout(d time.Duration)

	// WaitForFunction polls a JavaScript predicate until it is truthy
	WaitForFunction(expression string, timeout time.Duration) error

	// Screenshot captures the page as PNG
	Screenshot(fullPage bool) ([]byte, error)

	// Close closes the page and its context
	Close() error
}

// Locator is a lazy, re-evaluated element group. Nothing is resolved until a query method runs.
type Locator interface {
	Count() (int, error)
	Nth(index int) Locator
	First() Locator

	// Locate narrows to descendants of the group matching any of the patterns
	Locate(patterns ...entities.Pattern) Locator

	TextContent() (string, error)
	GetAttribute(name string) (string, error)
	TagName() (string, error)
	IsVisible() (bool, error)
	WaitVisible(timeout time.Duration) error
	Click(timeout time.Duration) error
	SelectOption(choice OptionChoice) error
}
