package entities

import "time"

// Severity mirrors the report severity levels
type Severity string

const (
	SeverityBlocker  Severity = "blocker"
	SeverityCritical Severity = "critical"
	SeverityNormal   Severity = "normal"
	SeverityMinor    Severity = "minor"
)

// Marker selects groups of scenarios
type Marker string

const (
	MarkerSmoke      Marker = "smoke"
	MarkerRegression Marker = "regression"
	MarkerUI         Marker = "ui"
)

// ScenarioInfo describes a scenario for selection and reporting
type ScenarioInfo struct {
	Name        string   `json:"name"`  // stable identifier, e.g. "page_loads"
	Group       string   `json:"group"` // e.g. "Basic"
	Feature     string   `json:"feature"`
	Story       string   `json:"story"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Markers     []Marker `json:"markers"`
}

// HasMarker - reports whether the scenario carries marker m
func (s ScenarioInfo) HasMarker(m Marker) bool {
	for _, mk := range s.Markers {
		if mk == m {
			return true
		}
	}
	return false
}

// Outcome is the final state of a scenario
type Outcome string

const (
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"
	OutcomeXFailed Outcome = "xfailed" // known defect reproduced, does not fail the run
	OutcomeSkipped Outcome = "skipped" // capability absent on the page
)

// Blocking - reports whether the outcome fails the run
func (o Outcome) Blocking() bool {
	return o == OutcomeFailed
}

// ScenarioResult represents the result of one scenario run
type ScenarioResult struct {
	Info     ScenarioInfo  `json:"info"`
	Browser  string        `json:"browser"`
	Outcome  Outcome       `json:"outcome"`
	Message  string        `json:"message,omitempty"`
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration"`
}
