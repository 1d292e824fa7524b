package interfaces

import "events_widget/domain/entities"

// Reporter receives evidence for one scenario. Calls never affect control flow.
type Reporter interface {
	// Step runs fn inside a named report step
	Step(name string, fn func())

	// AttachText attaches plain text
	AttachText(name, body string)

	// AttachImage attaches a PNG image
	AttachImage(name string, png []byte)

	// AttachJSON attaches v encoded as JSON
	AttachJSON(name string, v any)
}

// EvidenceStore opens reporters and persists finished scenarios
type EvidenceStore interface {
	Open(info entities.ScenarioInfo, browser string) ScenarioRecord
	WriteEnvironment(env map[string]string) error
}

// ScenarioRecord is the reporter of a running scenario
type ScenarioRecord interface {
	Reporter

	// Finish stores the final result
	Finish(result entities.ScenarioResult) error
}

// OutcomeCarrier is implemented by values a scenario panics with to end itself.
// Reporters use it to label the step that was interrupted.
type OutcomeCarrier interface {
	Outcome() entities.Outcome
}
