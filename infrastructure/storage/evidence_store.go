package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"events_widget/domain/entities"
	"events_widget/domain/interfaces"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

// Allure statuses
const (
	statusPassed  = "passed"
	statusFailed  = "failed"
	statusBroken  = "broken"
	statusSkipped = "skipped"
)

const environmentFile = "environment.properties"

type evidenceStore struct {
	dir    string
	logger *logrus.Logger
}

// NewEvidenceStore - creates a store writing Allure results into dir
func NewEvidenceStore(dir string, logger *logrus.Logger) (interfaces.EvidenceStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results dir: %w", err)
	}
	return &evidenceStore{dir: dir, logger: logger}, nil
}

// Open - starts the record of one scenario
func (s *evidenceStore) Open(info entities.ScenarioInfo, browser string) interfaces.ScenarioRecord {
	labels := []label{
		{Name: "feature", Value: info.Feature},
		{Name: "story", Value: info.Story},
		{Name: "severity", Value: string(info.Severity)},
		{Name: "suite", Value: info.Group},
		{Name: "framework", Value: "events_widget"},
	}
	for _, m := range info.Markers {
		labels = append(labels, label{Name: "tag", Value: string(m)})
	}

	id := uuid.NewString()
	return &scenarioRecord{
		store: s,
		result: allureResult{
			UUID:        id,
			HistoryID:   info.Name + "." + browser,
			Name:        info.Title,
			FullName:    info.Group + "." + info.Name + "[" + browser + "]",
			Description: info.Description,
			Stage:       "running",
			Start:       millis(time.Now()),
			Labels:      labels,
			Parameters:  []parameter{{Name: "browser", Value: browser}},
			Steps:       []*allureStep{},
			Attachments: []attachment{},
		},
	}
}

// WriteEnvironment - stores run properties shown on the report overview
func (s *evidenceStore) WriteEnvironment(env map[string]string) error {
	cfg := ini.Empty()
	section := cfg.Section("")
	for k, v := range env {
		if _, err := section.NewKey(k, v); err != nil {
			return fmt.Errorf("invalid environment key %q: %w", k, err)
		}
	}
	if err := cfg.SaveTo(filepath.Join(s.dir, environmentFile)); err != nil {
		return fmt.Errorf("failed to write environment: %w", err)
	}
	return nil
}

type scenarioRecord struct {
	store  *evidenceStore
	mu     sync.Mutex
	result allureResult
	stack  []*allureStep
}

// Step records fn as a nested step. A panic inside fn marks the step and keeps unwinding.
func (r *scenarioRecord) Step(name string, fn func()) {
	step := &allureStep{Name: name, Stage: "running", Start: millis(time.Now()), Steps: []*allureStep{}, Attachments: []attachment{}}

	r.mu.Lock()
	if n := len(r.stack); n > 0 {
		r.stack[n-1].Steps = append(r.stack[n-1].Steps, step)
	} else {
		r.result.Steps = append(r.result.Steps, step)
	}
	r.stack = append(r.stack, step)
	r.mu.Unlock()

	defer func() {
		rec := recover()

		r.mu.Lock()
		step.Stage = "finished"
		step.Stop = millis(time.Now())
		step.Status = statusPassed
		if rec != nil {
			step.Status = stepStatus(rec)
		}
		r.stack = r.stack[:len(r.stack)-1]
		r.mu.Unlock()

		if rec != nil {
			panic(rec)
		}
	}()

	fn()
}

func (r *scenarioRecord) AttachText(name, body string) {
	r.attach(name, "text/plain", "txt", []byte(body))
}

func (r *scenarioRecord) AttachImage(name string, png []byte) {
	r.attach(name, "image/png", "png", png)
}

func (r *scenarioRecord) AttachJSON(name string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		r.AttachText(name, fmt.Sprintf("failed to encode: %v", err))
		return
	}
	r.attach(name, "application/json", "json", data)
}

// attach writes the file and links it to the innermost open step. Write errors are only logged.
func (r *scenarioRecord) attach(name, mime, ext string, data []byte) {
	source := fmt.Sprintf("%s-attachment.%s", uuid.NewString(), ext)
	if err := os.WriteFile(filepath.Join(r.store.dir, source), data, 0o644); err != nil {
		r.store.logger.WithError(err).WithField("attachment", name).Warn("failed to write attachment")
		return
	}

	a := attachment{Name: name, Source: source, Type: mime}
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.stack); n > 0 {
		r.stack[n-1].Attachments = append(r.stack[n-1].Attachments, a)
		return
	}
	r.result.Attachments = append(r.result.Attachments, a)
}

// Finish - writes <uuid>-result.json
func (r *scenarioRecord) Finish(res entities.ScenarioResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.result.Stage = "finished"
	r.result.Start = millis(res.Start)
	r.result.Stop = millis(res.Start.Add(res.Duration))
	r.result.Status, r.result.StatusDetails = resultStatus(res)

	data, err := json.MarshalIndent(r.result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	path := filepath.Join(r.store.dir, r.result.UUID+"-result.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

// resultStatus maps an outcome to Allure. Expected failures are reported as known skipped results.
func resultStatus(res entities.ScenarioResult) (string, *statusDetails) {
	switch res.Outcome {
	case entities.OutcomePassed:
		return statusPassed, nil
	case entities.OutcomeXFailed:
		return statusSkipped, &statusDetails{Message: "XFAIL " + res.Message, Known: true}
	case entities.OutcomeSkipped:
		return statusSkipped, &statusDetails{Message: res.Message}
	case entities.OutcomeFailed:
		return statusFailed, &statusDetails{Message: res.Message}
	}
	return statusBroken, &statusDetails{Message: res.Message}
}

func stepStatus(rec any) string {
	carrier, ok := rec.(interfaces.OutcomeCarrier)
	if !ok {
		return statusBroken
	}
	switch carrier.Outcome() {
	case entities.OutcomeSkipped, entities.OutcomeXFailed:
		return statusSkipped
	case entities.OutcomeFailed:
		return statusFailed
	}
	return statusPassed
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}
