package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"events_widget/domain/entities"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"
)

type outcomeStop entities.Outcome

func (o outcomeStop) Outcome() entities.Outcome { return entities.Outcome(o) }

var testInfo = entities.ScenarioInfo{
	Name:        "page_loads",
	Group:       "Basic",
	Feature:     "Events Widget",
	Story:       "Базовая функциональность",
	Title:       "Проверка загрузки страницы",
	Description: "Страница успешно загружается",
	Severity:    entities.SeverityBlocker,
	Markers:     []entities.Marker{entities.MarkerSmoke},
}

func newTestStore(t *testing.T) (string, *evidenceStore) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "allure-results")
	store, err := NewEvidenceStore(dir, logrus.New())
	require.NoError(t, err)
	return dir, store.(*evidenceStore)
}

func readResult(t *testing.T, dir string) allureResult {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, "*-result.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	var res allureResult
	require.NoError(t, json.Unmarshal(data, &res))
	return res
}

func readAttachment(t *testing.T, dir string, a attachment) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, a.Source))
	require.NoError(t, err)
	return string(data)
}

func TestEvidenceStore_Result(t *testing.T) {
	dir, store := newTestStore(t)
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	rec := store.Open(testInfo, "chromium")
	rec.AttachText("Браузер", "CHROMIUM")
	rec.Step("Переход на страницу", func() {
		rec.AttachText("Заметка", "ok")
		rec.Step("Проверка", func() {
			rec.AttachJSON("Данные", map[string]int{"events": 3})
		})
	})
	rec.AttachImage("Скриншот", []byte("png"))

	require.NoError(t, rec.Finish(entities.ScenarioResult{
		Info:     testInfo,
		Browser:  "chromium",
		Outcome:  entities.OutcomePassed,
		Start:    start,
		Duration: 1500 * time.Millisecond,
	}))

	res := readResult(t, dir)
	assert.Equal(t, "Проверка загрузки страницы", res.Name)
	assert.Equal(t, "Basic.page_loads[chromium]", res.FullName)
	assert.Equal(t, "page_loads.chromium", res.HistoryID)
	assert.Equal(t, statusPassed, res.Status)
	assert.Nil(t, res.StatusDetails)
	assert.Equal(t, "finished", res.Stage)
	assert.Equal(t, start.UnixMilli(), res.Start)
	assert.Equal(t, start.UnixMilli()+1500, res.Stop)
	assert.Contains(t, res.Labels, label{Name: "severity", Value: "blocker"})
	assert.Contains(t, res.Labels, label{Name: "tag", Value: "smoke"})
	assert.Contains(t, res.Labels, label{Name: "suite", Value: "Basic"})
	assert.Equal(t, []parameter{{Name: "browser", Value: "chromium"}}, res.Parameters)

	require.Len(t, res.Attachments, 2)
	assert.Equal(t, "CHROMIUM", readAttachment(t, dir, res.Attachments[0]))
	assert.Equal(t, "image/png", res.Attachments[1].Type)
	assert.Equal(t, "png", readAttachment(t, dir, res.Attachments[1]))

	require.Len(t, res.Steps, 1)
	outer := res.Steps[0]
	assert.Equal(t, "Переход на страницу", outer.Name)
	assert.Equal(t, statusPassed, outer.Status)
	require.Len(t, outer.Attachments, 1)
	assert.Equal(t, "ok", readAttachment(t, dir, outer.Attachments[0]))

	require.Len(t, outer.Steps, 1)
	inner := outer.Steps[0]
	assert.Equal(t, "Проверка", inner.Name)
	require.Len(t, inner.Attachments, 1)
	assert.Equal(t, "application/json", inner.Attachments[0].Type)
	assert.JSONEq(t, `{"events": 3}`, readAttachment(t, dir, inner.Attachments[0]))
}

func TestEvidenceStore_StepUnwinding(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  string
	}{
		{"failed scenario", outcomeStop(entities.OutcomeFailed), statusFailed},
		{"skipped scenario", outcomeStop(entities.OutcomeSkipped), statusSkipped},
		{"known defect", outcomeStop(entities.OutcomeXFailed), statusSkipped},
		{"unexpected panic", "boom", statusBroken},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir, store := newTestStore(t)
			rec := store.Open(testInfo, "firefox")

			assert.PanicsWithValue(t, tc.value, func() {
				rec.Step("outer", func() {
					rec.Step("inner", func() { panic(tc.value) })
				})
			})
			rec.AttachText("after", "top level")
			require.NoError(t, rec.Finish(entities.ScenarioResult{Outcome: entities.OutcomeFailed, Start: time.Now()}))

			res := readResult(t, dir)
			require.Len(t, res.Steps, 1)
			assert.Equal(t, tc.want, res.Steps[0].Status)
			require.Len(t, res.Steps[0].Steps, 1)
			assert.Equal(t, tc.want, res.Steps[0].Steps[0].Status)
			require.Len(t, res.Attachments, 1, "stack is unwound after the panic")
		})
	}
}

func TestResultStatus(t *testing.T) {
	status, details := resultStatus(entities.ScenarioResult{Outcome: entities.OutcomeXFailed, Message: "пустой виджет"})
	assert.Equal(t, statusSkipped, status)
	assert.Equal(t, &statusDetails{Message: "XFAIL пустой виджет", Known: true}, details)

	status, details = resultStatus(entities.ScenarioResult{Outcome: entities.OutcomeSkipped, Message: "нет кнопки"})
	assert.Equal(t, statusSkipped, status)
	assert.False(t, details.Known)

	status, _ = resultStatus(entities.ScenarioResult{Outcome: entities.OutcomeFailed})
	assert.Equal(t, statusFailed, status)

	status, _ = resultStatus(entities.ScenarioResult{})
	assert.Equal(t, statusBroken, status)
}

func TestEvidenceStore_WriteEnvironment(t *testing.T) {
	dir, store := newTestStore(t)

	require.NoError(t, store.WriteEnvironment(map[string]string{
		"Browser":     "chromium",
		"Widget.URL":  "https://dev.3snet.info/eventswidget/",
		"Driver":      "playwright",
		"Parallelism": "2",
	}))

	cfg, err := ini.Load(filepath.Join(dir, environmentFile))
	require.NoError(t, err)
	section := cfg.Section("")
	assert.Equal(t, "chromium", section.Key("Browser").String())
	assert.Equal(t, "https://dev.3snet.info/eventswidget/", section.Key("Widget.URL").String())
	assert.Equal(t, 2, section.Key("Parallelism").MustInt())
}

func TestNewEvidenceStore_BadDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := NewEvidenceStore(filepath.Join(file, "results"), logrus.New())
	assert.Error(t, err)
}
