package inspector

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"events_widget/application/locator"
	"events_widget/domain/entities"
	"events_widget/domain/interfaces"
	"events_widget/infrastructure/browser"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errProbe = errors.New("probe failed")

type failingLocator struct{}

func (failingLocator) Count() (int, error) { return 0, errProbe }
func (f failingLocator) Nth(int) interfaces.Locator { return f }
func (f failingLocator) First() interfaces.Locator { return f }
func (f failingLocator) Locate(...entities.Pattern) interfaces.Locator { return f }
func (failingLocator) TextContent() (string, error) { return "", errProbe }
func (failingLocator) GetAttribute(string) (string, error) { return "", errProbe }
func (failingLocator) TagName() (string, error) { return "", errProbe }
func (failingLocator) IsVisible() (bool, error) { return false, errProbe }
func (failingLocator) WaitVisible(time.Duration) error { return errProbe }
func (failingLocator) Click(time.Duration) error { return errProbe }
func (failingLocator) SelectOption(interfaces.OptionChoice) error { return errProbe }

// faultyPage fails every query, at any depth, that uses the CSS expression failing
type faultyPage struct {
	*browser.StaticPage
	failing string
}

func (p faultyPage) Locate(patterns ...entities.Pattern) interfaces.Locator {
	if uses(patterns, p.failing) {
		return failingLocator{}
	}
	return faultyLocator{Locator: p.StaticPage.Locate(patterns...), failing: p.failing}
}

type faultyLocator struct {
	interfaces.Locator
	failing string
}

func (l faultyLocator) Nth(index int) interfaces.Locator {
	return faultyLocator{Locator: l.Locator.Nth(index), failing: l.failing}
}

func (l faultyLocator) First() interfaces.Locator {
	return faultyLocator{Locator: l.Locator.First(), failing: l.failing}
}

func (l faultyLocator) Locate(patterns ...entities.Pattern) interfaces.Locator {
	if uses(patterns, l.failing) {
		return failingLocator{}
	}
	return faultyLocator{Locator: l.Locator.Locate(patterns...), failing: l.failing}
}

func uses(patterns []entities.Pattern, expr string) bool {
	for _, p := range patterns {
		if p.Expr == expr {
			return true
		}
	}
	return false
}

func staticPage(t *testing.T, markup string) *browser.StaticPage {
	t.Helper()
	page, err := browser.NewStaticPage("https://example.test/eventswidget/", markup)
	require.NoError(t, err)
	return page
}

func newInspector(page interfaces.Page) *Inspector {
	logger := logrus.New()
	return NewInspector(locator.NewResolver(page, logger), logger)
}

func selectMarkup(id string, options ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<select id=%q>`, id)
	for _, o := range options {
		b.WriteString(o)
	}
	b.WriteString(`</select>`)
	return b.String()
}

func TestEnumerateOptions_PlaceholderRules(t *testing.T) {
	markup := `<html><body>` + selectMarkup("country",
		`<option value="">Выберите страну</option>`,
		`<option value="ru">Россия</option>`,
		`<option value="RU"></option>`,
		`<option value="any">-- любая --</option>`,
		`<option value="x">X</option>`,
		`<option value="ru2">  Россия  </option>`,
		`<option value="s">Select one</option>`,
		`<option value="c">Choose</option>`,
		`<option value="   "></option>`,
		`<option value="kz">Казахстан</option>`,
	) + `</body></html>`

	got := newInspector(staticPage(t, markup)).EnumerateOptions(0)

	assert.Equal(t, []entities.OptionEntry{
		{Text: "Россия", Value: "ru"},
		{Text: "RU", Value: "RU"},
		{Text: "Казахстан", Value: "kz"},
	}, got)
}

func TestEnumerateOptions_Caps(t *testing.T) {
	t.Run("at most 20 entries", func(t *testing.T) {
		var opts []string
		for i := range 30 {
			opts = append(opts, fmt.Sprintf(`<option value="v%d">Option %02d</option>`, i, i))
		}
		markup := `<html><body>` + selectMarkup("big", opts...) + `</body></html>`

		got := newInspector(staticPage(t, markup)).EnumerateOptions(0)
		require.Len(t, got, 20)
		assert.Equal(t, "Option 00", got[0].Text)
		assert.Equal(t, "Option 19", got[19].Text)
	})

	t.Run("at most 10 controls", func(t *testing.T) {
		var b strings.Builder
		b.WriteString(`<html><body>`)
		for i := range 15 {
			b.WriteString(selectMarkup(fmt.Sprintf("s%d", i), fmt.Sprintf(`<option value="%d">Control %02d</option>`, i, i)))
		}
		b.WriteString(`</body></html>`)

		got := newInspector(staticPage(t, b.String())).EnumerateOptions(0)
		require.Len(t, got, 10)
		assert.Equal(t, "Control 09", got[9].Text)
	})
}

func TestEnumerateOptions_Slots(t *testing.T) {
	one := `<html><body>` + selectMarkup("theme", `<option value="it">IT sphere</option>`) + `</body></html>`
	insp := newInspector(staticPage(t, one))
	assert.Equal(t, []string{"IT sphere"}, entities.Texts(insp.ThemeOptions()))
	assert.Empty(t, insp.CountryOptions())

	two := `<html><body>` +
		selectMarkup("theme", `<option value="it">IT sphere</option>`) +
		selectMarkup("country", `<option value="">Выберите страну</option>`, `<option value="ru">Россия</option>`) +
		`</body></html>`
	insp = newInspector(staticPage(t, two))
	assert.Equal(t, []string{"IT sphere", "Россия"}, entities.Texts(insp.ThemeOptions()))
	assert.Equal(t, []string{"Россия"}, entities.Texts(insp.CountryOptions()))
}

func TestEnumerateOptions_NoControlsAndFaults(t *testing.T) {
	empty := newInspector(staticPage(t, `<html><body></body></html>`))
	got := empty.EnumerateOptions(0)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	page := staticPage(t, `<html><body>`+selectMarkup("a", `<option value="1">One option</option>`)+`</body></html>`)
	faulty := newInspector(faultyPage{StaticPage: page, failing: "option"})
	assert.Empty(t, faulty.EnumerateOptions(0))
}

func TestEnumerateOptions_Idempotent(t *testing.T) {
	markup := `<html><body>` +
		selectMarkup("theme", `<option value="">Выберите</option>`, `<option value="it">IT</option>`, `<option value="fin">Финансы</option>`) +
		`<div role="combobox"><option value="ru">Россия</option></div>` +
		`</body></html>`
	insp := newInspector(staticPage(t, markup))

	first := insp.EnumerateOptions(0)
	second := insp.EnumerateOptions(0)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"IT", "Финансы", "Россия"}, entities.Texts(first))
}

func TestCheckOverlap(t *testing.T) {
	long := strings.Repeat("я", 60)
	markup := fmt.Sprintf(`<html><head><title>t</title></head><body>
		<div class="wrap">
			<span style="position: absolute; top: 0">Первый</span>
			<span style="z-index: 5">%s</span>
			<div style="position: absolute"></div>
			<p>обычный</p>
		</div>
	</body></html>`, long)
	insp := newInspector(staticPage(t, markup))

	report := insp.CheckOverlap()
	assert.True(t, report.HasOverlapping)
	assert.Equal(t, 3, report.OverlappingCount)
	assert.Equal(t, []string{"Первый", strings.Repeat("я", 50)}, report.OverlappingElements)
	assert.Equal(t, 4, report.TextElementsCount)
	assert.Equal(t, []string{IssueAbsolutePositioning}, report.PotentialIssues)
	assert.Empty(t, report.Errors)

	assert.Equal(t, report, insp.CheckOverlap(), "report is stable without page changes")
}

func TestCheckOverlap_CleanPage(t *testing.T) {
	markup := `<html><head><style>.box { overflow: hidden; }</style></head><body><p>text</p><label> </label></body></html>`

	report := newInspector(staticPage(t, markup)).CheckOverlap()
	assert.False(t, report.HasOverlapping)
	assert.Equal(t, 0, report.OverlappingCount)
	assert.Empty(t, report.OverlappingElements)
	assert.Equal(t, 1, report.TextElementsCount)
	assert.Equal(t, []string{IssueOverflowHidden}, report.PotentialIssues)
}

func TestCheckOverlap_SampleLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	for i := range 8 {
		fmt.Fprintf(&b, `<span style="z-index: %d">layer %d</span>`, i, i)
	}
	b.WriteString(`</body></html>`)

	report := newInspector(staticPage(t, b.String())).CheckOverlap()
	assert.Equal(t, 8, report.OverlappingCount)
	assert.Len(t, report.OverlappingElements, 5)
	assert.Equal(t, "layer 4", report.OverlappingElements[4])
}

func TestSnapshot_EmptyPage(t *testing.T) {
	page := staticPage(t, `<html><head><title>Empty</title></head><body></body></html>`)
	r := locator.NewResolver(page, logrus.New())
	snap := NewInspector(r, nil).Snapshot()

	assert.Equal(t, 0, r.Resolve(entities.RoleEventItem).Count().Value)
	assert.Equal(t, 0, snap.SelectorsFound)
	assert.Equal(t, 0, snap.ButtonsFound)
	assert.Equal(t, 0, snap.InputsFound)
	assert.Equal(t, "Empty", snap.PageTitle)
	assert.Equal(t, "https://example.test/eventswidget/", snap.PageURL)
	assert.Empty(t, snap.SelectorDetails)
	assert.Empty(t, snap.AllTextElements)
	assert.False(t, snap.Errored())
}

const snapshotMarkup = `<html><head><title>Events Widget</title></head><body>
	<select id="theme" class="theme-select">
		<option value="">Выберите тематику</option>
		<option value="it">IT</option>
		<option value="fin">Финансы</option>
		<option value="med">Медицина</option>
		<option value="edu">Образование</option>
		<option value="art">Искусство</option>
	</select>
	<select id="country"><option value="ru">Россия</option></select>
	<input type="text" name="q">
	<button>Сгенерировать превью</button>
	<button>  </button>
	<button>Очистить</button>
</body></html>`

func TestSnapshot_Details(t *testing.T) {
	snap := newInspector(staticPage(t, snapshotMarkup)).Snapshot()

	assert.Equal(t, 2, snap.SelectorsFound)
	assert.Equal(t, 3, snap.ButtonsFound)
	assert.Equal(t, 1, snap.InputsFound)
	assert.Equal(t, "Events Widget", snap.PageTitle)
	assert.Positive(t, snap.BodyTextLength)
	assert.Equal(t, []string{"button: Сгенерировать превью", "button: Очистить"}, snap.AllTextElements)
	assert.Equal(t, 1, snap.PreviewElementsCount)
	assert.Equal(t, 6, snap.ThemeOptionsFound)
	assert.Equal(t, 1, snap.CountryOptionsFound)
	assert.False(t, snap.Errored())

	require.Len(t, snap.SelectorDetails, 2)
	theme := snap.SelectorDetails[0]
	assert.Equal(t, 0, theme.Index)
	assert.Equal(t, entities.ElementInfo{TagName: "select", ClassName: "theme-select", ID: "theme"}, theme.Element)
	assert.Equal(t, 6, theme.OptionsCount)
	require.Len(t, theme.SampleOptions, 5)
	assert.Equal(t, entities.OptionEntry{Text: "Выберите тематику", Value: ""}, theme.SampleOptions[0])

	country := snap.SelectorDetails[1]
	assert.Equal(t, "country", country.Element.ID)
	assert.Equal(t, "", country.Element.ClassName)
}

func TestSnapshot_ProbeIsolation(t *testing.T) {
	page := faultyPage{StaticPage: staticPage(t, snapshotMarkup), failing: "button"}
	snap := newInspector(page).Snapshot()

	require.Contains(t, snap.ProbeErrors, "buttons_found")
	assert.Len(t, snap.ProbeErrors, 1)
	assert.Equal(t, 0, snap.ButtonsFound)
	assert.Empty(t, snap.AllTextElements)

	assert.Equal(t, 2, snap.SelectorsFound)
	assert.Equal(t, 1, snap.InputsFound)
	assert.Equal(t, "Events Widget", snap.PageTitle)
	assert.Len(t, snap.SelectorDetails, 2)
	assert.Equal(t, 6, snap.ThemeOptionsFound)
	assert.True(t, snap.Errored())
}

func TestSnapshot_ControlDetailError(t *testing.T) {
	page := faultyPage{StaticPage: staticPage(t, snapshotMarkup), failing: "option"}
	snap := newInspector(page).Snapshot()

	require.Len(t, snap.SelectorDetails, 2)
	for _, d := range snap.SelectorDetails {
		assert.Contains(t, d.Error, errProbe.Error())
		assert.Equal(t, "select", d.Element.TagName)
	}
	assert.Equal(t, 3, snap.ButtonsFound)
	assert.Equal(t, 0, snap.ThemeOptionsFound)
	assert.True(t, snap.Errored())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "при", truncate("привет", 3))
}
