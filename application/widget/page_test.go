package widget

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"events_widget/domain/entities"
	"events_widget/domain/interfaces"
	"events_widget/infrastructure/browser"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testURL = "https://example.test/eventswidget/"

// scriptedPage is a static page with scripted navigation, waits and screenshots
type scriptedPage struct {
	*browser.StaticPage
	navErrs     []error
	navigations []interfaces.NavigateOptions
	waits       []time.Duration
	png         []byte
	scripts     []string
}

func (p *scriptedPage) Navigate(ctx context.Context, url string, opts interfaces.NavigateOptions) error {
	p.navigations = append(p.navigations, opts)
	if i := len(p.navigations) - 1; i < len(p.navErrs) {
		return p.navErrs[i]
	}
	return nil
}

func (p *scriptedPage) WaitForTimeout(d time.Duration) {
	p.waits = append(p.waits, d)
}

func (p *scriptedPage) WaitForFunction(expression string, timeout time.Duration) error {
	p.scripts = append(p.scripts, expression)
	return nil
}

func (p *scriptedPage) Screenshot(fullPage bool) ([]byte, error) {
	if p.png == nil {
		return nil, errors.New("no screenshot scripted")
	}
	return p.png, nil
}

func loadStatic(t *testing.T, markup string) *browser.StaticPage {
	t.Helper()
	page, err := browser.NewStaticPage(testURL, markup)
	require.NoError(t, err)
	return page
}

func fixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "widget.html"))
	require.NoError(t, err)
	return string(data)
}

func newWidget(t *testing.T, page interfaces.Page, opts Options) *EventsWidgetPage {
	t.Helper()
	if opts.URL == "" {
		opts.URL = testURL
	}
	return NewEventsWidgetPage(page, opts, logrus.New())
}

func TestNavigate_Fallback(t *testing.T) {
	t.Run("relaxes load condition until an attempt succeeds", func(t *testing.T) {
		page := &scriptedPage{
			StaticPage: loadStatic(t, fixture(t)),
			navErrs:    []error{errors.New("timeout 30000ms"), errors.New("timeout 15000ms")},
		}
		w := newWidget(t, page, Options{})

		require.NoError(t, w.Navigate(context.Background()))
		require.Len(t, page.navigations, 3)
		assert.Equal(t, interfaces.LoadStateNetworkIdle, page.navigations[0].WaitUntil)
		assert.Equal(t, 30*time.Second, page.navigations[0].Timeout)
		assert.Equal(t, interfaces.LoadStateDOMContentLoaded, page.navigations[1].WaitUntil)
		assert.Equal(t, 15*time.Second, page.navigations[1].Timeout)
		assert.Equal(t, interfaces.LoadStateLoad, page.navigations[2].WaitUntil)
		assert.Equal(t, 10*time.Second, page.navigations[2].Timeout)
	})

	t.Run("first success stops", func(t *testing.T) {
		page := &scriptedPage{StaticPage: loadStatic(t, fixture(t))}
		require.NoError(t, newWidget(t, page, Options{}).Navigate(context.Background()))
		assert.Len(t, page.navigations, 1)
	})

	t.Run("returns the last error", func(t *testing.T) {
		last := errors.New("net::ERR_NAME_NOT_RESOLVED")
		page := &scriptedPage{
			StaticPage: loadStatic(t, fixture(t)),
			navErrs:    []error{errors.New("first"), errors.New("second"), last},
		}

		err := newWidget(t, page, Options{}).Navigate(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, last)
		assert.Contains(t, err.Error(), testURL)
	})

	t.Run("stops when the context is canceled", func(t *testing.T) {
		page := &scriptedPage{
			StaticPage: loadStatic(t, fixture(t)),
			navErrs:    []error{errors.New("first"), errors.New("second"), errors.New("third")},
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := newWidget(t, page, Options{}).Navigate(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Len(t, page.navigations, 1)
	})
}

func TestNavigate_StaticServer(t *testing.T) {
	dir, err := filepath.Abs("testdata")
	require.NoError(t, err)
	url := "file://" + filepath.Join(dir, "widget.html")

	page, err := browser.NewStaticBrowser(logrus.New()).NewPage(context.Background())
	require.NoError(t, err)
	w := newWidget(t, page, Options{URL: url})

	require.NoError(t, w.Navigate(context.Background()))
	assert.Equal(t, "Events Widget", w.Title())
	assert.True(t, w.HasThemeSelector())
}

func TestEventsWidgetPage_Basics(t *testing.T) {
	w := newWidget(t, loadStatic(t, fixture(t)), Options{})

	assert.True(t, w.IsPageLoaded())
	assert.True(t, w.IsWidgetVisible())
	assert.Equal(t, "Events Widget", w.Title())

	info := w.PageInfo()
	assert.Equal(t, testURL, info.URL)
	assert.Equal(t, "Events Widget", info.Title)
	assert.Positive(t, info.BodyTextLength)

	assert.Equal(t, 2, w.EventsCount())
	assert.Equal(t, []string{"DevConf", "FinTech Day"}, w.EventTitles())
	assert.NoError(t, w.ClickFirstEvent())
	assert.True(t, w.HasInteractiveElements())
	assert.Contains(t, w.Content(), "preview-container")

	for _, vp := range []entities.Viewport{entities.ViewportDesktop, entities.ViewportTablet, entities.ViewportMobile} {
		assert.True(t, w.IsResponsive(vp), vp.Name)
	}
}

func TestEventsWidgetPage_NoEvents(t *testing.T) {
	w := newWidget(t, loadStatic(t, `<html><body><p>nothing here</p></body></html>`), Options{})

	assert.Equal(t, 0, w.EventsCount())
	assert.Empty(t, w.EventTitles())
	assert.NoError(t, w.ClickFirstEvent())
	assert.False(t, w.HasThemeSelector())
	assert.False(t, w.HasCountrySelector())
	assert.False(t, w.IsGeneratePreviewButtonVisible())
	assert.False(t, w.ClickGeneratePreview())
	assert.False(t, w.HasClearButtons())
	assert.False(t, w.ClickClearCountry())
	assert.Equal(t, "", w.ErrorMessage())
}

func TestEventsWidgetPage_Preview(t *testing.T) {
	page := &scriptedPage{StaticPage: loadStatic(t, fixture(t))}
	w := newWidget(t, page, Options{})

	assert.True(t, w.IsGeneratePreviewButtonVisible())
	assert.True(t, w.ClickGeneratePreview())
	assert.Contains(t, page.waits, dynamicSettle)

	assert.True(t, w.IsPreviewAreaVisible())
	assert.Equal(t, 2, w.PreviewEventsCount())
	assert.False(t, w.IsPreviewEmpty())

	assert.True(t, w.WaitForPreviewGeneration(time.Second))
	require.Len(t, page.scripts, 1)
	assert.Contains(t, page.scripts[0], "preview")
}

func TestEventsWidgetPage_PreviewEmptyState(t *testing.T) {
	markup := `<html><body><div class="preview-container"><div class="no-events">Нет событий</div></div></body></html>`
	w := newWidget(t, loadStatic(t, markup), Options{})

	assert.True(t, w.IsPreviewAreaVisible())
	assert.True(t, w.IsPreviewEmpty())
}

func TestEventsWidgetPage_WaitForPreviewUnsupported(t *testing.T) {
	w := newWidget(t, loadStatic(t, fixture(t)), Options{})
	assert.False(t, w.WaitForPreviewGeneration(time.Second))
}

func TestEventsWidgetPage_Selection(t *testing.T) {
	w := newWidget(t, loadStatic(t, fixture(t)), Options{})
	selected := func(id string) string {
		return w.Resolver().Query(entities.RoleOption, entities.CSS("#"+id+" option[selected]")).TextContent().Value
	}

	assert.True(t, w.HasThemeSelector())
	assert.True(t, w.HasCountrySelector())
	assert.Equal(t, []string{"IT", "Финансы", "Россия", "Казахстан"}, entities.Texts(w.ThemeOptions()))
	assert.Equal(t, []string{"Россия", "Казахстан"}, entities.Texts(w.CountryOptions()))

	require.True(t, w.SelectCountry(""))
	assert.Equal(t, "Россия", selected("country"))

	require.True(t, w.SelectTheme("Финансы"))
	assert.Equal(t, "Финансы", selected("theme"))

	assert.False(t, w.SelectTheme("Нет такой темы"))
}

func TestEventsWidgetPage_SelectionSingleControl(t *testing.T) {
	markup := `<html><body><select id="theme"><option value="">Выберите</option></select></body></html>`
	w := newWidget(t, loadStatic(t, markup), Options{})

	assert.True(t, w.HasThemeSelector())
	assert.False(t, w.HasCountrySelector())
	assert.False(t, w.SelectCountry(""))
	assert.False(t, w.SelectTheme(""), "only a placeholder is offered")
}

func TestEventsWidgetPage_ErrorMessageOrder(t *testing.T) {
	w := newWidget(t, loadStatic(t, fixture(t)), Options{})
	// the alert comes first in the document but error classes are checked first
	assert.Equal(t, "Ошибка загрузки", w.ErrorMessage())

	w = newWidget(t, loadStatic(t, `<html><body><div role="alert">Сервис недоступен</div></body></html>`), Options{})
	assert.Equal(t, "Сервис недоступен", w.ErrorMessage())
}

func TestEventsWidgetPage_ClearCountry(t *testing.T) {
	t.Run("button next to the country control", func(t *testing.T) {
		w := newWidget(t, loadStatic(t, fixture(t)), Options{})
		assert.True(t, w.HasClearButtons())
		assert.Equal(t, 1, w.Resolver().Resolve(entities.RoleClearCountryButton).Count().Value)
		assert.True(t, w.ClickClearCountry())
	})

	t.Run("falls back to any clear button", func(t *testing.T) {
		markup := `<html><body>
			<div><select id="theme"><option>IT</option></select></div>
			<div class="toolbar"><button>Очистить</button></div>
		</body></html>`
		w := newWidget(t, loadStatic(t, markup), Options{})
		assert.Equal(t, 0, w.Resolver().Resolve(entities.RoleClearCountryButton).Count().Value)
		assert.True(t, w.ClickClearCountry())
	})

	t.Run("hidden button cannot be clicked", func(t *testing.T) {
		markup := `<html><body><div class="country"><button style="display: none">Очистить</button></div></body></html>`
		w := newWidget(t, loadStatic(t, markup), Options{})
		assert.False(t, w.ClickClearCountry())
	})
}

func TestEventsWidgetPage_TextChecks(t *testing.T) {
	w := newWidget(t, loadStatic(t, fixture(t)), Options{})

	report := w.CheckTextOverlapping()
	assert.False(t, report.HasOverlapping)
	assert.Positive(t, report.TextElementsCount)

	texts := w.VisibleTextElements()
	require.NotEmpty(t, texts)
	for _, text := range texts {
		assert.Greater(t, len([]rune(text)), minVisibleTextSize)
		assert.LessOrEqual(t, len([]rune(text)), visibleTextLimit)
	}

	snap := w.DebugPageStructure()
	assert.Equal(t, 2, snap.SelectorsFound)
	assert.Equal(t, 2, snap.ButtonsFound)
}

func TestEventsWidgetPage_Screenshot(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n")

	t.Run("written to the artifacts dir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "artifacts")
		w := newWidget(t, &scriptedPage{StaticPage: loadStatic(t, fixture(t)), png: png}, Options{ArtifactsDir: dir})

		data, err := w.Screenshot("failure.png")
		require.NoError(t, err)
		assert.Equal(t, png, data)

		written, err := os.ReadFile(filepath.Join(dir, "failure.png"))
		require.NoError(t, err)
		assert.Equal(t, png, written)
	})

	t.Run("kept in memory without artifacts dir", func(t *testing.T) {
		w := newWidget(t, &scriptedPage{StaticPage: loadStatic(t, fixture(t)), png: png}, Options{})
		data, err := w.Screenshot("failure.png")
		require.NoError(t, err)
		assert.Equal(t, png, data)
	})

	t.Run("unsupported driver", func(t *testing.T) {
		w := newWidget(t, loadStatic(t, fixture(t)), Options{ArtifactsDir: t.TempDir()})
		_, err := w.Screenshot("failure.png")
		assert.ErrorIs(t, err, interfaces.ErrUnsupported)
	})
}

func TestNewEventsWidgetPage_DefaultURL(t *testing.T) {
	w := NewEventsWidgetPage(loadStatic(t, fixture(t)), Options{}, nil)
	assert.Equal(t, DefaultURL, w.URL())
}
