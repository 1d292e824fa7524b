package suite

import (
	"fmt"
	"strings"
	"time"

	"events_widget/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// DefaultLoadBudget is the soft limit for opening the widget
const DefaultLoadBudget = 30 * time.Second

const (
	featureWidget     = "Events Widget"
	contentLoadWait   = 5 * time.Second
	previewWait       = 10 * time.Second
	clearSettle       = 2 * time.Second
	minContentLength  = 100
	sampleTitlesShown = 5
)

func info(name, group, story, title, description string, severity entities.Severity, markers ...entities.Marker) entities.ScenarioInfo {
	return entities.ScenarioInfo{
		Name:        name,
		Group:       group,
		Feature:     featureWidget,
		Story:       story,
		Title:       title,
		Description: description,
		Severity:    severity,
		Markers:     markers,
	}
}

// Catalog returns every scenario of the suite in execution order
func Catalog(loadBudget time.Duration) []Scenario {
	if loadBudget <= 0 {
		loadBudget = DefaultLoadBudget
	}

	var scenarios []Scenario
	scenarios = append(scenarios, basicScenarios()...)
	scenarios = append(scenarios, contentScenarios()...)
	scenarios = append(scenarios, interactivityScenarios()...)
	scenarios = append(scenarios, responsiveScenarios()...)
	scenarios = append(scenarios, performanceScenarios(loadBudget)...)
	scenarios = append(scenarios, analysisScenarios()...)
	scenarios = append(scenarios, previewScenarios()...)
	scenarios = append(scenarios, uiIssueScenarios()...)
	return scenarios
}

// open navigates to the widget; a navigation error fails the scenario
func open(c *Context, waitContent bool) {
	c.Step("Переход на страницу", func() {
		err := c.Page().Navigate(c.Ctx())
		require.NoError(c, err, "Не удалось открыть страницу")
		if waitContent {
			c.Page().WaitForContentLoad(contentLoadWait)
		}
	})
}

func requireLoaded(c *Context) {
	c.Step("Проверка доступности страницы", func() {
		if !c.Page().IsPageLoaded() {
			c.Skip("Страница недоступна")
		}
	})
}

func basicScenarios() []Scenario {
	const group, story = "Basic", "Базовая функциональность"
	return []Scenario{
		{
			Info: info("page_loads", group, story, "Проверка загрузки страницы",
				"Страница Events Widget успешно загружается", entities.SeverityBlocker, entities.MarkerSmoke),
			Run: func(c *Context) {
				c.Step("Переход на страницу Events Widget", func() {
					if err := c.Page().Navigate(c.Ctx()); err != nil {
						c.AttachText("Ошибка загрузки", "Ошибка навигации: %v", err)
						c.Skip("Не удалось загрузить страницу: %v", err)
					}
				})
				c.Step("Проверка успешной загрузки страницы", func() {
					if !c.Page().IsPageLoaded() {
						pi := c.Page().PageInfo()
						c.AttachText("Информация о странице", "URL: %s, Title: %s", pi.URL, pi.Title)
						c.Skip("Страница не загрузилась или недоступна")
					}
				})
			},
		},
		{
			Info: info("page_has_title", group, story, "Проверка наличия заголовка страницы",
				"Страница имеет непустой заголовок", entities.SeverityCritical, entities.MarkerSmoke),
			Run: func(c *Context) {
				open(c, false)
				var title string
				c.Step("Получение заголовка страницы", func() {
					title = c.Page().Title()
					c.AttachText("Заголовок страницы", "%s", title)
				})
				c.Step("Проверка наличия заголовка", func() {
					require.NotEmpty(c, title, "Заголовок страницы пустой")
				})
			},
		},
		{
			Info: info("widget_is_visible", group, story, "Проверка видимости виджета",
				"Виджет событий отображается на странице", entities.SeverityBlocker, entities.MarkerSmoke),
			Run: func(c *Context) {
				open(c, true)
				c.Step("Проверка видимости виджета", func() {
					require.True(c, c.Page().IsWidgetVisible(), "Виджет не отображается на странице")
				})
			},
		},
	}
}

func contentScenarios() []Scenario {
	const group, story = "Content", "Контент виджета"
	return []Scenario{
		{
			Info: info("page_has_content", group, story, "Проверка наличия контента на странице",
				"Страница содержит достаточное количество контента", entities.SeverityNormal, entities.MarkerRegression),
			Run: func(c *Context) {
				open(c, true)
				var content string
				c.Step("Получение контента страницы", func() {
					content = c.Page().Content()
					c.AttachText("Информация о контенте", "Длина контента: %d символов", len([]rune(content)))
				})
				c.Step("Проверка достаточности контента", func() {
					require.Greater(c, len([]rune(content)), minContentLength, "Страница содержит слишком мало контента")
				})
			},
		},
		{
			Info: info("events_display", group, story, "Проверка отображения событий",
				"На странице отображаются события или заголовки", entities.SeverityCritical, entities.MarkerRegression),
			Run: func(c *Context) {
				open(c, true)
				var events int
				var titles []string
				c.Step("Подсчет количества событий", func() {
					events = c.Page().EventsCount()
					c.AttachText("Количество событий", "Найдено событий: %d", events)
				})
				c.Step("Получение заголовков событий", func() {
					titles = c.Page().EventTitles()
					c.AttachText("Заголовки событий", "Найдено заголовков: %d\n%s",
						len(titles), strings.Join(titles[:min(len(titles), sampleTitlesShown)], "\n"))
				})
				c.Step("Проверка наличия событий или заголовков", func() {
					require.True(c, events > 0 || len(titles) > 0, "На странице не найдено событий или заголовков")
				})
			},
		},
		{
			Info: info("event_titles_not_empty", group, story, "Проверка непустых заголовков событий",
				"Все заголовки событий содержат текст", entities.SeverityNormal, entities.MarkerRegression),
			Run: func(c *Context) {
				open(c, true)
				var titles []string
				c.Step("Получение заголовков событий", func() {
					titles = c.Page().EventTitles()
					c.AttachText("Количество заголовков", "Всего заголовков: %d", len(titles))
				})
				for i, title := range titles {
					c.Step(fmt.Sprintf("Проверка заголовка #%d", i+1), func() {
						assert.NotEmpty(c, title, "Найден пустой заголовок события")
					})
				}
			},
		},
	}
}

func interactivityScenarios() []Scenario {
	const group, story = "Interactivity", "Интерактивность"
	return []Scenario{
		{
			Info: info("page_has_interactive_elements", group, story, "Проверка наличия интерактивных элементов",
				"Страница содержит кликабельные элементы", entities.SeverityNormal, entities.MarkerUI),
			Run: func(c *Context) {
				open(c, true)
				c.Step("Проверка наличия интерактивных элементов", func() {
					has := c.Page().HasInteractiveElements()
					c.AttachText("Результат проверки", "Интерактивные элементы найдены: %t", has)
					require.True(c, has, "На странице не найдено интерактивных элементов")
				})
			},
		},
		{
			Info: info("click_event_no_errors", group, story, "Проверка клика по событию без ошибок",
				"Клик по первому событию не вызывает ошибок", entities.SeverityNormal, entities.MarkerUI),
			Run: func(c *Context) {
				open(c, true)
				c.Step("Попытка клика по первому событию", func() {
					if c.Page().Resolver().Resolve(entities.RoleEventItem).Count().Value == 0 {
						c.AttachText("Причина пропуска", "События не найдены на странице")
						c.Skip("События не найдены на странице")
					}
					require.NoError(c, c.Page().ClickFirstEvent(), "Клик по событию завершился ошибкой")
					c.AttachText("Результат клика", "Клик выполнен успешно")
				})
			},
		},
	}
}

func responsiveScenarios() []Scenario {
	const group, story = "Responsive", "Адаптивность"
	resolution := func(name string, vp entities.Viewport) Scenario {
		size := fmt.Sprintf("%dx%d", vp.Width, vp.Height)
		return Scenario{
			Info: info(name, group, story, fmt.Sprintf("Проверка отображения на %s разрешении", vp.Name),
				fmt.Sprintf("Корректное отображение страницы на разрешении %s", size), entities.SeverityNormal, entities.MarkerRegression),
			Run: func(c *Context) {
				open(c, false)
				c.Step(fmt.Sprintf("Проверка адаптивности для %s (%s)", vp.Name, size), func() {
					ok := c.Page().IsResponsive(vp)
					c.AttachText("Разрешение экрана", "%s (%s)", size, vp.Name)
					require.True(c, ok, "Страница не адаптируется под %s разрешение", strings.ToLower(vp.Name))
				})
			},
		}
	}
	return []Scenario{
		resolution("desktop_resolution", entities.ViewportDesktop),
		resolution("tablet_resolution", entities.ViewportTablet),
		resolution("mobile_resolution", entities.ViewportMobile),
	}
}

func performanceScenarios(budget time.Duration) []Scenario {
	return []Scenario{{
		Info: info("page_loads_within_timeout", "Performance", "Производительность", "Проверка времени загрузки страницы",
			fmt.Sprintf("Страница загружается менее чем за %s", budget), entities.SeverityCritical, entities.MarkerSmoke),
		Run: func(c *Context) {
			var elapsed time.Duration
			c.Step("Измерение времени загрузки страницы", func() {
				start := time.Now()
				err := c.Page().Navigate(c.Ctx())
				elapsed = time.Since(start)
				c.AttachText("Время загрузки", "%.2f секунд", elapsed.Seconds())
				require.NoError(c, err, "Не удалось открыть страницу")
			})
			c.Step(fmt.Sprintf("Проверка, что загрузка заняла менее %s", budget), func() {
				require.Less(c, elapsed, budget, "Страница загружалась слишком долго: %.2fс", elapsed.Seconds())
			})
		},
	}}
}

func analysisScenarios() []Scenario {
	return []Scenario{{
		Info: info("page_structure_analysis", "Analysis", "Анализ страницы", "Анализ структуры страницы Events Widget",
			"Сбор информации о доступных элементах страницы", entities.SeverityNormal, entities.MarkerSmoke),
		Run: func(c *Context) {
			open(c, true)
			var snap entities.DebugSnapshot
			c.Step("Получение отладочной информации", func() {
				snap = c.Page().DebugPageStructure()
			})
			c.Step("Анализ найденных элементов", func() {
				c.AttachJSON("Полная структура страницы", snap)
				c.AttachScreenshot("Скриншот страницы", "page_analysis.png")
			})
		},
	}}
}

func previewScenarios() []Scenario {
	const group, story = "Preview", "Генератор превью"
	return []Scenario{
		{
			Info: info("generate_preview_button_exists", group, story, "Проверка наличия кнопки 'Сгенерировать превью'",
				"На странице есть кнопка для генерации превью", entities.SeverityCritical, entities.MarkerSmoke),
			Run: func(c *Context) {
				open(c, true)
				c.Step("Проверка наличия кнопки 'Сгенерировать превью'", func() {
					visible := c.Page().IsGeneratePreviewButtonVisible()
					c.AttachText("Статус кнопки", "Кнопка видима: %t", visible)
					require.True(c, visible, "Кнопка 'Сгенерировать превью' не найдена на странице")
				})
			},
		},
		{
			Info: info("selectors_exist", group, story, "Проверка наличия селекторов тематики и страны",
				"Наличие выпадающих списков для выбора тематики и страны", entities.SeverityCritical, entities.MarkerSmoke),
			Run: runSelectorsExist,
		},
		{
			Info: info("selector_options_available", group, story, "Проверка доступных опций в селекторах",
				"Селекторы содержат доступные для выбора опции", entities.SeverityNormal, entities.MarkerRegression),
			Run: runSelectorOptionsAvailable,
		},
		{
			Info: info("bug_empty_widget_after_preview_generation", group, story, "БАГ: Пустой виджет после генерации превью",
				"После выбора тематики и страны и нажатия 'Сгенерировать превью' виджет остается пустым",
				entities.SeverityBlocker, entities.MarkerRegression),
			Run: runEmptyWidgetBug,
		},
		{
			Info: info("preview_generation_without_selection", group, story, "Проверка генерации превью без выбора параметров",
				"Поведение при нажатии 'Сгенерировать превью' без выбора тематики и страны", entities.SeverityNormal, entities.MarkerRegression),
			Run: func(c *Context) {
				open(c, true)
				c.Step("Проверка наличия кнопки генерации", func() {
					if !c.Page().IsGeneratePreviewButtonVisible() {
						c.Skip("Кнопка 'Сгенерировать превью' не найдена")
					}
				})
				c.Step("Нажатие кнопки без выбора параметров", func() {
					c.Page().ClickGeneratePreview()
					c.Page().WaitForPreviewGeneration(previewWait)
				})
				c.Step("Проверка результата", func() {
					c.AttachText("Результат генерации", "Количество событий: %d", c.Page().PreviewEventsCount())
					if msg := c.Page().ErrorMessage(); msg != "" {
						c.AttachText("Сообщение об ошибке", "%s", msg)
					}
				})
			},
		},
		{
			Info: info("selectors_interactivity", group, story, "Проверка интерактивности селекторов",
				"Селекторы реагируют на взаимодействие", entities.SeverityNormal, entities.MarkerUI),
			Run: func(c *Context) {
				open(c, true)
				c.Step("Тестирование селектора тематики", func() {
					if c.Page().HasThemeSelector() {
						c.AttachText("Тематика", "Выбор выполнен: %t", c.Page().SelectTheme(""))
					}
				})
				c.Step("Тестирование селектора страны", func() {
					if c.Page().HasCountrySelector() {
						c.AttachText("Страна", "Выбор выполнен: %t", c.Page().SelectCountry(""))
					}
				})
			},
		},
	}
}

func runSelectorsExist(c *Context) {
	open(c, true)
	var snap entities.DebugSnapshot
	c.Step("Анализ структуры страницы", func() {
		snap = c.Page().DebugPageStructure()
		c.AttachJSON("Структура страницы", snap)
	})
	var hasTheme, hasCountry bool
	c.Step("Проверка наличия селектора тематики", func() {
		hasTheme = c.Page().HasThemeSelector()
		c.AttachText("Селектор тематики", "Селектор тематики найден: %t", hasTheme)
	})
	c.Step("Проверка наличия селектора страны", func() {
		hasCountry = c.Page().HasCountrySelector()
		c.AttachText("Селектор страны", "Селектор страны найден: %t", hasCountry)
	})
	c.Step("Проверка наличия элементов управления", func() {
		switch {
		case hasTheme || hasCountry:
		case snap.SelectorsFound > 0 || snap.ButtonsFound > 0:
			c.AttachText("Альтернативные элементы", "Найдены элементы управления, но они могут иметь другую структуру")
		default:
			c.Fail("Не найдено элементов управления на странице")
		}
	})
}

func runSelectorOptionsAvailable(c *Context) {
	open(c, true)
	var snap entities.DebugSnapshot
	c.Step("Отладка структуры страницы", func() {
		snap = c.Page().DebugPageStructure()
		c.AttachJSON("Отладочная информация", snap)
	})
	var themes, countries []entities.OptionEntry
	c.Step("Получение опций тематики", func() {
		themes = c.Page().ThemeOptions()
		c.AttachText("Опции тематики", "Доступные тематики (%d): %s", len(themes), joinFirst(themes, 5))
	})
	c.Step("Получение опций стран", func() {
		countries = c.Page().CountryOptions()
		c.AttachText("Опции стран", "Доступные страны (%d): %s", len(countries), joinFirst(countries, 5))
	})
	c.Step("Анализ найденных селекторов", func() {
		c.AttachText("Подробная статистика",
			"Селекторов найдено: %d\nКнопок найдено: %d\nОпций тематики: %d\nОпций стран: %d\nВсего опций: %d",
			snap.SelectorsFound, snap.ButtonsFound, snap.ThemeOptionsFound, snap.CountryOptionsFound, len(themes)+len(countries))
	})
	c.Step("Принятие решения о результате теста", func() {
		switch {
		case len(themes) > 0 || len(countries) > 0:
			c.AttachText("Результат", "Найдены опции в селекторах")
		case snap.SelectorsFound > 0:
			c.AttachText("Анализ проблемы", "Найдено %d селекторов, но опции не извлечены", snap.SelectorsFound)
		default:
			c.Skip("Селекторы не найдены на странице. Найдено: селекторов=%d, кнопок=%d", snap.SelectorsFound, snap.ButtonsFound)
		}
	})
}

func runEmptyWidgetBug(c *Context) {
	open(c, true)
	requireLoaded(c)
	c.Step("Проверка наличия необходимых элементов", func() {
		if !c.Page().IsGeneratePreviewButtonVisible() {
			c.Skip("Кнопка 'Сгенерировать превью' не найдена - возможно, страница имеет другую структуру")
		}
	})
	c.Step("Анализ доступных элементов", func() {
		c.AttachJSON("Анализ страницы", c.Page().DebugPageStructure())
	})
	c.Step("Выбор тематики", func() {
		if themes := c.Page().ThemeOptions(); len(themes) > 0 {
			c.Page().SelectTheme(themes[0].Text)
			c.AttachText("Выбранная тематика", "Выбрана тематика: %s", themes[0].Text)
		} else {
			c.AttachText("Статус тематики", "Тематики не найдены, пропускаем выбор")
		}
	})
	c.Step("Выбор страны", func() {
		if countries := c.Page().CountryOptions(); len(countries) > 0 {
			c.Page().SelectCountry(countries[0].Text)
			c.AttachText("Выбранная страна", "Выбрана страна: %s", countries[0].Text)
		} else {
			c.AttachText("Статус страны", "Страны не найдены, пропускаем выбор")
		}
	})
	c.Step("Нажатие кнопки 'Сгенерировать превью'", func() {
		c.Page().ClickGeneratePreview()
		c.Page().WaitForPreviewGeneration(previewWait)
	})

	var empty bool
	var events int
	c.Step("Проверка результата генерации", func() {
		empty = c.Page().IsPreviewEmpty()
		events = c.Page().PreviewEventsCount()
		c.AttachText("Статус превью", "Превью пустое: %t", empty)
		c.AttachText("Количество событий", "Количество событий: %d", events)
		if msg := c.Page().ErrorMessage(); msg != "" {
			c.AttachText("Сообщение об ошибке", "%s", msg)
		}
	})
	c.Step("Виджет должен содержать события", func() {
		if empty && events == 0 {
			c.XFail("Известный баг: виджет пустой после генерации превью")
		}
		require.Greater(c, events, 0, "Ожидались события в виджете, но найдено: %d", events)
	})
}

func uiIssueScenarios() []Scenario {
	const group, story = "UI", "UI и отображение"
	return []Scenario{
		{
			Info: info("bug_text_overlapping_after_clear_country", group, story, "БАГ: Наложение текста при очистке страны",
				"Наложение текста после нажатия кнопки 'Очистить' для страны", entities.SeverityNormal, entities.MarkerRegression),
			Run: runOverlapAfterClearBug,
		},
		{
			Info: info("clear_buttons_functionality", group, story, "Проверка наличия кнопок очистки",
				"Наличие и функциональность кнопок очистки", entities.SeverityNormal, entities.MarkerUI),
			Run: func(c *Context) {
				open(c, true)
				requireLoaded(c)
				c.Step("Поиск кнопок очистки", func() {
					has := c.Page().HasClearButtons()
					c.AttachText("Результат поиска", "Кнопки очистки найдены: %t", has)
					if !has {
						c.Skip("Кнопки очистки не найдены")
					}
				})
				c.Step("Тестирование функциональности", func() {
					if !c.Page().ClickClearCountry() {
						c.Fail("Кнопка очистки не работает")
					}
					c.AttachText("Функциональность", "Кнопка очистки работает")
				})
			},
		},
		{
			Info: info("general_ui_overlapping_analysis", group, story, "Общий анализ наложения элементов на странице",
				"Анализ страницы на предмет наложения элементов интерфейса", entities.SeverityMinor, entities.MarkerUI),
			Run: func(c *Context) {
				open(c, true)
				requireLoaded(c)
				var report entities.OverlapReport
				c.Step("Анализ наложения элементов", func() {
					report = c.Page().CheckTextOverlapping()
					c.AttachJSON("Полный анализ наложения", report)
				})
				c.Step("Создание скриншота для визуального анализа", func() {
					c.AttachScreenshot("Скриншот UI", "ui_analysis.png")
				})
				c.Step("Получение списка видимых элементов", func() {
					texts := c.Page().VisibleTextElements()
					c.AttachText("Статистика элементов", "Найдено %d видимых текстовых элементов", len(texts))
					if len(texts) > 0 {
						c.AttachText("Примеры текстовых элементов", "%s", strings.Join(texts[:min(len(texts), 10)], "\n"))
					}
				})
				c.Step("Оценка качества UI", func() {
					if report.HasOverlapping {
						c.AttachText("Предупреждение UI", "Обнаружено %d потенциально наложенных элементов", report.OverlappingCount)
					}
					if len(report.PotentialIssues) > 0 {
						c.AttachText("Анализ CSS", "Потенциальные проблемы: %s", strings.Join(report.PotentialIssues, ", "))
					}
				})
			},
		},
	}
}

func runOverlapAfterClearBug(c *Context) {
	open(c, true)
	requireLoaded(c)
	c.Step("Создание скриншота до изменений", func() {
		c.AttachScreenshot("Скриншот до очистки", "before_clear.png")
	})

	var before entities.OverlapReport
	c.Step("Анализ текстовых элементов до очистки", func() {
		c.AttachText("Количество элементов до", "Текстовых элементов до: %d", len(c.Page().VisibleTextElements()))
		before = c.Page().CheckTextOverlapping()
		c.AttachJSON("Анализ наложения до", before)
	})
	c.Step("Выбор страны (если доступно)", func() {
		if len(c.Page().CountryOptions()) > 0 {
			c.Page().SelectCountry("")
			c.AttachText("Статус выбора", "Страна выбрана")
		} else {
			c.AttachText("Предупреждение", "Селектор стран не найден, пропускаем выбор")
		}
	})
	c.Step("Поиск и нажатие кнопки очистки", func() {
		has := c.Page().HasClearButtons()
		c.AttachText("Наличие кнопок очистки", "Кнопки очистки найдены: %t", has)
		if !has {
			c.Skip("Кнопки очистки не найдены на странице")
		}
		c.Page().ClickClearCountry()
	})

	var after entities.OverlapReport
	c.Step("Анализ после очистки", func() {
		c.Page().Wait(clearSettle)
		c.AttachText("Количество элементов после", "Текстовых элементов после: %d", len(c.Page().VisibleTextElements()))
		after = c.Page().CheckTextOverlapping()
		c.AttachJSON("Анализ наложения после", after)
	})
	c.Step("Создание скриншота после изменений", func() {
		c.AttachScreenshot("Скриншот после очистки", "after_clear.png")
	})
	c.Step("Проверка наличия наложения текста", func() {
		c.AttachText("Статус до", "Наложение до: %t (%d элементов)", before.HasOverlapping, before.OverlappingCount)
		c.AttachText("Статус после", "Наложение после: %t (%d элементов)", after.HasOverlapping, after.OverlappingCount)
		switch {
		case after.OverlappingCount > before.OverlappingCount:
			c.XFail("Известный баг: наложение текста после очистки страны")
		case after.HasOverlapping:
			c.AttachText("Предупреждение", "Обнаружены наложенные элементы после очистки")
		}
	})
}

func joinFirst(entries []entities.OptionEntry, n int) string {
	texts := entities.Texts(entries)
	return strings.Join(texts[:min(len(texts), n)], ", ")
}
