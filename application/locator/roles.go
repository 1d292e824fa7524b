package locator

import "events_widget/domain/entities"

// Visible texts of the widget. The page under test is Russian.
const (
	GeneratePreviewText = "Сгенерировать превью"
	ClearText           = "Очистить"
	NoEventsText        = "Нет событий"
	EmptyText           = "Пусто"
	EventNameHeaderText = "Название события"
	EventDateHeaderText = "Дата проведения"
	CountryHeaderText   = "Страны проведения"
)

// nonBlank matches any element carrying non-whitespace text
const nonBlank = `\S`

// DefaultRoles returns the pattern table. Patterns of a role are unioned in declaration order.
func DefaultRoles() map[entities.Role][]entities.Pattern {
	css := entities.CSS
	return map[entities.Role][]entities.Pattern{
		entities.RoleWidgetContainer: {
			css(`[class*="widget"]`), css(`[class*="events"]`), css(`[id*="widget"]`), css(`[id*="events"]`),
		},
		entities.RoleEventItem: {
			css(`[class*="event"]`), css(`[class*="item"]`), css(`article`), css(`.card`),
		},
		entities.RoleEventTitle: {
			css(`[class*="title"]`), css(`h1`), css(`h2`), css(`h3`), css(`h4`),
		},
		entities.RoleEventDate: {
			css(`[class*="date"]`), css(`time`), css(`[datetime]`),
		},
		entities.RoleEventDescription: {
			css(`[class*="description"]`), css(`[class*="text"]`), css(`p`),
		},
		entities.RoleGeneratePreviewButton: {
			entities.Text(GeneratePreviewText),
		},
		entities.RoleGenericControl: {
			css(`select`), css(`[role="combobox"]`), css(`[class*="select"]`), css(`[class*="dropdown"]`), css(`input[list]`),
		},
		entities.RolePreviewArea: {
			css(`[class*="preview"]`), css(`[class*="widget-preview"]`), css(`.preview-container`),
			css(`.widget-container`), css(`main`), css(`.content`),
		},
		entities.RolePreviewEvent: {
			css(`[class*="event"]`), css(`[class*="item"]`), css(`.event-card`),
		},
		entities.RoleEmptyState: {
			css(`[class*="empty"]`), css(`[class*="no-data"]`), css(`[class*="no-events"]`),
			entities.Text(NoEventsText), entities.Text(EmptyText),
		},
		entities.RoleEventNameHeader:    {entities.Text(EventNameHeaderText)},
		entities.RoleEventDateHeader:    {entities.Text(EventDateHeaderText)},
		entities.RoleEventCountryHeader: {entities.Text(CountryHeaderText)},
		entities.RoleClearButton: {
			css(`button`).WithText(ClearText), css(`button`).WithText("Clear"),
			css(`[class*="clear"]`), css(`[class*="reset"]`),
		},
		entities.RoleClearCountryButton: {
			css(`button`).WithText(ClearText).NearTo(`[class*="country"], [class*="страна"]`),
		},
		entities.RoleOverlapCandidate: {
			css(`[style*="position: absolute"]`), css(`[style*="z-index"]`),
		},
		entities.RoleTextElement: {
			css(`span, div, p, label`).WithTextMatch(nonBlank),
		},
		entities.RoleVisibleTextCandidate: {
			css(`*`).WithTextMatch(nonBlank),
		},
		entities.RoleInteractive: {
			css(`a`), css(`button`), css(`[onclick]`), css(`[role="button"]`),
		},
		entities.RoleButton: {css(`button`)},
		entities.RoleInput:  {css(`input`)},
		entities.RoleBody:   {css(`body`)},
		entities.RoleOption: {css(`option`)},
		entities.RolePreviewKeyword: {
			entities.TextMatch(`превью|генер|preview|generate`, true),
		},
		entities.RoleErrorIndicator: {
			css(`[class*="error"]`), css(`[class*="alert"]`), css(`.error-message`), css(`.alert-danger`), css(`[role="alert"]`),
		},
	}
}
