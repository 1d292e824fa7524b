package inspector

import (
	"strings"
	"unicode/utf8"

	"events_widget/application/locator"
	"events_widget/domain/entities"
)

// placeholderPrefixes mark options like "Выберите страну" or "-- any --"
var placeholderPrefixes = []string{"выбер", "select", "choose", "--"}

// EnumerateOptions collects distinct option entries of the controls starting at index from.
// At most 10 controls are scanned and at most 20 entries returned. Faulting options are skipped.
func (i *Inspector) EnumerateOptions(from int) []entities.OptionEntry {
	entries := make([]entities.OptionEntry, 0)
	seen := make(map[string]bool)

	controls := i.resolver.Resolve(entities.RoleGenericControl)
	limit := min(controls.Count().Value, maxControls)

	for idx := max(from, 0); idx < limit && len(entries) < maxOptions; idx++ {
		options := controls.Nth(idx).Options()
		count := options.Count().Value

		for j := 0; j < count && len(entries) < maxOptions; j++ {
			entry, ok := optionEntry(options.Nth(j))
			if !ok || seen[entry.Text] {
				continue
			}
			seen[entry.Text] = true
			entries = append(entries, entry)
		}
	}

	return entries
}

// ThemeOptions - returns options of all controls
func (i *Inspector) ThemeOptions() []entities.OptionEntry {
	return i.EnumerateOptions(int(locator.SlotTheme))
}

// CountryOptions - returns options of all controls after the first, empty with fewer than two controls
func (i *Inspector) CountryOptions() []entities.OptionEntry {
	return i.EnumerateOptions(int(locator.SlotCountry))
}

func optionEntry(option locator.Group) (entities.OptionEntry, bool) {
	text := option.TextContent()
	value := option.Attribute("value")
	if !text.OK() || !value.OK() {
		return entities.OptionEntry{}, false
	}

	if t := strings.TrimSpace(text.Value); t != "" {
		if isPlaceholder(t) || utf8.RuneCountInString(t) <= 1 {
			return entities.OptionEntry{}, false
		}
		return entities.OptionEntry{Text: t, Value: value.Value}, true
	}

	if v := strings.TrimSpace(value.Value); v != "" {
		return entities.OptionEntry{Text: v, Value: v}, true
	}
	return entities.OptionEntry{}, false
}

func isPlaceholder(text string) bool {
	lower := strings.ToLower(text)
	for _, prefix := range placeholderPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
