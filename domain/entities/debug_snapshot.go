package entities

// DebugSnapshot is a read-only dump of what the page offers
type DebugSnapshot struct {
	SelectorsFound       int               `json:"selectors_found"`
	ButtonsFound         int               `json:"buttons_found"`
	InputsFound          int               `json:"inputs_found"`
	PageTitle            string            `json:"page_title"`
	PageURL              string            `json:"page_url"`
	BodyTextLength       int               `json:"body_text_length"`
	AllTextElements      []string          `json:"all_text_elements"`
	SelectorDetails      []SelectorDetail  `json:"selector_details"`
	PreviewElementsCount int               `json:"preview_elements_count"`
	ThemeOptionsFound    int               `json:"theme_options_found"`
	CountryOptionsFound  int               `json:"country_options_found"`
	ProbeErrors          map[string]string `json:"probe_errors,omitempty"`
}

// SelectorDetail describes one dropdown-like control
type SelectorDetail struct {
	Index         int           `json:"index"`
	Element       ElementInfo   `json:"element"`
	OptionsCount  int           `json:"options_count"`
	SampleOptions []OptionEntry `json:"sample_options"`
	Error         string        `json:"error,omitempty"`
}

// Errored - reports whether any probe failed
func (s DebugSnapshot) Errored() bool {
	if len(s.ProbeErrors) > 0 {
		return true
	}
	for _, d := range s.SelectorDetails {
		if d.Error != "" {
			return true
		}
	}
	return false
}
