package entities

// OptionEntry is a choice offered by a dropdown-like control
type OptionEntry struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}

// Texts - returns the display texts of entries in order
func Texts(entries []OptionEntry) []string {
	texts := make([]string, 0, len(entries))
	for _, e := range entries {
		texts = append(texts, e.Text)
	}
	return texts
}
