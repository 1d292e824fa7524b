package entities

// ElementInfo identifies an element on the page
type ElementInfo struct {
	TagName   string `json:"tag_name"`   // lower case tag
	ClassName string `json:"class_name"` // raw class attribute
	ID        string `json:"id"`
}
