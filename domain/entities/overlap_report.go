package entities

// OverlapReport is a markup-level overlap snapshot. It is recomputed on every inspection.
type OverlapReport struct {
	HasOverlapping      bool     `json:"has_overlapping"`
	OverlappingCount    int      `json:"overlapping_count"`
	OverlappingElements []string `json:"overlapping_elements"`
	TextElementsCount   int      `json:"text_elements_count"`
	PotentialIssues     []string `json:"potential_issues"`
	Errors              []string `json:"errors,omitempty"`
}
