package inspector

import (
	"strings"

	"events_widget/domain/entities"
)

// Issue labels reported by CheckOverlap
const (
	IssueAbsolutePositioning = "Найдено абсолютное позиционирование"
	IssueOverflowHidden      = "Найдено скрытие переполнения"
)

// CheckOverlap reports markup that may cause overlapping text.
// The check looks at inline styles and raw page content only; no geometry is measured.
func (i *Inspector) CheckOverlap() entities.OverlapReport {
	report := entities.OverlapReport{
		OverlappingElements: []string{},
		PotentialIssues:     []string{},
	}
	record := func(err error) {
		if err != nil {
			report.Errors = append(report.Errors, err.Error())
		}
	}

	texts := i.resolver.Resolve(entities.RoleTextElement).Count()
	record(texts.Err())
	report.TextElementsCount = texts.Value

	candidates := i.resolver.Resolve(entities.RoleOverlapCandidate)
	count := candidates.Count()
	record(count.Err())
	report.OverlappingCount = count.Value
	report.HasOverlapping = count.Value > 0

	for idx := 0; idx < min(count.Value, maxOverlapSamples); idx++ {
		text := candidates.Nth(idx).TextContent()
		record(text.Err())
		if t := strings.TrimSpace(text.Value); t != "" {
			report.OverlappingElements = append(report.OverlappingElements, truncate(t, sampleTextLimit))
		}
	}

	content := i.resolver.Content()
	record(content.Err())
	if strings.Contains(content.Value, "position: absolute") || strings.Contains(content.Value, "z-index") {
		report.PotentialIssues = append(report.PotentialIssues, IssueAbsolutePositioning)
	}
	if strings.Contains(content.Value, "overflow: hidden") {
		report.PotentialIssues = append(report.PotentialIssues, IssueOverflowHidden)
	}

	return report
}
