package entities

import (
	"fmt"
	"strings"
)

// Role is a logical element category resolved through an ordered list of patterns
type Role string

const (
	RoleWidgetContainer       Role = "widget_container"
	RoleEventItem             Role = "event_item"
	RoleEventTitle            Role = "event_title"
	RoleEventDate             Role = "event_date"
	RoleEventDescription      Role = "event_description"
	RoleGeneratePreviewButton Role = "generate_preview_button"
	RoleGenericControl        Role = "generic_control"
	RolePreviewArea           Role = "preview_area"
	RolePreviewEvent          Role = "preview_event"
	RoleEmptyState            Role = "empty_state"
	RoleEventNameHeader       Role = "event_name_header"
	RoleEventDateHeader       Role = "event_date_header"
	RoleEventCountryHeader    Role = "event_country_header"
	RoleClearButton           Role = "clear_button"
	RoleClearCountryButton    Role = "clear_country_button"
	RoleOverlapCandidate      Role = "overlap_candidate"
	RoleTextElement           Role = "text_element"
	RoleVisibleTextCandidate  Role = "visible_text_candidate"
	RoleInteractive           Role = "interactive"
	RoleButton                Role = "button"
	RoleInput                 Role = "input"
	RoleBody                  Role = "body"
	RoleOption                Role = "option"
	RolePreviewKeyword        Role = "preview_keyword"
	RoleErrorIndicator        Role = "error_indicator"
)

// PatternKind tells a driver how to interpret Pattern.Expr
type PatternKind int

const (
	// PatternCSS is a CSS selector (a selector list is allowed)
	PatternCSS PatternKind = iota
	// PatternText matches elements whose normalized visible text equals Expr
	PatternText
	// PatternTextMatch matches elements whose visible text matches the regular expression Expr
	PatternTextMatch
)

// Pattern is one concrete way to find members of a Role.
// HasText, HasTextMatch and Near only apply to PatternCSS.
type Pattern struct {
	Kind         PatternKind `json:"kind"`
	Expr         string      `json:"expr"`
	IgnoreCase   bool        `json:"ignore_case,omitempty"`    // PatternTextMatch only
	HasText      string      `json:"has_text,omitempty"`       // case-insensitive substring of the element text
	HasTextMatch string      `json:"has_text_match,omitempty"` // regular expression over the element text
	Near         string      `json:"near,omitempty"`           // CSS anchor the element must be close to
}

// CSS - creates a CSS pattern
func CSS(selector string) Pattern {
	return Pattern{Kind: PatternCSS, Expr: selector}
}

// Text - creates an exact visible text pattern
func Text(text string) Pattern {
	return Pattern{Kind: PatternText, Expr: text}
}

// TextMatch - creates a regular expression text pattern
func TextMatch(expr string, ignoreCase bool) Pattern {
	return Pattern{Kind: PatternTextMatch, Expr: expr, IgnoreCase: ignoreCase}
}

// WithText - narrows a CSS pattern to elements containing text
func (p Pattern) WithText(text string) Pattern {
	p.HasText = text
	return p
}

// WithTextMatch - narrows a CSS pattern to elements whose text matches expr
func (p Pattern) WithTextMatch(expr string) Pattern {
	p.HasTextMatch = expr
	return p
}

// NearTo - narrows a CSS pattern to elements laid out near anchor
func (p Pattern) NearTo(anchor string) Pattern {
	p.Near = anchor
	return p
}

// Selector renders the pattern as a Playwright selector string.
// HasTextMatch has no selector form and is applied by drivers as a filter.
func (p Pattern) Selector() string {
	switch p.Kind {
	case PatternText:
		return fmt.Sprintf("text=%q", p.Expr)
	case PatternTextMatch:
		flags := ""
		if p.IgnoreCase {
			flags = "i"
		}
		return fmt.Sprintf("text=/%s/%s", p.Expr, flags)
	}

	var b strings.Builder
	b.WriteString(p.Expr)
	if p.HasText != "" {
		fmt.Fprintf(&b, ":has-text(%q)", p.HasText)
	}
	if p.Near != "" {
		fmt.Fprintf(&b, ":near(%s)", p.Near)
	}
	return b.String()
}

func (p Pattern) String() string {
	s := p.Selector()
	if p.HasTextMatch != "" {
		s += fmt.Sprintf(" >> has-text=/%s/", p.HasTextMatch)
	}
	return s
}
