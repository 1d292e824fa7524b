package locator

import (
	"fmt"
	"time"

	"events_widget/domain/entities"
	"events_widget/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// ControlSlot is the positional meaning given to a GenericControl match
type ControlSlot int

const (
	SlotTheme   ControlSlot = 0
	SlotCountry ControlSlot = 1
)

func (s ControlSlot) String() string {
	switch s {
	case SlotTheme:
		return "theme"
	case SlotCountry:
		return "country"
	}
	return fmt.Sprintf("control#%d", int(s))
}

// Resolver maps roles to element groups on a live page
type Resolver struct {
	page   interfaces.Page
	roles  map[entities.Role][]entities.Pattern
	logger *logrus.Logger
}

// NewResolver - creates a resolver over page using the default role table
func NewResolver(page interfaces.Page, logger *logrus.Logger) *Resolver {
	return NewResolverWithRoles(page, DefaultRoles(), logger)
}

// NewResolverWithRoles - creates a resolver with a custom role table
func NewResolverWithRoles(page interfaces.Page, roles map[entities.Role][]entities.Pattern, logger *logrus.Logger) *Resolver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Resolver{page: page, roles: roles, logger: logger}
}

// Patterns - returns the ordered patterns of role
func (r *Resolver) Patterns(role entities.Role) []entities.Pattern {
	return r.roles[role]
}

// Resolve - returns the union of all patterns of role
func (r *Resolver) Resolve(role entities.Role) Group {
	patterns := r.roles[role]
	return r.group(role, func() interfaces.Locator {
		return r.page.Locate(patterns...)
	})
}

// Query - returns an ad-hoc group for patterns, reported under role
func (r *Resolver) Query(role entities.Role, patterns ...entities.Pattern) Group {
	return r.group(role, func() interfaces.Locator {
		return r.page.Locate(patterns...)
	})
}

// Control - returns the GenericControl at slot. ok is false when the page has fewer controls.
// Assignment is purely positional over document order.
func (r *Resolver) Control(slot ControlSlot) (Group, bool) {
	controls := r.Resolve(entities.RoleGenericControl)
	if controls.Count().Value <= int(slot) {
		return Group{}, false
	}
	return controls.Nth(int(slot)), true
}

// Content - returns the serialized document
func (r *Resolver) Content() Result[string] {
	return r.pageAttempt("content", func() (string, error) { return r.page.Content() })
}

// Title - returns the document title
func (r *Resolver) Title() Result[string] {
	return r.pageAttempt("title", func() (string, error) { return r.page.Title() })
}

// URL - returns the current address
func (r *Resolver) URL() Result[string] {
	return r.pageAttempt("url", func() (string, error) { return r.page.URL(), nil })
}

func (r *Resolver) pageAttempt(op string, fn func() (string, error)) Result[string] {
	return guard(r, "page", op, fn)
}

func (r *Resolver) group(role entities.Role, build func() interfaces.Locator) Group {
	return Group{role: role, resolver: r, build: build}
}

// Group is a fail-soft view over a driver locator. The zero Group is empty.
type Group struct {
	role     entities.Role
	resolver *Resolver
	build    func() interfaces.Locator
}

// Role - returns the role the group was resolved for
func (g Group) Role() entities.Role {
	return g.role
}

// Count - returns the number of members
func (g Group) Count() Result[int] {
	return attempt(g, "count", func(l interfaces.Locator) (int, error) {
		return l.Count()
	})
}

// Nth - returns the member at index
func (g Group) Nth(index int) Group {
	return g.derive(func(l interfaces.Locator) interfaces.Locator { return l.Nth(index) })
}

// First - returns the first member
func (g Group) First() Group {
	return g.derive(func(l interfaces.Locator) interfaces.Locator { return l.First() })
}

// Within - narrows to descendants matching any of the patterns
func (g Group) Within(patterns ...entities.Pattern) Group {
	return g.derive(func(l interfaces.Locator) interfaces.Locator { return l.Locate(patterns...) })
}

// WithinRole - narrows to descendants matching role
func (g Group) WithinRole(role entities.Role) Group {
	if g.resolver == nil {
		return Group{}
	}
	return g.Within(g.resolver.Patterns(role)...)
}

// Options - returns the option children of the group
func (g Group) Options() Group {
	return g.WithinRole(entities.RoleOption)
}

// TextContent - returns the raw text content of the first member
func (g Group) TextContent() Result[string] {
	return attempt(g, "text_content", func(l interfaces.Locator) (string, error) {
		return l.TextContent()
	})
}

// Attribute - returns attribute name, "" when absent
func (g Group) Attribute(name string) Result[string] {
	return attempt(g, "get_attribute:"+name, func(l interfaces.Locator) (string, error) {
		return l.GetAttribute(name)
	})
}

// TagName - returns the lower case tag name
func (g Group) TagName() Result[string] {
	return attempt(g, "tag_name", func(l interfaces.Locator) (string, error) {
		return l.TagName()
	})
}

// IsVisible - reports visibility without waiting
func (g Group) IsVisible() Result[bool] {
	return attempt(g, "is_visible", func(l interfaces.Locator) (bool, error) {
		return l.IsVisible()
	})
}

// WaitVisible - waits up to timeout for the first member to become visible
func (g Group) WaitVisible(timeout time.Duration) Result[bool] {
	return attempt(g, "wait_visible", func(l interfaces.Locator) (bool, error) {
		if err := l.WaitVisible(timeout); err != nil {
			return false, err
		}
		return true, nil
	})
}

// Click - clicks the group; Value reports whether the click happened
func (g Group) Click(timeout time.Duration) Result[bool] {
	return attempt(g, "click", func(l interfaces.Locator) (bool, error) {
		if err := l.Click(timeout); err != nil {
			return false, err
		}
		return true, nil
	})
}

// SelectOption - selects an option; Value reports whether the selection happened
func (g Group) SelectOption(choice interfaces.OptionChoice) Result[bool] {
	return attempt(g, "select_option", func(l interfaces.Locator) (bool, error) {
		if err := l.SelectOption(choice); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (g Group) derive(step func(interfaces.Locator) interfaces.Locator) Group {
	if g.build == nil {
		return g
	}
	parent := g.build
	g.build = func() interfaces.Locator {
		l := parent()
		if l == nil {
			return nil
		}
		return step(l)
	}
	return g
}

// attempt runs op against the group's locator and converts any error or panic into a fault
func attempt[T any](g Group, op string, fn func(interfaces.Locator) (T, error)) Result[T] {
	if g.build == nil {
		return Result[T]{}
	}
	return guard(g.resolver, g.role, op, func() (T, error) {
		var zero T
		l := g.build()
		if l == nil {
			return zero, nil
		}
		return fn(l)
	})
}

func guard[T any](r *Resolver, role entities.Role, op string, fn func() (T, error)) (res Result[T]) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Result[T]{Fault: &Fault{Role: role, Op: op, Err: fmt.Errorf("driver panic: %v", rec)}}
			r.log(res.Fault)
		}
	}()

	v, err := fn()
	if err != nil {
		res = Result[T]{Fault: &Fault{Role: role, Op: op, Err: err}}
		r.log(res.Fault)
		return res
	}
	return Result[T]{Value: v}
}

func (r *Resolver) log(f *Fault) {
	if r == nil {
		return
	}
	r.logger.WithFields(logrus.Fields{
		"role": f.Role,
		"op":   f.Op,
	}).Debugf("query degraded to default: %v", f.Err)
}
