package locator

import (
	"fmt"

	"events_widget/domain/entities"
)

// Fault is a driver failure absorbed at the resolver boundary
type Fault struct {
	Role entities.Role
	Op   string
	Err  error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Role, f.Op, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Result carries a query value and the fault, if any, that forced it to its zero default.
// Value is always safe to use: a missing element and a failed query both yield zero,
// only Fault tells them apart.
type Result[T any] struct {
	Value T
	Fault *Fault
}

// OK - reports whether the query completed without a fault
func (r Result[T]) OK() bool {
	return r.Fault == nil
}

// Err - returns the fault as an error, or nil
func (r Result[T]) Err() error {
	if r.Fault == nil {
		return nil
	}
	return r.Fault
}

// Or - returns Value, or def when the query faulted
func (r Result[T]) Or(def T) T {
	if r.Fault != nil {
		return def
	}
	return r.Value
}
