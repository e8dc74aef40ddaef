package valuation

import "fmt"

// DomainError is returned for inputs the calculator cannot evaluate meaningfully
// (non-finite numbers, an empty horizon, a discount rate at or below -100%) and for
// results that overflowed to a non-finite value.
type DomainError struct {
	Field  string
	Value  any // offending input or result, nil if there is none to show
	Reason string
}

func (e *DomainError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}
