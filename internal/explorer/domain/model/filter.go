package model

import (
	"fmt"

	"firestore-explorer/internal/shared/errors"
)

// Operator is a filter condition understood by the collection view.
type Operator string

const (
	OperatorEqual              Operator = "=="
	OperatorNotEqual           Operator = "!="
	OperatorLessThan           Operator = "<"
	OperatorLessThanOrEqual    Operator = "<="
	OperatorGreaterThan        Operator = ">"
	OperatorGreaterThanOrEqual Operator = ">="
	OperatorIn                 Operator = "in"
	OperatorNotIn              Operator = "not-in"
	OperatorArrayContains      Operator = "array-contains"
	OperatorArrayContainsAny   Operator = "array-contains-any"
	// OperatorSort orders by the field instead of restricting it.
	OperatorSort Operator = "sort"
)

// SortDirection is the order applied by a sort filter.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// Filter is a single-field condition or sort chosen in the UI.
type Filter struct {
	Field     string        `json:"field"`
	Operator  Operator      `json:"op"`
	Value     interface{}   `json:"value,omitempty"`
	Values    []interface{} `json:"values,omitempty"`
	Direction SortDirection `json:"direction,omitempty"`
}

// IsSort reports whether the filter only orders documents.
func (f *Filter) IsSort() bool {
	return f.Operator == OperatorSort
}

// IsRange reports whether the operator is an ordering comparison.
func (f *Filter) IsRange() bool {
	switch f.Operator {
	case OperatorLessThan, OperatorLessThanOrEqual, OperatorGreaterThan, OperatorGreaterThanOrEqual:
		return true
	}
	return false
}

// IsMembership reports whether the operator takes a list of values.
func (f *Filter) IsMembership() bool {
	switch f.Operator {
	case OperatorIn, OperatorNotIn, OperatorArrayContainsAny:
		return true
	}
	return false
}

// MaxMembershipValues caps the value list of in, not-in and array-contains-any.
const MaxMembershipValues = 30

// Validate checks operator, field and value shape.
func (f *Filter) Validate() error {
	if f.Field == "" {
		return invalidFilter("filter field is required")
	}

	switch f.Operator {
	case OperatorEqual, OperatorNotEqual, OperatorLessThan, OperatorLessThanOrEqual,
		OperatorGreaterThan, OperatorGreaterThanOrEqual, OperatorArrayContains:
		return nil
	case OperatorIn, OperatorNotIn, OperatorArrayContainsAny:
		if len(f.Values) == 0 {
			return invalidFilter(fmt.Sprintf("operator %q needs a non-empty list of values", f.Operator))
		}
		if len(f.Values) > MaxMembershipValues {
			return invalidFilter(fmt.Sprintf("operator %q accepts at most %d values", f.Operator, MaxMembershipValues))
		}
		return nil
	case OperatorSort:
		switch f.Direction {
		case "", Ascending, Descending:
			return nil
		}
		return invalidFilter(fmt.Sprintf("unknown sort direction %q", f.Direction))
	default:
		return invalidFilter(fmt.Sprintf("unsupported operator %q", f.Operator))
	}
}

func invalidFilter(msg string) error {
	return errors.NewValidationError(msg).WithCause(errors.ErrInvalidFilter)
}

// ViewOptions is the client-side transformation applied to a fetched collection.
type ViewOptions struct {
	Filter *Filter `json:"filter,omitempty"`
	// Limit keeps the first N documents; 0 means no limit.
	Limit int `json:"limit,omitempty"`
	// Expression is an optional CEL predicate over doc and id.
	Expression string `json:"expr,omitempty"`
}

// Validate checks every part of the view.
func (o ViewOptions) Validate() error {
	if o.Limit < 0 {
		return invalidFilter("limit cannot be negative")
	}
	if o.Filter != nil {
		return o.Filter.Validate()
	}
	return nil
}
