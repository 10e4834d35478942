package service

import (
	"sort"

	"firestore-explorer/internal/explorer/domain/model"
)

// ViewService applies the client-side view (filter, sort, expression, limit)
// to documents already fetched from the store.
type ViewService struct {
	expressions *ExpressionFilter
}

// NewViewService creates a ViewService with its CEL environment.
func NewViewService() (*ViewService, error) {
	expressions, err := NewExpressionFilter()
	if err != nil {
		return nil, err
	}
	return &ViewService{expressions: expressions}, nil
}

// ApplyView returns the documents visible under opts. The input slice and its
// documents are never modified.
func (s *ViewService) ApplyView(docs []*model.Document, opts model.ViewOptions) ([]*model.Document, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	visible := ApplyFilter(docs, opts.Filter)

	if opts.Expression != "" {
		var err error
		visible, err = s.expressions.Filter(visible, opts.Expression)
		if err != nil {
			return nil, err
		}
	}

	return ApplyLimit(visible, opts.Limit), nil
}

// ApplyFilter keeps the documents matching filter and orders them when the
// filter is a sort or range condition. A nil filter returns a copy of docs.
func ApplyFilter(docs []*model.Document, filter *model.Filter) []*model.Document {
	out := make([]*model.Document, 0, len(docs))
	if filter == nil {
		return append(out, docs...)
	}

	for _, doc := range docs {
		if Matches(doc, filter) {
			out = append(out, doc)
		}
	}

	if filter.IsSort() || filter.IsRange() {
		descending := filter.IsSort() && filter.Direction == model.Descending
		sortByField(out, filter.Field, descending)
	}
	return out
}

// ApplyLimit keeps the first limit documents; limit <= 0 keeps all.
func ApplyLimit(docs []*model.Document, limit int) []*model.Document {
	if limit <= 0 || limit >= len(docs) {
		return docs
	}
	return docs[:limit]
}

// Matches reports whether doc satisfies filter. Documents without the field
// never match, including for != and not-in.
func Matches(doc *model.Document, filter *model.Filter) bool {
	value, ok := doc.Field(filter.Field)
	if !ok {
		return false
	}

	switch filter.Operator {
	case model.OperatorSort:
		return true
	case model.OperatorEqual:
		return ValuesEqual(value, filter.Value)
	case model.OperatorNotEqual:
		return value != nil && !ValuesEqual(value, filter.Value)
	case model.OperatorLessThan:
		return SameType(value, filter.Value) && CompareValues(value, filter.Value) < 0
	case model.OperatorLessThanOrEqual:
		return SameType(value, filter.Value) && CompareValues(value, filter.Value) <= 0
	case model.OperatorGreaterThan:
		return SameType(value, filter.Value) && CompareValues(value, filter.Value) > 0
	case model.OperatorGreaterThanOrEqual:
		return SameType(value, filter.Value) && CompareValues(value, filter.Value) >= 0
	case model.OperatorIn:
		return containsValue(filter.Values, value)
	case model.OperatorNotIn:
		return value != nil && !containsValue(filter.Values, value)
	case model.OperatorArrayContains:
		arr, ok := value.([]interface{})
		return ok && containsValue(arr, filter.Value)
	case model.OperatorArrayContainsAny:
		arr, ok := value.([]interface{})
		if !ok {
			return false
		}
		for _, candidate := range filter.Values {
			if containsValue(arr, candidate) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func containsValue(values []interface{}, value interface{}) bool {
	for _, v := range values {
		if ValuesEqual(v, value) {
			return true
		}
	}
	return false
}

// sortByField orders docs in place. The sort is stable so ties keep the
// natural (ID) order.
func sortByField(docs []*model.Document, field string, descending bool) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, _ := docs[i].Field(field)
		b, _ := docs[j].Field(field)
		c := CompareValues(a, b)
		if descending {
			return c > 0
		}
		return c < 0
	})
}
