package usecase

import (
	"firestore-explorer/internal/explorer/domain/model"
	"firestore-explorer/internal/shared/utils"
)

// ViewQuery is the textual form of a collection view, as typed in a query
// string (?field=age&op=>=&value=21&limit=10) or on the command line.
type ViewQuery struct {
	Field     string `query:"field"`
	Op        string `query:"op"`
	Value     string `query:"value"`
	Values    string `query:"values"`
	Direction string `query:"direction"`
	Limit     int    `query:"limit"`
	Expr      string `query:"expr"`
}

// ViewOptions converts the query. Values are decoded as JSON literals with a
// plain string fallback; validation happens when the view is applied.
func (q ViewQuery) ViewOptions() model.ViewOptions {
	opts := model.ViewOptions{Limit: q.Limit, Expression: q.Expr}
	if q.Field == "" && q.Op == "" {
		return opts
	}

	filter := &model.Filter{
		Field:     q.Field,
		Operator:  model.Operator(q.Op),
		Direction: model.SortDirection(q.Direction),
	}
	if filter.IsMembership() {
		filter.Values = utils.ParseLiteralList(q.Values)
	} else if !filter.IsSort() {
		filter.Value = utils.ParseLiteral(q.Value)
	}
	opts.Filter = filter
	return opts
}
