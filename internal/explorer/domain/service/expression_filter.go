package service

import (
	"fmt"
	"sync"

	"firestore-explorer/internal/explorer/domain/model"
	"firestore-explorer/internal/shared/errors"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
)

// maxCachedPrograms bounds the compiled expression cache.
const maxCachedPrograms = 256

// ExpressionFilter evaluates CEL predicates against documents. Expressions see
// the document data as `doc` and the document ID as `id`, for example
// `doc.age >= 18 && id.startsWith("user")`.
type ExpressionFilter struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewExpressionFilter builds the CEL environment.
func NewExpressionFilter() (*ExpressionFilter, error) {
	env, err := cel.NewEnv(
		cel.Declarations(
			decls.NewVar("doc", decls.NewMapType(decls.String, decls.Dyn)),
			decls.NewVar("id", decls.String),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &ExpressionFilter{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Compile checks expression and caches the program. Syntax and type errors are
// validation errors.
func (f *ExpressionFilter) Compile(expression string) (cel.Program, error) {
	f.mu.RLock()
	program, ok := f.programs[expression]
	f.mu.RUnlock()
	if ok {
		return program, nil
	}

	ast, issues := f.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, errors.NewValidationError("invalid filter expression").
			WithCause(errors.ErrInvalidFilter).
			WithDetail("expression", expression).
			WithDetail("reason", issues.Err().Error())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, errors.NewValidationError("filter expression must evaluate to a boolean").
			WithCause(errors.ErrInvalidFilter).
			WithDetail("expression", expression).
			WithDetail("type", out.String())
	}

	program, err := f.env.Program(ast)
	if err != nil {
		return nil, errors.WrapError(err, "failed to create CEL program")
	}

	f.mu.Lock()
	if len(f.programs) >= maxCachedPrograms {
		f.programs = make(map[string]cel.Program)
	}
	f.programs[expression] = program
	f.mu.Unlock()

	return program, nil
}

// Matches reports whether doc satisfies the compiled program. Evaluation
// errors, such as reading a missing field, count as no match.
func (f *ExpressionFilter) Matches(program cel.Program, doc *model.Document) bool {
	data := doc.Data
	if data == nil {
		data = map[string]interface{}{}
	}
	out, _, err := program.Eval(map[string]interface{}{
		"doc": data,
		"id":  doc.ID,
	})
	if err != nil {
		return false
	}
	result, ok := out.Value().(bool)
	return ok && result
}

// Filter keeps the documents matching expression, preserving order.
func (f *ExpressionFilter) Filter(docs []*model.Document, expression string) ([]*model.Document, error) {
	program, err := f.Compile(expression)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Document, 0, len(docs))
	for _, doc := range docs {
		if f.Matches(program, doc) {
			out = append(out, doc)
		}
	}
	return out, nil
}
