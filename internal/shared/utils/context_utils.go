package utils

import (
	"context"
	"errors"

	"firestore-explorer/internal/shared/contextkeys"
)

var (
	ErrRequestIDNotFound = errors.New("requestID not found in context")
	ErrSubjectNotFound   = errors.New("subject not found in context")
)

// WithRequestID stores a request correlation ID in ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextkeys.RequestIDKey, requestID)
}

// GetRequestIDFromContext retrieves the request ID from the context.
func GetRequestIDFromContext(ctx context.Context) (string, error) {
	return stringValue(ctx, contextkeys.RequestIDKey, ErrRequestIDNotFound)
}

// WithSubject stores the authenticated token subject in ctx.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, contextkeys.SubjectKey, subject)
}

// GetSubjectFromContext retrieves the authenticated subject from the context.
func GetSubjectFromContext(ctx context.Context) (string, error) {
	return stringValue(ctx, contextkeys.SubjectKey, ErrSubjectNotFound)
}

// WithOperation tags ctx with the use case being executed.
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, contextkeys.OperationKey, operation)
}

// WithCollectionPath tags ctx with the collection being operated on.
func WithCollectionPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, contextkeys.CollectionPathKey, path)
}

func stringValue(ctx context.Context, key interface{}, notFound error) (string, error) {
	val, ok := ctx.Value(key).(string)
	if !ok || val == "" {
		return "", notFound
	}
	return val, nil
}
