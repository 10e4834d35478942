package firestore

import (
	"net/url"
	"regexp"
	"strings"

	"firestore-explorer/internal/shared/errors"
)

// MaxIDLength is the longest document or collection ID the store accepts, in bytes.
const MaxIDLength = 1500

// reservedIDPattern matches IDs Firestore keeps for itself, such as __name__.
var reservedIDPattern = regexp.MustCompile(`^__.*__$`)

// PathInfo describes a parsed document or collection path.
type PathInfo struct {
	Path         string
	Segments     []string
	IsDocument   bool
	IsCollection bool
}

// ParsePath normalizes and validates a slash separated path relative to the database root.
func ParsePath(path string) (*PathInfo, error) {
	segments := SplitPath(path)
	if len(segments) == 0 {
		return nil, errors.NewValidationError("path cannot be empty").WithCause(errors.ErrInvalidPath)
	}

	for i, segment := range segments {
		if !IsValidID(segment) {
			return nil, errors.NewValidationError("invalid path segment").
				WithCause(errors.ErrInvalidPath).
				WithDetail("segment", segment).
				WithDetail("position", i)
		}
	}

	return &PathInfo{
		Path:         strings.Join(segments, "/"),
		Segments:     segments,
		IsDocument:   len(segments)%2 == 0,
		IsCollection: len(segments)%2 == 1,
	}, nil
}

// SplitPath splits a path on "/" and drops empty segments.
func SplitPath(path string) []string {
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// ValidateCollectionPath checks that path names a collection (odd number of segments).
func ValidateCollectionPath(path string) (string, error) {
	info, err := ParsePath(path)
	if err != nil {
		return "", err
	}
	if !info.IsCollection {
		return "", errors.NewValidationError("invalid collection path: must have odd number of segments").
			WithCause(errors.ErrInvalidPath).
			WithDetail("path", info.Path)
	}
	return info.Path, nil
}

// ValidateDocumentPath checks that path names a document (even number of segments).
func ValidateDocumentPath(path string) (string, error) {
	info, err := ParsePath(path)
	if err != nil {
		return "", err
	}
	if !info.IsDocument {
		return "", errors.NewValidationError("invalid document path: must have even number of segments").
			WithCause(errors.ErrInvalidPath).
			WithDetail("path", info.Path)
	}
	return info.Path, nil
}

// IsValidID reports whether id can be used as a document or collection ID.
func IsValidID(id string) bool {
	if id == "" || len(id) > MaxIDLength {
		return false
	}
	if id == "." || id == ".." || strings.Contains(id, "/") {
		return false
	}
	return !reservedIDPattern.MatchString(id)
}

// ParentPath returns the path without its last segment, "" at the root.
func ParentPath(path string) string {
	segments := SplitPath(path)
	if len(segments) <= 1 {
		return ""
	}
	return strings.Join(segments[:len(segments)-1], "/")
}

// LastSegment returns the final ID of a path.
func LastSegment(path string) string {
	segments := SplitPath(path)
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}

// JoinPaths joins path pieces with "/", skipping empty ones.
func JoinPaths(segments ...string) string {
	var valid []string
	for _, segment := range segments {
		if trimmed := strings.Trim(segment, "/"); trimmed != "" {
			valid = append(valid, trimmed)
		}
	}
	return strings.Join(valid, "/")
}

// IsWithin reports whether path equals root or lies underneath it.
func IsWithin(path, root string) bool {
	return path == root || strings.HasPrefix(path, root+"/")
}

// EncodeSegment percent-encodes one path segment with the same rules as
// JavaScript's encodeURIComponent: only A-Z a-z 0-9 and - _ . ! ~ * ' ( ) pass through.
func EncodeSegment(segment string) string {
	escaped := url.QueryEscape(segment)
	return componentReplacer.Replace(escaped)
}

var componentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodePath encodes every segment of path.
func EncodePath(path string) string {
	segments := SplitPath(path)
	for i, s := range segments {
		segments[i] = EncodeSegment(s)
	}
	return strings.Join(segments, "/")
}

// DecodePath reverses EncodePath segment by segment.
func DecodePath(raw string) (string, error) {
	segments := SplitPath(raw)
	for i, s := range segments {
		decoded, err := url.PathUnescape(s)
		if err != nil {
			return "", errors.NewValidationError("malformed escape in path").
				WithCause(errors.ErrInvalidPath).
				WithDetail("segment", s)
		}
		segments[i] = decoded
	}
	return strings.Join(segments, "/"), nil
}

// DocumentRoute builds the UI route for a document under routePrefix.
func DocumentRoute(routePrefix, collectionPath, documentID string) string {
	prefix := "/" + strings.Trim(routePrefix, "/")
	if prefix == "/" {
		prefix = ""
	}
	return prefix + "/" + EncodePath(collectionPath) + "/" + EncodeSegment(documentID)
}
