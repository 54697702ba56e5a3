// Package document provides the immutable JSON-like value that flows through
// a workflow. Every operation returns a new Document; the receiver is never
// modified. Values held inside a Document are treated as read-only by
// convention, so shallow copies are safe.
package document

import (
	"encoding/json"
	"fmt"
	"maps"
)

type Document map[string]any

// New builds a Document from the given fields. The top-level map is copied so
// later changes to the argument do not leak into the document.
func New(fields map[string]any) Document {
	doc := make(Document, len(fields))
	maps.Copy(doc, fields)

	return doc
}

func FromJSON(data []byte) (Document, error) {
	var fields map[string]any

	err := json.Unmarshal(data, &fields)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}

	return Document(fields), nil
}

// Field returns the raw value stored under key.
func (d Document) Field(key string) (any, bool) {
	value, ok := d[key]

	return value, ok
}

// String returns the string stored under key, or an error when the field is
// missing or holds a different type.
func (d Document) String(key string) (string, error) {
	value, ok := d[key]
	if !ok {
		return "", fmt.Errorf("document field %q is missing", key)
	}

	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("document field %q is not a string (got %T)", key, value)
	}

	return s, nil
}

// List returns the slice stored under key.
func (d Document) List(key string) ([]any, error) {
	value, ok := d[key]
	if !ok {
		return nil, fmt.Errorf("document field %q is missing", key)
	}

	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("document field %q is not a list (got %T)", key, value)
	}

	return list, nil
}

// With returns a copy of the document with key set to value.
func (d Document) With(key string, value any) Document {
	doc := make(Document, len(d)+1)
	maps.Copy(doc, d)
	doc[key] = value

	return doc
}

// Merge returns a copy of the document with every field of other set on top
// of it. Fields present in both take other's value.
func (d Document) Merge(other Document) Document {
	doc := make(Document, len(d)+len(other))
	maps.Copy(doc, d)
	maps.Copy(doc, other)

	return doc
}

// Fields returns a copy of the document's top-level fields, for callers that
// need a plain map (JSON encoding, persistence).
func (d Document) Fields() map[string]any {
	fields := make(map[string]any, len(d))
	maps.Copy(fields, d)

	return fields
}
