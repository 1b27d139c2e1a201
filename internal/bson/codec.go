package bson

import (
	"fmt"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Marshal serializes a document to its stored JSON form.
func Marshal(d Document) ([]byte, error) {
	raw, err := json.Marshal(map[string]any(d))
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return raw, nil
}

// Unmarshal decodes a stored payload into a Document.
func Unmarshal(raw []byte) (Document, error) {
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("payload is not valid UTF-8")
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return Document(m), nil
}
