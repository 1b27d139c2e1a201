// Package bson implements the document value model shared by storage,
// indexing and query execution.
//
// Documents are decoded JSON objects (map-backed, like the wire format).
// Every stored document carries a primary key under the "_id" field.
package bson

// FieldID is the primary key field present in every stored document.
const FieldID = "_id"

// Document is a single database record.
type Document map[string]any

// ID returns the primary key value, or nil if the document has none.
func (d Document) ID() any {
	return d[FieldID]
}

// Has reports whether the field exists on the document.
func (d Document) Has(field string) bool {
	_, ok := d[field]
	return ok
}

// Get returns the value of a top-level field (nil if absent).
func (d Document) Get(field string) any {
	return d[field]
}

// Set assigns a top-level field and returns the document for chaining.
func (d Document) Set(field string, v any) Document {
	d[field] = v
	return d
}

// Copy returns a shallow copy with nested documents copied one level deep.
// Pipe stages that rewrite fields (includes, projection) operate on copies
// so loaded documents stay cache-safe.
func (d Document) Copy() Document {
	out := make(Document, len(d))
	for k, v := range d {
		if sub, ok := v.(map[string]any); ok {
			out[k] = Document(sub).Copy()
			continue
		}
		if sub, ok := v.(Document); ok {
			out[k] = sub.Copy()
			continue
		}
		out[k] = v
	}
	return out
}

// AsDocument converts a decoded JSON value to a Document when possible.
func AsDocument(v any) (Document, bool) {
	switch x := v.(type) {
	case Document:
		return x, true
	case map[string]any:
		return Document(x), true
	default:
		return nil, false
	}
}
