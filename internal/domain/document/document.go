package document

import (
	"fmt"
	"strings"
)

// MaxTextSize is the maximum document text size in bytes.
const MaxTextSize = 163840 // 160KB

// Document is a stored text together with its embedding (immutable value object).
// The id is assigned by storage; zero means "not persisted yet".
type Document struct {
	id        int64
	text      string
	embedding []float32
}

// New validates text and embedding and creates an unsaved Document.
func New(text string, embedding []float32) (Document, error) {
	if err := ValidateText(text); err != nil {
		return Document{}, err
	}
	if len(embedding) == 0 {
		return Document{}, fmt.Errorf("embedding is required")
	}
	return Document{text: text, embedding: embedding}, nil
}

// ValidateText checks the text rules shared by ingestion and queries.
func ValidateText(text string) error {
	return ValidateField("text", text)
}

// ValidateField applies the text rules to a request field, naming it in the error.
func ValidateField(field, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%s is required", field)
	}
	if len(text) > MaxTextSize {
		return fmt.Errorf("%s too large (max %d bytes)", field, MaxTextSize)
	}
	return nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id int64, text string, embedding []float32) Document {
	return Document{id: id, text: text, embedding: embedding}
}

// ID returns the storage-assigned identifier.
func (d *Document) ID() int64 { return d.id }

// Text returns the document text.
func (d *Document) Text() string { return d.text }

// Embedding returns the embedding vector.
func (d *Document) Embedding() []float32 { return d.embedding }

// WithID returns a copy carrying the given identifier.
func (d *Document) WithID(id int64) Document {
	return Document{id: id, text: d.text, embedding: d.embedding}
}
