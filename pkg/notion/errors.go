package notion

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a page or database that does not exist (deleted or
	// never shared with the integration).
	ErrNotFound = errors.New("notion record not found")

	// ErrSchemaMismatch marks a response that does not match the expected
	// shape. Callers treat it as a soft failure for the enclosing update.
	ErrSchemaMismatch = errors.New("notion response does not match expected schema")
)

// Typed accessors. Each returns ErrSchemaMismatch when the property is
// missing or carries a different type than the schema promises.

// TitleText returns the concatenated plain text of a title property.
func (p *Page) TitleText(prop string) (string, error) {
	v, ok := p.Properties[prop]
	if !ok || (v.Type != "" && v.Type != "title") {
		return "", fmt.Errorf("%w: property %q is not a title", ErrSchemaMismatch, prop)
	}
	return joinRichText(v.Title), nil
}

// RichTextValue returns the concatenated plain text of a rich-text property.
// An existing but empty property returns "" with no error.
func (p *Page) RichTextValue(prop string) (string, error) {
	v, ok := p.Properties[prop]
	if !ok || (v.Type != "" && v.Type != "rich_text") {
		return "", fmt.Errorf("%w: property %q is not rich text", ErrSchemaMismatch, prop)
	}
	return joinRichText(v.RichText), nil
}

// RelationIDs returns the referenced page ids of a relation property.
func (p *Page) RelationIDs(prop string) ([]string, error) {
	v, ok := p.Properties[prop]
	if !ok || (v.Type != "" && v.Type != "relation") {
		return nil, fmt.Errorf("%w: property %q is not a relation", ErrSchemaMismatch, prop)
	}
	ids := make([]string, 0, len(v.Relation))
	for _, r := range v.Relation {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func joinRichText(parts []RichText) string {
	out := ""
	for _, p := range parts {
		if p.PlainText != "" {
			out += p.PlainText
			continue
		}
		if p.Text != nil {
			out += p.Text.Content
		}
	}
	return out
}
