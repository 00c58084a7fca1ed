package notion

// Page is the Notion API page object, reduced to the fields the reconciler
// reads. Properties are decoded strictly into typed values; a property whose
// type does not match the accessor used on it yields ErrSchemaMismatch.
type Page struct {
	ID         string              `json:"id"`
	Archived   bool                `json:"archived"`
	Properties map[string]Property `json:"properties"`
}

// Property is a typed Notion property value.
type Property struct {
	Type     string     `json:"type,omitempty"`
	Title    []RichText `json:"title,omitempty"`
	RichText []RichText `json:"rich_text,omitempty"`
	Relation []Relation `json:"relation,omitempty"`
	Number   *float64   `json:"number,omitempty"`
}

// RichText is a single rich-text fragment.
type RichText struct {
	PlainText string   `json:"plain_text,omitempty"`
	Text      *TextObj `json:"text,omitempty"`
}

// TextObj is the writable content of a rich-text fragment.
type TextObj struct {
	Content string `json:"content"`
}

// Relation is a reference to another page.
type Relation struct {
	ID string `json:"id"`
}

// Filter is a database query filter on a single property.
type Filter struct {
	Property string      `json:"property"`
	Title    *TextFilter `json:"title,omitempty"`
	RichText *TextFilter `json:"rich_text,omitempty"`
}

// TextFilter matches text properties.
type TextFilter struct {
	Equals   string `json:"equals,omitempty"`
	Contains string `json:"contains,omitempty"`
}

type queryRequest struct {
	Filter      *Filter `json:"filter,omitempty"`
	StartCursor string  `json:"start_cursor,omitempty"`
}

type queryResponse struct {
	Results    []Page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

type updateRequest struct {
	Properties map[string]Property `json:"properties"`
}

// NewRichTextProperty builds a writable rich-text property value.
func NewRichTextProperty(content string) Property {
	return Property{
		RichText: []RichText{{Text: &TextObj{Content: content}}},
	}
}
