package model

import "strings"

// An ItemType qualifies the kind of artifact an item holds.
// It only affects how clients render the content, never how it is stored.
type ItemType string

const (
	// TypePrompt is an AI prompt.
	TypePrompt ItemType = "prompt"
	// TypeCommand is a shell/CLI command.
	TypeCommand ItemType = "command"
	// TypeSnippet is a code snippet.
	TypeSnippet ItemType = "snippet"
)

// Valid returns true if t is a known item type.
func (t ItemType) Valid() bool {
	switch t {
	case TypePrompt, TypeCommand, TypeSnippet:
		return true
	}
	return false
}

// DefaultCategory is assigned to items created without a category.
const DefaultCategory = "General"

// An Item represents a stored artifact and the rendered API response.
//
// ID and CreatedAt are assigned by the persistence layer at creation and
// never change afterwards. OwnerID is only populated by the remote store.
type Item struct {
	ID          string   `json:"id"                     msgpack:"id"          storm:"id"`
	OwnerID     string   `json:"-"                      msgpack:"owner_id"    storm:"index"`
	Type        ItemType `json:"type"                   msgpack:"type"        storm:"index"`
	Category    string   `json:"category"               msgpack:"category"    storm:"index"`
	Title       string   `json:"title"                  msgpack:"title"`
	Content     string   `json:"content"                msgpack:"content"`
	Description string   `json:"description,omitempty"  msgpack:"description"`
	Tags        []string `json:"tags"                   msgpack:"tags"`
	Deprecated  bool     `json:"isDeprecated,omitempty" msgpack:"deprecated"`
	CreatedAt   int64    `json:"createdAt"              msgpack:"created_at"  storm:"index"`
}

// An ItemDraft carries the caller-supplied fields of an item to create.
// ID and CreatedAt are deliberately absent, the store assigns them.
type ItemDraft struct {
	Type        ItemType `json:"type"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Deprecated  bool     `json:"isDeprecated"`
}

// Normalize applies the defaults and cleanups performed before persistence:
// blank category becomes DefaultCategory and tags are deduplicated keeping
// their first-seen order.
func (d *ItemDraft) Normalize() {
	if strings.TrimSpace(d.Category) == "" {
		d.Category = DefaultCategory
	}
	d.Tags = dedupeTags(d.Tags)
}

// Validate checks the required fields.
func (d *ItemDraft) Validate() error {
	if !d.Type.Valid() {
		return &ValidationError{Field: "type", Reason: "unknown item type"}
	}
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: "title", Reason: "required"}
	}
	if strings.TrimSpace(d.Content) == "" {
		return &ValidationError{Field: "content", Reason: "required"}
	}
	return nil
}

// An ItemPatch carries a partial update. Nil fields are preserved on the
// stored record. There is no way to express an ID or CreatedAt change.
type ItemPatch struct {
	Type        *ItemType `json:"type"`
	Category    *string   `json:"category"`
	Title       *string   `json:"title"`
	Content     *string   `json:"content"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	Deprecated  *bool     `json:"isDeprecated"`
}

// Validate checks that the supplied fields are acceptable.
func (p *ItemPatch) Validate() error {
	if p.Type != nil && !p.Type.Valid() {
		return &ValidationError{Field: "type", Reason: "unknown item type"}
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return &ValidationError{Field: "title", Reason: "required"}
	}
	if p.Content != nil && strings.TrimSpace(*p.Content) == "" {
		return &ValidationError{Field: "content", Reason: "required"}
	}
	return nil
}

// Apply merges the patch over item, leaving nil fields untouched.
func (p *ItemPatch) Apply(item *Item) {
	if p.Type != nil {
		item.Type = *p.Type
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.Content != nil {
		item.Content = *p.Content
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Tags != nil {
		item.Tags = dedupeTags(*p.Tags)
	}
	if p.Deprecated != nil {
		item.Deprecated = *p.Deprecated
	}
}

// A ValidationError reports a rejected caller-supplied field.
// It is returned before any persistence attempt.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

func dedupeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
