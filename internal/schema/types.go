package schema

import (
	"sort"
	"time"
)

// FieldKind is the record store's field type vocabulary.
type FieldKind string

const (
	KindTitle     FieldKind = "title"
	KindText      FieldKind = "text"
	KindEnum      FieldKind = "enum"
	KindMultiEnum FieldKind = "multi_enum"
	KindURL       FieldKind = "url"
	KindDate      FieldKind = "date"
	KindNumber    FieldKind = "number"
	KindBoolean   FieldKind = "boolean"
	KindEmail     FieldKind = "email"
	KindPhone     FieldKind = "phone"

	// System-managed kinds. The store fills these itself; they are excluded
	// from extraction and normalization.
	KindCreatedBy   FieldKind = "created_by"
	KindCreatedAt   FieldKind = "created_time"
	KindEditedBy    FieldKind = "last_edited_by"
	KindEditedAt    FieldKind = "last_edited_time"
	KindUnsupported FieldKind = "unsupported"
)

// ParseKind maps the wire-level type string of the schema source onto a
// FieldKind. Unknown types are kept as KindUnsupported rather than dropped so
// the snapshot still reflects the full remote definition.
func ParseKind(raw string) FieldKind {
	switch raw {
	case "title":
		return KindTitle
	case "rich_text", "text":
		return KindText
	case "select", "status", "enum":
		return KindEnum
	case "multi_select", "multi_enum":
		return KindMultiEnum
	case "url":
		return KindURL
	case "date":
		return KindDate
	case "number":
		return KindNumber
	case "checkbox", "boolean":
		return KindBoolean
	case "email":
		return KindEmail
	case "phone_number", "phone":
		return KindPhone
	case "created_by":
		return KindCreatedBy
	case "created_time":
		return KindCreatedAt
	case "last_edited_by":
		return KindEditedBy
	case "last_edited_time":
		return KindEditedAt
	default:
		return KindUnsupported
	}
}

// System reports whether the kind is store-managed.
func (k FieldKind) System() bool {
	switch k {
	case KindCreatedBy, KindCreatedAt, KindEditedBy, KindEditedAt:
		return true
	default:
		return false
	}
}

// Option is one allowed value of an enum or multi-enum field.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// FieldSchema describes one field of the target store. Immutable once the
// snapshot that owns it is built.
type FieldSchema struct {
	Name     string    `json:"name"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
	Options  []Option  `json:"options,omitempty"`
}

// OptionLabels returns the labels of all allowed values, in store order.
func (f FieldSchema) OptionLabels() []string {
	if len(f.Options) == 0 {
		return nil
	}
	labels := make([]string, 0, len(f.Options))
	for _, o := range f.Options {
		if o.Label != "" {
			labels = append(labels, o.Label)
		}
	}
	return labels
}

// DatabaseSchema is one snapshot of the target store's field definitions.
// Snapshots are shared read-only across concurrent pipeline runs and replaced
// wholesale on refresh; nothing mutates a snapshot after construction.
type DatabaseSchema struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	Fields      map[string]FieldSchema `json:"fields"`

	// TitleField is the store's primary/identity field.
	TitleField string `json:"title_field"`
	// URLField is the field used for dedup on upsert.
	URLField string `json:"url_field"`

	FetchedAt time.Time `json:"fetched_at"`
}

// FieldNames returns all field names in deterministic order.
func (s *DatabaseSchema) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UsableFieldCount counts fields that participate in extraction.
func (s *DatabaseSchema) UsableFieldCount() int {
	n := 0
	for _, f := range s.Fields {
		if !f.Kind.System() && f.Kind != KindUnsupported {
			n++
		}
	}
	return n
}
