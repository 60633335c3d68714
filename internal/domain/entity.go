package domain

import (
	"time"

	"github.com/google/uuid"
)

// FieldType enumerates the supported field types.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldTextarea    FieldType = "textarea"
	FieldEmail       FieldType = "email"
	FieldPhone       FieldType = "phone"
	FieldURL         FieldType = "url"
	FieldNumber      FieldType = "number"
	FieldCurrency    FieldType = "currency"
	FieldDate        FieldType = "date"
	FieldDatetime    FieldType = "datetime"
	FieldCheckbox    FieldType = "checkbox"
	FieldSelect      FieldType = "select"
	FieldMultiselect FieldType = "multiselect"
)

// Valid reports whether the field type is supported.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldTextarea, FieldEmail, FieldPhone, FieldURL,
		FieldNumber, FieldCurrency, FieldDate, FieldDatetime,
		FieldCheckbox, FieldSelect, FieldMultiselect:
		return true
	}
	return false
}

// FieldConstraints holds optional validation rules for a field.
type FieldConstraints struct {
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	MinLength *int     `json:"min_length,omitempty"`
	MaxLength *int     `json:"max_length,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
}

// FieldDefinition describes one field of an entity schema. Names are
// unique within an entity; options apply to select/multiselect only.
type FieldDefinition struct {
	Name        string            `json:"name"`
	Label       string            `json:"label"`
	Type        FieldType         `json:"type"`
	Required    bool              `json:"required"`
	Options     []string          `json:"options,omitempty"`
	Default     *Value            `json:"default,omitempty"`
	Placeholder string            `json:"placeholder,omitempty"`
	HelpText    string            `json:"help_text,omitempty"`
	Constraints *FieldConstraints `json:"constraints,omitempty"`
}

// ViewType enumerates the supported entity views.
type ViewType string

const (
	ViewTable    ViewType = "table"
	ViewKanban   ViewType = "kanban"
	ViewCalendar ViewType = "calendar"
	ViewList     ViewType = "list"
	ViewCards    ViewType = "cards"
	ViewTimeline ViewType = "timeline"
)

// Valid reports whether the view type is supported.
func (v ViewType) Valid() bool {
	switch v {
	case ViewTable, ViewKanban, ViewCalendar, ViewList, ViewCards, ViewTimeline:
		return true
	}
	return false
}

// Entity is a runtime schema definition: the record "type" a tenant
// defines for itself. The machine name is unique within the workspace
// and immutable once records exist against it.
type Entity struct {
	ID           uuid.UUID         `json:"id"`
	WorkspaceID  uuid.UUID         `json:"workspace_id"`
	Name         string            `json:"name"`
	DisplayName  string            `json:"display_name"`
	SingularName string            `json:"singular_name"`
	Icon         string            `json:"icon,omitempty"`
	Color        string            `json:"color,omitempty"`
	Description  string            `json:"description,omitempty"`
	Fields       []FieldDefinition `json:"fields"`
	Views        []ViewType        `json:"views"`
	DefaultView  ViewType          `json:"default_view"`
	IsSystem     bool              `json:"is_system"`
	RecordCount  int64             `json:"record_count,omitempty"`
	CreatedBy    uuid.UUID         `json:"created_by"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Field returns the definition for a field name, if declared.
func (e *Entity) Field(name string) (FieldDefinition, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// EntityCreate represents entity creation data.
type EntityCreate struct {
	Name         string            `json:"name" validate:"required,max=100"`
	DisplayName  string            `json:"display_name" validate:"required,max=200"`
	SingularName string            `json:"singular_name" validate:"required,max=200"`
	Icon         string            `json:"icon,omitempty" validate:"max=50"`
	Color        string            `json:"color,omitempty" validate:"max=20"`
	Description  string            `json:"description,omitempty" validate:"max=500"`
	Fields       []FieldDefinition `json:"fields" validate:"required,min=1"`
	Views        []ViewType        `json:"views,omitempty"`
	DefaultView  ViewType          `json:"default_view,omitempty"`
}

// EntityUpdate represents entity update data. The machine name is
// absent on purpose: renaming would orphan stored field references.
type EntityUpdate struct {
	DisplayName  *string            `json:"display_name,omitempty" validate:"omitempty,max=200"`
	SingularName *string            `json:"singular_name,omitempty" validate:"omitempty,max=200"`
	Icon         *string            `json:"icon,omitempty" validate:"omitempty,max=50"`
	Color        *string            `json:"color,omitempty" validate:"omitempty,max=20"`
	Description  *string            `json:"description,omitempty" validate:"omitempty,max=500"`
	Fields       *[]FieldDefinition `json:"fields,omitempty"`
	Views        *[]ViewType        `json:"views,omitempty"`
	DefaultView  *ViewType          `json:"default_view,omitempty"`
}
