package domain

import (
	"time"

	"github.com/google/uuid"
)

// Record is a semi-structured document stored against an entity
// schema. Payload keys not declared by the entity are kept but ignored
// by validation.
type Record struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	EntityID    uuid.UUID  `json:"entity_id"`
	Data        Payload    `json:"data"`
	Tags        []string   `json:"tags"`
	IsArchived  bool       `json:"is_archived"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	UpdatedBy   *uuid.UUID `json:"updated_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RecordCreate represents record creation data.
type RecordCreate struct {
	Data Payload  `json:"data" validate:"required"`
	Tags []string `json:"tags,omitempty"`
}

// RecordUpdate represents record update data. Data keys are merged
// into the stored payload; tags and the archive flag are metadata
// patches that bypass schema validation.
type RecordUpdate struct {
	Data       Payload   `json:"data,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	IsArchived *bool     `json:"is_archived,omitempty"`
}

// FieldChange is one entry of the field-level diff computed by an
// update: the automation engine receives one field_changed event per
// entry.
type FieldChange struct {
	Field string `json:"field"`
	From  Value  `json:"from"`
	To    Value  `json:"to"`
}

// RecordFilter narrows a record listing.
type RecordFilter struct {
	Tag             string  `json:"tag,omitempty"`
	Fields          Payload `json:"fields,omitempty"`
	IncludeArchived bool    `json:"include_archived,omitempty"`
}

// Pagination is a page/page-size request. Ordering defaults to
// creation time descending.
type Pagination struct {
	Page     int    `json:"page" validate:"min=1"`
	PageSize int    `json:"page_size" validate:"min=1,max=100"`
	SortBy   string `json:"sort_by,omitempty"`
	SortDesc bool   `json:"sort_desc,omitempty"`
}

// Offset returns the row offset for the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Normalize clamps out-of-range values so the page always yields a
// non-negative offset and a bounded size.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 50
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	return p
}

// DefaultPagination returns the first page with the default size.
func DefaultPagination() Pagination {
	return Pagination{Page: 1, PageSize: 50, SortDesc: true}
}

// Page is a paginated result set with the total count.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int64 `json:"total_pages"`
}

// NewPage assembles a page, computing the page count.
func NewPage[T any](items []T, p Pagination, total int64) Page[T] {
	pages := int64(0)
	if total > 0 {
		pages = (total + int64(p.PageSize) - 1) / int64(p.PageSize)
	}
	return Page[T]{
		Items:      items,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalCount: total,
		TotalPages: pages,
	}
}
