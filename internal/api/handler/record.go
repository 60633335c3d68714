package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/crmforge/crmforge/internal/api/response"
	"github.com/crmforge/crmforge/internal/domain"
	"github.com/crmforge/crmforge/internal/service"
	"github.com/google/uuid"
)

// RecordHandler handles record endpoints
type RecordHandler struct {
	recordService *service.RecordService
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(recordService *service.RecordService) *RecordHandler {
	return &RecordHandler{recordService: recordService}
}

// Create handles record creation
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	entityID, ok := uuidParam(w, r, "entityID")
	if !ok {
		return
	}

	var input domain.RecordCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	record, err := h.recordService.Create(r.Context(), userID, workspaceID, entityID, input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, record)
}

// List handles listing an entity's records with query-string filters
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	entityID, ok := uuidParam(w, r, "entityID")
	if !ok {
		return
	}

	filter := domain.RecordFilter{
		Tag:             r.URL.Query().Get("tag"),
		IncludeArchived: r.URL.Query().Get("include_archived") == "true",
	}

	result, err := h.recordService.List(r.Context(), userID, workspaceID, entityID, filter, pagination(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, result)
}

type searchRequest struct {
	Filter domain.RecordFilter `json:"filter"`
	Page   *domain.Pagination  `json:"page,omitempty"`
}

// Search handles listing with a full filter body, including field
// value matching
func (h *RecordHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	entityID, ok := uuidParam(w, r, "entityID")
	if !ok {
		return
	}

	var input searchRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	page := domain.DefaultPagination()
	if input.Page != nil {
		page = input.Page.Normalize()
	}

	result, err := h.recordService.List(r.Context(), userID, workspaceID, entityID, input.Filter, page)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, result)
}

// Get handles getting a record by ID
func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	recordID, ok := uuidParam(w, r, "recordID")
	if !ok {
		return
	}

	record, err := h.recordService.GetByID(r.Context(), userID, workspaceID, recordID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, record)
}

// Update handles merging changes into a record
func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	recordID, ok := uuidParam(w, r, "recordID")
	if !ok {
		return
	}

	var input domain.RecordUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	record, err := h.recordService.Update(r.Context(), userID, workspaceID, recordID, input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, record)
}

// Delete handles record deletion. The default is a recoverable
// archive; permanent=true purges the record for good.
func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	recordID, ok := uuidParam(w, r, "recordID")
	if !ok {
		return
	}

	var err error
	if r.URL.Query().Get("permanent") == "true" {
		err = h.recordService.Delete(r.Context(), userID, workspaceID, recordID)
	} else {
		err = h.recordService.Archive(r.Context(), userID, workspaceID, recordID)
	}
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}

// Restore handles unarchiving a record
func (h *RecordHandler) Restore(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	recordID, ok := uuidParam(w, r, "recordID")
	if !ok {
		return
	}

	if err := h.recordService.Restore(r.Context(), userID, workspaceID, recordID); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}

type bulkRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

// BulkArchive handles archiving a batch of records
func (h *RecordHandler) BulkArchive(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.recordService.ArchiveMany)
}

// BulkDelete handles permanently deleting a batch of records
func (h *RecordHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.recordService.DeleteMany)
}

type bulkUpdateRequest struct {
	IDs   []uuid.UUID         `json:"ids" validate:"required,min=1"`
	Patch domain.RecordUpdate `json:"patch"`
}

// BulkUpdate handles applying one patch to a batch of records
func (h *RecordHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	entityID, ok := uuidParam(w, r, "entityID")
	if !ok {
		return
	}

	var input bulkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	count, err := h.recordService.UpdateMany(r.Context(), userID, workspaceID, entityID, input.IDs, input.Patch)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, map[string]int64{"affected": count})
}

func (h *RecordHandler) bulk(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, workspaceID, entityID uuid.UUID, ids []uuid.UUID) (int64, error)) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	entityID, ok := uuidParam(w, r, "entityID")
	if !ok {
		return
	}

	var input bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	count, err := op(r.Context(), userID, workspaceID, entityID, input.IDs)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, map[string]int64{"affected": count})
}
