package handler

import (
	"encoding/json"
	"net/http"

	"github.com/crmforge/crmforge/internal/api/response"
	"github.com/crmforge/crmforge/internal/domain"
	"github.com/crmforge/crmforge/internal/service"
)

// RelationshipHandler handles record link endpoints
type RelationshipHandler struct {
	relationshipService *service.RelationshipService
}

// NewRelationshipHandler creates a new relationship handler
func NewRelationshipHandler(relationshipService *service.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{relationshipService: relationshipService}
}

// Create handles linking two records
func (h *RelationshipHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}

	var input domain.RelationshipCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	rel, err := h.relationshipService.Create(r.Context(), userID, workspaceID, input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, rel)
}

// ListByRecord handles listing every link touching a record
func (h *RelationshipHandler) ListByRecord(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	recordID, ok := uuidParam(w, r, "recordID")
	if !ok {
		return
	}

	rels, err := h.relationshipService.ListByRecord(r.Context(), userID, workspaceID, recordID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, rels)
}

// Neighbors handles listing the records a record points at, optionally
// filtered with ?type=
func (h *RelationshipHandler) Neighbors(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	recordID, ok := uuidParam(w, r, "recordID")
	if !ok {
		return
	}

	neighbors, err := h.relationshipService.Neighbors(r.Context(), userID, workspaceID, recordID, r.URL.Query().Get("type"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, neighbors)
}

// Delete handles removing a link
func (h *RelationshipHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	relationshipID, ok := uuidParam(w, r, "relationshipID")
	if !ok {
		return
	}

	if err := h.relationshipService.Delete(r.Context(), userID, workspaceID, relationshipID); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}
