package handler

import (
	"encoding/json"
	"net/http"

	"github.com/crmforge/crmforge/internal/api/response"
	"github.com/crmforge/crmforge/internal/domain"
	"github.com/crmforge/crmforge/internal/service"
)

// EntityHandler handles entity schema endpoints
type EntityHandler struct {
	entityService *service.EntityService
}

// NewEntityHandler creates a new entity handler
func NewEntityHandler(entityService *service.EntityService) *EntityHandler {
	return &EntityHandler{entityService: entityService}
}

// Create handles entity creation
func (h *EntityHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}

	var input domain.EntityCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	entity, err := h.entityService.Create(r.Context(), userID, workspaceID, input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, entity)
}

// List handles listing a workspace's entities
func (h *EntityHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}

	entities, err := h.entityService.List(r.Context(), userID, workspaceID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, entities)
}

// Get handles getting an entity by ID
func (h *EntityHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	entityID, ok := uuidParam(w, r, "entityID")
	if !ok {
		return
	}

	entity, err := h.entityService.GetByID(r.Context(), userID, workspaceID, entityID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, entity)
}

// Update handles updating an entity definition
func (h *EntityHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	entityID, ok := uuidParam(w, r, "entityID")
	if !ok {
		return
	}

	var input domain.EntityUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	entity, err := h.entityService.Update(r.Context(), userID, workspaceID, entityID, input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, entity)
}

// Delete handles deleting an entity and everything stored against it
func (h *EntityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	entityID, ok := uuidParam(w, r, "entityID")
	if !ok {
		return
	}

	if err := h.entityService.Delete(r.Context(), userID, workspaceID, entityID); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}
