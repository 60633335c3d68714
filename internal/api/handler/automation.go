package handler

import (
	"encoding/json"
	"net/http"

	"github.com/crmforge/crmforge/internal/api/response"
	"github.com/crmforge/crmforge/internal/domain"
	"github.com/crmforge/crmforge/internal/service"
	"github.com/google/uuid"
)

// AutomationHandler handles automation rule endpoints
type AutomationHandler struct {
	automationService *service.AutomationService
}

// NewAutomationHandler creates a new automation handler
func NewAutomationHandler(automationService *service.AutomationService) *AutomationHandler {
	return &AutomationHandler{automationService: automationService}
}

// Create handles automation rule creation
func (h *AutomationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}

	var input domain.RuleCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	rule, err := h.automationService.Create(r.Context(), userID, workspaceID, input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, rule)
}

// List handles listing a workspace's rules, optionally narrowed to one
// entity via the entity_id query parameter
func (h *AutomationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}

	var entityID *uuid.UUID
	if v := r.URL.Query().Get("entity_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(w, "invalid entity_id")
			return
		}
		entityID = &id
	}

	rules, err := h.automationService.List(r.Context(), userID, workspaceID, entityID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, rules)
}

// Get handles getting a rule by ID
func (h *AutomationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	ruleID, ok := uuidParam(w, r, "automationID")
	if !ok {
		return
	}

	rule, err := h.automationService.GetByID(r.Context(), userID, workspaceID, ruleID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, rule)
}

// Update handles updating a rule
func (h *AutomationHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	ruleID, ok := uuidParam(w, r, "automationID")
	if !ok {
		return
	}

	var input domain.RuleUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	rule, err := h.automationService.Update(r.Context(), userID, workspaceID, ruleID, input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, rule)
}

// Delete handles deleting a rule and its execution log
func (h *AutomationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	ruleID, ok := uuidParam(w, r, "automationID")
	if !ok {
		return
	}

	if err := h.automationService.Delete(r.Context(), userID, workspaceID, ruleID); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}

type runNowRequest struct {
	RecordID uuid.UUID `json:"record_id" validate:"required"`
}

// RunNow handles dispatching a rule against one record immediately
func (h *AutomationHandler) RunNow(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	ruleID, ok := uuidParam(w, r, "automationID")
	if !ok {
		return
	}

	var input runNowRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if err := h.automationService.RunNow(r.Context(), userID, workspaceID, ruleID, input.RecordID); err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, map[string]string{"status": "executed"})
}

// ListExecutions handles listing a rule's execution log
func (h *AutomationHandler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	ruleID, ok := uuidParam(w, r, "automationID")
	if !ok {
		return
	}

	result, err := h.automationService.ListExecutions(r.Context(), userID, workspaceID, ruleID, pagination(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, result)
}
