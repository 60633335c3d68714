package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/crmforge/crmforge/internal/api/response"
	"github.com/crmforge/crmforge/internal/domain"
	"github.com/crmforge/crmforge/internal/service"
)

// ActivityHandler handles record timeline endpoints
type ActivityHandler struct {
	activityService *service.ActivityService
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activityService *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// Create handles appending a timeline entry to a record
func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	recordID, ok := uuidParam(w, r, "recordID")
	if !ok {
		return
	}

	var input domain.ActivityCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	activity, err := h.activityService.Create(r.Context(), userID, workspaceID, recordID, input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, activity)
}

// ListByRecord handles listing a record's timeline, newest first
func (h *ActivityHandler) ListByRecord(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	recordID, ok := uuidParam(w, r, "recordID")
	if !ok {
		return
	}

	result, err := h.activityService.ListByRecord(r.Context(), userID, workspaceID, recordID, pagination(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, result)
}

// Complete handles marking a timeline entry as done
func (h *ActivityHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	activityID, ok := uuidParam(w, r, "activityID")
	if !ok {
		return
	}

	activity, err := h.activityService.Complete(r.Context(), userID, workspaceID, activityID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, activity)
}

type rescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

// Reschedule handles moving a timeline entry to a new scheduled time
func (h *ActivityHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	activityID, ok := uuidParam(w, r, "activityID")
	if !ok {
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	activity, err := h.activityService.Reschedule(r.Context(), userID, workspaceID, activityID, req.ScheduledAt)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, activity)
}
