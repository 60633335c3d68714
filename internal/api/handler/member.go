package handler

import (
	"encoding/json"
	"net/http"

	"github.com/crmforge/crmforge/internal/api/response"
	"github.com/crmforge/crmforge/internal/domain"
	"github.com/crmforge/crmforge/internal/service"
)

// MemberHandler handles workspace membership endpoints
type MemberHandler struct {
	memberService *service.MemberService
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(memberService *service.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

// List handles listing workspace members
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}

	members, err := h.memberService.List(r.Context(), userID, workspaceID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, members)
}

// Invite handles inviting an existing user by email
func (h *MemberHandler) Invite(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}

	var input domain.MemberInvite
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	member, err := h.memberService.Invite(r.Context(), userID, workspaceID, input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, member)
}

type changeRoleRequest struct {
	Role domain.Role `json:"role" validate:"required,oneof=admin member"`
}

// ChangeRole handles changing a member's role
func (h *MemberHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	targetID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	var input changeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if err := h.memberService.ChangeRole(r.Context(), userID, workspaceID, targetID, input.Role); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}

// Remove handles removing a member from the workspace
func (h *MemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := identity(w, r)
	if !ok {
		return
	}
	targetID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	if err := h.memberService.Remove(r.Context(), userID, workspaceID, targetID); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}
