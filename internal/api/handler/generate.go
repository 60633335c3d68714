package handler

import (
	"encoding/json"
	"net/http"

	"github.com/crmforge/crmforge/internal/api/middleware"
	"github.com/crmforge/crmforge/internal/api/response"
	"github.com/crmforge/crmforge/internal/service"
)

// GenerateHandler handles AI workspace generation
type GenerateHandler struct {
	generatorService *service.GeneratorService
}

// NewGenerateHandler creates a new generate handler
func NewGenerateHandler(generatorService *service.GeneratorService) *GenerateHandler {
	return &GenerateHandler{generatorService: generatorService}
}

// Generate handles creating a workspace layout from a business
// description
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input service.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.generatorService.Generate(r.Context(), userID, input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, result)
}
