package handler

import (
	"net/http"
	"strconv"

	"github.com/crmforge/crmforge/internal/api/middleware"
	"github.com/crmforge/crmforge/internal/api/response"
	"github.com/crmforge/crmforge/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// identity pulls the authenticated user and workspace from the
// request context. A false return means a response was already
// written.
func identity(w http.ResponseWriter, r *http.Request) (userID, workspaceID uuid.UUID, ok bool) {
	userID, ok = middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}
	workspaceID, ok = middleware.GetWorkspaceID(r.Context())
	if !ok {
		response.BadRequest(w, "missing workspace ID")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, workspaceID, true
}

// uuidParam parses a UUID URL parameter. A false return means a
// response was already written.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.BadRequest(w, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// pagination reads page, page_size, sort_by and sort_desc from the
// query string, falling back to defaults.
func pagination(r *http.Request) domain.Pagination {
	page := domain.DefaultPagination()
	q := r.URL.Query()

	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		page.Page = n
	}
	if n, err := strconv.Atoi(q.Get("page_size")); err == nil && n > 0 {
		page.PageSize = n
	}
	if v := q.Get("sort_by"); v != "" {
		page.SortBy = v
	}
	if q.Get("sort_desc") == "false" {
		page.SortDesc = false
	}
	return page
}
