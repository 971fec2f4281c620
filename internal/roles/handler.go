package roles

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vantage-hq/vantage/internal/authz"
	"github.com/vantage-hq/vantage/internal/platform/httpx"
	"github.com/vantage-hq/vantage/internal/shared"
)

// Handler serves the role administration API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *httpx.Validator
	authz     authz.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, validator *httpx.Validator, authz authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validator: validator, authz: authz}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAbility(shared.AbilityManageRoles))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters := ListFilters{
		Search:  strings.TrimSpace(r.URL.Query().Get("search")),
		Page:    queryInt(r, "page", 1),
		PerPage: clamp(queryInt(r, "per_page", 15), 1, 100),
	}

	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Role{}
	}
	httpx.List(w, http.StatusOK, list, shared.NewPagination(filters.Page, filters.PerPage, total))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req StoreRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Malformed JSON body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	role, err := h.service.Create(r.Context(), CreateParams{
		Name:          req.Name,
		Slug:          req.Slug,
		Description:   deref(req.Description),
		PermissionIDs: req.PermissionIDs,
	})
	if err != nil {
		h.logger.Warn("create role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Data(w, http.StatusCreated, role)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, mapNotFound(err))
		return
	}
	httpx.Data(w, http.StatusOK, role)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Malformed JSON body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	params := UpdateParams{
		ID:          id,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: deref(req.Description),
	}
	if req.PermissionIDs != nil {
		params.PermissionIDs = *req.PermissionIDs
	}

	role, err := h.service.Update(r.Context(), params)
	if err != nil {
		h.logger.Warn("update role", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, mapNotFound(err))
		return
	}
	httpx.Data(w, http.StatusOK, role)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	subject, ok := authz.SubjectFromContext(r.Context())
	if !ok {
		httpx.Unauthenticated(w)
		return
	}

	if err := h.service.Delete(r.Context(), subject, id); err != nil {
		h.logger.Warn("delete role", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, mapNotFound(err))
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) roleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Message(w, http.StatusNotFound, httpx.MsgNotFound)
		return 0, false
	}
	return id, true
}

func mapNotFound(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return httpx.ErrNotFound
	}
	return err
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
