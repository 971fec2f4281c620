package users

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

// Handler serves the user administration API.
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

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAbility(shared.AbilityManageUsers))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters := ListFilters{
		Search:   strings.TrimSpace(r.URL.Query().Get("search")),
		RoleSlug: strings.TrimSpace(r.URL.Query().Get("role")),
		Page:     queryInt(r, "page", 1),
		PerPage:  clamp(queryInt(r, "per_page", 15), 1, 100),
	}

	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []User{}
	}
	httpx.List(w, http.StatusOK, list, shared.NewPagination(filters.Page, filters.PerPage, total))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req StoreUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Malformed JSON body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	user, err := h.service.Create(r.Context(), req.Name, req.Email, req.Password, req.RoleIDs)
	if err != nil {
		h.logger.Warn("create user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Data(w, http.StatusCreated, user)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, mapNotFound(err))
		return
	}
	httpx.Data(w, http.StatusOK, user)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Malformed JSON body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	password := ""
	if req.Password != nil {
		password = *req.Password
	}
	var roleIDs []int64
	if req.RoleIDs != nil {
		roleIDs = *req.RoleIDs
	}

	user, err := h.service.Update(r.Context(), id, req.Name, req.Email, password, roleIDs)
	if err != nil {
		h.logger.Warn("update user", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, mapNotFound(err))
		return
	}
	httpx.Data(w, http.StatusOK, user)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Warn("delete user", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, mapNotFound(err))
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
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
