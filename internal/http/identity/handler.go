package identity

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/expensa/internal/http/auth"
	"github.com/MrJamesThe3rd/expensa/internal/http/httperr"
	"github.com/MrJamesThe3rd/expensa/internal/http/render"
	"github.com/MrJamesThe3rd/expensa/internal/identity"
)

type Handler struct {
	svc *identity.Service
}

func NewHandler(svc *identity.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) MeRoutes(r chi.Router) {
	r.Get("/", h.me)
}

// RoleRoutes expects to be mounted behind auth.RequireAdmin.
func (h *Handler) RoleRoutes(r chi.Router) {
	r.Get("/", h.listRoles)
	r.Post("/", h.createRole)
	r.Get("/{id}", h.getRole)
	r.Put("/{id}", h.updateRole)
	r.Delete("/{id}", h.deleteRole)
}

type userResponse struct {
	ID       uuid.UUID     `json:"id"`
	Username string        `json:"username"`
	Email    string        `json:"email"`
	Role     identity.Role `json:"role"`
	RoleName string        `json:"role_name,omitempty"`
}

type roleResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"role_name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func toRole(r *identity.RoleRecord) roleResponse {
	return roleResponse{ID: r.ID, Name: r.Name, Description: r.Description, CreatedAt: r.CreatedAt}
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	render.JSON(w, http.StatusOK, userResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		RoleName: user.RoleName,
	})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.svc.ListRoles(r.Context())
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	resp := make([]roleResponse, len(roles))
	for i, role := range roles {
		resp[i] = toRole(role)
	}

	render.JSON(w, http.StatusOK, resp)
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	role, err := h.svc.GetRole(r.Context(), id)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toRole(role))
}

type roleRequest struct {
	Name        string `json:"role_name" validate:"required,max=50"`
	Description string `json:"description"`
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := render.Decode(r, &req); err != nil {
		httperr.Write(w, r, err)
		return
	}

	role, err := h.svc.CreateRole(r.Context(), req.Name, req.Description)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, toRole(role))
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	var req roleRequest
	if err := render.Decode(r, &req); err != nil {
		httperr.Write(w, r, err)
		return
	}

	role, err := h.svc.GetRole(r.Context(), id)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	role.Name = req.Name
	role.Description = req.Description

	if err := h.svc.UpdateRole(r.Context(), role); err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toRole(role))
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	if err := h.svc.DeleteRole(r.Context(), id); err != nil {
		httperr.Write(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
