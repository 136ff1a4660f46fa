package notification

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/expensa/internal/http/auth"
	"github.com/MrJamesThe3rd/expensa/internal/http/httperr"
	"github.com/MrJamesThe3rd/expensa/internal/http/render"
	"github.com/MrJamesThe3rd/expensa/internal/notification"
)

type Handler struct {
	svc *notification.Service
}

func NewHandler(svc *notification.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.markRead)
}

type notificationResponse struct {
	ID        uuid.UUID  `json:"id"`
	SenderID  uuid.UUID  `json:"sender"`
	ExpenseID *uuid.UUID `json:"expense,omitempty"`
	Message   string     `json:"message"`
	IsRead    bool       `json:"is_read"`
	CreatedAt time.Time  `json:"created_at"`
}

func toResponse(n *notification.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		SenderID:  n.SenderID,
		ExpenseID: n.ExpenseID,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	unread, err := render.QueryBool(r, "unread")
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	ns, err := h.svc.List(r.Context(), user, unread != nil && *unread)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	resp := make([]notificationResponse, len(ns))
	for i, n := range ns {
		resp[i] = toResponse(n)
	}

	render.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	id, err := render.ID(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	n, err := h.svc.Get(r.Context(), user, id)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponse(n))
}

type markReadRequest struct {
	IsRead *bool `json:"is_read" validate:"required"`
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	id, err := render.ID(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	var req markReadRequest
	if err := render.Decode(r, &req); err != nil {
		httperr.Write(w, r, err)
		return
	}

	n, err := h.svc.MarkRead(r.Context(), user, id, *req.IsRead)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponse(n))
}
