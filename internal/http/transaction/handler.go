package transaction

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensa/internal/http/auth"
	"github.com/MrJamesThe3rd/expensa/internal/http/httperr"
	"github.com/MrJamesThe3rd/expensa/internal/http/render"
	"github.com/MrJamesThe3rd/expensa/internal/transaction"
)

type Handler struct {
	svc *transaction.Service
}

func NewHandler(svc *transaction.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type createTransactionRequest struct {
	TotalPrice decimal.Decimal    `json:"total_price"`
	Status     transaction.Status `json:"status" validate:"omitempty,oneof=Pending Completed"`
	FromDate   *time.Time         `json:"from_date" validate:"required"`
	ToDate     *time.Time         `json:"to_date" validate:"required"`
	Remarks    *string            `json:"remarks"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	var req createTransactionRequest
	if err := render.Decode(r, &req); err != nil {
		httperr.Write(w, r, err)
		return
	}

	tx, err := h.svc.Create(r.Context(), user, transaction.CreateParams{
		TotalPrice: req.TotalPrice,
		Status:     req.Status,
		FromDate:   *req.FromDate,
		ToDate:     *req.ToDate,
		Remarks:    req.Remarks,
	})
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, toResponse(tx))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	var status *transaction.Status
	if s := r.URL.Query().Get("status"); s != "" {
		status = new(transaction.Status(s))
	}

	txs, err := h.svc.List(r.Context(), user, status)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponseList(txs))
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

	tx, err := h.svc.Get(r.Context(), user, id)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponse(tx))
}

type updateTransactionRequest struct {
	TotalPrice *decimal.Decimal    `json:"total_price,omitempty"`
	Status     *transaction.Status `json:"status,omitempty" validate:"omitempty,oneof=Pending Completed"`
	FromDate   *time.Time          `json:"from_date,omitempty"`
	ToDate     *time.Time          `json:"to_date,omitempty"`
	Remarks    *string             `json:"remarks,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	id, err := render.ID(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	var req updateTransactionRequest
	if err := render.Decode(r, &req); err != nil {
		httperr.Write(w, r, err)
		return
	}

	tx, err := h.svc.Update(r.Context(), user, id, transaction.UpdateParams{
		TotalPrice: req.TotalPrice,
		Status:     req.Status,
		FromDate:   req.FromDate,
		ToDate:     req.ToDate,
		Remarks:    req.Remarks,
	})
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponse(tx))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	id, err := render.ID(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	if err := h.svc.Delete(r.Context(), user, id); err != nil {
		httperr.Write(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
