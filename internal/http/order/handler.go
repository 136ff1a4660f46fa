package order

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/expensa/internal/http/auth"
	"github.com/MrJamesThe3rd/expensa/internal/http/httperr"
	"github.com/MrJamesThe3rd/expensa/internal/http/render"
	"github.com/MrJamesThe3rd/expensa/internal/order"
)

type Handler struct {
	svc *order.Service
}

func NewHandler(svc *order.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) OrderRoutes(r chi.Router) {
	r.Get("/", h.listOrders)
	r.Post("/", h.submit)
	r.Get("/{id}", h.getOrder)
	r.Put("/{id}", h.replaceLines)
	r.Delete("/{id}", h.deleteOrder)
}

func (h *Handler) LineRoutes(r chi.Router) {
	r.Get("/", h.listLines)
	r.Post("/", h.addLine)
	r.Get("/{id}", h.getLine)
	r.Put("/{id}", h.modifyLine)
	r.Delete("/{id}", h.deleteLine)
}

type lineRequest struct {
	ItemID uuid.UUID `json:"item_id"`
	Count  *int      `json:"count"`
	Date   string    `json:"date"`
}

type submitRequest struct {
	Lines []lineRequest `json:"lines"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	var req submitRequest
	if err := render.Decode(r, &req); err != nil {
		httperr.Write(w, r, err)
		return
	}

	in := make([]order.LineInput, len(req.Lines))
	for i, l := range req.Lines {
		in[i] = order.LineInput{ItemID: l.ItemID, Count: l.Count, Date: l.Date}
	}

	o, err := h.svc.SubmitOrderLines(r.Context(), user, in)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, toOrder(o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	orders, err := h.svc.ListOrders(r.Context(), user)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrder(o)
	}

	render.JSON(w, http.StatusOK, resp)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	id, err := render.ID(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	o, err := h.svc.GetOrder(r.Context(), user, id)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toOrder(o))
}

type replaceLineRequest struct {
	ID     *uuid.UUID `json:"id"`
	ItemID uuid.UUID  `json:"item_id"`
	Count  *int       `json:"count"`
}

type replaceRequest struct {
	Lines []replaceLineRequest `json:"lines"`
}

func (h *Handler) replaceLines(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	id, err := render.ID(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	var req replaceRequest
	if err := render.Decode(r, &req); err != nil {
		httperr.Write(w, r, err)
		return
	}

	in := make([]order.ReplaceLine, len(req.Lines))
	for i, l := range req.Lines {
		in[i] = order.ReplaceLine{ID: l.ID, ItemID: l.ItemID, Count: l.Count}
	}

	o, err := h.svc.ReplaceOrderLines(r.Context(), user, id, in)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toOrder(o))
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	id, err := render.ID(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	if err := h.svc.DeleteOrder(r.Context(), user, id); err != nil {
		httperr.Write(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listLines(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	lines, err := h.svc.ListOrderLines(r.Context(), user)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toLineList(lines))
}

type addLineRequest struct {
	OrderID *uuid.UUID `json:"order_id" validate:"required"`
	lineRequest
}

func (h *Handler) addLine(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	var req addLineRequest
	if err := render.Decode(r, &req); err != nil {
		httperr.Write(w, r, err)
		return
	}

	l, err := h.svc.AddOrderLine(r.Context(), user, *req.OrderID, order.LineInput{
		ItemID: req.ItemID,
		Count:  req.Count,
		Date:   req.Date,
	})
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, toLine(l))
}

func (h *Handler) getLine(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	id, err := render.ID(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	l, err := h.svc.GetOrderLine(r.Context(), user, id)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toLine(l))
}

type modifyLineRequest struct {
	Count  int        `json:"count" validate:"min=1"`
	ItemID *uuid.UUID `json:"item_id"`
}

func (h *Handler) modifyLine(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	id, err := render.ID(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	var req modifyLineRequest
	if err := render.Decode(r, &req); err != nil {
		httperr.Write(w, r, err)
		return
	}

	l, err := h.svc.ModifyOrderLine(r.Context(), user, id, order.ModifyLineParams{Count: req.Count, ItemID: req.ItemID})
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toLine(l))
}

func (h *Handler) deleteLine(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	id, err := render.ID(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	if err := h.svc.DeleteOrderLine(r.Context(), user, id); err != nil {
		httperr.Write(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
