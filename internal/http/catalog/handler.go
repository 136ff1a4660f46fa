package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensa/internal/catalog"
	"github.com/MrJamesThe3rd/expensa/internal/http/auth"
	"github.com/MrJamesThe3rd/expensa/internal/http/httperr"
	"github.com/MrJamesThe3rd/expensa/internal/http/render"
)

const maxImportSize = 10 << 20

type Handler struct {
	svc *catalog.Service
}

func NewHandler(svc *catalog.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) CategoryRoutes(r chi.Router) {
	r.Get("/", h.listCategories)
	r.Post("/", h.createCategory)
	r.Get("/{id}", h.getCategory)
	r.Put("/{id}", h.updateCategory)
	r.Delete("/{id}", h.deleteCategory)
}

func (h *Handler) ItemRoutes(r chi.Router) {
	r.Get("/", h.listItems)
	r.Post("/", h.createItem)
	r.Post("/import", h.importPriceList)
	r.Get("/{id}", h.getItem)
	r.Put("/{id}", h.updateItem)
	r.Delete("/{id}", h.deleteItem)
	r.Get("/{id}/price-history", h.priceHistory)
}

type categoryRequest struct {
	Name string `json:"category_name" validate:"required,max=100"`
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.ListCategories(r.Context())
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toCategoryList(cats))
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	id, err := render.ID(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	c, err := h.svc.GetCategory(r.Context(), user, id)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toCategory(c))
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	var req categoryRequest
	if err := render.Decode(r, &req); err != nil {
		httperr.Write(w, r, err)
		return
	}

	c, err := h.svc.CreateCategory(r.Context(), user, req.Name)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, toCategory(c))
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	id, err := render.ID(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	var req categoryRequest
	if err := render.Decode(r, &req); err != nil {
		httperr.Write(w, r, err)
		return
	}

	c, err := h.svc.UpdateCategory(r.Context(), user, id, req.Name)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toCategory(c))
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	id, err := render.ID(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	if err := h.svc.DeleteCategory(r.Context(), user, id); err != nil {
		httperr.Write(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type itemRequest struct {
	CategoryID *uuid.UUID       `json:"category" validate:"required"`
	Name       string           `json:"item_name" validate:"required,max=100"`
	Price      *decimal.Decimal `json:"item_price" validate:"required"`
}

func (req itemRequest) params() catalog.ItemParams {
	return catalog.ItemParams{CategoryID: *req.CategoryID, Name: req.Name, Price: *req.Price}
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	var categoryID *uuid.UUID

	if s := r.URL.Query().Get("category"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			httperr.Invalid(w, r, "category", "must be a UUID")
			return
		}

		categoryID = &id
	}

	items, err := h.svc.ListItems(r.Context(), categoryID)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toItemList(items))
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	item, err := h.svc.GetItem(r.Context(), id)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toItem(item))
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	var req itemRequest
	if err := render.Decode(r, &req); err != nil {
		httperr.Write(w, r, err)
		return
	}

	item, err := h.svc.CreateItem(r.Context(), user, req.params())
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, toItem(item))
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	id, err := render.ID(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	var req itemRequest
	if err := render.Decode(r, &req); err != nil {
		httperr.Write(w, r, err)
		return
	}

	item, err := h.svc.UpdateItem(r.Context(), user, id, req.params())
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toItem(item))
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	id, err := render.ID(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	if err := h.svc.DeleteItem(r.Context(), user, id); err != nil {
		httperr.Write(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) priceHistory(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	changes, err := h.svc.PriceHistory(r.Context(), id)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	resp := make([]priceChangeResponse, len(changes))
	for i, c := range changes {
		resp[i] = priceChangeResponse{ID: c.ID, ItemID: c.ItemID, Price: c.Price, ChangedAt: c.ChangedAt}
	}

	render.JSON(w, http.StatusOK, resp)
}

func (h *Handler) importPriceList(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		httperr.Invalid(w, r, "file", "failed to parse form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		httperr.Invalid(w, r, "file", "required")
		return
	}
	defer file.Close()

	res, err := h.svc.ImportPriceList(r.Context(), user, file)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, importResponse{
		CategoriesCreated: res.CategoriesCreated,
		ItemsCreated:      res.ItemsCreated,
		ItemsUpdated:      res.ItemsUpdated,
		Unchanged:         res.Unchanged,
	})
}
