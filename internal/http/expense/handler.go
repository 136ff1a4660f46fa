package expense

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensa/internal/expense"
	"github.com/MrJamesThe3rd/expensa/internal/http/auth"
	"github.com/MrJamesThe3rd/expensa/internal/http/httperr"
	"github.com/MrJamesThe3rd/expensa/internal/http/render"
	"github.com/MrJamesThe3rd/expensa/internal/ledger"
)

const maxFormMemory = 16 << 20

type Handler struct {
	svc *expense.Service
}

func NewHandler(svc *expense.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

// expenseRequest is the JSON form of an expense write. Multipart requests
// carry the same fields as form values plus an optional "bill" file.
type expenseRequest struct {
	Date        *string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Description *string          `json:"description" validate:"omitempty,max=1000"`
	Category    *string          `json:"category" validate:"omitempty,oneof=Product Travel Food"`
	Amount      *decimal.Decimal `json:"amount"`
	IsVerified  *bool            `json:"is_verified"`
	IsRefunded  *bool            `json:"is_refunded"`
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// readRequest decodes the body and, for multipart, opens the bill file. The
// returned closer must be called once the service is done with the bill.
func readRequest(r *http.Request) (expenseRequest, io.Reader, func(), error) {
	var req expenseRequest

	noop := func() {}

	if !isMultipart(r) {
		if err := render.Decode(r, &req); err != nil {
			return req, nil, noop, err
		}

		return req, nil, noop, nil
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return req, nil, noop, &ledger.ValidationError{Fields: map[string]string{"body": "failed to parse form: " + err.Error()}}
	}

	var v ledger.ValidationError

	form := r.MultipartForm.Value
	str := func(key string) *string {
		if vals, ok := form[key]; ok && len(vals) > 0 {
			return new(vals[0])
		}

		return nil
	}

	req.Date = str("date")
	req.Description = str("description")
	req.Category = str("category")

	if s := str("amount"); s != nil {
		d, err := decimal.NewFromString(strings.TrimSpace(*s))
		if err != nil {
			v.Add("amount", "must be a number")
		} else {
			req.Amount = &d
		}
	}

	for key, dst := range map[string]**bool{"is_verified": &req.IsVerified, "is_refunded": &req.IsRefunded} {
		s := str(key)
		if s == nil {
			continue
		}

		b, err := strconv.ParseBool(*s)
		if err != nil {
			v.Add(key, "must be true or false")
			continue
		}

		*dst = &b
	}

	if err := v.OrNil(); err != nil {
		return req, nil, noop, err
	}

	if err := render.Validate(&req); err != nil {
		return req, nil, noop, err
	}

	bill, closeBill, err := openBill(r.MultipartForm)
	if err != nil {
		return req, nil, noop, err
	}

	return req, bill, closeBill, nil
}

func openBill(form *multipart.Form) (io.Reader, func(), error) {
	files := form.File["bill"]
	if len(files) == 0 {
		return nil, func() {}, nil
	}

	f, err := files[0].Open()
	if err != nil {
		return nil, nil, &ledger.ValidationError{Fields: map[string]string{"bill": "unreadable upload"}}
	}

	return f, func() { _ = f.Close() }, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	req, bill, closeBill, err := readRequest(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}
	defer closeBill()

	p := expense.CreateParams{Amount: req.Amount, Bill: bill}
	if req.Date != nil {
		p.Date = *req.Date
	}

	if req.Description != nil {
		p.Description = *req.Description
	}

	if req.Category != nil {
		p.Category = *req.Category
	}

	e, err := h.svc.Create(r.Context(), user, p)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, toResponse(e))
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

	req, bill, closeBill, err := readRequest(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}
	defer closeBill()

	e, err := h.svc.Update(r.Context(), user, id, expense.UpdateParams{
		Date:        req.Date,
		Description: req.Description,
		Category:    req.Category,
		Amount:      req.Amount,
		IsVerified:  req.IsVerified,
		IsRefunded:  req.IsRefunded,
		Bill:        bill,
	})
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponse(e))
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

	e, err := h.svc.Get(r.Context(), user, id)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponse(e))
}

func parseFilter(r *http.Request) (expense.ListFilter, error) {
	var (
		f expense.ListFilter
		v ledger.ValidationError
	)

	q := r.URL.Query()

	verified, err := render.QueryBool(r, "is_verified")
	if err != nil {
		return f, err
	}

	refunded, err := render.QueryBool(r, "is_refunded")
	if err != nil {
		return f, err
	}

	f.Verified, f.Refunded = verified, refunded

	if s := q.Get("category"); s != "" {
		c := ledger.ExpenseCategory(s)
		if !c.Valid() {
			v.Add("category", "must be one of: Product Travel Food")
		}

		f.Category = &c
	}

	if s := q.Get("user"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			v.Add("user", "must be a UUID")
		}

		f.UserID = &id
	}

	for key, dst := range map[string]**time.Time{"start_date": &f.StartDate, "end_date": &f.EndDate} {
		s := q.Get(key)
		if s == "" {
			continue
		}

		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			v.Add(key, "invalid date format, use YYYY-MM-DD")
			continue
		}

		*dst = &t
	}

	return f, v.OrNil()
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	es, err := h.svc.List(r.Context(), user, filter)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	resp := make([]expenseResponse, len(es))
	for i, e := range es {
		resp[i] = toResponse(e)
	}

	render.JSON(w, http.StatusOK, resp)
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
