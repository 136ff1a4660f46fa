package report

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/expensa/internal/http/auth"
	"github.com/MrJamesThe3rd/expensa/internal/http/httperr"
	"github.com/MrJamesThe3rd/expensa/internal/http/render"
	"github.com/MrJamesThe3rd/expensa/internal/ledger"
	"github.com/MrJamesThe3rd/expensa/internal/report"
)

type Handler struct {
	svc *report.Service
	now func() time.Time
}

func NewHandler(svc *report.Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

// Routes registers the top level summary endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/daily-summary", h.dailySummary)
	r.Get("/order-summary", h.orderSummary)
	r.Get("/orders-by-date", h.ordersByDate)
}

// OrderRoutes registers the reports nested under /orders.
func (h *Handler) OrderRoutes(r chi.Router) {
	r.Get("/grouped-by-date", h.groupedByDate)
	r.Get("/available-dates", h.availableDates)
	r.Delete("/delete-by-date", h.deleteByDate)
}

func (h *Handler) dailySummary(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	rows, err := h.svc.DailyCombinedTotals(r.Context(), user)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	resp := make([]dailyTotalResponse, len(rows))
	for i, t := range rows {
		resp[i] = dailyTotalResponse{
			Date:          t.Date.Format(time.DateOnly),
			OrderTotal:    ledger.FormatAmount(t.OrderTotal),
			ExpenseTotal:  ledger.FormatAmount(t.ExpenseTotal),
			CombinedTotal: ledger.FormatAmount(t.CombinedTotal),
		}
	}

	render.JSON(w, http.StatusOK, resp)
}

func (h *Handler) orderSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	rows, err := h.svc.DailyOrderItemSummary(r.Context(), user)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	resp := make([]orderSummaryResponse, len(rows))
	for i, s := range rows {
		resp[i] = orderSummaryResponse{
			Date:        s.Date.Format(time.DateOnly),
			Username:    s.Username,
			TotalCount:  s.TotalCount,
			TotalAmount: ledger.FormatAmount(s.TotalAmount),
			OrderID:     s.OrderID,
		}
	}

	render.JSON(w, http.StatusOK, resp)
}

func (h *Handler) ordersByDate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()

	lines, err := h.svc.OrdersByDate(r.Context(), user, q.Get("date"), q.Get("username"))
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	resp := make([]datedLineResponse, len(lines))
	for i, l := range lines {
		resp[i] = toDatedLine(l)
	}

	render.JSON(w, http.StatusOK, resp)
}

// atoi treats a malformed number as absent so pagination falls back to defaults.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}

	return n
}

func (h *Handler) groupedByDate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()

	rep, err := h.svc.GroupedByDate(r.Context(), user, report.GroupedQuery{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Month:     q.Get("month"),
		Date:      q.Get("date"),
		Username:  q.Get("username"),
		ItemName:  q.Get("item_name"),
		Page:      atoi(q.Get("page")),
		PageSize:  atoi(q.Get("page_size")),
	})
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	if q.Get("format") != "pdf" {
		render.JSON(w, http.StatusOK, toGrouped(rep))
		return
	}

	var buf bytes.Buffer
	if err := report.WriteGroupedPDF(&buf, rep, h.now()); err != nil {
		httperr.Write(w, r, fmt.Errorf("rendering grouped report: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="orders-%s.pdf"`, h.now().Format("20060102")))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) availableDates(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	dates, err := h.svc.AvailableDates(r.Context(), user)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	resp := make([]string, len(dates))
	for i, d := range dates {
		resp[i] = d.Format(time.DateOnly)
	}

	render.JSON(w, http.StatusOK, resp)
}

func (h *Handler) deleteByDate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.User(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()

	n, err := h.svc.DeleteOrdersByDateAndUser(r.Context(), user, q.Get("date"), q.Get("username"))
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, deleteResponse{Deleted: n})
}
