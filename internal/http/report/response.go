package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensa/internal/ledger"
	"github.com/MrJamesThe3rd/expensa/internal/report"
)

type dailyTotalResponse struct {
	Date          string `json:"date"`
	OrderTotal    string `json:"order_total"`
	ExpenseTotal  string `json:"expense_total"`
	CombinedTotal string `json:"combined_total"`
}

type orderSummaryResponse struct {
	Date        string    `json:"date"`
	Username    string    `json:"username"`
	TotalCount  int       `json:"total_count"`
	TotalAmount string    `json:"total_amount"`
	OrderID     uuid.UUID `json:"order_id"`
}

type datedLineResponse struct {
	ID         uuid.UUID       `json:"id"`
	OrderID    uuid.UUID       `json:"order_id"`
	ItemID     uuid.UUID       `json:"item_id"`
	ItemName   string          `json:"item_name"`
	Category   string          `json:"category"`
	Price      decimal.Decimal `json:"price"`
	Count      int             `json:"count"`
	Total      string          `json:"total"`
	AddedDate  time.Time       `json:"added_date"`
	Username   string          `json:"username"`
	OrderTotal string          `json:"order_total"`
}

type groupedRowResponse struct {
	ItemID   uuid.UUID       `json:"item_id"`
	ItemName string          `json:"item_name"`
	Price    decimal.Decimal `json:"price"`
	Count    int             `json:"count"`
	Total    string          `json:"total"`
	Username string          `json:"username"`
}

type groupedDayResponse struct {
	Date  string               `json:"date"`
	Items []groupedRowResponse `json:"items"`
	Total string               `json:"total"`
}

type groupedResponse struct {
	Results     []groupedDayResponse `json:"results"`
	GrandTotal  string               `json:"grand_total"`
	TotalPages  int                  `json:"total_pages"`
	CurrentPage int                  `json:"current_page"`
	PageSize    int                  `json:"page_size"`
}

type deleteResponse struct {
	Deleted int `json:"deleted"`
}

func toDatedLine(l *report.DatedLine) datedLineResponse {
	return datedLineResponse{
		ID:         l.LineID,
		OrderID:    l.OrderID,
		ItemID:     l.ItemID,
		ItemName:   l.ItemName,
		Category:   l.Category,
		Price:      l.Price,
		Count:      l.Count,
		Total:      ledger.FormatAmount(l.Total),
		AddedDate:  l.AddedDate,
		Username:   l.Username,
		OrderTotal: ledger.FormatAmount(l.OrderTotal),
	}
}

func toGrouped(rep *report.GroupedReport) groupedResponse {
	resp := groupedResponse{
		Results:     make([]groupedDayResponse, len(rep.Days)),
		GrandTotal:  ledger.FormatAmount(rep.GrandTotal),
		TotalPages:  rep.TotalPages,
		CurrentPage: rep.CurrentPage,
		PageSize:    rep.PageSize,
	}

	for i, d := range rep.Days {
		day := groupedDayResponse{
			Date:  d.Date.Format(time.DateOnly),
			Items: make([]groupedRowResponse, len(d.Rows)),
			Total: ledger.FormatAmount(d.Total),
		}

		for j, row := range d.Rows {
			day.Items[j] = groupedRowResponse{
				ItemID:   row.ItemID,
				ItemName: row.ItemName,
				Price:    row.Price,
				Count:    row.Count,
				Total:    ledger.FormatAmount(row.Total),
				Username: row.Username,
			}
		}

		resp.Results[i] = day
	}

	return resp
}
