package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DayAmount is a per-day sum produced by one side of the daily merge.
type DayAmount struct {
	Date   time.Time
	Amount decimal.Decimal
}

type DailyTotal struct {
	Date          time.Time
	OrderTotal    decimal.Decimal
	ExpenseTotal  decimal.Decimal
	CombinedTotal decimal.Decimal
}

// OrderItemSummary rolls up one user's lines for one day.
type OrderItemSummary struct {
	Date        time.Time
	Username    string
	TotalCount  int
	TotalAmount decimal.Decimal
	OrderID     uuid.UUID
}

// DatedLine is an order line with its item and order details.
type DatedLine struct {
	LineID     uuid.UUID
	OrderID    uuid.UUID
	ItemID     uuid.UUID
	ItemName   string
	Category   string
	Price      decimal.Decimal
	Count      int
	Total      decimal.Decimal
	AddedDate  time.Time
	Username   string
	OrderTotal decimal.Decimal
}

type GroupedFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Month     *time.Time // first day of the month
	Date      *time.Time
	Username  string
	ItemName  string
	UserID    *uuid.UUID
}

// GroupedRow is the rollup of one item bought by one user on one day.
type GroupedRow struct {
	Date     time.Time
	ItemID   uuid.UUID
	ItemName string
	Price    decimal.Decimal
	Count    int
	Total    decimal.Decimal
	Username string
}

type GroupedDay struct {
	Date  time.Time
	Rows  []*GroupedRow
	Total decimal.Decimal
}

type GroupedReport struct {
	Days        []*GroupedDay
	GrandTotal  decimal.Decimal
	TotalPages  int
	CurrentPage int
	PageSize    int
}
