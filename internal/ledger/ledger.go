package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseCategory tags what an expense was spent on.
type ExpenseCategory string

const (
	CategoryProduct ExpenseCategory = "Product"
	CategoryTravel  ExpenseCategory = "Travel"
	CategoryFood    ExpenseCategory = "Food"
)

// Valid reports whether c is one of the known expense categories.
func (c ExpenseCategory) Valid() bool {
	switch c {
	case CategoryProduct, CategoryTravel, CategoryFood:
		return true
	}

	return false
}

// OrderKind separates orders built from item lines from orders derived from an expense.
type OrderKind string

const (
	OrderKindItems   OrderKind = "items"
	OrderKindExpense OrderKind = "expense"
)

// Expense is a user-submitted spending record pending admin verification.
type Expense struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Username    string // Loaded via JOIN
	Date        time.Time
	Description string
	Category    ExpenseCategory
	Amount      decimal.Decimal
	IsVerified  bool
	IsRefunded  bool
	Bill        *Bill // Latest bill, loaded via JOIN
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Bill is a file attached to an expense.
type Bill struct {
	ID         uuid.UUID
	ExpenseID  uuid.UUID
	Path       string
	URL        string
	UploadedAt time.Time
}

// Order aggregates purchased item lines. CalculatedPrice is always derived.
type Order struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Username        string // Loaded via JOIN
	Kind            OrderKind
	CalculatedPrice decimal.Decimal
	Items           []*OrderItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem is a single (item, day) line of an order.
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ItemID    uuid.UUID
	ItemName  string          // Loaded via JOIN
	ItemPrice decimal.Decimal // Current item price, loaded via JOIN
	Count     int
	AddedDate time.Time
	OwnerID   uuid.UUID // Owner of the parent order, loaded via JOIN
}

// Total returns the line amount at the item's current price.
func (oi *OrderItem) Total() decimal.Decimal {
	return oi.ItemPrice.Mul(decimal.NewFromInt(int64(oi.Count)))
}

// TransactionOrder links one transaction to an expense and/or an order.
type TransactionOrder struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	ExpenseID     *uuid.UUID
	OrderID       *uuid.UUID
	CreatedAt     time.Time
}
