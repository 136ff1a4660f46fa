package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensa/internal/ledger"
)

type orderResponse struct {
	ID              uuid.UUID        `json:"id"`
	UserID          uuid.UUID        `json:"user"`
	Username        string           `json:"username,omitempty"`
	Kind            ledger.OrderKind `json:"kind"`
	CalculatedPrice decimal.Decimal  `json:"calculated_price"`
	Items           []lineResponse   `json:"items,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type lineResponse struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order"`
	ItemID    uuid.UUID       `json:"item"`
	ItemName  string          `json:"item_name"`
	ItemPrice decimal.Decimal `json:"item_price"`
	Count     int             `json:"count"`
	Total     decimal.Decimal `json:"total"`
	AddedDate time.Time       `json:"added_date"`
}

func toOrder(o *ledger.Order) orderResponse {
	return orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		Username:        o.Username,
		Kind:            o.Kind,
		CalculatedPrice: o.CalculatedPrice.Round(2),
		Items:           toLineList(o.Items),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func toLine(l *ledger.OrderItem) lineResponse {
	return lineResponse{
		ID:        l.ID,
		OrderID:   l.OrderID,
		ItemID:    l.ItemID,
		ItemName:  l.ItemName,
		ItemPrice: l.ItemPrice,
		Count:     l.Count,
		Total:     l.Total().Round(2),
		AddedDate: l.AddedDate,
	}
}

func toLineList(lines []*ledger.OrderItem) []lineResponse {
	resp := make([]lineResponse, len(lines))
	for i, l := range lines {
		resp[i] = toLine(l)
	}

	return resp
}
