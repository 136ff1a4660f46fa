package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensa/internal/transaction"
)

type transactionResponse struct {
	ID         uuid.UUID          `json:"id"`
	UserID     *uuid.UUID         `json:"user_id"`
	TotalPrice decimal.Decimal    `json:"total_price"`
	Status     transaction.Status `json:"status"`
	FromDate   time.Time          `json:"from_date"`
	ToDate     time.Time          `json:"to_date"`
	Remarks    *string            `json:"remarks,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

func toResponse(tx *transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:         tx.ID,
		UserID:     tx.UserID,
		TotalPrice: tx.TotalPrice.Round(2),
		Status:     tx.Status,
		FromDate:   tx.FromDate,
		ToDate:     tx.ToDate,
		Remarks:    tx.Remarks,
		CreatedAt:  tx.CreatedAt,
	}
}

func toResponseList(txs []*transaction.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toResponse(tx)
	}

	return resp
}
