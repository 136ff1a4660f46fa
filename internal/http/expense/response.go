package expense

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensa/internal/ledger"
)

type expenseResponse struct {
	ID          uuid.UUID              `json:"id"`
	UserID      uuid.UUID              `json:"user"`
	Username    string                 `json:"username,omitempty"`
	Date        string                 `json:"date"`
	Description string                 `json:"description"`
	Category    ledger.ExpenseCategory `json:"category"`
	Amount      decimal.Decimal        `json:"amount"`
	IsVerified  bool                   `json:"is_verified"`
	IsRefunded  bool                   `json:"is_refunded"`
	Bill        *billResponse          `json:"bill,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

type billResponse struct {
	ID         uuid.UUID `json:"id"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func toResponse(e *ledger.Expense) expenseResponse {
	resp := expenseResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		Username:    e.Username,
		Date:        e.Date.Format(time.DateOnly),
		Description: e.Description,
		Category:    e.Category,
		Amount:      e.Amount,
		IsVerified:  e.IsVerified,
		IsRefunded:  e.IsRefunded,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}

	if e.Bill != nil {
		resp.Bill = &billResponse{ID: e.Bill.ID, URL: e.Bill.URL, UploadedAt: e.Bill.UploadedAt}
	}

	return resp
}
