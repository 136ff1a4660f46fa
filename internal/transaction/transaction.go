package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the settlement state of a ledger transaction.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// StatusFor returns the status a transaction mirrors for an expense's refund flag.
func StatusFor(refunded bool) Status {
	if refunded {
		return StatusCompleted
	}

	return StatusPending
}

// Transaction is a financial ledger entry mirroring an expense's value.
type Transaction struct {
	ID         uuid.UUID
	UserID     *uuid.UUID // Nil once the owner account is removed
	TotalPrice decimal.Decimal
	Status     Status
	FromDate   time.Time
	ToDate     time.Time
	Remarks    *string
	CreatedAt  time.Time
}
