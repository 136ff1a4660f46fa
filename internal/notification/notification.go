package notification

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID          uuid.UUID
	SenderID    uuid.UUID
	RecipientID uuid.UUID
	ExpenseID   *uuid.UUID
	Message     string
	IsRead      bool
	CreatedAt   time.Time
}

// MaxMessageLen matches the width of the message column.
const MaxMessageLen = 255

func truncate(msg string) string {
	r := []rune(msg)
	if len(r) <= MaxMessageLen {
		return msg
	}

	return string(r[:MaxMessageLen])
}
