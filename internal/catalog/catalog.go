package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Category struct {
	ID        uuid.UUID
	Name      string
	CreatedBy *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Item is a purchasable product with its current unit price.
type Item struct {
	ID         uuid.UUID
	CategoryID uuid.UUID
	CreatedBy  uuid.UUID
	Name       string
	Price      decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PriceChange is an append-only record of the price an item had before a change.
type PriceChange struct {
	ID        uuid.UUID
	ItemID    uuid.UUID
	Price     decimal.Decimal
	ChangedAt time.Time
}
