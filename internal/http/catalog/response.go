package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensa/internal/catalog"
)

type categoryResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"category_name"`
	CreatedBy *uuid.UUID `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type itemResponse struct {
	ID         uuid.UUID       `json:"id"`
	CategoryID uuid.UUID       `json:"category"`
	CreatedBy  uuid.UUID       `json:"created_by"`
	Name       string          `json:"item_name"`
	Price      decimal.Decimal `json:"item_price"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type priceChangeResponse struct {
	ID        uuid.UUID       `json:"id"`
	ItemID    uuid.UUID       `json:"item"`
	Price     decimal.Decimal `json:"price"`
	ChangedAt time.Time       `json:"changed_at"`
}

type importResponse struct {
	CategoriesCreated int `json:"categories_created"`
	ItemsCreated      int `json:"items_created"`
	ItemsUpdated      int `json:"items_updated"`
	Unchanged         int `json:"unchanged"`
}

func toCategory(c *catalog.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, CreatedBy: c.CreatedBy, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

func toCategoryList(cs []*catalog.Category) []categoryResponse {
	resp := make([]categoryResponse, len(cs))
	for i, c := range cs {
		resp[i] = toCategory(c)
	}

	return resp
}

func toItem(i *catalog.Item) itemResponse {
	return itemResponse{
		ID:         i.ID,
		CategoryID: i.CategoryID,
		CreatedBy:  i.CreatedBy,
		Name:       i.Name,
		Price:      i.Price,
		CreatedAt:  i.CreatedAt,
		UpdatedAt:  i.UpdatedAt,
	}
}

func toItemList(items []*catalog.Item) []itemResponse {
	resp := make([]itemResponse, len(items))
	for i, item := range items {
		resp[i] = toItem(item)
	}

	return resp
}
