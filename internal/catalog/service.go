package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensa/internal/identity"
	"github.com/MrJamesThe3rd/expensa/internal/ledger"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=catalog
type Repository interface {
	ListCategories(ctx context.Context) ([]*Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListItems(ctx context.Context, categoryID *uuid.UUID) ([]*Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	CreateItem(ctx context.Context, item *Item) error
	// UpdateItem appends the previous price to the history when it changes,
	// atomically with the update.
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	ListPriceHistory(ctx context.Context, itemID uuid.UUID) ([]*PriceChange, error)

	BeginImport(ctx context.Context) (ImportTx, error)
}

type ImportTx interface {
	FindCategory(ctx context.Context, name string) (*Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	FindItem(ctx context.Context, categoryID uuid.UUID, name string) (*Item, error)
	CreateItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func requireAdmin(user *identity.User, what string) error {
	if !identity.IsAdmin(user) {
		return ledger.Denied("only admin can " + what)
	}

	return nil
}

func (s *Service) ListCategories(ctx context.Context) ([]*Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) GetCategory(ctx context.Context, user *identity.User, id uuid.UUID) (*Category, error) {
	if err := requireAdmin(user, "view category details"); err != nil {
		return nil, err
	}

	return s.repo.GetCategory(ctx, id)
}

func (s *Service) CreateCategory(ctx context.Context, user *identity.User, name string) (*Category, error) {
	if err := requireAdmin(user, "create categories"); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ledger.ValidationError{Fields: map[string]string{"category_name": "required"}}
	}

	c := &Category{Name: name, CreatedBy: &user.ID}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, user *identity.User, id uuid.UUID, name string) (*Category, error) {
	if err := requireAdmin(user, "update categories"); err != nil {
		return nil, err
	}

	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	c.Name = strings.TrimSpace(name)
	if c.Name == "" {
		return nil, &ledger.ValidationError{Fields: map[string]string{"category_name": "required"}}
	}

	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, user *identity.User, id uuid.UUID) error {
	if err := requireAdmin(user, "delete categories"); err != nil {
		return err
	}

	return s.repo.DeleteCategory(ctx, id)
}

type ItemParams struct {
	CategoryID uuid.UUID
	Name       string
	Price      decimal.Decimal
}

func (p ItemParams) validate() error {
	var v ledger.ValidationError

	if p.CategoryID == uuid.Nil {
		v.Add("category", "required")
	}

	if strings.TrimSpace(p.Name) == "" {
		v.Add("item_name", "required")
	}

	if p.Price.IsNegative() {
		v.Add("item_price", "must not be negative")
	}

	return v.OrNil()
}

func (s *Service) ListItems(ctx context.Context, categoryID *uuid.UUID) ([]*Item, error) {
	return s.repo.ListItems(ctx, categoryID)
}

func (s *Service) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.repo.GetItem(ctx, id)
}

func (s *Service) CreateItem(ctx context.Context, user *identity.User, p ItemParams) (*Item, error) {
	if err := requireAdmin(user, "create items"); err != nil {
		return nil, err
	}

	if err := p.validate(); err != nil {
		return nil, err
	}

	item := &Item{
		CategoryID: p.CategoryID,
		CreatedBy:  user.ID,
		Name:       strings.TrimSpace(p.Name),
		Price:      p.Price,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

func (s *Service) UpdateItem(ctx context.Context, user *identity.User, id uuid.UUID, p ItemParams) (*Item, error) {
	if err := requireAdmin(user, "update items"); err != nil {
		return nil, err
	}

	if err := p.validate(); err != nil {
		return nil, err
	}

	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	item.CategoryID = p.CategoryID
	item.Name = strings.TrimSpace(p.Name)
	item.Price = p.Price

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

func (s *Service) DeleteItem(ctx context.Context, user *identity.User, id uuid.UUID) error {
	if err := requireAdmin(user, "delete items"); err != nil {
		return err
	}

	return s.repo.DeleteItem(ctx, id)
}

// PriceHistory lists the previous prices of an item, newest first.
func (s *Service) PriceHistory(ctx context.Context, itemID uuid.UUID) ([]*PriceChange, error) {
	if _, err := s.repo.GetItem(ctx, itemID); err != nil {
		return nil, err
	}

	return s.repo.ListPriceHistory(ctx, itemID)
}

type ImportResult struct {
	CategoriesCreated int
	ItemsCreated      int
	ItemsUpdated      int
	Unchanged         int
}

// ImportPriceList applies an uploaded price list in one unit: missing categories
// and items are created, changed prices are updated with history.
func (s *Service) ImportPriceList(ctx context.Context, user *identity.User, r io.Reader) (*ImportResult, error) {
	if err := requireAdmin(user, "import price lists"); err != nil {
		return nil, err
	}

	rows, err := ParsePriceList(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	if len(rows) == 0 {
		return result, nil
	}

	itx, err := s.repo.BeginImport(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	categories := make(map[string]*Category)

	for _, row := range rows {
		key := strings.ToLower(row.Category)

		cat, ok := categories[key]
		if !ok {
			cat, err = findOrCreateCategory(ctx, itx, user, row.Category, result)
			if err != nil {
				return nil, ledger.Failed(err)
			}

			categories[key] = cat
		}

		if err := upsertItem(ctx, itx, user, cat, row, result); err != nil {
			return nil, ledger.Failed(err)
		}
	}

	if err := itx.Commit(); err != nil {
		return nil, ledger.Failed(fmt.Errorf("commit import: %w", err))
	}

	return result, nil
}

func findOrCreateCategory(ctx context.Context, itx ImportTx, user *identity.User, name string, result *ImportResult) (*Category, error) {
	cat, err := itx.FindCategory(ctx, name)
	if err == nil {
		return cat, nil
	}

	if !errors.Is(err, ledger.ErrNotFound) {
		return nil, err
	}

	cat = &Category{Name: name, CreatedBy: &user.ID}
	if err := itx.CreateCategory(ctx, cat); err != nil {
		return nil, err
	}

	result.CategoriesCreated++

	return cat, nil
}

func upsertItem(ctx context.Context, itx ImportTx, user *identity.User, cat *Category, row PriceListRow, result *ImportResult) error {
	item, err := itx.FindItem(ctx, cat.ID, row.Item)
	if errors.Is(err, ledger.ErrNotFound) {
		result.ItemsCreated++

		return itx.CreateItem(ctx, &Item{
			CategoryID: cat.ID,
			CreatedBy:  user.ID,
			Name:       row.Item,
			Price:      row.Price,
		})
	}

	if err != nil {
		return err
	}

	if item.Price.Equal(row.Price) {
		result.Unchanged++
		return nil
	}

	item.Price = row.Price
	result.ItemsUpdated++

	return itx.UpdateItem(ctx, item)
}
