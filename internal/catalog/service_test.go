package catalog_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/expensa/internal/catalog"
	"github.com/MrJamesThe3rd/expensa/internal/identity"
	"github.com/MrJamesThe3rd/expensa/internal/ledger"
)

var (
	admin  = &identity.User{ID: uuid.New(), Username: "root", Role: identity.RoleAdmin}
	member = &identity.User{ID: uuid.New(), Username: "asha", Role: identity.RoleMember}
)

func TestService_CreateItem(t *testing.T) {
	catID := uuid.New()

	type testCase struct {
		name      string
		user      *identity.User
		params    catalog.ItemParams
		setupMock func(m *catalog.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:   "Success",
			user:   admin,
			params: catalog.ItemParams{CategoryID: catID, Name: " Tea ", Price: decimal.NewFromInt(15)},
			setupMock: func(m *catalog.MockRepository) {
				m.EXPECT().
					CreateItem(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, it *catalog.Item) error {
						assert.Equal(t, "Tea", it.Name)
						assert.Equal(t, admin.ID, it.CreatedBy)
						it.ID = uuid.New()

						return nil
					})
			},
		},
		{
			name:    "MemberDenied",
			user:    member,
			params:  catalog.ItemParams{CategoryID: catID, Name: "Tea", Price: decimal.NewFromInt(15)},
			wantErr: ledger.ErrPermissionDenied,
		},
		{
			name:   "NegativePrice",
			user:   admin,
			params: catalog.ItemParams{CategoryID: catID, Name: "Tea", Price: decimal.NewFromInt(-1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := catalog.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := catalog.NewService(repo)
			got, err := svc.CreateItem(context.Background(), tt.user, tt.params)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.setupMock == nil:
				var verr *ledger.ValidationError
				assert.ErrorAs(t, err, &verr)
			default:
				require.NoError(t, err)
				assert.NotEqual(t, uuid.Nil, got.ID)
			}
		})
	}
}

func TestService_UpdateItem(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	itemID := uuid.New()
	catID := uuid.New()
	stored := &catalog.Item{ID: itemID, CategoryID: catID, Name: "Tea", Price: decimal.NewFromInt(10)}

	repo := catalog.NewMockRepository(ctrl)
	repo.EXPECT().GetItem(gomock.Any(), itemID).Return(stored, nil)
	repo.EXPECT().
		UpdateItem(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, it *catalog.Item) error {
			assert.True(t, decimal.NewFromInt(12).Equal(it.Price))
			return nil
		})

	svc := catalog.NewService(repo)
	got, err := svc.UpdateItem(context.Background(), admin, itemID, catalog.ItemParams{
		CategoryID: catID,
		Name:       "Tea",
		Price:      decimal.NewFromInt(12),
	})
	require.NoError(t, err)
	assert.Equal(t, "12", got.Price.String())
}

func TestService_PriceHistory_UnknownItem(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	itemID := uuid.New()

	repo := catalog.NewMockRepository(ctrl)
	repo.EXPECT().GetItem(gomock.Any(), itemID).Return(nil, ledger.ErrNotFound)

	_, err := catalog.NewService(repo).PriceHistory(context.Background(), itemID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestService_ImportPriceList(t *testing.T) {
	csv := "category,item,price\nSnacks,Samosa,12.00\nSnacks,Vada,10\nDrinks,Tea,15\n"

	snacks := &catalog.Category{ID: uuid.New(), Name: "Snacks"}
	samosa := &catalog.Item{ID: uuid.New(), CategoryID: snacks.ID, Name: "Samosa", Price: decimal.NewFromInt(10)}

	t.Run("Success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := catalog.NewMockRepository(ctrl)
		itx := catalog.NewMockImportTx(ctrl)

		repo.EXPECT().BeginImport(gomock.Any()).Return(itx, nil)

		itx.EXPECT().FindCategory(gomock.Any(), "Snacks").Return(snacks, nil)
		itx.EXPECT().FindItem(gomock.Any(), snacks.ID, "Samosa").Return(samosa, nil)
		itx.EXPECT().UpdateItem(gomock.Any(), samosa).Return(nil)
		itx.EXPECT().FindItem(gomock.Any(), snacks.ID, "Vada").Return(nil, ledger.ErrNotFound)

		itx.EXPECT().FindCategory(gomock.Any(), "Drinks").Return(nil, ledger.ErrNotFound)
		itx.EXPECT().
			CreateCategory(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, c *catalog.Category) error {
				c.ID = uuid.New()
				return nil
			})
		itx.EXPECT().FindItem(gomock.Any(), gomock.Any(), "Tea").Return(nil, ledger.ErrNotFound)
		itx.EXPECT().CreateItem(gomock.Any(), gomock.Any()).Return(nil).Times(2)

		itx.EXPECT().Commit().Return(nil)
		itx.EXPECT().Rollback().Return(nil)

		got, err := catalog.NewService(repo).ImportPriceList(context.Background(), admin, strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, &catalog.ImportResult{CategoriesCreated: 1, ItemsCreated: 2, ItemsUpdated: 1}, got)
		assert.Equal(t, "12", samosa.Price.String())
	})

	t.Run("RollsBackOnFailure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := catalog.NewMockRepository(ctrl)
		itx := catalog.NewMockImportTx(ctrl)

		repo.EXPECT().BeginImport(gomock.Any()).Return(itx, nil)
		itx.EXPECT().FindCategory(gomock.Any(), "Snacks").Return(nil, errors.New("db down"))
		itx.EXPECT().Rollback().Return(nil)

		_, err := catalog.NewService(repo).ImportPriceList(context.Background(), admin, strings.NewReader(csv))
		assert.ErrorIs(t, err, ledger.ErrOperationFailed)
	})

	t.Run("MemberDenied", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		_, err := catalog.NewService(catalog.NewMockRepository(ctrl)).
			ImportPriceList(context.Background(), member, strings.NewReader(csv))
		assert.ErrorIs(t, err, ledger.ErrPermissionDenied)
	})
}
