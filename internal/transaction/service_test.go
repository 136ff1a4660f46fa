package transaction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/expensa/internal/identity"
	"github.com/MrJamesThe3rd/expensa/internal/ledger"
	"github.com/MrJamesThe3rd/expensa/internal/transaction"
)

var (
	owner    = &identity.User{ID: uuid.New(), Username: "asha", Role: identity.RoleMember}
	stranger = &identity.User{ID: uuid.New(), Username: "ravi", Role: identity.RoleMember}
	admin    = &identity.User{ID: uuid.New(), Username: "root", Role: identity.RoleAdmin}
)

func TestService_Create(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	type args struct {
		params transaction.CreateParams
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *transaction.MockRepository)
		wantErr   bool
	}

	tests := []testCase{
		{
			name: "Success",
			args: args{
				params: transaction.CreateParams{
					TotalPrice: decimal.RequireFromString("120.50"),
					FromDate:   from,
					ToDate:     from,
				},
			},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					CreateTransaction(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
						assert.Equal(t, transaction.StatusPending, tx.Status)
						assert.Equal(t, owner.ID, *tx.UserID)
						tx.ID = uuid.New()

						return nil
					})
			},
		},
		{
			name: "MissingDates",
			args: args{
				params: transaction.CreateParams{TotalPrice: decimal.NewFromInt(1)},
			},
			wantErr: true,
		},
		{
			name: "RepoError",
			args: args{
				params: transaction.CreateParams{
					TotalPrice: decimal.NewFromInt(5),
					FromDate:   from,
					ToDate:     from,
				},
			},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					CreateTransaction(gomock.Any(), gomock.Any()).
					Return(errors.New("db error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := transaction.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := transaction.NewService(repo)
			got, err := svc.Create(context.Background(), owner, tt.args.params)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)

				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, got.ID)
		})
	}
}

func TestService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	repo.EXPECT().
		ListTransactions(gomock.Any(), transaction.ListFilter{UserID: &owner.ID}).
		Return([]*transaction.Transaction{{ID: uuid.New()}, {ID: uuid.New()}}, nil)

	svc := transaction.NewService(repo)
	got, err := svc.List(context.Background(), owner, nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestService_Get_Permissions(t *testing.T) {
	txID := uuid.New()
	stored := &transaction.Transaction{ID: txID, UserID: &owner.ID, Status: transaction.StatusPending}

	type testCase struct {
		name    string
		user    *identity.User
		wantErr error
	}

	tests := []testCase{
		{name: "Owner", user: owner},
		{name: "Admin", user: admin},
		{name: "Stranger", user: stranger, wantErr: ledger.ErrPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := transaction.NewMockRepository(ctrl)
			repo.EXPECT().GetTransaction(gomock.Any(), txID).Return(stored, nil)

			svc := transaction.NewService(repo)
			got, err := svc.Get(context.Background(), tt.user, txID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, stored, got)
		})
	}
}

func TestService_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txID := uuid.New()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stored := &transaction.Transaction{
		ID:         txID,
		UserID:     &owner.ID,
		TotalPrice: decimal.NewFromInt(10),
		Status:     transaction.StatusPending,
		FromDate:   from,
		ToDate:     from,
	}

	repo := transaction.NewMockRepository(ctrl)
	repo.EXPECT().GetTransaction(gomock.Any(), txID).Return(stored, nil)
	repo.EXPECT().UpdateTransaction(gomock.Any(), stored).Return(nil)

	svc := transaction.NewService(repo)
	got, err := svc.Update(context.Background(), admin, txID, transaction.UpdateParams{
		Status: new(transaction.StatusCompleted),
	})
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusCompleted, got.Status)
}

func TestService_Delete_Stranger(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txID := uuid.New()

	repo := transaction.NewMockRepository(ctrl)
	repo.EXPECT().
		GetTransaction(gomock.Any(), txID).
		Return(&transaction.Transaction{ID: txID, UserID: &owner.ID}, nil)

	svc := transaction.NewService(repo)
	err := svc.Delete(context.Background(), stranger, txID)
	assert.ErrorIs(t, err, ledger.ErrPermissionDenied)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, transaction.StatusCompleted, transaction.StatusFor(true))
	assert.Equal(t, transaction.StatusPending, transaction.StatusFor(false))
}
