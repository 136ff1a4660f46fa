package expense_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/expensa/internal/expense"
	"github.com/MrJamesThe3rd/expensa/internal/identity"
	"github.com/MrJamesThe3rd/expensa/internal/ledger"
	"github.com/MrJamesThe3rd/expensa/internal/transaction"
)

var (
	owner    = &identity.User{ID: uuid.New(), Username: "asha", Role: identity.RoleMember}
	stranger = &identity.User{ID: uuid.New(), Username: "ravi", Role: identity.RoleMember}
	admin    = &identity.User{ID: uuid.New(), Username: "root", Role: identity.RoleAdmin}

	fixedNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
)

type mocks struct {
	repo     *expense.MockRepository
	tx       *expense.MockTx
	notifier *expense.MockNotifier
	bills    *expense.MockBillStore
}

func newService(t *testing.T) (*expense.Service, mocks) {
	ctrl := gomock.NewController(t)

	m := mocks{
		repo:     expense.NewMockRepository(ctrl),
		tx:       expense.NewMockTx(ctrl),
		notifier: expense.NewMockNotifier(ctrl),
		bills:    expense.NewMockBillStore(ctrl),
	}

	svc := expense.NewService(m.repo, m.notifier, m.bills, time.UTC).
		WithClock(func() time.Time { return fixedNow })

	return svc, m
}

func TestService_Create(t *testing.T) {
	amount := decimal.RequireFromString("250.00")

	t.Run("CreatesLedgerEntriesInOneUnit", func(t *testing.T) {
		svc, m := newService(t)

		expenseID := uuid.New()
		orderID := uuid.New()
		txID := uuid.New()

		gomock.InOrder(
			m.repo.EXPECT().Begin(gomock.Any()).Return(m.tx, nil),
			m.tx.EXPECT().
				CreateExpense(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, e *ledger.Expense) error {
					assert.False(t, e.IsVerified)
					assert.False(t, e.IsRefunded)
					assert.Equal(t, ledger.CategoryProduct, e.Category)
					e.ID = expenseID

					return nil
				}),
			m.tx.EXPECT().
				CreateOrder(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, o *ledger.Order) error {
					assert.Equal(t, ledger.OrderKindExpense, o.Kind)
					assert.True(t, amount.Equal(o.CalculatedPrice))
					o.ID = orderID

					return nil
				}),
			m.tx.EXPECT().
				CreateTransaction(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, tr *transaction.Transaction) error {
					assert.Equal(t, transaction.StatusPending, tr.Status)
					assert.True(t, amount.Equal(tr.TotalPrice))
					assert.Equal(t, fixedNow, tr.FromDate)
					assert.Equal(t, fixedNow, tr.ToDate)
					tr.ID = txID

					return nil
				}),
			m.tx.EXPECT().
				CreateLink(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, l *ledger.TransactionOrder) error {
					assert.Equal(t, txID, l.TransactionID)
					assert.Equal(t, expenseID, *l.ExpenseID)
					assert.Equal(t, orderID, *l.OrderID)

					return nil
				}),
			m.tx.EXPECT().Commit().Return(nil),
			m.tx.EXPECT().Rollback().Return(nil),
		)

		m.notifier.EXPECT().
			NotifyAdmins(gomock.Any(), owner.ID, gomock.Any(), "asha submitted an expense 250.00 on 2024-03-09").
			Return(nil)

		got, err := svc.Create(context.Background(), owner, expense.CreateParams{
			Date:   "2024-03-09",
			Amount: &amount,
		})
		require.NoError(t, err)
		assert.Equal(t, expenseID, got.ID)
	})

	t.Run("FailureRollsBackEverything", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
		m.tx.EXPECT().CreateExpense(gomock.Any(), gomock.Any()).Return(nil)
		m.tx.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(nil)
		m.tx.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(errors.New("insert failed"))
		m.tx.EXPECT().Rollback().Return(nil)

		_, err := svc.Create(context.Background(), owner, expense.CreateParams{
			Date:   "2024-03-09",
			Amount: &amount,
		})
		assert.ErrorIs(t, err, ledger.ErrOperationFailed)
		assert.ErrorContains(t, err, "insert failed")
	})

	t.Run("FailureRemovesStoredBill", func(t *testing.T) {
		svc, m := newService(t)

		m.bills.EXPECT().Save(gomock.Any()).Return("bills/2024/03/a.pdf", nil)
		m.repo.EXPECT().Begin(gomock.Any()).Return(nil, errors.New("pool exhausted"))
		m.bills.EXPECT().Delete("bills/2024/03/a.pdf").Return(nil)

		_, err := svc.Create(context.Background(), owner, expense.CreateParams{
			Date:   "2024-03-09",
			Amount: &amount,
			Bill:   strings.NewReader("%PDF-1.4"),
		})
		assert.ErrorIs(t, err, ledger.ErrOperationFailed)
	})

	t.Run("NotificationFailureIgnored", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
		m.tx.EXPECT().CreateExpense(gomock.Any(), gomock.Any()).Return(nil)
		m.tx.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(nil)
		m.tx.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)
		m.tx.EXPECT().CreateLink(gomock.Any(), gomock.Any()).Return(nil)
		m.tx.EXPECT().Commit().Return(nil)
		m.tx.EXPECT().Rollback().Return(nil)
		m.notifier.EXPECT().NotifyAdmins(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("down"))

		_, err := svc.Create(context.Background(), owner, expense.CreateParams{
			Date:     "2024-03-09",
			Category: "Travel",
			Amount:   &amount,
		})
		assert.NoError(t, err)
	})

	t.Run("Validation", func(t *testing.T) {
		svc, _ := newService(t)

		negative := decimal.NewFromInt(-5)

		_, err := svc.Create(context.Background(), owner, expense.CreateParams{
			Date:     "09/03/2024",
			Category: "Gadgets",
			Amount:   &negative,
		})

		var verr *ledger.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "date")
		assert.Contains(t, verr.Fields, "category")
		assert.Contains(t, verr.Fields, "amount")
	})
}

func TestService_Update(t *testing.T) {
	expenseID := uuid.New()
	orderID := uuid.New()
	txID := uuid.New()
	linkID := uuid.New()

	stored := func() *ledger.Expense {
		return &ledger.Expense{
			ID:       expenseID,
			UserID:   owner.ID,
			Date:     time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
			Category: ledger.CategoryFood,
			Amount:   decimal.NewFromInt(100),
		}
	}

	t.Run("MemberCannotSetFlags", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().GetExpense(gomock.Any(), expenseID).Return(stored(), nil)

		_, err := svc.Update(context.Background(), owner, expenseID, expense.UpdateParams{
			IsVerified: new(true),
		})
		assert.ErrorIs(t, err, ledger.ErrPermissionDenied)
	})

	t.Run("StrangerDenied", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().GetExpense(gomock.Any(), expenseID).Return(stored(), nil)

		_, err := svc.Update(context.Background(), stranger, expenseID, expense.UpdateParams{
			Description: new("mine now"),
		})
		assert.ErrorIs(t, err, ledger.ErrPermissionDenied)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().GetExpense(gomock.Any(), expenseID).Return(nil, ledger.ErrNotFound)

		_, err := svc.Update(context.Background(), admin, expenseID, expense.UpdateParams{})
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("AdminVerifiesAndRefunds", func(t *testing.T) {
		svc, m := newService(t)

		newAmount := decimal.RequireFromString("120.50")
		linked := &transaction.Transaction{ID: txID, UserID: &owner.ID, Status: transaction.StatusPending}

		m.repo.EXPECT().GetExpense(gomock.Any(), expenseID).Return(stored(), nil)
		m.repo.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
		m.tx.EXPECT().UpdateExpense(gomock.Any(), gomock.Any()).Return(nil)
		m.tx.EXPECT().
			LinkForExpense(gomock.Any(), expenseID).
			Return(&ledger.TransactionOrder{ID: linkID, TransactionID: txID, ExpenseID: &expenseID, OrderID: &orderID}, nil)
		m.tx.EXPECT().GetOrder(gomock.Any(), orderID).Return(&ledger.Order{ID: orderID, UserID: owner.ID}, nil)
		m.tx.EXPECT().SetOrderPrice(gomock.Any(), orderID, newAmount).Return(nil)
		m.tx.EXPECT().GetTransaction(gomock.Any(), txID).Return(linked, nil)
		m.tx.EXPECT().
			UpdateTransaction(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, tr *transaction.Transaction) error {
				assert.Equal(t, transaction.StatusCompleted, tr.Status)
				assert.True(t, newAmount.Equal(tr.TotalPrice))

				return nil
			})
		m.tx.EXPECT().Commit().Return(nil)
		m.tx.EXPECT().Rollback().Return(nil)
		m.notifier.EXPECT().
			NotifyUser(gomock.Any(), admin.ID, owner.ID, gomock.Any(), "Your expense of 120.50 on 2024-03-09 has been verified").
			Return(nil)

		got, err := svc.Update(context.Background(), admin, expenseID, expense.UpdateParams{
			Amount:     &newAmount,
			IsVerified: new(true),
			IsRefunded: new(true),
		})
		require.NoError(t, err)
		assert.True(t, got.IsVerified)
		assert.True(t, got.IsRefunded)
	})

	t.Run("MissingLinkCreatesTransaction", func(t *testing.T) {
		svc, m := newService(t)

		latest := &ledger.Order{ID: orderID, UserID: owner.ID, Kind: ledger.OrderKindExpense}

		m.repo.EXPECT().GetExpense(gomock.Any(), expenseID).Return(stored(), nil)
		m.repo.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
		m.tx.EXPECT().UpdateExpense(gomock.Any(), gomock.Any()).Return(nil)
		m.tx.EXPECT().LinkForExpense(gomock.Any(), expenseID).Return(nil, ledger.ErrNotFound)
		m.tx.EXPECT().LatestExpenseOrder(gomock.Any(), owner.ID).Return(latest, nil)
		m.tx.EXPECT().SetOrderPrice(gomock.Any(), orderID, gomock.Any()).Return(nil)
		m.tx.EXPECT().
			CreateTransaction(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, tr *transaction.Transaction) error {
				assert.Equal(t, transaction.StatusPending, tr.Status)
				tr.ID = txID

				return nil
			})
		m.tx.EXPECT().
			CreateLink(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, l *ledger.TransactionOrder) error {
				assert.Equal(t, txID, l.TransactionID)
				assert.Equal(t, orderID, *l.OrderID)

				return nil
			})
		m.tx.EXPECT().Commit().Return(nil)
		m.tx.EXPECT().Rollback().Return(nil)

		_, err := svc.Update(context.Background(), owner, expenseID, expense.UpdateParams{
			Description: new("team lunch"),
		})
		require.NoError(t, err)
	})

	t.Run("NoOwnerOrderCreatesOne", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().GetExpense(gomock.Any(), expenseID).Return(stored(), nil)
		m.repo.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
		m.tx.EXPECT().UpdateExpense(gomock.Any(), gomock.Any()).Return(nil)
		m.tx.EXPECT().LinkForExpense(gomock.Any(), expenseID).Return(nil, ledger.ErrNotFound)
		m.tx.EXPECT().LatestExpenseOrder(gomock.Any(), owner.ID).Return(nil, ledger.ErrNotFound)
		m.tx.EXPECT().
			CreateOrder(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, o *ledger.Order) error {
				assert.Equal(t, owner.ID, o.UserID)
				o.ID = orderID

				return nil
			})
		m.tx.EXPECT().SetOrderPrice(gomock.Any(), orderID, gomock.Any()).Return(nil)
		m.tx.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)
		m.tx.EXPECT().CreateLink(gomock.Any(), gomock.Any()).Return(nil)
		m.tx.EXPECT().Commit().Return(nil)
		m.tx.EXPECT().Rollback().Return(nil)

		_, err := svc.Update(context.Background(), owner, expenseID, expense.UpdateParams{})
		require.NoError(t, err)
	})

	t.Run("ReplacedBillRemovedAfterCommit", func(t *testing.T) {
		svc, m := newService(t)

		oldBill := &ledger.Bill{ID: uuid.New(), ExpenseID: expenseID, Path: "bills/2024/03/old.pdf"}
		e := stored()
		e.Bill = oldBill

		m.repo.EXPECT().GetExpense(gomock.Any(), expenseID).Return(e, nil)
		m.bills.EXPECT().Save(gomock.Any()).Return("bills/2024/03/new.png", nil)
		m.repo.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
		m.tx.EXPECT().UpdateExpense(gomock.Any(), gomock.Any()).Return(nil)
		m.tx.EXPECT().
			LinkForExpense(gomock.Any(), expenseID).
			Return(&ledger.TransactionOrder{ID: linkID, TransactionID: txID, OrderID: &orderID}, nil)
		m.tx.EXPECT().GetOrder(gomock.Any(), orderID).Return(&ledger.Order{ID: orderID}, nil)
		m.tx.EXPECT().SetOrderPrice(gomock.Any(), orderID, gomock.Any()).Return(nil)
		m.tx.EXPECT().GetTransaction(gomock.Any(), txID).Return(&transaction.Transaction{ID: txID}, nil)
		m.tx.EXPECT().UpdateTransaction(gomock.Any(), gomock.Any()).Return(nil)
		m.tx.EXPECT().DeleteBill(gomock.Any(), oldBill.ID).Return(nil)
		m.tx.EXPECT().AttachBill(gomock.Any(), gomock.Any()).Return(nil)
		m.bills.EXPECT().URL("bills/2024/03/new.png").Return("/media/bills/2024/03/new.png")
		m.tx.EXPECT().Commit().Return(nil)
		m.tx.EXPECT().Rollback().Return(nil)
		m.bills.EXPECT().Delete("bills/2024/03/old.pdf").Return(nil)

		got, err := svc.Update(context.Background(), owner, expenseID, expense.UpdateParams{
			Bill: strings.NewReader("\x89PNG"),
		})
		require.NoError(t, err)
		require.NotNil(t, got.Bill)
		assert.Equal(t, "/media/bills/2024/03/new.png", got.Bill.URL)
	})

	t.Run("FailedReplacementKeepsOldBill", func(t *testing.T) {
		svc, m := newService(t)

		e := stored()
		e.Bill = &ledger.Bill{ID: uuid.New(), ExpenseID: expenseID, Path: "bills/2024/03/old.pdf"}

		m.repo.EXPECT().GetExpense(gomock.Any(), expenseID).Return(e, nil)
		m.bills.EXPECT().Save(gomock.Any()).Return("bills/2024/03/new.png", nil)
		m.repo.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
		m.tx.EXPECT().UpdateExpense(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
		m.tx.EXPECT().Rollback().Return(nil)
		m.bills.EXPECT().Delete("bills/2024/03/new.png").Return(nil)

		_, err := svc.Update(context.Background(), owner, expenseID, expense.UpdateParams{
			Bill: strings.NewReader("\x89PNG"),
		})
		assert.ErrorIs(t, err, ledger.ErrOperationFailed)
	})

	t.Run("AlreadyVerifiedDoesNotNotify", func(t *testing.T) {
		svc, m := newService(t)

		e := stored()
		e.IsVerified = true

		m.repo.EXPECT().GetExpense(gomock.Any(), expenseID).Return(e, nil)
		m.repo.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
		m.tx.EXPECT().UpdateExpense(gomock.Any(), gomock.Any()).Return(nil)
		m.tx.EXPECT().
			LinkForExpense(gomock.Any(), expenseID).
			Return(&ledger.TransactionOrder{ID: linkID, TransactionID: txID, OrderID: &orderID}, nil)
		m.tx.EXPECT().GetOrder(gomock.Any(), orderID).Return(&ledger.Order{ID: orderID}, nil)
		m.tx.EXPECT().SetOrderPrice(gomock.Any(), orderID, gomock.Any()).Return(nil)
		m.tx.EXPECT().GetTransaction(gomock.Any(), txID).Return(&transaction.Transaction{ID: txID}, nil)
		m.tx.EXPECT().UpdateTransaction(gomock.Any(), gomock.Any()).Return(nil)
		m.tx.EXPECT().Commit().Return(nil)
		m.tx.EXPECT().Rollback().Return(nil)

		_, err := svc.Update(context.Background(), admin, expenseID, expense.UpdateParams{IsVerified: new(true)})
		require.NoError(t, err)
	})
}

func TestService_Delete(t *testing.T) {
	expenseID := uuid.New()

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
			svc, m := newService(t)

			m.repo.EXPECT().
				GetExpense(gomock.Any(), expenseID).
				Return(&ledger.Expense{ID: expenseID, UserID: owner.ID, Bill: &ledger.Bill{Path: "bills/x.png"}}, nil)

			if tt.wantErr == nil {
				m.repo.EXPECT().DeleteExpense(gomock.Any(), expenseID).Return(nil)
				m.bills.EXPECT().Delete("bills/x.png").Return(nil)
			}

			err := svc.Delete(context.Background(), tt.user, expenseID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestService_List_ScopesMembers(t *testing.T) {
	svc, m := newService(t)

	m.repo.EXPECT().
		ListExpenses(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f expense.ListFilter) ([]*ledger.Expense, error) {
			require.NotNil(t, f.UserID)
			assert.Equal(t, owner.ID, *f.UserID)

			return []*ledger.Expense{{ID: uuid.New(), Bill: &ledger.Bill{Path: "bills/a.pdf"}}}, nil
		})
	m.bills.EXPECT().URL("bills/a.pdf").Return("/media/bills/a.pdf")

	got, err := svc.List(context.Background(), owner, expense.ListFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "/media/bills/a.pdf", got[0].Bill.URL)
}
