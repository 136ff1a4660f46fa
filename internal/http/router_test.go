package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/expensa/internal/catalog"
	"github.com/MrJamesThe3rd/expensa/internal/expense"
	apihttp "github.com/MrJamesThe3rd/expensa/internal/http"
	catalogHandler "github.com/MrJamesThe3rd/expensa/internal/http/catalog"
	expenseHandler "github.com/MrJamesThe3rd/expensa/internal/http/expense"
	identityHandler "github.com/MrJamesThe3rd/expensa/internal/http/identity"
	notificationHandler "github.com/MrJamesThe3rd/expensa/internal/http/notification"
	orderHandler "github.com/MrJamesThe3rd/expensa/internal/http/order"
	reportHandler "github.com/MrJamesThe3rd/expensa/internal/http/report"
	txHandler "github.com/MrJamesThe3rd/expensa/internal/http/transaction"
	"github.com/MrJamesThe3rd/expensa/internal/identity"
	"github.com/MrJamesThe3rd/expensa/internal/ledger"
	"github.com/MrJamesThe3rd/expensa/internal/notification"
	"github.com/MrJamesThe3rd/expensa/internal/order"
	"github.com/MrJamesThe3rd/expensa/internal/report"
	"github.com/MrJamesThe3rd/expensa/internal/transaction"
)

type fixture struct {
	router  http.Handler
	tokens  *identity.Tokens
	users   *identity.MockRepository
	txs     *transaction.MockRepository
	orders  *order.MockRepository
	reports *report.MockRepository
	items   *catalog.MockRepository

	expenses  *expense.MockRepository
	expenseTx *expense.MockTx
	notifier  *expense.MockNotifier
	bills     *expense.MockBillStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := &fixture{
		tokens:  identity.NewTokens("test-secret", time.Hour),
		users:   identity.NewMockRepository(ctrl),
		txs:     transaction.NewMockRepository(ctrl),
		orders:  order.NewMockRepository(ctrl),
		reports: report.NewMockRepository(ctrl),
		items:   catalog.NewMockRepository(ctrl),

		expenses:  expense.NewMockRepository(ctrl),
		expenseTx: expense.NewMockTx(ctrl),
		notifier:  expense.NewMockNotifier(ctrl),
		bills:     expense.NewMockBillStore(ctrl),
	}

	idSvc := identity.NewService(f.users, f.tokens)
	notifySvc := notification.NewService(notification.NewMockRepository(ctrl), idSvc, nil)

	f.router = apihttp.New(apihttp.Options{Auth: idSvc, AllowedOrigins: []string{"http://localhost:5173"}}, apihttp.Handlers{
		Identity: identityHandler.NewHandler(idSvc),
		Catalog:  catalogHandler.NewHandler(catalog.NewService(f.items)),
		Expenses: expenseHandler.NewHandler(expense.NewService(f.expenses, f.notifier, f.bills, time.UTC)),
		Orders:        orderHandler.NewHandler(order.NewService(f.orders, time.UTC)),
		Reports:       reportHandler.NewHandler(report.NewService(f.reports, idSvc, time.UTC)),
		Transactions:  txHandler.NewHandler(transaction.NewService(f.txs)),
		Notifications: notificationHandler.NewHandler(notifySvc),
	})

	return f
}

// login registers u with the user repository and returns a bearer header value.
func (f *fixture) login(t *testing.T, u *identity.User) string {
	t.Helper()

	f.users.EXPECT().GetUser(gomock.Any(), u.ID).Return(u, nil).AnyTimes()

	token, err := f.tokens.Issue(u.ID)
	require.NoError(t, err)

	return "Bearer " + token
}

func (f *fixture) do(method, target, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	return rec
}

// doMultipart sends fields as form values plus, when bill is non-nil, a
// "bill" file part.
func (f *fixture) doMultipart(t *testing.T, method, target, auth string, fields map[string]string, bill []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	if bill != nil {
		part, err := mw.CreateFormFile("bill", "receipt.pdf")
		require.NoError(t, err)

		_, err = part.Write(bill)
		require.NoError(t, err)
	}

	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", auth)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	return rec
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()

	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	return body
}

var (
	member = &identity.User{ID: uuid.New(), Username: "asha", Email: "asha@example.com", Role: identity.RoleMember}
	other  = &identity.User{ID: uuid.New(), Username: "ravi", Email: "ravi@example.com", Role: identity.RoleMember}
	admin  = &identity.User{ID: uuid.New(), Username: "root", Email: "root@example.com", Role: identity.RoleAdmin}
)

func TestRouter_Healthz(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Authentication(t *testing.T) {
	tests := []struct {
		name string
		auth string
	}{
		{"MissingHeader", ""},
		{"WrongScheme", "Basic abc"},
		{"GarbageToken", "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			rec := f.do(http.MethodGet, "/api/v1/me", tt.auth, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.NotEmpty(t, decodeError(t, rec).Error)
		})
	}
}

func TestRouter_Me(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/me", f.login(t, member), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "asha", body.Username)
	assert.Equal(t, "member", body.Role)
}

func TestRouter_RolesRequireAdmin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/roles", f.login(t, member), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	f.users.EXPECT().ListRoles(gomock.Any()).Return([]*identity.RoleRecord{{ID: uuid.New(), Name: "admin"}}, nil)

	rec = f.do(http.MethodGet, "/api/v1/roles", f.login(t, admin), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role_name":"admin"`)
}

func TestRouter_TransactionValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/transactions", f.login(t, member), `{"total_price": "10.50"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeError(t, rec)
	assert.Equal(t, "validation failed", body.Error)
	assert.Contains(t, body.Fields, "from_date")
	assert.Contains(t, body.Fields, "to_date")
}

func TestRouter_TransactionCreate(t *testing.T) {
	f := newFixture(t)

	f.txs.EXPECT().
		CreateTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
			assert.Equal(t, member.ID, *tx.UserID)
			assert.Equal(t, transaction.StatusPending, tx.Status)
			tx.ID = uuid.New()

			return nil
		})

	rec := f.do(http.MethodPost, "/api/v1/transactions", f.login(t, member),
		`{"total_price": "10.50", "from_date": "2024-03-01T00:00:00Z", "to_date": "2024-03-01T00:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"Pending"`)
}

func TestRouter_InvalidID(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/transactions/nope", f.login(t, member), "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Fields, "id")
}

func TestRouter_ErrorKinds(t *testing.T) {
	lineID := uuid.New()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"NotFound", ledger.ErrNotFound, http.StatusNotFound},
		{"Internal", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.orders.EXPECT().GetLine(gomock.Any(), lineID).Return(nil, tt.err)

			rec := f.do(http.MethodGet, "/api/v1/order-items/"+lineID.String(), f.login(t, member), "")
			assert.Equal(t, tt.want, rec.Code)

			if tt.want == http.StatusInternalServerError {
				assert.Equal(t, "internal error", decodeError(t, rec).Error)
			}
		})
	}
}

func TestRouter_PastLineConflict(t *testing.T) {
	f := newFixture(t)
	lineID := uuid.New()

	f.orders.EXPECT().GetLine(gomock.Any(), lineID).Return(&ledger.OrderItem{
		ID:        lineID,
		OwnerID:   member.ID,
		AddedDate: time.Now().AddDate(0, 0, -3),
	}, nil)

	rec := f.do(http.MethodPut, "/api/v1/order-items/"+lineID.String(), f.login(t, member), `{"count": 2}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRouter_SubmitOrderMalformedDate(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/orders", f.login(t, member),
		`{"lines": [{"item_id": "`+uuid.NewString()+`", "count": 2, "date": "yesterday"}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Fields, "lines[0].date")
}

func TestRouter_DeleteByDateOtherUser(t *testing.T) {
	f := newFixture(t)

	f.users.EXPECT().GetUserByUsername(gomock.Any(), "ravi").Return(other, nil)

	rec := f.do(http.MethodDelete, "/api/v1/orders/delete-by-date?date=2024-03-05&username=ravi", f.login(t, member), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_DailySummary(t *testing.T) {
	f := newFixture(t)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	f.reports.EXPECT().OrderTotalsByDay(gomock.Any(), &member.ID).
		Return([]report.DayAmount{{Date: day, Amount: decimal.NewFromInt(150)}}, nil)
	f.reports.EXPECT().ExpenseTotalsByDay(gomock.Any(), &member.ID).Return(nil, nil)

	rec := f.do(http.MethodGet, "/api/v1/daily-summary", f.login(t, member), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, map[string]string{
		"date":           "2024-03-01",
		"order_total":    "150.00",
		"expense_total":  "0.00",
		"combined_total": "150.00",
	}, body[0])
}

func TestRouter_CategoryCreateRequiresAdmin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/categories", f.login(t, member), `{"category_name": "Snacks"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/categories", f.login(t, admin), `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Fields, "category_name")
}

// expectExpenseUnit records the ledger writes of a successful expense create.
func (f *fixture) expectExpenseUnit(t *testing.T, check func(e *ledger.Expense)) {
	t.Helper()

	f.expenses.EXPECT().Begin(gomock.Any()).Return(f.expenseTx, nil)
	f.expenseTx.EXPECT().
		CreateExpense(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *ledger.Expense) error {
			check(e)
			e.ID = uuid.New()

			return nil
		})
	f.expenseTx.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(nil)
	f.expenseTx.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)
	f.expenseTx.EXPECT().CreateLink(gomock.Any(), gomock.Any()).Return(nil)
	f.expenseTx.EXPECT().Commit().Return(nil)
	f.expenseTx.EXPECT().Rollback().Return(nil)
	f.notifier.EXPECT().NotifyAdmins(gomock.Any(), member.ID, gomock.Any(), gomock.Any()).Return(nil)
}

func TestRouter_ExpenseCreateJSON(t *testing.T) {
	f := newFixture(t)

	f.expectExpenseUnit(t, func(e *ledger.Expense) {
		assert.Equal(t, member.ID, e.UserID)
		assert.Equal(t, ledger.CategoryTravel, e.Category)
		assert.Equal(t, "Taxi", e.Description)
		assert.True(t, decimal.RequireFromString("250").Equal(e.Amount))
	})

	rec := f.do(http.MethodPost, "/api/v1/expenses", f.login(t, member),
		`{"date": "2024-03-09", "description": " Taxi ", "category": "Travel", "amount": "250.00"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "2024-03-09", body["date"])
	assert.Equal(t, "Travel", body["category"])
	assert.NotContains(t, body, "bill")
}

func TestRouter_ExpenseCreateMultipartWithBill(t *testing.T) {
	f := newFixture(t)

	pdf := []byte("%PDF-1.4 receipt")
	billID := uuid.New()

	f.bills.EXPECT().
		Save(gomock.Any()).
		DoAndReturn(func(r io.Reader) (string, error) {
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, pdf, got)

			return "bills/2024/03/receipt.pdf", nil
		})
	f.expectExpenseUnit(t, func(e *ledger.Expense) {
		assert.Equal(t, ledger.CategoryFood, e.Category)
		assert.True(t, decimal.RequireFromString("99.90").Equal(e.Amount))
	})
	f.expenseTx.EXPECT().
		AttachBill(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, b *ledger.Bill) error {
			assert.Equal(t, "bills/2024/03/receipt.pdf", b.Path)
			b.ID = billID

			return nil
		})
	f.bills.EXPECT().URL("bills/2024/03/receipt.pdf").Return("/media/bills/2024/03/receipt.pdf")

	rec := f.doMultipart(t, http.MethodPost, "/api/v1/expenses", f.login(t, member), map[string]string{
		"date":     "2024-03-09",
		"category": "Food",
		"amount":   " 99.90 ",
	}, pdf)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Amount string `json:"amount"`
		Bill   struct {
			ID  uuid.UUID `json:"id"`
			URL string    `json:"url"`
		} `json:"bill"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "99.9", body.Amount)
	assert.Equal(t, billID, body.Bill.ID)
	assert.Equal(t, "/media/bills/2024/03/receipt.pdf", body.Bill.URL)
}

func TestRouter_ExpenseMultipartValidation(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   []string
	}{
		{
			name:   "BadFlag",
			fields: map[string]string{"date": "2024-03-09", "amount": "10", "is_verified": "maybe"},
			want:   []string{"is_verified"},
		},
		{
			name:   "BadAmount",
			fields: map[string]string{"date": "2024-03-09", "amount": "ten"},
			want:   []string{"amount"},
		},
		{
			name:   "TaggedFields",
			fields: map[string]string{"date": "09/03/2024", "amount": "10", "category": "Snacks"},
			want:   []string{"date", "category"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			rec := f.doMultipart(t, http.MethodPost, "/api/v1/expenses", f.login(t, member), tt.fields, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			body := decodeError(t, rec)
			for _, field := range tt.want {
				assert.Contains(t, body.Fields, field)
			}
		})
	}
}

func TestRouter_ExpensePatchFlagsRequireAdmin(t *testing.T) {
	f := newFixture(t)

	id := uuid.New()
	f.expenses.EXPECT().GetExpense(gomock.Any(), id).
		Return(&ledger.Expense{ID: id, UserID: member.ID, Amount: decimal.NewFromInt(40)}, nil)

	rec := f.do(http.MethodPatch, "/api/v1/expenses/"+id.String(), f.login(t, member), `{"is_verified": true}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_OrderReplaceExpenseOrderConflict(t *testing.T) {
	f := newFixture(t)

	id := uuid.New()
	f.orders.EXPECT().GetOrder(gomock.Any(), id).
		Return(&ledger.Order{ID: id, UserID: member.ID, Kind: ledger.OrderKindExpense, CreatedAt: time.Now()}, nil)

	rec := f.do(http.MethodPut, "/api/v1/orders/"+id.String(), f.login(t, member), `{"lines": []}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "managed by their expense")
}

func TestRouter_AddOrderLineRequiresOrder(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/order-items", f.login(t, member), `{"item_id": "`+uuid.NewString()+`"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Fields, "order_id")
}
