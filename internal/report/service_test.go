package report_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/expensa/internal/identity"
	"github.com/MrJamesThe3rd/expensa/internal/ledger"
	"github.com/MrJamesThe3rd/expensa/internal/report"
)

var (
	member = &identity.User{ID: uuid.New(), Username: "asha", Role: identity.RoleMember}
	other  = &identity.User{ID: uuid.New(), Username: "ravi", Role: identity.RoleMember}
	admin  = &identity.User{ID: uuid.New(), Username: "root", Role: identity.RoleAdmin}
)

func date(s string) time.Time {
	d, _ := time.Parse(time.DateOnly, s)
	return d
}

func TestMergeDailyTotals(t *testing.T) {
	orders := []report.DayAmount{
		{Date: date("2024-03-01"), Amount: decimal.RequireFromString("150")},
		{Date: date("2024-03-03"), Amount: decimal.RequireFromString("20.005")},
	}
	expenses := []report.DayAmount{
		{Date: date("2024-03-02"), Amount: decimal.RequireFromString("99.90")},
		{Date: date("2024-03-03"), Amount: decimal.RequireFromString("10")},
	}

	got := report.MergeDailyTotals(orders, expenses)
	require.Len(t, got, 3)

	type row struct{ date, order, expense, combined string }

	want := []row{
		{"2024-03-01", "150.00", "0.00", "150.00"},
		{"2024-03-02", "0.00", "99.90", "99.90"},
		{"2024-03-03", "20.01", "10.00", "30.01"},
	}

	for i, w := range want {
		assert.Equal(t, w.date, got[i].Date.Format(time.DateOnly))
		assert.Equal(t, w.order, got[i].OrderTotal.StringFixed(2))
		assert.Equal(t, w.expense, got[i].ExpenseTotal.StringFixed(2))
		assert.Equal(t, w.combined, got[i].CombinedTotal.StringFixed(2))
	}
}

func TestMergeDailyTotals_Empty(t *testing.T) {
	assert.Empty(t, report.MergeDailyTotals(nil, nil))
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name               string
		page, size         int
		wantPage, wantSize int
	}{
		{"Defaults", 0, 0, 1, 10},
		{"Negative", -3, -1, 1, 10},
		{"Given", 3, 25, 3, 25},
		{"Capped", 1, 1000, 1, report.MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, size := report.Paginate(tt.page, tt.size)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantSize, size)
		})
	}
}

func TestService_GroupedByDate(t *testing.T) {
	dates := []time.Time{date("2024-03-05"), date("2024-03-04"), date("2024-03-03")}
	itemID := uuid.New()

	t.Run("SecondPage", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := report.NewMockRepository(ctrl)
		repo.EXPECT().
			GroupedDates(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, f report.GroupedFilter) ([]time.Time, error) {
				require.NotNil(t, f.UserID)
				assert.Equal(t, member.ID, *f.UserID)
				assert.Equal(t, "tea", f.ItemName)

				return dates, nil
			})
		repo.EXPECT().GroupedTotal(gomock.Any(), gomock.Any()).Return(decimal.RequireFromString("300"), nil)
		repo.EXPECT().
			GroupedRows(gomock.Any(), gomock.Any(), dates[2:]).
			Return([]*report.GroupedRow{
				{Date: dates[2], ItemID: itemID, ItemName: "Tea", Price: decimal.NewFromInt(15), Count: 2, Total: decimal.NewFromInt(30), Username: "asha"},
				{Date: dates[2], ItemID: itemID, ItemName: "Tea", Price: decimal.NewFromInt(15), Count: 1, Total: decimal.NewFromInt(15), Username: "ravi"},
			}, nil)

		svc := report.NewService(repo, nil, time.UTC)
		got, err := svc.GroupedByDate(context.Background(), member, report.GroupedQuery{ItemName: " tea ", Page: 2, PageSize: 2})
		require.NoError(t, err)

		assert.Equal(t, 2, got.TotalPages)
		assert.Equal(t, 2, got.CurrentPage)
		assert.Equal(t, "300.00", got.GrandTotal.StringFixed(2))
		require.Len(t, got.Days, 1)
		assert.Len(t, got.Days[0].Rows, 2)
		assert.Equal(t, "45", got.Days[0].Total.String())

		var buf bytes.Buffer
		require.NoError(t, report.WriteGroupedPDF(&buf, got, time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	})

	t.Run("PageBeyondEnd", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := report.NewMockRepository(ctrl)
		repo.EXPECT().GroupedDates(gomock.Any(), gomock.Any()).Return(dates, nil)
		repo.EXPECT().GroupedTotal(gomock.Any(), gomock.Any()).Return(decimal.NewFromInt(10), nil)

		got, err := report.NewService(repo, nil, time.UTC).
			GroupedByDate(context.Background(), admin, report.GroupedQuery{Page: 9})
		require.NoError(t, err)
		assert.Empty(t, got.Days)
		assert.Equal(t, 1, got.TotalPages)
	})

	t.Run("BadMonth", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		_, err := report.NewService(report.NewMockRepository(ctrl), nil, time.UTC).
			GroupedByDate(context.Background(), admin, report.GroupedQuery{Month: "March"})

		var verr *ledger.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "month")
	})
}

func TestService_OrdersByDate(t *testing.T) {
	type testCase struct {
		name     string
		user     *identity.User
		date     string
		username string
		setup    func(repo *report.MockRepository, users *report.MockUserLookup)
		check    func(t *testing.T, err error)
	}

	tests := []testCase{
		{
			name:     "MissingParams",
			user:     admin,
			check: func(t *testing.T, err error) {
				var verr *ledger.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Fields, "date")
				assert.Contains(t, verr.Fields, "username")
			},
		},
		{
			name:     "UnknownUser",
			user:     admin,
			date:     "2024-03-05",
			username: "ghost",
			setup: func(_ *report.MockRepository, users *report.MockUserLookup) {
				users.EXPECT().GetUserByUsername(gomock.Any(), "ghost").Return(nil, ledger.ErrNotFound)
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ledger.ErrNotFound)
			},
		},
		{
			name:     "MemberForOtherUser",
			user:     member,
			date:     "2024-03-05",
			username: "ravi",
			setup: func(_ *report.MockRepository, users *report.MockUserLookup) {
				users.EXPECT().GetUserByUsername(gomock.Any(), "ravi").Return(other, nil)
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ledger.ErrPermissionDenied)
			},
		},
		{
			name:     "AdminForUser",
			user:     admin,
			date:     "2024-03-05",
			username: "ravi",
			setup: func(repo *report.MockRepository, users *report.MockUserLookup) {
				users.EXPECT().GetUserByUsername(gomock.Any(), "ravi").Return(other, nil)
				repo.EXPECT().LinesOn(gomock.Any(), date("2024-03-05"), other.ID).Return([]*report.DatedLine{{}}, nil)
			},
			check: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := report.NewMockRepository(ctrl)
			users := report.NewMockUserLookup(ctrl)

			if tt.setup != nil {
				tt.setup(repo, users)
			}

			_, err := report.NewService(repo, users, time.UTC).OrdersByDate(context.Background(), tt.user, tt.date, tt.username)
			tt.check(t, err)
		})
	}
}

func TestService_DeleteOrdersByDateAndUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := report.NewMockRepository(ctrl)
	users := report.NewMockUserLookup(ctrl)

	users.EXPECT().GetUserByUsername(gomock.Any(), "asha").Return(member, nil)
	repo.EXPECT().DeleteOrdersOn(gomock.Any(), date("2024-03-05"), member.ID).Return(2, nil)

	n, err := report.NewService(repo, users, time.UTC).
		DeleteOrdersByDateAndUser(context.Background(), member, "2024-03-05", "asha")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestService_DailyCombinedTotals_Scope(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := report.NewMockRepository(ctrl)
	repo.EXPECT().OrderTotalsByDay(gomock.Any(), &member.ID).
		Return([]report.DayAmount{{Date: date("2024-03-01"), Amount: decimal.NewFromInt(150)}}, nil)
	repo.EXPECT().ExpenseTotalsByDay(gomock.Any(), &member.ID).Return(nil, nil)

	got, err := report.NewService(repo, nil, time.UTC).DailyCombinedTotals(context.Background(), member)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "150.00", got[0].CombinedTotal.StringFixed(2))
}
