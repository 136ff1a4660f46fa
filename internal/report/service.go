package report

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensa/internal/identity"
	"github.com/MrJamesThe3rd/expensa/internal/ledger"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=report
type Repository interface {
	OrderTotalsByDay(ctx context.Context, userID *uuid.UUID) ([]DayAmount, error)
	ExpenseTotalsByDay(ctx context.Context, userID *uuid.UUID) ([]DayAmount, error)
	OrderItemSummary(ctx context.Context, userID *uuid.UUID) ([]*OrderItemSummary, error)
	LinesOn(ctx context.Context, day time.Time, userID uuid.UUID) ([]*DatedLine, error)
	GroupedDates(ctx context.Context, filter GroupedFilter) ([]time.Time, error)
	GroupedRows(ctx context.Context, filter GroupedFilter, dates []time.Time) ([]*GroupedRow, error)
	GroupedTotal(ctx context.Context, filter GroupedFilter) (decimal.Decimal, error)
	AvailableDates(ctx context.Context, userID *uuid.UUID) ([]time.Time, error)
	DeleteOrdersOn(ctx context.Context, day time.Time, userID uuid.UUID) (int, error)
}

type UserLookup interface {
	GetUserByUsername(ctx context.Context, username string) (*identity.User, error)
}

type Service struct {
	repo  Repository
	users UserLookup
	loc   *time.Location
}

func NewService(repo Repository, users UserLookup, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}

	return &Service{repo: repo, users: users, loc: loc}
}

func scope(user *identity.User) *uuid.UUID {
	if identity.IsAdmin(user) {
		return nil
	}

	return &user.ID
}

// DailyCombinedTotals merges per-day order spend with per-day expense spend.
func (s *Service) DailyCombinedTotals(ctx context.Context, user *identity.User) ([]*DailyTotal, error) {
	orders, err := s.repo.OrderTotalsByDay(ctx, scope(user))
	if err != nil {
		return nil, err
	}

	expenses, err := s.repo.ExpenseTotalsByDay(ctx, scope(user))
	if err != nil {
		return nil, err
	}

	return MergeDailyTotals(orders, expenses), nil
}

// MergeDailyTotals joins both series on date, treating a missing side as
// zero, and returns rows ascending by date with amounts rounded to cents.
func MergeDailyTotals(orders, expenses []DayAmount) []*DailyTotal {
	byDay := make(map[string]*DailyTotal)

	get := func(d time.Time) *DailyTotal {
		key := d.Format(time.DateOnly)

		t, ok := byDay[key]
		if !ok {
			t = &DailyTotal{Date: ledger.Day(d), OrderTotal: decimal.Zero, ExpenseTotal: decimal.Zero}
			byDay[key] = t
		}

		return t
	}

	for _, o := range orders {
		t := get(o.Date)
		t.OrderTotal = t.OrderTotal.Add(o.Amount)
	}

	for _, e := range expenses {
		t := get(e.Date)
		t.ExpenseTotal = t.ExpenseTotal.Add(e.Amount)
	}

	out := make([]*DailyTotal, 0, len(byDay))
	for _, t := range byDay {
		t.OrderTotal = t.OrderTotal.Round(2)
		t.ExpenseTotal = t.ExpenseTotal.Round(2)
		t.CombinedTotal = t.OrderTotal.Add(t.ExpenseTotal)
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	return out
}

func (s *Service) DailyOrderItemSummary(ctx context.Context, user *identity.User) ([]*OrderItemSummary, error) {
	rows, err := s.repo.OrderItemSummary(ctx, scope(user))
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		r.TotalAmount = r.TotalAmount.Round(2)
	}

	return rows, nil
}

// target validates a (date, username) pair and resolves the user it names.
// Members may only target themselves.
func (s *Service) target(ctx context.Context, user *identity.User, date, username string) (time.Time, *identity.User, error) {
	var v ledger.ValidationError

	date = strings.TrimSpace(date)
	username = strings.TrimSpace(username)

	if date == "" {
		v.Add("date", "required")
	}

	if username == "" {
		v.Add("username", "required")
	}

	var day time.Time

	if date != "" {
		d, err := time.ParseInLocation(time.DateOnly, date, s.loc)
		if err != nil {
			v.Add("date", "invalid date format, use YYYY-MM-DD")
		}

		day = d
	}

	if err := v.OrNil(); err != nil {
		return time.Time{}, nil, err
	}

	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return time.Time{}, nil, err
	}

	if !identity.IsOwnerOrAdmin(user, u.ID) {
		return time.Time{}, nil, ledger.Denied("you can only access your own orders")
	}

	return day, u, nil
}

func (s *Service) OrdersByDate(ctx context.Context, user *identity.User, date, username string) ([]*DatedLine, error) {
	day, u, err := s.target(ctx, user, date, username)
	if err != nil {
		return nil, err
	}

	return s.repo.LinesOn(ctx, day, u.ID)
}

// DeleteOrdersByDateAndUser removes every order of the named user that has a
// line on the given day and returns how many were removed.
func (s *Service) DeleteOrdersByDateAndUser(ctx context.Context, user *identity.User, date, username string) (int, error) {
	day, u, err := s.target(ctx, user, date, username)
	if err != nil {
		return 0, err
	}

	return s.repo.DeleteOrdersOn(ctx, day, u.ID)
}

func (s *Service) AvailableDates(ctx context.Context, user *identity.User) ([]time.Time, error) {
	return s.repo.AvailableDates(ctx, scope(user))
}

// GroupedQuery carries the raw filter values of a grouped report request.
type GroupedQuery struct {
	StartDate string
	EndDate   string
	Month     string
	Date      string
	Username  string
	ItemName  string
	Page      int
	PageSize  int
}

func (s *Service) parseGrouped(q GroupedQuery) (GroupedFilter, error) {
	var (
		f GroupedFilter
		v ledger.ValidationError
	)

	parse := func(field, raw, layout, hint string) *time.Time {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}

		t, err := time.ParseInLocation(layout, raw, s.loc)
		if err != nil {
			v.Add(field, "invalid format, use "+hint)
			return nil
		}

		return &t
	}

	f.StartDate = parse("start_date", q.StartDate, time.DateOnly, "YYYY-MM-DD")
	f.EndDate = parse("end_date", q.EndDate, time.DateOnly, "YYYY-MM-DD")
	f.Month = parse("month", q.Month, "2006-01", "YYYY-MM")
	f.Date = parse("date", q.Date, time.DateOnly, "YYYY-MM-DD")
	f.Username = strings.TrimSpace(q.Username)
	f.ItemName = strings.TrimSpace(q.ItemName)

	return f, v.OrNil()
}

// Paginate normalises page and size: non-positive values fall back to the
// defaults and size is capped.
func Paginate(page, size int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}

	if size < 1 {
		size = DefaultPageSize
	}

	if size > MaxPageSize {
		size = MaxPageSize
	}

	return page, size
}

// GroupedByDate pages through distinct line dates, newest first, and rolls
// up each page's lines per item and user. The grand total covers every
// matching line, not only the current page.
func (s *Service) GroupedByDate(ctx context.Context, user *identity.User, q GroupedQuery) (*GroupedReport, error) {
	filter, err := s.parseGrouped(q)
	if err != nil {
		return nil, err
	}

	filter.UserID = scope(user)

	page, size := Paginate(q.Page, q.PageSize)

	dates, err := s.repo.GroupedDates(ctx, filter)
	if err != nil {
		return nil, err
	}

	grand, err := s.repo.GroupedTotal(ctx, filter)
	if err != nil {
		return nil, err
	}

	rep := &GroupedReport{
		GrandTotal:  grand.Round(2),
		TotalPages:  (len(dates) + size - 1) / size,
		CurrentPage: page,
		PageSize:    size,
	}

	start := (page - 1) * size
	if start >= len(dates) {
		return rep, nil
	}

	pageDates := dates[start:min(start+size, len(dates))]

	rows, err := s.repo.GroupedRows(ctx, filter, pageDates)
	if err != nil {
		return nil, err
	}

	rep.Days = groupByDay(pageDates, rows)

	return rep, nil
}

func groupByDay(dates []time.Time, rows []*GroupedRow) []*GroupedDay {
	days := make([]*GroupedDay, 0, len(dates))
	index := make(map[string]*GroupedDay, len(dates))

	for _, d := range dates {
		gd := &GroupedDay{Date: d, Total: decimal.Zero}
		days = append(days, gd)
		index[d.Format(time.DateOnly)] = gd
	}

	for _, r := range rows {
		gd, ok := index[r.Date.Format(time.DateOnly)]
		if !ok {
			continue
		}

		gd.Rows = append(gd.Rows, r)
		gd.Total = gd.Total.Add(r.Total)
	}

	return days
}
