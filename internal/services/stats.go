package services

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/diewo77/go-collect/internal/apperr"
	"github.com/diewo77/go-collect/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StateTotals aggregates the debts in one state.
type StateTotals struct {
	State           models.DebtState `db:"state" json:"state"`
	Count           int64            `db:"count" json:"count"`
	AmountTTC       decimal.Decimal  `db:"amount_ttc" json:"amountTTC"`
	AmountPaid      decimal.Decimal  `db:"amount_paid" json:"amountPaid"`
	AmountRemaining decimal.Decimal  `db:"amount_remaining" json:"amountRemaining"`
}

// OverdueTotals covers unpaid debts past their due date.
type OverdueTotals struct {
	Count           int64           `json:"count"`
	AmountRemaining decimal.Decimal `json:"amountRemaining"`
}

// Stats is the dashboard summary for one tenant, or for everyone.
type Stats struct {
	Clients int64         `json:"clients"`
	Debtors int64         `json:"debtors"`
	Debts   int64         `json:"debts"`
	ByState []StateTotals `json:"byState"`
	Overdue OverdueTotals `json:"overdue"`
}

// StatsService runs the dashboard aggregates as plain SQL on the GORM pool.
type StatsService struct {
	db  *sqlx.DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

// NewStatsService picks the bind style from the GORM dialect.
func NewStatsService(db *gorm.DB) (*StatsService, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("stats: underlying pool: %w", err)
	}
	driver, ph := "postgres", sq.PlaceholderFormat(sq.Dollar)
	if db.Dialector.Name() == "sqlite" {
		driver, ph = "sqlite3", sq.Question
	}
	return &StatsService{
		db:  sqlx.NewDb(sqlDB, driver),
		sb:  sq.StatementBuilder.PlaceholderFormat(ph),
		now: time.Now,
	}, nil
}

func ownedBy(b sq.SelectBuilder, scope Scope) sq.SelectBuilder {
	if scope.All {
		return b
	}
	return b.Where(sq.Eq{"clients.user_id": scope.UserID})
}

func (s *StatsService) count(ctx context.Context, b sq.SelectBuilder) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, err
	}
	return n, nil
}

// Summary counts clients, debtors and debts in scope and sums the debt
// amounts per state.
func (s *StatsService) Summary(ctx context.Context, scope Scope) (*Stats, error) {
	var out Stats
	var err error

	out.Clients, err = s.count(ctx, ownedBy(s.sb.Select("COUNT(*)").From("clients"), scope))
	if err != nil {
		return nil, apperr.From(err, "Failed to compute statistics")
	}
	out.Debtors, err = s.count(ctx, ownedBy(
		s.sb.Select("COUNT(*)").From("debtors").
			Join("clients ON clients.id = debtors.client_id"), scope))
	if err != nil {
		return nil, apperr.From(err, "Failed to compute statistics")
	}

	query, args, err := ownedBy(
		s.sb.Select(
			"debts.state AS state",
			"COUNT(*) AS count",
			"COALESCE(SUM(debts.amount_ttc), 0) AS amount_ttc",
			"COALESCE(SUM(debts.amount_paid), 0) AS amount_paid",
			"COALESCE(SUM(debts.amount_remaining), 0) AS amount_remaining",
		).
			From("debts").
			Join("debtors ON debtors.id = debts.debtor_id").
			Join("clients ON clients.id = debtors.client_id"),
		scope).
		GroupBy("debts.state").
		OrderBy("debts.state").
		ToSql()
	if err != nil {
		return nil, apperr.Internal("Failed to compute statistics", err)
	}
	if err := s.db.SelectContext(ctx, &out.ByState, query, args...); err != nil {
		return nil, apperr.From(err, "Failed to compute statistics")
	}
	for _, st := range out.ByState {
		out.Debts += st.Count
	}
	if out.ByState == nil {
		out.ByState = []StateTotals{}
	}
	if out.Overdue, err = s.overdue(ctx, scope); err != nil {
		return nil, apperr.From(err, "Failed to compute statistics")
	}
	return &out, nil
}

// overdue compares due dates in Go: sqlite keeps them as text, so a SQL
// comparison against now would not be portable.
func (s *StatsService) overdue(ctx context.Context, scope Scope) (OverdueTotals, error) {
	query, args, err := ownedBy(
		s.sb.Select("debts.state", "debts.due_date", "debts.amount_remaining").
			From("debts").
			Join("debtors ON debtors.id = debts.debtor_id").
			Join("clients ON clients.id = debtors.client_id").
			Where(sq.NotEq{"debts.state": string(models.DebtPaid)}),
		scope).
		ToSql()
	if err != nil {
		return OverdueTotals{}, err
	}
	var rows []struct {
		State           models.DebtState `db:"state"`
		DueDate         time.Time        `db:"due_date"`
		AmountRemaining decimal.Decimal  `db:"amount_remaining"`
	}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return OverdueTotals{}, err
	}
	now := s.now()
	out := OverdueTotals{AmountRemaining: decimal.Zero}
	for _, r := range rows {
		d := models.Debt{State: r.State, DueDate: r.DueDate}
		if d.IsOverdue(now) {
			out.Count++
			out.AmountRemaining = out.AmountRemaining.Add(r.AmountRemaining)
		}
	}
	return out, nil
}
