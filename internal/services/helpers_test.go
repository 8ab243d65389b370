package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/go-collect/internal/apperr"
	"github.com/diewo77/go-collect/internal/models"
	"github.com/diewo77/go-collect/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperr.KindOf(err), "error: %v", err)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func ptr[T any](v T) *T { return &v }

type fixture struct {
	db     *gorm.DB
	user   *models.User
	client *models.Client
	debtor *models.Debtor
}

// seed creates one user owning one client with one debtor.
func seed(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	ctx := context.Background()
	users := NewUserService(db)
	u, err := users.Create(ctx, CreateUserInput{Email: uuid.NewString()[:8] + "@agency.test", Password: "password123", Name: "Agent"})
	require.NoError(t, err)
	user, err := users.Get(ctx, u.ID)
	require.NoError(t, err)

	client, err := NewClientService(db).Create(ctx, user.ID, ClientInput{
		Name:   "Client " + uuid.NewString()[:8],
		Emails: []string{"billing@client.test"},
	})
	require.NoError(t, err)

	debtor, err := NewDebtorService(db).Create(ctx, DebtorInput{
		Reference: "DEB-" + uuid.NewString()[:8],
		Name:      "Debtor",
		Emails:    []string{"debtor@example.test"},
		ClientID:  client.ID,
	})
	require.NoError(t, err)
	return fixture{db: db, user: user, client: client, debtor: debtor}
}

func (f fixture) debt(t *testing.T, ttc string) *models.Debt {
	t.Helper()
	d, err := NewDebtService(f.db, nil).Create(context.Background(), DebtInput{
		InvoiceNumber: "INV-" + uuid.NewString()[:8],
		AmountHT:      dec(ttc).Div(dec("1.2")).Round(2),
		AmountTTC:     dec(ttc),
		DueDate:       &Date{Time: time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)},
		DebtorID:      f.debtor.ID,
	})
	require.NoError(t, err)
	return d
}

func requireViolation(t *testing.T, err error, field, reason string) {
	t.Helper()
	requireKind(t, err, apperr.KindBadRequest)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	v, ok := ae.Details.(validation.Violations)
	require.True(t, ok, "details: %#v", ae.Details)
	require.Equal(t, reason, v[field], "violations: %v", v)
}
