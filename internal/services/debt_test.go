package services

import (
	"context"
	"testing"
	"time"

	"github.com/diewo77/go-collect/internal/apperr"
	"github.com/diewo77/go-collect/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reloadDebt(t *testing.T, svc *DebtService, id uuid.UUID) *models.Debt {
	t.Helper()
	d, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	return d
}

func TestDebtService_PaymentScenario(t *testing.T) {
	f := seed(t, setupTestDB(t))
	svc := NewDebtService(f.db, nil)
	ctx := context.Background()

	created := f.debt(t, "1000")
	assert.True(t, created.AmountPaid.IsZero())
	assert.True(t, created.AmountRemaining.Equal(dec("1000")))
	assert.Equal(t, models.DebtPending, created.State)

	ack, err := svc.Update(ctx, created.ID, DebtPatch{AmountPaid: decPtr("400")})
	require.NoError(t, err)
	assert.Equal(t, "Debt updated successfully", ack.Message)
	d := reloadDebt(t, svc, created.ID)
	assert.True(t, d.AmountPaid.Equal(dec("400")), "paid = %s", d.AmountPaid)
	assert.True(t, d.AmountRemaining.Equal(dec("600")), "remaining = %s", d.AmountRemaining)
	assert.Equal(t, models.DebtPending, d.State)

	_, err = svc.Update(ctx, created.ID, DebtPatch{AmountPaid: decPtr("600")})
	require.NoError(t, err)
	d = reloadDebt(t, svc, created.ID)
	assert.True(t, d.AmountPaid.Equal(dec("1000")))
	assert.True(t, d.AmountRemaining.IsZero())
	assert.Equal(t, models.DebtPaid, d.State)
}

func TestDebtService_RemainingTracksPaymentsAcrossUpdates(t *testing.T) {
	f := seed(t, setupTestDB(t))
	svc := NewDebtService(f.db, nil)
	ctx := context.Background()
	debt := f.debt(t, "750.50")

	for _, delta := range []string{"100", "0.50", "250", "0", "399.99", "0.01", "25"} {
		_, err := svc.Update(ctx, debt.ID, DebtPatch{AmountPaid: decPtr(delta)})
		require.NoError(t, err)
		d := reloadDebt(t, svc, debt.ID)
		require.True(t, d.AmountRemaining.Equal(d.AmountTTC.Sub(d.AmountPaid)),
			"remaining %s != %s - %s", d.AmountRemaining, d.AmountTTC, d.AmountPaid)
		require.Equal(t, d.AmountPaid.GreaterThanOrEqual(d.AmountTTC), d.State == models.DebtPaid)
	}
	d := reloadDebt(t, svc, debt.ID)
	assert.True(t, d.AmountRemaining.Equal(dec("-25")), "overpayment leaves a negative balance")
}

func TestDebtService_UpdateIgnoresRemainingAndHonoursOverrides(t *testing.T) {
	f := seed(t, setupTestDB(t))
	svc := NewDebtService(f.db, nil)
	ctx := context.Background()
	debt := f.debt(t, "500")

	_, err := svc.Update(ctx, debt.ID, DebtPatch{AmountRemaining: decPtr("1"), AmountPaid: decPtr("100")})
	require.NoError(t, err)
	d := reloadDebt(t, svc, debt.ID)
	assert.True(t, d.AmountRemaining.Equal(dec("400")))

	_, err = svc.Update(ctx, debt.ID, DebtPatch{State: ptr(models.DebtPaid)})
	require.NoError(t, err)
	d = reloadDebt(t, svc, debt.ID)
	assert.Equal(t, models.DebtPaid, d.State)
	assert.True(t, d.AmountPaid.Equal(dec("100")))

	reminder := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	_, err = svc.Update(ctx, debt.ID, DebtPatch{
		AmountTTC:          decPtr("100"),
		Notes:              &[]string{"called twice"},
		LastReminderSentAt: &Date{Time: reminder},
	})
	require.NoError(t, err)
	d = reloadDebt(t, svc, debt.ID)
	assert.True(t, d.AmountRemaining.IsZero())
	assert.Equal(t, models.DebtPaid, d.State)
	assert.Equal(t, []string{"called twice"}, []string(d.Notes))
	require.NotNil(t, d.LastReminderSentAt)
	assert.True(t, d.LastReminderSentAt.Equal(reminder))
}

func TestDebtService_CreateValidation(t *testing.T) {
	f := seed(t, setupTestDB(t))
	svc := NewDebtService(f.db, nil)
	due := &Date{Time: time.Now()}

	_, err := svc.Create(context.Background(), DebtInput{AmountHT: dec("1"), AmountTTC: dec("1"), DueDate: due, DebtorID: f.debtor.ID})
	requireKind(t, err, apperr.KindBadRequest)

	_, err = svc.Create(context.Background(), DebtInput{InvoiceNumber: "X", AmountHT: dec("0"), AmountTTC: dec("1"), DueDate: due, DebtorID: f.debtor.ID})
	requireKind(t, err, apperr.KindBadRequest)

	_, err = svc.Create(context.Background(), DebtInput{InvoiceNumber: "X", AmountHT: dec("1"), AmountTTC: dec("1"), DebtorID: f.debtor.ID})
	requireKind(t, err, apperr.KindBadRequest)

	_, err = svc.Create(context.Background(), DebtInput{InvoiceNumber: "X", AmountHT: dec("1"), AmountTTC: dec("1"), DueDate: due, DebtorID: uuid.New()})
	requireKind(t, err, apperr.KindNotFound)
}

func TestDebtService_InitialPaymentDerivesState(t *testing.T) {
	f := seed(t, setupTestDB(t))
	d, err := NewDebtService(f.db, nil).Create(context.Background(), DebtInput{
		InvoiceNumber: "INV-PAID",
		AmountHT:      dec("100"),
		AmountTTC:     dec("120"),
		AmountPaid:    decPtr("120"),
		DueDate:       &Date{Time: time.Now()},
		DebtorID:      f.debtor.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.DebtPaid, d.State)
	assert.True(t, d.AmountRemaining.IsZero())
}

func TestDebtService_DuplicateInvoiceNumber(t *testing.T) {
	f := seed(t, setupTestDB(t))
	svc := NewDebtService(f.db, nil)
	ctx := context.Background()
	first := f.debt(t, "100")
	second := f.debt(t, "200")

	var before int64
	f.db.Model(&models.Debt{}).Count(&before)
	_, err := svc.Create(ctx, DebtInput{
		InvoiceNumber: first.InvoiceNumber, AmountHT: dec("1"), AmountTTC: dec("1"),
		DueDate: &Date{Time: time.Now()}, DebtorID: f.debtor.ID,
	})
	requireKind(t, err, apperr.KindConflict)
	var after int64
	f.db.Model(&models.Debt{}).Count(&after)
	assert.Equal(t, before, after)

	_, err = svc.Update(ctx, second.ID, DebtPatch{InvoiceNumber: &first.InvoiceNumber})
	requireKind(t, err, apperr.KindConflict)
	// Same number on the same debt is not a conflict.
	_, err = svc.Update(ctx, first.ID, DebtPatch{InvoiceNumber: &first.InvoiceNumber})
	assert.NoError(t, err)
}

func TestDebtService_FindManyFiltersAndScope(t *testing.T) {
	db := setupTestDB(t)
	alice := seed(t, db)
	bob := seed(t, db)
	svc := NewDebtService(db, nil)
	ctx := context.Background()

	_, err := svc.FindMany(ctx, Everyone(), DebtFilter{})
	requireKind(t, err, apperr.KindNotFound)

	a1 := alice.debt(t, "100")
	alice.debt(t, "200")
	bob.debt(t, "300")
	_, err = svc.Update(ctx, a1.ID, DebtPatch{AmountPaid: decPtr("100")})
	require.NoError(t, err)

	all, err := svc.FindMany(ctx, Everyone(), DebtFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := svc.FindMany(ctx, Tenant(alice.user.ID), DebtFilter{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	paid, err := svc.FindMany(ctx, Tenant(alice.user.ID), DebtFilter{State: ptr(models.DebtPaid)})
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, a1.ID, paid[0].ID)

	_, err = svc.FindMany(ctx, Tenant(bob.user.ID), DebtFilter{DebtorID: &alice.debtor.ID})
	requireKind(t, err, apperr.KindNotFound)
}

func TestDebtService_DetailAndDelete(t *testing.T) {
	f := seed(t, setupTestDB(t))
	svc := NewDebtService(f.db, nil)
	ctx := context.Background()
	debt := f.debt(t, "100")

	detail, err := svc.FindOneDetail(ctx, debt.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.DebtorInfo)
	assert.Equal(t, f.debtor.Reference, detail.DebtorInfo.Reference)

	one, err := svc.FindOne(ctx, debt.ID)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, one.GetUserID())

	ack, err := svc.Delete(ctx, debt.ID)
	require.NoError(t, err)
	assert.True(t, ack.Success)
	assert.Contains(t, ack.Message, debt.ID.String())

	_, err = svc.Delete(ctx, debt.ID)
	requireKind(t, err, apperr.KindNotFound)
	_, err = svc.Update(ctx, debt.ID, DebtPatch{AmountPaid: decPtr("1")})
	requireKind(t, err, apperr.KindNotFound)
}

func TestDebtService_UpdateRejectsEmptyState(t *testing.T) {
	f := seed(t, setupTestDB(t))
	svc := NewDebtService(f.db, nil)
	debt := f.debt(t, "1000")

	_, err := svc.Update(context.Background(), debt.ID, DebtPatch{AmountPaid: decPtr("1000"), State: ptr(models.DebtState(""))})
	requireViolation(t, err, "state", "required")

	d := reloadDebt(t, svc, debt.ID)
	assert.Equal(t, models.DebtPending, d.State)
	assert.True(t, d.AmountPaid.IsZero(), "rejected patch must not apply the payment")
}

func TestDebtService_AmountsAreWholeCents(t *testing.T) {
	f := seed(t, setupTestDB(t))
	svc := NewDebtService(f.db, nil)
	ctx := context.Background()
	debt := f.debt(t, "1000")

	_, err := svc.Update(ctx, debt.ID, DebtPatch{AmountPaid: decPtr("100.005")})
	requireViolation(t, err, "amountPaid", "too_many_decimals")
	_, err = svc.Update(ctx, debt.ID, DebtPatch{AmountTTC: decPtr("999.999")})
	requireViolation(t, err, "amountTTC", "too_many_decimals")

	_, err = svc.Create(ctx, DebtInput{
		InvoiceNumber: "INV-CENTS",
		AmountHT:      dec("10.001"),
		AmountTTC:     dec("12"),
		DueDate:       &Date{Time: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)},
		DebtorID:      f.debtor.ID,
	})
	requireViolation(t, err, "amountHT", "too_many_decimals")

	// Trailing zeros are still whole cents.
	_, err = svc.Update(ctx, debt.ID, DebtPatch{AmountPaid: decPtr("100.010")})
	require.NoError(t, err)
	d := reloadDebt(t, svc, debt.ID)
	assert.True(t, d.AmountRemaining.Equal(dec("899.99")), "remaining = %s", d.AmountRemaining)
}
