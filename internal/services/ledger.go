package services

import (
	"github.com/diewo77/go-collect/internal/models"
	"github.com/shopspring/decimal"
)

// ApplyPayment adds delta to the amount already paid and recomputes the
// derived fields. ttc, when non-nil, replaces the debt's TTC amount first.
// The remaining amount is not clamped: an overpayment leaves it negative.
// The state follows the payment unless override is set.
func ApplyPayment(debt *models.Debt, delta decimal.Decimal, ttc *decimal.Decimal, override *models.DebtState) {
	if ttc != nil {
		debt.AmountTTC = *ttc
	}
	debt.AmountPaid = debt.AmountPaid.Add(delta)
	debt.AmountRemaining = debt.AmountTTC.Sub(debt.AmountPaid)
	switch {
	case override != nil:
		debt.State = *override
	default:
		debt.State = StateFor(debt.AmountPaid, debt.AmountTTC)
	}
}

// StateFor is PAID once paid reaches ttc.
func StateFor(paid, ttc decimal.Decimal) models.DebtState {
	if paid.GreaterThanOrEqual(ttc) {
		return models.DebtPaid
	}
	return models.DebtPending
}
