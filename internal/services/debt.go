package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/go-collect/internal/apperr"
	"github.com/diewo77/go-collect/internal/metrics"
	"github.com/diewo77/go-collect/internal/models"
	"github.com/diewo77/go-collect/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DebtInput struct {
	InvoiceNumber string           `json:"invoiceNumber"`
	AmountHT      decimal.Decimal  `json:"amountHT"`
	AmountTTC     decimal.Decimal  `json:"amountTTC"`
	AmountPaid    *decimal.Decimal `json:"amountPaid"`
	AmountOverdue *decimal.Decimal `json:"amountOverdue"`
	DueDate       *Date            `json:"dueDate"`
	Notes         []string         `json:"notes"`
	DebtorID      uuid.UUID        `json:"debtorId"`
}

func (in *DebtInput) validate() error {
	switch {
	case strings.TrimSpace(in.InvoiceNumber) == "":
		return apperr.BadRequest("Invoice number is required", validation.Violations{"invoiceNumber": "required"})
	case !in.AmountHT.IsPositive():
		return apperr.BadRequest("AmountHT must be a number greater than 0", validation.Violations{"amountHT": "must_be_positive"})
	case !in.AmountTTC.IsPositive():
		return apperr.BadRequest("AmountTTC must be a number greater than 0", validation.Violations{"amountTTC": "must_be_positive"})
	case in.DueDate == nil || in.DueDate.IsZero():
		return apperr.BadRequest("dueDate is required", validation.Violations{"dueDate": "required"})
	}
	v := make(validation.Violations)
	if in.DebtorID == uuid.Nil {
		v["debtorId"] = "required"
	}
	validation.Cents("amountHT", in.AmountHT, v)
	validation.Cents("amountTTC", in.AmountTTC, v)
	if in.AmountPaid != nil {
		validation.NonNegativeDecimal("amountPaid", *in.AmountPaid, v)
		validation.Cents("amountPaid", *in.AmountPaid, v)
	}
	if in.AmountOverdue != nil {
		validation.NonNegativeDecimal("amountOverdue", *in.AmountOverdue, v)
		validation.Cents("amountOverdue", *in.AmountOverdue, v)
	}
	return invalid(v)
}

// DebtPatch is a partial debt update. AmountPaid is a payment delta added
// to the amount already paid. AmountRemaining is accepted but ignored:
// it is always recomputed.
type DebtPatch struct {
	InvoiceNumber      *string           `json:"invoiceNumber"`
	AmountHT           *decimal.Decimal  `json:"amountHT"`
	AmountTTC          *decimal.Decimal  `json:"amountTTC"`
	AmountPaid         *decimal.Decimal  `json:"amountPaid"`
	AmountRemaining    *decimal.Decimal  `json:"amountRemaining"`
	AmountOverdue      *decimal.Decimal  `json:"amountOverdue"`
	DueDate            *Date             `json:"dueDate"`
	State              *models.DebtState `json:"state"`
	Notes              *[]string         `json:"notes"`
	LastReminderSentAt *Date             `json:"lastReminderSentAt"`
}

func (p *DebtPatch) validate() error {
	v := make(validation.Violations)
	if p.InvoiceNumber != nil {
		validation.Required("invoiceNumber", *p.InvoiceNumber, v)
	}
	if p.AmountHT != nil {
		validation.PositiveDecimal("amountHT", *p.AmountHT, v)
		validation.Cents("amountHT", *p.AmountHT, v)
	}
	if p.AmountTTC != nil {
		validation.PositiveDecimal("amountTTC", *p.AmountTTC, v)
		validation.Cents("amountTTC", *p.AmountTTC, v)
	}
	if p.AmountPaid != nil {
		validation.Cents("amountPaid", *p.AmountPaid, v)
	}
	if p.AmountOverdue != nil {
		validation.NonNegativeDecimal("amountOverdue", *p.AmountOverdue, v)
		validation.Cents("amountOverdue", *p.AmountOverdue, v)
	}
	if p.State != nil {
		validation.Enum("state", *p.State, models.DebtStates, v)
	}
	return invalid(v)
}

// DebtFilter narrows GET /debts.
type DebtFilter struct {
	State    *models.DebtState
	DebtorID *uuid.UUID
}

// DebtService manages debts and their payment ledger.
type DebtService struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

// NewDebtService wires the service. m may be nil.
func NewDebtService(db *gorm.DB, m *metrics.Metrics) *DebtService {
	return &DebtService{db: db, metrics: m}
}

func (s *DebtService) scoped(tx *gorm.DB, scope Scope) *gorm.DB {
	if scope.All {
		return tx
	}
	owned := s.db.Model(&models.Debtor{}).
		Select("debtors.id").
		Joins("JOIN clients ON clients.id = debtors.client_id").
		Where("clients.user_id = ?", scope.UserID)
	return tx.Where("debts.debtor_id IN (?)", owned)
}

// Create stores a debt for an existing debtor. The remaining amount and
// state are derived from the initial payment.
func (s *DebtService) Create(ctx context.Context, in DebtInput) (*models.Debt, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	invoice := strings.TrimSpace(in.InvoiceNumber)

	ok, err := exists(db, &models.Debtor{}, "id = ?", in.DebtorID)
	if err != nil {
		return nil, apperr.From(err, "An unknow error occurred while creating the debt")
	}
	if !ok {
		return nil, apperr.NotFound("Debtor not found")
	}
	taken, err := exists(db, &models.Debt{}, "invoice_number = ?", invoice)
	if err != nil {
		return nil, apperr.From(err, "An unknow error occurred while creating the debt")
	}
	if taken {
		return nil, apperr.Conflict("A debt with this invoice number already exists")
	}

	debt := &models.Debt{
		InvoiceNumber: invoice,
		AmountHT:      in.AmountHT,
		AmountTTC:     in.AmountTTC,
		DueDate:       in.DueDate.Time,
		Notes:         in.Notes,
		DebtorID:      in.DebtorID,
	}
	if in.AmountOverdue != nil {
		debt.AmountOverdue = decimal.NewNullDecimal(*in.AmountOverdue)
	}
	paid := decimal.Zero
	if in.AmountPaid != nil {
		paid = *in.AmountPaid
	}
	ApplyPayment(debt, paid, nil, nil)

	if err := db.Create(debt).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("A debt with this invoice number already exists")
		}
		return nil, apperr.From(err, "An unknow error occurred while creating the debt")
	}
	return debt, nil
}

// Get loads a debt with its debtor and client, for authorization checks.
func (s *DebtService) Get(ctx context.Context, id uuid.UUID) (*models.Debt, error) {
	var debt models.Debt
	err := s.db.WithContext(ctx).Preload("Debtor.Client").First(&debt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(fmt.Sprintf("Debt with id '%s' not found", id))
	}
	if err != nil {
		return nil, apperr.From(err, "An unexpected error occurred while retrieving the debt")
	}
	return &debt, nil
}

func (s *DebtService) FindMany(ctx context.Context, scope Scope, f DebtFilter) ([]models.Debt, error) {
	q := s.scoped(s.db.WithContext(ctx), scope)
	if f.State != nil {
		q = q.Where("debts.state = ?", *f.State)
	}
	if f.DebtorID != nil {
		q = q.Where("debts.debtor_id = ?", *f.DebtorID)
	}
	var debts []models.Debt
	if err := q.Order("due_date").Find(&debts).Error; err != nil {
		return nil, apperr.From(err, "Error finding many debts")
	}
	if len(debts) == 0 {
		return nil, apperr.NotFound("No debts found")
	}
	return debts, nil
}

func (s *DebtService) FindOne(ctx context.Context, id uuid.UUID) (*DebtView, error) {
	debt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v := &DebtView{Debt: *debt}
	if debt.Debtor != nil {
		v.DebtorRef = &DebtorRef{ID: debt.Debtor.ID, Reference: debt.Debtor.Reference, Name: debt.Debtor.Name}
	}
	return v, nil
}

// FindOneDetail includes the public fields of the debtor.
func (s *DebtService) FindOneDetail(ctx context.Context, id uuid.UUID) (*DebtDetail, error) {
	debt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DebtDetail{Debt: *debt, DebtorInfo: debtorPublic(debt.Debtor)}, nil
}

// Update applies a patch and a payment delta in one transaction. The row
// is locked so concurrent payments on the same debt serialise.
func (s *DebtService) Update(ctx context.Context, id uuid.UUID, p DebtPatch) (*Ack, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	var debt models.Debt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&debt, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Debt not found")
		}
		if err != nil {
			return err
		}

		if p.InvoiceNumber != nil {
			invoice := strings.TrimSpace(*p.InvoiceNumber)
			if invoice != debt.InvoiceNumber {
				taken, err := exists(tx, &models.Debt{}, "invoice_number = ? AND id <> ?", invoice, id)
				if err != nil {
					return err
				}
				if taken {
					return apperr.Conflict("A debt with this invoice number already exists")
				}
				debt.InvoiceNumber = invoice
			}
		}
		set(&debt.AmountHT, p.AmountHT)
		if p.AmountOverdue != nil {
			debt.AmountOverdue = decimal.NewNullDecimal(*p.AmountOverdue)
		}
		if p.DueDate != nil {
			debt.DueDate = p.DueDate.Time
		}
		if p.Notes != nil {
			debt.Notes = *p.Notes
		}
		if p.LastReminderSentAt != nil {
			debt.LastReminderSentAt = timePtr(p.LastReminderSentAt)
		}

		delta := decimal.Zero
		if p.AmountPaid != nil {
			delta = *p.AmountPaid
		}
		ApplyPayment(&debt, delta, p.AmountTTC, p.State)

		return tx.Omit(clause.Associations).Save(&debt).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("A debt with this invoice number already exists")
		}
		return nil, apperr.From(err, "Error on update debt")
	}
	s.metrics.DebtUpdated(string(debt.State))
	return &Ack{Message: "Debt updated successfully", Data: debt}, nil
}

func (s *DebtService) Delete(ctx context.Context, id uuid.UUID) (*Ack, error) {
	res := s.db.WithContext(ctx).Delete(&models.Debt{}, "id = ?", id)
	if res.Error != nil {
		return nil, apperr.From(res.Error, "Error deleting debt")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound(fmt.Sprintf("Debt with id '%s' not found", id))
	}
	return &Ack{Message: fmt.Sprintf("Debt with id '%s' deleted successfully", id), Success: true}, nil
}
