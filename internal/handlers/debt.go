package handlers

import (
	"net/http"

	"github.com/diewo77/go-collect/gate"
	"github.com/diewo77/go-collect/internal/apperr"
	"github.com/diewo77/go-collect/internal/models"
	"github.com/diewo77/go-collect/internal/policy"
	"github.com/diewo77/go-collect/internal/services"
	"github.com/diewo77/go-collect/validation"
	"github.com/google/uuid"
)

type DebtHandler struct {
	svc     *services.DebtService
	debtors *services.DebtorService
	ag      Authorizer
}

func NewDebtHandler(svc *services.DebtService, debtors *services.DebtorService, ag Authorizer) *DebtHandler {
	return &DebtHandler{svc: svc, debtors: debtors, ag: ag}
}

func (h *DebtHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.DebtInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if in.DebtorID != uuid.Nil {
		debtor, err := h.debtors.Get(r.Context(), in.DebtorID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := h.ag.Authorize(r.Context(), gate.ActionCreate, policy.ResourceDebt, &models.Debt{Debtor: debtor}); err != nil {
			writeError(w, r, err)
			return
		}
	}
	debt, err := h.svc.Create(r.Context(), in)
	respond(w, r, http.StatusCreated, debt, err)
}

// List accepts optional ?state= and ?debtorId= filters.
func (h *DebtHandler) List(w http.ResponseWriter, r *http.Request) {
	var f services.DebtFilter
	q := r.URL.Query()
	if s := q.Get("state"); s != "" {
		state := models.DebtState(s)
		v := make(validation.Violations)
		validation.OneOf("state", state, models.DebtStates, v)
		if !v.Empty() {
			writeError(w, r, apperr.BadRequest("Invalid state filter", v))
			return
		}
		f.State = &state
	}
	if s := q.Get("debtorId"); s != "" {
		id, err := services.ParseID(s)
		if err != nil {
			writeError(w, r, err)
			return
		}
		f.DebtorID = &id
	}
	debts, err := h.svc.FindMany(r.Context(), scopeOf(r.Context(), h.ag), f)
	respond(w, r, http.StatusOK, debts, err)
}

func (h *DebtHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _, err := load(r, h.ag, gate.ActionView, policy.ResourceDebt, h.svc.Get)
	if err != nil {
		writeError(w, r, err)
		return
	}
	debt, err := h.svc.FindOne(r.Context(), id)
	respond(w, r, http.StatusOK, debt, err)
}

func (h *DebtHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, _, err := load(r, h.ag, gate.ActionView, policy.ResourceDebt, h.svc.Get)
	if err != nil {
		writeError(w, r, err)
		return
	}
	debt, err := h.svc.FindOneDetail(r.Context(), id)
	respond(w, r, http.StatusOK, debt, err)
}

// Update applies a payment delta and any field patch.
func (h *DebtHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, _, err := load(r, h.ag, gate.ActionUpdate, policy.ResourceDebt, h.svc.Get)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var p services.DebtPatch
	if err := decode(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	ack, err := h.svc.Update(r.Context(), id, p)
	respond(w, r, http.StatusOK, ack, err)
}

func (h *DebtHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _, err := load(r, h.ag, gate.ActionDelete, policy.ResourceDebt, h.svc.Get)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ack, err := h.svc.Delete(r.Context(), id)
	respond(w, r, http.StatusOK, ack, err)
}
