package handlers

import (
	"net/http"

	"github.com/diewo77/go-collect/gate"
	"github.com/diewo77/go-collect/internal/models"
	"github.com/diewo77/go-collect/internal/policy"
	"github.com/diewo77/go-collect/internal/services"
	"github.com/google/uuid"
)

type DebtorHandler struct {
	svc     *services.DebtorService
	clients *services.ClientService
	ag      Authorizer
}

func NewDebtorHandler(svc *services.DebtorService, clients *services.ClientService, ag Authorizer) *DebtorHandler {
	return &DebtorHandler{svc: svc, clients: clients, ag: ag}
}

// Create adds a debtor to a client the caller owns.
func (h *DebtorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.DebtorInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if in.ClientID != uuid.Nil {
		client, err := h.clients.Get(r.Context(), in.ClientID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := h.ag.Authorize(r.Context(), gate.ActionCreate, policy.ResourceDebtor, &models.Debtor{Client: client}); err != nil {
			writeError(w, r, err)
			return
		}
	}
	debtor, err := h.svc.Create(r.Context(), in)
	respond(w, r, http.StatusCreated, debtor, err)
}

func (h *DebtorHandler) List(w http.ResponseWriter, r *http.Request) {
	debtors, err := h.svc.FindMany(r.Context(), scopeOf(r.Context(), h.ag))
	respond(w, r, http.StatusOK, debtors, err)
}

func (h *DebtorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _, err := load(r, h.ag, gate.ActionView, policy.ResourceDebtor, h.svc.Get)
	if err != nil {
		writeError(w, r, err)
		return
	}
	debtor, err := h.svc.FindOne(r.Context(), id)
	respond(w, r, http.StatusOK, debtor, err)
}

// Detail adds the debtor's actions.
func (h *DebtorHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, _, err := load(r, h.ag, gate.ActionView, policy.ResourceDebtor, h.svc.Get)
	if err != nil {
		writeError(w, r, err)
		return
	}
	debtor, err := h.svc.FindOneDetail(r.Context(), id)
	respond(w, r, http.StatusOK, debtor, err)
}

func (h *DebtorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, _, err := load(r, h.ag, gate.ActionUpdate, policy.ResourceDebtor, h.svc.Get)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var p services.DebtorPatch
	if err := decode(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	ack, err := h.svc.Update(r.Context(), id, p)
	respond(w, r, http.StatusOK, ack, err)
}

func (h *DebtorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _, err := load(r, h.ag, gate.ActionDelete, policy.ResourceDebtor, h.svc.Get)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ack, err := h.svc.Delete(r.Context(), id)
	respond(w, r, http.StatusOK, ack, err)
}
