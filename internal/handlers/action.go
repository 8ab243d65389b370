package handlers

import (
	"net/http"

	"github.com/diewo77/go-collect/gate"
	"github.com/diewo77/go-collect/internal/policy"
	"github.com/diewo77/go-collect/internal/services"
	"github.com/google/uuid"
)

type ActionHandler struct {
	svc     *services.ActionService
	debtors *services.DebtorService
	ag      Authorizer
}

func NewActionHandler(svc *services.ActionService, debtors *services.DebtorService, ag Authorizer) *ActionHandler {
	return &ActionHandler{svc: svc, debtors: debtors, ag: ag}
}

// Create records an action by the caller on a debtor the caller can see.
func (h *ActionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.ActionInput
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
		if err := h.ag.Authorize(r.Context(), gate.ActionView, policy.ResourceDebtor, debtor); err != nil {
			writeError(w, r, err)
			return
		}
	}
	action, err := h.svc.Create(r.Context(), userID, in)
	respond(w, r, http.StatusCreated, action, err)
}

func (h *ActionHandler) List(w http.ResponseWriter, r *http.Request) {
	actions, err := h.svc.FindMany(r.Context(), scopeOf(r.Context(), h.ag))
	respond(w, r, http.StatusOK, actions, err)
}

func (h *ActionHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, action, err := load(r, h.ag, gate.ActionView, policy.ResourceAction, h.svc.FindOne)
	respond(w, r, http.StatusOK, action, err)
}

func (h *ActionHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, _, err := load(r, h.ag, gate.ActionView, policy.ResourceAction, h.svc.Get)
	if err != nil {
		writeError(w, r, err)
		return
	}
	action, err := h.svc.FindOneDetail(r.Context(), id)
	respond(w, r, http.StatusOK, action, err)
}

func (h *ActionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, _, err := load(r, h.ag, gate.ActionUpdate, policy.ResourceAction, h.svc.Get)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var p services.ActionPatch
	if err := decode(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	ack, err := h.svc.Update(r.Context(), id, p)
	respond(w, r, http.StatusOK, ack, err)
}

func (h *ActionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _, err := load(r, h.ag, gate.ActionDelete, policy.ResourceAction, h.svc.Get)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ack, err := h.svc.Delete(r.Context(), id)
	respond(w, r, http.StatusOK, ack, err)
}
