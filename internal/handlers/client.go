package handlers

import (
	"net/http"

	"github.com/diewo77/go-collect/gate"
	"github.com/diewo77/go-collect/internal/models"
	"github.com/diewo77/go-collect/internal/policy"
	"github.com/diewo77/go-collect/internal/services"
)

type ClientHandler struct {
	svc *services.ClientService
	ag  Authorizer
}

func NewClientHandler(svc *services.ClientService, ag Authorizer) *ClientHandler {
	return &ClientHandler{svc: svc, ag: ag}
}

// Create stores a client owned by the caller.
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.ClientInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.ag.Authorize(r.Context(), gate.ActionCreate, policy.ResourceClient, &models.Client{UserID: userID}); err != nil {
		writeError(w, r, err)
		return
	}
	client, err := h.svc.Create(r.Context(), userID, in)
	respond(w, r, http.StatusCreated, client, err)
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.svc.FindMany(r.Context(), scopeOf(r.Context(), h.ag))
	respond(w, r, http.StatusOK, clients, err)
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _, err := load(r, h.ag, gate.ActionView, policy.ResourceClient, h.svc.Get)
	if err != nil {
		writeError(w, r, err)
		return
	}
	client, err := h.svc.FindOne(r.Context(), id)
	respond(w, r, http.StatusOK, client, err)
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, _, err := load(r, h.ag, gate.ActionUpdate, policy.ResourceClient, h.svc.Get)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var p services.ClientPatch
	if err := decode(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	ack, err := h.svc.Update(r.Context(), id, p)
	respond(w, r, http.StatusOK, ack, err)
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _, err := load(r, h.ag, gate.ActionDelete, policy.ResourceClient, h.svc.Get)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ack, err := h.svc.Delete(r.Context(), id)
	respond(w, r, http.StatusOK, ack, err)
}
