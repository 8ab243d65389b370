package handlers

import (
	"context"
	"net/http"

	"github.com/diewo77/go-collect/gate"
	"github.com/diewo77/go-collect/internal/policy"
	"github.com/diewo77/go-collect/internal/services"
	"github.com/google/uuid"
)

// UserHandler serves /users. invalidate drops cached roles after a user
// changes or disappears.
type UserHandler struct {
	svc        *services.UserService
	ag         Authorizer
	invalidate func(ctx context.Context, userID uuid.UUID)
}

func NewUserHandler(svc *services.UserService, ag Authorizer, invalidate func(context.Context, uuid.UUID)) *UserHandler {
	if invalidate == nil {
		invalidate = func(context.Context, uuid.UUID) {}
	}
	return &UserHandler{svc: svc, ag: ag, invalidate: invalidate}
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.CreateUserInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.svc.Create(r.Context(), in)
	respond(w, r, http.StatusCreated, user, err)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.FindMany(r.Context())
	respond(w, r, http.StatusOK, users, err)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _, err := load(r, h.ag, gate.ActionView, policy.ResourceUser, h.svc.Get)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.svc.FindOne(r.Context(), id)
	respond(w, r, http.StatusOK, user, err)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, _, err := load(r, h.ag, gate.ActionUpdate, policy.ResourceUser, h.svc.Get)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.UpdateUserInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	ack, err := h.svc.Update(r.Context(), id, in)
	if err == nil {
		h.invalidate(r.Context(), id)
	}
	respond(w, r, http.StatusOK, ack, err)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _, err := load(r, h.ag, gate.ActionDelete, policy.ResourceUser, h.svc.Get)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ack, err := h.svc.Delete(r.Context(), id)
	if err == nil {
		h.invalidate(r.Context(), id)
	}
	respond(w, r, http.StatusOK, ack, err)
}

// Actions lists the actions a user authored.
func (h *UserHandler) Actions(w http.ResponseWriter, r *http.Request) {
	id, _, err := load(r, h.ag, gate.ActionView, policy.ResourceUser, h.svc.Get)
	if err != nil {
		writeError(w, r, err)
		return
	}
	actions, err := h.svc.Actions(r.Context(), id)
	respond(w, r, http.StatusOK, actions, err)
}
