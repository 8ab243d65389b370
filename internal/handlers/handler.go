// Package handlers binds the services to HTTP. Handlers decode the
// request, authorize against the loaded entity, call one service method
// and write its result as JSON.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/diewo77/go-collect/auth"
	"github.com/diewo77/go-collect/gate"
	"github.com/diewo77/go-collect/httpx"
	"github.com/diewo77/go-collect/internal/apperr"
	"github.com/diewo77/go-collect/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Authorizer is the slice of policy.AuthGate the handlers use.
type Authorizer interface {
	Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error
	Scope(ctx context.Context) (uuid.UUID, bool)
}

// writeError maps a service error to its status code. Internal causes are
// logged and never sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.From(err, "")
	if e.Kind == apperr.KindInternal {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "err", err)
	}
	httpx.JSONError(w, e.Kind.Status(), e.Message, e.Details)
}

func decode(r *http.Request, out any) error {
	if err := httpx.Decode(r, out); err != nil {
		return apperr.BadRequest("Invalid request body", err.Error())
	}
	return nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return services.ParseID(chi.URLParam(r, "id"))
}

func currentUser(r *http.Request) (uuid.UUID, error) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, apperr.Unauthorized("Unauthorized")
	}
	return id, nil
}

func scopeOf(ctx context.Context, ag Authorizer) services.Scope {
	userID, admin := ag.Scope(ctx)
	if admin {
		return services.Everyone()
	}
	return services.Tenant(userID)
}

// load fetches the entity at {id} and checks the caller may act on it.
func load[T any](r *http.Request, ag Authorizer, action gate.Action, resourceType string,
	get func(context.Context, uuid.UUID) (T, error)) (uuid.UUID, T, error) {
	var zero T
	id, err := pathID(r)
	if err != nil {
		return uuid.Nil, zero, err
	}
	entity, err := get(r.Context(), id)
	if err != nil {
		return uuid.Nil, zero, err
	}
	if err := ag.Authorize(r.Context(), action, resourceType, entity); err != nil {
		return uuid.Nil, zero, err
	}
	return id, entity, nil
}

func respond(w http.ResponseWriter, r *http.Request, status int, payload any, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, status, payload)
}
