package handlers

import (
	"net/http"

	"github.com/diewo77/go-collect/internal/services"
)

type AuthHandler struct {
	svc *services.AuthService
}

func NewAuthHandler(svc *services.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type registerResponse struct {
	Message string                `json:"message"`
	User    *services.UserSummary `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	pair, err := h.svc.Login(r.Context(), in)
	respond(w, r, http.StatusOK, pair, err)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.svc.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, registerResponse{Message: "User registered successfully", User: user}, nil)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	pair, err := h.svc.Refresh(r.Context(), in.RefreshToken)
	respond(w, r, http.StatusOK, pair, err)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	me, err := h.svc.Me(r.Context(), userID)
	respond(w, r, http.StatusOK, me, err)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Logout(r.Context(), userID); err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, services.Ack{Message: "Logged out successfully", Success: true}, nil)
}
