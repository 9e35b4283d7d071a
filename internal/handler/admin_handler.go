package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-travel-auth/internal/model"
	"go-travel-auth/internal/service"
	"go-travel-auth/pkg/apierror"
)

// AdminHandler exposes account lock administration. Routes mounting it
// must require the admin role.
type AdminHandler struct {
	auth    *service.AuthService
	lockout *service.LockoutPolicy
}

func NewAdminHandler(auth *service.AuthService, lockout *service.LockoutPolicy) *AdminHandler {
	return &AdminHandler{auth: auth, lockout: lockout}
}

func (h *AdminHandler) LockUser(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		writeError(w, apierror.New("BAD_REQUEST", "user id is required", "user_id", http.StatusBadRequest))
		return
	}

	var payload model.LockUserRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	reason := payload.Reason
	if reason == "" {
		reason = "locked by administrator"
	}

	if err := h.lockout.Lock(r.Context(), userID, reason); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user)
}

func (h *AdminHandler) UnlockUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		writeError(w, apierror.New("BAD_REQUEST", "user id is required", "user_id", http.StatusBadRequest))
		return
	}

	if err := h.lockout.Unlock(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user)
}
