package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type setRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, users)
}

func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	var req setRoleRequest
	if err := h.decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.svc.SetRole(r.Context(), chi.URLParam(r, "userID"), req.Role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, user)
}
