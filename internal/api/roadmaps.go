package api

import (
	"net/http"
)

type createRoadmapRequest struct {
	Goal string `json:"goal" validate:"required,max=200"`
}

func (h *Handler) ListRoadmaps(w http.ResponseWriter, r *http.Request) {
	roadmaps, err := h.svc.ListRoadmaps(r.Context(), principal(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, roadmaps)
}

func (h *Handler) CreateRoadmap(w http.ResponseWriter, r *http.Request) {
	var req createRoadmapRequest
	if err := h.decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := h.svc.GenerateRoadmap(r.Context(), principal(r).UserID, req.Goal)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, saved)
}

func (h *Handler) DeleteRoadmap(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "roadmapID")
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.DeleteRoadmap(r.Context(), principal(r).UserID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
