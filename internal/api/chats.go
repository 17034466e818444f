package api

import (
	"errors"
	"net/http"

	"github.com/muhammadolammi/careerpath/internal/conversation"
	"github.com/muhammadolammi/careerpath/internal/generation"
)

type sendMessageRequest struct {
	Text string `json:"text" validate:"required,max=8000"`
	Mode string `json:"mode" validate:"omitempty,oneof=chat roadmap resume"`
}

type setViewRequest struct {
	View string `json:"view" validate:"required,oneof=chat roadmap resume"`
}

func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.svc.ListChats(r.Context(), principal(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, chats)
}

func (h *Handler) CreateChat(w http.ResponseWriter, r *http.Request) {
	chat, err := h.svc.CreateChat(r.Context(), principal(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, chat)
}

func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	chatID, err := pathUUID(r, "chatID")
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := h.svc.Snapshot(r.Context(), principal(r).UserID, chatID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, snap)
}

func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID, err := pathUUID(r, "chatID")
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.DeleteChat(r.Context(), principal(r).UserID, chatID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetView(w http.ResponseWriter, r *http.Request) {
	chatID, err := pathUUID(r, "chatID")
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	var req setViewRequest
	if err := h.decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := h.svc.SetView(r.Context(), principal(r).UserID, chatID, conversation.View(req.View))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, snap)
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	chatID, err := pathUUID(r, "chatID")
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	msgs, err := h.svc.Messages(r.Context(), principal(r).UserID, chatID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, msgs)
}

// SendMessage runs one conversation turn. A failed model call is reported in
// the snapshot (state errored) with a 200, since the user can simply retry.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	chatID, err := pathUUID(r, "chatID")
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	var req sendMessageRequest
	if err := h.decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := h.svc.SendMessage(r.Context(), principal(r).UserID, chatID, req.Text, generation.ParseMode(req.Mode))
	if err != nil && !errors.Is(err, generation.ErrTransport) {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, snap)
}
