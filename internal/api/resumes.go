package api

import (
	"errors"
	"io"
	"net/http"
)

func (h *Handler) UploadResume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<10)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		Error(w, http.StatusBadRequest, "expected a multipart form with a file field")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		Error(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		Error(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if len(data) == 0 {
		Error(w, http.StatusBadRequest, "input must not be empty")
		return
	}

	resume, err := h.svc.UploadResume(r.Context(), principal(r).UserID, header.Filename, data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusAccepted, resume)
}

func (h *Handler) GetResume(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "resumeID")
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := h.svc.Resume(r.Context(), principal(r).UserID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, view)
}
