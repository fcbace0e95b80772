package handlers

import (
	"net/http"
)

type HealthResponse struct {
	Status string `json:"status"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.HealthRepo.Ping(r.Context()); err != nil {
		h.fail(w, err)
		return
	}

	WriteSuccess(w, "", HealthResponse{Status: "ok"}, http.StatusOK)
}
