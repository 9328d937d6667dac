package handlers

import (
	"encoding/json"
	"net/http"

	"tracker/src/services"
	"tracker/src/worker/controllers"
)

type Handler struct {
	Controller controllers.IController
}

func NewHandler(controller controllers.IController) *Handler {
	return &Handler{Controller: controller}
}

func (h *Handler) respond(w http.ResponseWriter, _ *http.Request, data interface{}, status int) {
	res, err := json.Marshal(data)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(res)
}

func (h *Handler) HandleErrors(w http.ResponseWriter, err error) {
	if err == nil {
		h.respond(w, nil, map[string]string{"error": "Unhandled error"}, http.StatusInternalServerError)
		return
	}

	status := services.StatusCode(err)
	message := err.Error()
	if status == http.StatusGatewayTimeout {
		message = "Request timed out"
	}
	h.respond(w, nil, map[string]string{"error": message}, status)
}
