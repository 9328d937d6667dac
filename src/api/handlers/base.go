package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tracker/src/api/controllers"
	"tracker/src/services"
	"tracker/src/utils"
)

const requestTimeout = 10 * time.Second

type Handler struct {
	Controller controllers.IController
}

func NewHandler(controller controllers.IController) *Handler {
	return &Handler{Controller: controller}
}

func Healthcheck(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" {
		fmt.Fprintf(w, "Im alive!")
	} else {
		fmt.Fprintf(w, "Method not available: %s", r.Method)
	}
}

func (h *Handler) respond(w http.ResponseWriter, _ *http.Request, data interface{}, status int) {
	res, err := json.Marshal(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(res)
}

func (h *Handler) HandleErrors(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		h.respond(w, r, map[string]string{"error": "Unhandled error"}, http.StatusInternalServerError)
		return
	}

	status := services.StatusCode(err)
	message := err.Error()
	if status == http.StatusGatewayTimeout {
		message = "Request timed out"
	}

	logger := utils.LoggerFromContext(r.Context()).WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed")
	} else {
		logger.Warn("request rejected")
	}

	h.respond(w, r, map[string]string{"error": message}, status)
}

// parseOptionalTimestamp returns nil for an empty value.
func parseOptionalTimestamp(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := utils.ParseTimestamp(value)
	if err != nil {
		return nil, utils.BadRequest(err.Error())
	}
	return &t, nil
}
