package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"tracker/src/schemas"
	"tracker/src/utils"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetTickers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	tickers, err := h.Controller.GetTickers(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	h.respond(w, r, tickers, http.StatusOK)
}

func (h *Handler) RegisterTickers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req schemas.RegisterTickersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleErrors(w, r, utils.BadRequest("invalid request body: "+err.Error()))
		return
	}
	if len(req.Tickers) == 0 {
		h.HandleErrors(w, r, utils.BadRequest("tickers is required"))
		return
	}

	result, err := h.Controller.RegisterTickers(ctx, req.Tickers)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	h.respond(w, r, result, http.StatusOK)
}

func (h *Handler) GetTicker(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	info, err := h.Controller.GetTicker(ctx, chi.URLParam(r, "ticker"))
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	h.respond(w, r, info, http.StatusOK)
}

func (h *Handler) DeleteTicker(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.Controller.DeleteTicker(ctx, chi.URLParam(r, "ticker")); err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
