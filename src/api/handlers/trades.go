package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"tracker/src/schemas"
	"tracker/src/utils"
)

func decodeTradeRequest(r *http.Request) (*schemas.TradeRequest, error) {
	var req schemas.TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, utils.BadRequest("invalid request body: " + err.Error())
	}
	if req.Ticker == "" {
		return nil, utils.BadRequest("ticker is required")
	}
	return &req, nil
}

func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	req, err := decodeTradeRequest(r)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	at, err := parseOptionalTimestamp(req.Timestamp)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	confirmation, err := h.Controller.Buy(ctx, req.Ticker, req.Quantity, at)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	h.respond(w, r, confirmation, http.StatusOK)
}

func (h *Handler) Sell(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	req, err := decodeTradeRequest(r)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	at, err := parseOptionalTimestamp(req.Timestamp)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	confirmation, err := h.Controller.Sell(ctx, req.Ticker, req.Quantity, at)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	h.respond(w, r, confirmation, http.StatusOK)
}
