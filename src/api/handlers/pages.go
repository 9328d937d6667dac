package handlers

import (
	"bytes"
	"context"
	"net/http"

	"tracker/src/utils"
)

func writeHTML(ctx context.Context, w http.ResponseWriter, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		utils.LoggerFromContext(ctx).WithError(err).Error("writing page failed")
	}
}

func (h *Handler) DashboardPage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	page, err := h.Controller.RenderDashboard(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	writeHTML(ctx, w, page)
}

func (h *Handler) TransactionsPage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	page, err := h.Controller.RenderTransactions(ctx, r.URL.Query().Get("ticker"))
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	writeHTML(ctx, w, page)
}
