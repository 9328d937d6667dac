package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"tracker/src/utils"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetPositions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	positions, err := h.Controller.GetPositions(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	h.respond(w, r, positions, http.StatusOK)
}

func (h *Handler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	allocation, err := h.Controller.GetAllocation(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	h.respond(w, r, allocation, http.StatusOK)
}

func (h *Handler) GetPositionDetail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	detail, err := h.Controller.GetPositionDetail(ctx, chi.URLParam(r, "ticker"))
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	h.respond(w, r, detail, http.StatusOK)
}

func (h *Handler) GetProfit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	at, err := parseOptionalTimestamp(r.URL.Query().Get("date"))
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	profit, err := h.Controller.GetProfit(ctx, chi.URLParam(r, "ticker"), at)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	h.respond(w, r, profit, http.StatusOK)
}

func (h *Handler) GetTickerHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	points, err := h.Controller.GetTickerHistory(ctx, chi.URLParam(r, "ticker"))
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	h.respond(w, r, points, http.StatusOK)
}

// GetTransactions returns JSON by default and a spreadsheet when format=XLSX.
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var ticker *string
	if t := r.URL.Query().Get("ticker"); t != "" {
		ticker = &t
	}

	switch strings.ToUpper(r.URL.Query().Get("format")) {
	case "", "JSON":
		entries, err := h.Controller.GetTransactions(ctx, ticker)
		if err != nil {
			h.HandleErrors(w, r, err)
			return
		}
		h.respond(w, r, entries, http.StatusOK)
	case "XLSX":
		xlsxFile, err := h.Controller.GenerateTransactionsXLSX(ctx, ticker)
		if err != nil {
			h.HandleErrors(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename=transactions.xlsx")
		if err := xlsxFile.Write(w); err != nil {
			utils.LoggerFromContext(ctx).WithError(err).Error("writing xlsx response failed")
		}
	default:
		h.HandleErrors(w, r, utils.BadRequest("unsupported format, expected JSON or XLSX"))
	}
}

func (h *Handler) GetPortfolioReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*requestTimeout)
	defer cancel()

	pdfData, err := h.Controller.GeneratePortfolioPDF(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=portfolio.pdf")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", pdfData.Len()))
	if _, err := w.Write(pdfData.Bytes()); err != nil {
		utils.LoggerFromContext(ctx).WithError(err).Error("writing pdf response failed")
	}
}

// GetAllocationChart serves the allocation pie as an HTML page.
func (h *Handler) GetAllocationChart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	chart, err := h.Controller.GetAllocationChart(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	writeHTML(ctx, w, chart)
}
