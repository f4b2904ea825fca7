package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/interfaces/rest"
)

func (h *Handler) RefundTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.lifecycleService.Refund(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteSuccess(w, http.StatusOK, rest.ToAPITransaction(tx))
}

func (h *Handler) ChargebackTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.lifecycleService.Chargeback(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteSuccess(w, http.StatusOK, rest.ToAPITransaction(tx))
}
