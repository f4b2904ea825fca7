package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/interfaces/rest"
)

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	tx, err := h.queryService.FindByID(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteSuccess(w, http.StatusOK, rest.ToAPITransaction(tx))
}

func (h *Handler) GetTransactionEvents(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	events, err := h.queryService.Events(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteSuccess(w, http.StatusOK, rest.ToAPIEvents(events))
}

func (h *Handler) GetBillerTransactions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	result, err := h.queryService.Reconcile(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteSuccess(w, http.StatusOK, rest.ToAPIBillerTransactions(id, result))
}
