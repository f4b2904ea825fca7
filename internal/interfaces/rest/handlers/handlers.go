package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator"
	"github.com/gorilla/mux"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/application/services"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/interfaces/rest"
)

type Handler struct {
	chargeService    *services.ChargeService
	queryService     *services.QueryService
	lifecycleService *services.LifecycleService
	validate         *validator.Validate
	logger           *slog.Logger
}

func NewHandler(
	chargeService *services.ChargeService,
	queryService *services.QueryService,
	lifecycleService *services.LifecycleService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		chargeService:    chargeService,
		queryService:     queryService,
		lifecycleService: lifecycleService,
		validate:         validator.New(),
		logger:           logger,
	}
}

// Register mounts every route on router.
func (h *Handler) Register(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/charges", h.CreateCharge).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}", h.GetTransaction).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id}/events", h.GetTransactionEvents).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id}/biller-transactions", h.GetBillerTransactions).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id}/refund", h.RefundTransaction).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}/chargeback", h.ChargebackTransaction).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}/complete-threeds", h.CompleteThreeDS).Methods(http.MethodPost)
	api.HandleFunc("/openapi.yaml", serveOpenAPI).Methods(http.MethodGet)

	router.HandleFunc("/health", health).Methods(http.MethodGet)
}

func serveOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(rest.OpenAPISpec())
}

func health(w http.ResponseWriter, r *http.Request) {
	rest.WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}
