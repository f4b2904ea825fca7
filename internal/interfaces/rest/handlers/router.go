package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/interfaces/rest"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/interfaces/rest/middleware"
)

// NewRouter mounts h behind the middleware chain: logging outermost, then panic
// recovery, request timeout and OpenAPI validation.
func NewRouter(ctx context.Context, h *Handler, requestTimeout time.Duration, logger *slog.Logger) (http.Handler, error) {
	doc, err := rest.LoadOpenAPI(ctx)
	if err != nil {
		return nil, err
	}
	validation, err := middleware.Validation(doc, logger)
	if err != nil {
		return nil, err
	}

	router := mux.NewRouter().StrictSlash(true)
	router.NotFoundHandler = http.HandlerFunc(notFound)
	router.Use(validation)
	h.Register(router)

	var handler http.Handler = router
	handler = middleware.Timeout(requestTimeout)(handler)
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.Logging(logger)(handler)
	return handler, nil
}

func notFound(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusNotFound, rest.ErrorResponse{
		Error: rest.ErrorDetail{Code: "ROUTE_NOT_FOUND", Message: "no route for " + r.Method + " " + r.URL.Path},
	})
}
