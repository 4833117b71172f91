package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"exchange_go/internal/domain"
	"exchange_go/internal/engine"
	"exchange_go/internal/infra"
	"exchange_go/internal/infra/storage"
	"exchange_go/internal/service"

	"github.com/gorilla/mux"
)

// Handler wires the HTTP surface to the exchange core.
type Handler struct {
	cfg     *infra.Config
	store   *storage.Storage
	engine  *engine.Engine
	candles *service.CandleService
	hub     *Hub
}

// NewHandler creates the HTTP handler set.
func NewHandler(cfg *infra.Config, store *storage.Storage, eng *engine.Engine, candles *service.CandleService, hub *Hub) *Handler {
	return &Handler{
		cfg:     cfg,
		store:   store,
		engine:  eng,
		candles: candles,
		hub:     hub,
	}
}

// SetupRoutes registers all endpoints on the router.
func (h *Handler) SetupRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public
	api.HandleFunc("/public/register", h.register).Methods("POST")
	api.HandleFunc("/public/instrument", h.listInstruments).Methods("GET")
	api.HandleFunc("/public/orderbook/{ticker}", h.orderbook).Methods("GET")
	api.HandleFunc("/public/transactions/{ticker}", h.transactions).Methods("GET")
	api.HandleFunc("/public/candles/{ticker}", h.candleHistory).Methods("GET")

	// Authenticated trading
	api.HandleFunc("/balance", h.authMiddleware(h.balances)).Methods("GET")
	api.HandleFunc("/order", h.authMiddleware(h.createOrder)).Methods("POST")
	api.HandleFunc("/order", h.authMiddleware(h.listOrders)).Methods("GET")
	api.HandleFunc("/order/{order_id}", h.authMiddleware(h.getOrder)).Methods("GET")
	api.HandleFunc("/order/{order_id}", h.authMiddleware(h.cancelOrder)).Methods("DELETE")

	// Admin
	api.HandleFunc("/admin/instrument", h.adminMiddleware(h.addInstrument)).Methods("POST")
	api.HandleFunc("/admin/instrument/{ticker}", h.adminMiddleware(h.delistInstrument)).Methods("DELETE")
	api.HandleFunc("/admin/balance/deposit", h.adminMiddleware(h.deposit)).Methods("POST")
	api.HandleFunc("/admin/balance/withdraw", h.adminMiddleware(h.withdraw)).Methods("POST")
	api.HandleFunc("/admin/user/{user_id}", h.adminMiddleware(h.deleteUser)).Methods("DELETE")

	// Trade feed
	r.HandleFunc("/ws", h.serveWS)

	// Ops
	r.HandleFunc("/health", h.health).Methods("GET")
	r.HandleFunc("/metrics", h.metrics).Methods("GET")
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, infra.GlobalMetrics.Snapshot())
}

// ======================================================================================
// Response helpers
// ======================================================================================

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.Any("error", err))
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"detail": msg}
}

// writeError maps the domain error taxonomy to HTTP statuses:
// validation 422, not-found 404, conflict 400, auth 401, the rest 500.
func writeError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSONStatus(w, http.StatusUnprocessableEntity, errorBody(ve.Error()))
	case errors.Is(err, domain.ErrInstrumentNotFound),
		errors.Is(err, domain.ErrInstrumentDelisted),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		writeJSONStatus(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, domain.ErrOrderNotCancelable),
		errors.Is(err, domain.ErrUsernameTaken):
		writeJSONStatus(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSONStatus(w, http.StatusUnauthorized, errorBody(err.Error()))
	default:
		slog.Error("internal error", slog.Any("error", err))
		writeJSONStatus(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
