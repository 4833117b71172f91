package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"exchange_go/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type registerRequest struct {
	Name string `json:"name"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewValidationError("body", "malformed JSON"))
		return
	}
	if len(req.Name) < 3 {
		writeError(w, domain.NewValidationError("name", "must be at least 3 characters"))
		return
	}

	existing, err := h.store.GetUserByUsername(req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	if existing != nil {
		writeError(w, domain.ErrUsernameTaken)
		return
	}

	user := &domain.User{
		ExternalID: uuid.NewString(),
		Username:   req.Name,
		Token:      newToken(),
	}
	if err := h.store.CreateUser(user); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]string{
		"id":      user.ExternalID,
		"name":    user.Username,
		"role":    roleOf(user),
		"api_key": user.Token,
	})
}

func roleOf(u *domain.User) string {
	if u.IsAdmin {
		return "ADMIN"
	}
	return "USER"
}

func (h *Handler) listInstruments(w http.ResponseWriter, r *http.Request) {
	instruments, err := h.store.ListInstruments(true)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]map[string]string, 0, len(instruments))
	for _, i := range instruments {
		out = append(out, map[string]string{"name": i.Name, "ticker": i.Symbol})
	}
	writeJSON(w, out)
}

func (h *Handler) orderbook(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	depth := queryInt(r, "limit", 10, h.cfg.Exchange.DepthCap)

	book, err := h.engine.OrderBook(ticker, depth)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, book)
}

func (h *Handler) transactions(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	limit := queryInt(r, "limit", 10, h.cfg.Exchange.TradeLimitCap)

	inst, err := h.store.GetInstrumentBySymbol(ticker)
	if err != nil {
		writeError(w, err)
		return
	}
	if inst == nil {
		writeError(w, domain.ErrInstrumentNotFound)
		return
	}

	trades, err := h.store.RecentTrades(inst.ID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	type txOut struct {
		Ticker    string          `json:"ticker"`
		Amount    decimal.Decimal `json:"amount"`
		Price     decimal.Decimal `json:"price"`
		Timestamp time.Time       `json:"timestamp"`
	}
	out := make([]txOut, 0, len(trades))
	for _, t := range trades {
		out = append(out, txOut{
			Ticker:    ticker,
			Amount:    t.Quantity,
			Price:     t.Price,
			Timestamp: t.Timestamp,
		})
	}
	writeJSON(w, out)
}

func (h *Handler) candleHistory(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	interval := queryInt(r, "interval", 1, 1440)

	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, domain.NewValidationError("start", "must be RFC3339"))
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, domain.NewValidationError("end", "must be RFC3339"))
		return
	}

	candles, err := h.candles.Candles(ticker, interval, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, candles)
}

// queryInt reads an integer query parameter, clamped to [1, cap].
func queryInt(r *http.Request, name string, def, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
