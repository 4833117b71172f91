package handlers

import (
	"encoding/json"
	"net/http"

	"exchange_go/internal/domain"
	"exchange_go/internal/engine"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// toAPIStatus maps internal order statuses to their wire names.
func toAPIStatus(status string) string {
	switch status {
	case domain.OrderStatusNew:
		return "NEW"
	case domain.OrderStatusPartial:
		return "PARTIALLY_EXECUTED"
	case domain.OrderStatusFilled:
		return "EXECUTED"
	case domain.OrderStatusCanceled:
		return "CANCELLED"
	}
	return status
}

// serializeOrder renders one order in the API shape. Market orders carry no
// price and no fill counter on the wire.
func serializeOrder(o *domain.Order, user *domain.User, symbol string) map[string]any {
	body := map[string]any{
		"direction": o.Side,
		"ticker":    symbol,
		"qty":       o.Quantity,
	}
	out := map[string]any{
		"id":        o.ExternalID,
		"status":    toAPIStatus(o.Status),
		"user_id":   user.ExternalID,
		"timestamp": o.CreatedAt,
		"body":      body,
	}
	if o.Type == domain.OrderTypeLimit {
		body["price"] = o.Price.Decimal
		out["filled"] = o.Filled
	}
	return out
}

// symbolResolver caches instrument id -> ticker lookups within one request.
func (h *Handler) symbolResolver() func(uint) (string, error) {
	cache := make(map[uint]string)
	return func(id uint) (string, error) {
		if sym, ok := cache[id]; ok {
			return sym, nil
		}
		inst, err := h.store.GetInstrumentByID(id)
		if err != nil {
			return "", err
		}
		sym := ""
		if inst != nil {
			sym = inst.Symbol
		}
		cache[id] = sym
		return sym, nil
	}
}

type orderRequest struct {
	Ticker    string           `json:"ticker"`
	Direction string           `json:"direction"`
	Qty       decimal.Decimal  `json:"qty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewValidationError("body", "malformed JSON"))
		return
	}

	place := engine.PlaceRequest{
		Symbol:   req.Ticker,
		Side:     req.Direction,
		Quantity: req.Qty,
		Type:     domain.OrderTypeMarket,
	}
	if req.Price != nil {
		place.Type = domain.OrderTypeLimit
		place.Price = decimal.NewNullDecimal(*req.Price)
	}

	order, _, err := h.engine.PlaceOrder(currentUser(r), place)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]any{
		"success":  true,
		"order_id": order.ExternalID,
		"status":   toAPIStatus(order.Status),
		"filled":   order.Filled,
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	orders, err := h.store.ListOrdersByUser(user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	resolve := h.symbolResolver()
	out := make([]map[string]any, 0, len(orders))
	for i := range orders {
		symbol, err := resolve(orders[i].InstrumentID)
		if err != nil {
			writeError(w, err)
			return
		}
		out = append(out, serializeOrder(&orders[i], user, symbol))
	}
	writeJSON(w, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	order, err := h.store.GetOrderByExternalID(user.ID, mux.Vars(r)["order_id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if order == nil {
		writeError(w, domain.ErrOrderNotFound)
		return
	}

	symbol, err := h.symbolResolver()(order.InstrumentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, serializeOrder(order, user, symbol))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	order, err := h.engine.CancelOrder(user, mux.Vars(r)["order_id"])
	if err != nil {
		writeError(w, err)
		return
	}

	symbol, err := h.symbolResolver()(order.InstrumentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, serializeOrder(order, user, symbol))
}

func (h *Handler) balances(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	balances, err := h.store.GetBalances(user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	resolve := h.symbolResolver()
	out := make(map[string]decimal.Decimal, len(balances))
	for _, b := range balances {
		symbol, err := resolve(b.InstrumentID)
		if err != nil {
			writeError(w, err)
			return
		}
		if symbol == "" {
			continue
		}
		out[symbol] = b.Amount
	}
	writeJSON(w, out)
}
