package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"exchange_go/internal/domain"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type instrumentRequest struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

func (h *Handler) addInstrument(w http.ResponseWriter, r *http.Request) {
	var req instrumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewValidationError("body", "malformed JSON"))
		return
	}
	if req.Ticker == "" || req.Ticker != strings.ToUpper(req.Ticker) {
		writeError(w, domain.NewValidationError("ticker", "must be uppercase"))
		return
	}
	if req.Name == "" {
		writeError(w, domain.NewValidationError("name", "required"))
		return
	}

	existing, err := h.store.GetInstrumentBySymbol(req.Ticker)
	if err != nil {
		writeError(w, err)
		return
	}
	if existing != nil {
		writeError(w, domain.NewValidationError("ticker", "already exists"))
		return
	}

	inst := &domain.Instrument{Symbol: req.Ticker, Name: req.Name, IsListed: true}
	if err := h.store.CreateInstrument(inst); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *Handler) delistInstrument(w http.ResponseWriter, r *http.Request) {
	inst, err := h.store.GetInstrumentBySymbol(mux.Vars(r)["ticker"])
	if err != nil {
		writeError(w, err)
		return
	}
	if inst == nil {
		writeError(w, domain.ErrInstrumentNotFound)
		return
	}

	if err := h.store.DelistInstrument(inst.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

type balanceRequest struct {
	UserID string          `json:"user_id"`
	Ticker string          `json:"ticker"`
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) deposit(w http.ResponseWriter, r *http.Request) {
	h.adjustBalance(w, r, false)
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request) {
	h.adjustBalance(w, r, true)
}

// adjustBalance applies an admin deposit or withdrawal as a raw delta.
// Withdrawals may drive a balance negative; there is no sufficiency check.
func (h *Handler) adjustBalance(w http.ResponseWriter, r *http.Request, negate bool) {
	var req balanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewValidationError("body", "malformed JSON"))
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, domain.NewValidationError("amount", "must be positive"))
		return
	}

	user, err := h.store.GetUserByExternalID(req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		writeError(w, domain.ErrUserNotFound)
		return
	}

	inst, err := h.store.GetInstrumentBySymbol(req.Ticker)
	if err != nil {
		writeError(w, err)
		return
	}
	if inst == nil {
		writeError(w, domain.ErrInstrumentNotFound)
		return
	}

	delta := req.Amount
	if negate {
		delta = delta.Neg()
	}
	if _, err := h.store.AdjustBalance(user.ID, inst.ID, delta); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUserByExternalID(mux.Vars(r)["user_id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		writeError(w, domain.ErrUserNotFound)
		return
	}

	if err := h.store.DeleteUser(user.ID); err != nil {
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
