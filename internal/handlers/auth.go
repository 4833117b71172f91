package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strings"

	"exchange_go/internal/domain"
)

type contextKey string

const userContextKey contextKey = "user"

// newToken mints a random URL-safe API token.
func newToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic("token entropy unavailable: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// authMiddleware resolves "Authorization: TOKEN <raw>" to a user and puts it
// on the request context. Missing or unknown tokens get a 401.
func (h *Handler) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "TOKEN ") {
			writeError(w, domain.ErrUnauthorized)
			return
		}
		raw := strings.TrimPrefix(header, "TOKEN ")

		user, err := h.store.GetUserByToken(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		if user == nil {
			writeError(w, domain.ErrUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// adminMiddleware additionally requires the authenticated user to be admin.
func (h *Handler) adminMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return h.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		if !currentUser(r).IsAdmin {
			writeJSONStatus(w, http.StatusForbidden, errorBody("admin only"))
			return
		}
		next(w, r)
	})
}

// currentUser returns the authenticated user placed by authMiddleware.
func currentUser(r *http.Request) *domain.User {
	return r.Context().Value(userContextKey).(*domain.User)
}
