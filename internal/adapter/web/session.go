package web

import (
	"context"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const (
	cookieName = "safety-desk"
	sidKey     = "sid"
)

type ctxKey struct{}

func newCookieStore(opts Options) *sessions.CookieStore {
	key := opts.SessionKey
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
	}
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// bindSession resolves the cookie to a live desk session, opening a new one
// when the cookie is missing, tampered with or expired.
func (h *handler) bindSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := h.store.Get(r, cookieName)
		if err != nil {
			h.logger.Debug("discarding session cookie", "error", err)
		}
		prev, _ := cookie.Values[sidKey].(string)

		id, created := h.desk.Open(prev)
		if created {
			cookie.Values[sidKey] = id
		}
		// Saving on every request slides the cookie expiry with the session.
		if err := cookie.Save(r, w); err != nil {
			h.internalError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func sessionID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
