package middleware

import (
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
)

const visitorCookieName = "vr_id"

// Visitor assigns every browser a stable ULID identifier via a
// long-lived cookie. The identifier scopes server-side preference
// storage, so it carries no authentication weight.
func Visitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(visitorCookieName); err == nil {
			if parsed, err := ulid.ParseStrict(c.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = ulid.Make().String()
			http.SetCookie(w, &http.Cookie{
				Name:     visitorCookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Expires:  time.Now().Add(365 * 24 * time.Hour),
			})
		}
		next.ServeHTTP(w, r.WithContext(WithVisitorID(r.Context(), id)))
	})
}
