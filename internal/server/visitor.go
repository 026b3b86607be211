package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// VisitorCookie names the cookie holding the visitor id.
const VisitorCookie = "modmap_visitor"

const visitorMaxAge = 365 * 24 * time.Hour

type ctxKey int

const visitorKey ctxKey = 0

// visitor ensures every request carries a visitor id, issuing a cookie on
// first contact or when the presented id is not a UUID.
func (s *Server) visitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(VisitorCookie); err == nil {
			if u, err := uuid.Parse(c.Value); err == nil {
				id = u.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     VisitorCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(visitorMaxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), visitorKey, id)))
	})
}

func visitorID(ctx context.Context) string {
	id, _ := ctx.Value(visitorKey).(string)
	return id
}
