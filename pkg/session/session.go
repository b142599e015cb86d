// Package session identifies anonymous storefront visitors.
//
// Every request gets a visitor ID: taken from the session cookie, from the
// X-Session-ID header for API clients, or freshly minted. The ID keys the
// visitor's cart so it survives reloads the way browser storage would.
//
//	r.Use(session.Middleware(session.DefaultOptions()))
//	id := session.FromCtx(r.Context()).ID()
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Header lets non-browser clients carry the visitor ID explicitly.
const Header = "X-Session-ID"

type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
	SameSite   http.SameSite
	Path       string
}

func DefaultOptions() Options {
	return Options{
		CookieName: "bytek_session",
		TTL:        30 * 24 * time.Hour,
		SameSite:   http.SameSiteLaxMode,
		Path:       "/",
	}
}

// Session is the per-request visitor handle.
type Session struct {
	id    string
	fresh bool
}

func (s *Session) ID() string { return s.id }

// Fresh reports whether the ID was minted during this request.
func (s *Session) Fresh() bool { return s.fresh }

type ctxKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// New builds a session for a known ID. Used by tests and background jobs.
func New(id string) *Session { return &Session{id: id} }

// FromCtx returns the request's session, or nil outside the middleware.
func FromCtx(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// Middleware resolves the visitor ID and refreshes the cookie.
func Middleware(opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := resolve(r, opts)

			w.Header().Set(Header, sess.id)
			http.SetCookie(w, &http.Cookie{
				Name:     opts.CookieName,
				Value:    sess.id,
				Path:     opts.Path,
				MaxAge:   int(opts.TTL.Seconds()),
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: opts.SameSite,
			})

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

func resolve(r *http.Request, opts Options) *Session {
	if id := r.Header.Get(Header); valid(id) {
		return &Session{id: id}
	}
	if c, err := r.Cookie(opts.CookieName); err == nil && valid(c.Value) {
		return &Session{id: c.Value}
	}
	return &Session{id: uuid.NewString(), fresh: true}
}

// valid accepts only UUIDs so IDs are safe to embed in storage keys.
func valid(id string) bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
