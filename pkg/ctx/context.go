// Package ctx bundles a request/response pair for controllers.
//
// Handlers take a single *Context instead of (w, r) and answer through the
// pkg/response envelope:
//
//	func (c *ProductController) Show(cx *ctx.Context) {
//	    p, err := c.products.Get(cx.Context(), cx.Param("id"), false)
//	    if err != nil {
//	        cx.NotFound("Product not found")
//	        return
//	    }
//	    cx.Success(p)
//	}
//
//	router.Get("/products/{id}", "products.show", ctx.Wrap(c.Show))
package ctx

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/bytekstore/bytek/pkg/auth"
	"github.com/bytekstore/bytek/pkg/bind"
	"github.com/bytekstore/bytek/pkg/logger"
	"github.com/bytekstore/bytek/pkg/middleware"
	"github.com/bytekstore/bytek/pkg/orm"
	"github.com/bytekstore/bytek/pkg/response"
	"github.com/bytekstore/bytek/pkg/router"
	"github.com/bytekstore/bytek/pkg/session"
	"github.com/bytekstore/bytek/pkg/validate"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context wraps a request/response pair.
type Context struct {
	W http.ResponseWriter
	R *http.Request
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Context returns the underlying request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// Param returns a URL path parameter ("/orders/{id}" → c.Param("id")).
func (c *Context) Param(key string) string {
	return router.Param(c.R, key)
}

// Query returns a trimmed query-string value, "" if absent.
func (c *Context) Query(key string) string {
	return strings.TrimSpace(c.R.URL.Query().Get(key))
}

// QueryInt parses a query value, returning def when absent or malformed.
func (c *Context) QueryInt(key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}

// SessionID is the anonymous visitor id set by the session middleware.
func (c *Context) SessionID() string {
	if s := session.FromCtx(c.R.Context()); s != nil {
		return s.ID()
	}
	return ""
}

// Claims returns the authenticated admin's token claims, or nil.
func (c *Context) Claims() *auth.Claims {
	claims, _ := middleware.ClaimsFromCtx(c.R.Context())
	return claims
}

// ClientIP returns the caller address, honouring proxy headers.
func (c *Context) ClientIP() string {
	return middleware.ClientIP(c.R)
}

// ─── Binding ──────────────────────────────────────────────────────────────────

// BindJSON decodes and validates the body into dest. On failure it has
// already written a 400 (malformed) or 422 (invalid) and returns false.
//
//	var in LoginInput
//	if !c.BindJSON(&in) {
//	    return
//	}
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.W, c.R, dest)
	if err != nil {
		c.BadRequest(err.Error())
		return false
	}
	if validate.HasErrors(errs) {
		c.ValidationError(errs)
		return false
	}
	return true
}

// ─── Responses ────────────────────────────────────────────────────────────────

func (c *Context) Success(data any) { response.Success(c.W, data) }
func (c *Context) Created(data any) { response.Created(c.W, data) }
func (c *Context) Message(msg string) { response.Message(c.W, msg) }

func (c *Context) Paginated(items any, page orm.Page) { response.Paginated(c.W, items, page) }

func (c *Context) Error(code int, message string) { response.Error(c.W, code, message) }
func (c *Context) BadRequest(message string) { response.BadRequest(c.W, message) }
func (c *Context) Conflict(message string) { response.Conflict(c.W, message) }
func (c *Context) NotFound(message ...string) { response.NotFound(c.W, message...) }
func (c *Context) Unauthorized() { response.Unauthorized(c.W) }

func (c *Context) ValidationError(errs map[string]string) { response.ValidationError(c.W, errs) }

func (c *Context) ValidationErrorWithMessage(message string, errs map[string]string) {
	response.ValidationErrorWithMessage(c.W, message, errs)
}

// ServerError logs err against the request and sends a generic 500.
func (c *Context) ServerError(err error) {
	logger.WithCtx(c.R.Context()).Error("request failed",
		"method", c.R.Method, "path", c.R.URL.Path, "error", err)
	response.ServerError(c.W)
}
