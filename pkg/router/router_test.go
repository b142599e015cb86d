package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup_MiddlewareOrderAndParams(t *testing.T) {
	r := New()
	var order []string
	mw := func(tag string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				order = append(order, tag)
				next.ServeHTTP(w, req)
			})
		}
	}

	api := r.Group("/api", mw("outer"))
	admin := api.Group("admin", mw("inner"))
	admin.Delete("/orders/{id}", "admin.orders.delete", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(Param(req, "id")))
	})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/admin/orders/42", nil))

	assert.Equal(t, "42", rec.Body.String())
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestURL(t *testing.T) {
	r := New()
	r.Group("/api").Get("/orders/track/{number}", "orders.track", func(http.ResponseWriter, *http.Request) {})

	url, err := r.URL("orders.track", map[string]string{"number": "ORD-1"})
	require.NoError(t, err)
	assert.Equal(t, "/api/orders/track/ORD-1", url)

	_, err = r.URL("orders.track", nil)
	assert.Error(t, err)

	_, err = r.URL("missing", nil)
	assert.Error(t, err)
}

func TestRoutes_Sorted(t *testing.T) {
	r := New()
	g := r.Group("/api")
	g.Put("/b", "b.put", func(http.ResponseWriter, *http.Request) {})
	g.Get("/b", "b.get", func(http.ResponseWriter, *http.Request) {})
	g.Patch("/a", "", func(http.ResponseWriter, *http.Request) {})

	routes := r.Routes()
	require.Len(t, routes, 3)
	assert.Equal(t, Route{Method: http.MethodPatch, Path: "/api/a"}, routes[0])
	assert.Equal(t, "b.get", routes[1].Name)
	assert.Equal(t, "b.put", routes[2].Name)
}
