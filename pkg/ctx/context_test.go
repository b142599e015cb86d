package ctx_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	appctx "github.com/bytekstore/bytek/pkg/ctx"
	"github.com/bytekstore/bytek/pkg/session"
)

func TestWrapSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	appctx.Wrap(func(c *appctx.Context) {
		c.Success(map[string]any{"id": 1})
	})(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"data":{"id":1}}`, rec.Body.String())
}

func TestParamAndQuery(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/orders/{id}", appctx.Wrap(func(c *appctx.Context) {
		assert.Equal(t, "abc", c.Param("id"))
		assert.Equal(t, "pending", c.Query("status"))
		assert.Equal(t, 3, c.QueryInt("page", 1))
		assert.Equal(t, 20, c.QueryInt("per_page", 20))
		c.Success(nil)
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/abc?status=+pending+&page=3&per_page=x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(session.WithSession(req.Context(), session.New("visitor-1")))

	appctx.Wrap(func(c *appctx.Context) {
		assert.Equal(t, "visitor-1", c.SessionID())
		assert.Nil(t, c.Claims())
	})(httptest.NewRecorder(), req)
}

func TestBindJSON(t *testing.T) {
	type input struct {
		Name  string `json:"name"  validate:"required"`
		Email string `json:"email" validate:"required,email"`
	}

	cases := []struct {
		body string
		ok   bool
		code int
	}{
		{`{"name":"Amine","email":"amine@example.dz"}`, true, http.StatusOK},
		{`{"name":""}`, false, http.StatusUnprocessableEntity},
		{`{"name":`, false, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
		appctx.Wrap(func(c *appctx.Context) {
			var in input
			ok := c.BindJSON(&in)
			assert.Equal(t, tc.ok, ok, tc.body)
			if ok {
				c.Success(in)
			}
		})(rec, req)
		assert.Equal(t, tc.code, rec.Code, tc.body)
	}
}

func TestServerErrorHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	appctx.Wrap(func(c *appctx.Context) {
		c.ServerError(errors.New("dial tcp: connection refused"))
	})(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "41.200.1.1, 10.0.0.1")
	appctx.Wrap(func(c *appctx.Context) {
		assert.Equal(t, "41.200.1.1", c.ClientIP())
	})(httptest.NewRecorder(), req)
}
