package testkit

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /echo", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"session": r.Header.Get("X-Session-ID"),
			"body":    body,
			"extra":   true,
		})
	})
	return mux
}

func TestRunDir(t *testing.T) {
	RunDir(t, echoHandler(), "testdata")
}

func TestLoadScenario_Validation(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}

	_, err := LoadScenario(write("a.json", `{"requestUrl":"/x","expectedCode":200}`))
	assert.ErrorContains(t, err, "name is required")

	_, err = LoadScenario(write("b.json", `{"name":"b","requestUrl":"/x"}`))
	assert.ErrorContains(t, err, "expectedCode is required")

	_, err = LoadScenario(write("c.json", `{"name":"c","requestUrl":"/x","expectedCode":200,"requestFileName":"r.json","requestBody":{}}`))
	assert.ErrorContains(t, err, "not both")

	s, err := LoadScenario(write("d.json", `{"name":"d","requestUrl":"/x","expectedCode":200}`))
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, s.RequestMethod)
}

func TestDiff(t *testing.T) {
	var exp, act any
	require.NoError(t, json.Unmarshal([]byte(`{"status":404,"data":{"items":[1,2]}}`), &exp))
	require.NoError(t, json.Unmarshal([]byte(`{"status":404,"message":"x","data":{"items":[1,2]}}`), &act))
	assert.Empty(t, Diff("", exp, act))

	require.NoError(t, json.Unmarshal([]byte(`{"status":400,"data":{"items":[1]}}`), &act))
	assert.ElementsMatch(t, []string{
		"status: expected 404, got 400",
		"data.items: expected 2 elements, got 1",
	}, Diff("", exp, act))
}

func TestIsScenario(t *testing.T) {
	assert.True(t, isScenario("testdata/echo_order.json"))
	assert.False(t, isScenario("testdata/echo_order_req.json"))
	assert.False(t, isScenario("testdata/echo_order_res.json"))
}
