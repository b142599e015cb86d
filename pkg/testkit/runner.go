package testkit

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Run executes the scenario at path against handler as a subtest.
func Run(t *testing.T, handler http.Handler, path string) {
	t.Helper()
	s, err := LoadScenario(path)
	require.NoError(t, err)
	t.Run(s.Name, func(t *testing.T) { runScenario(t, handler, s) })
}

// RunDir runs every scenario file in dir, in name order.
func RunDir(t *testing.T, handler http.Handler, dir string) {
	t.Helper()
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)

	ran := 0
	for _, path := range paths {
		if !isScenario(path) {
			continue
		}
		Run(t, handler, path)
		ran++
	}
	require.NotZero(t, ran, "testkit: no scenarios in %s", dir)
}

func runScenario(t *testing.T, handler http.Handler, s *Scenario) {
	t.Helper()

	payload, err := s.Body()
	require.NoError(t, err, "[%s] request body", s.Name)
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(s.RequestMethod, s.RequestURL, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range s.Headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	AssertStatusCode(t, s, rec.Code, rec.Body.Bytes())
	if len(s.ExpectedBody) > 0 {
		AssertJSONSubset(t, s, s.ExpectedBody, rec.Body.Bytes())
	}
	expected, err := s.ExpectedResponse()
	require.NoError(t, err, "[%s] response file", s.Name)
	if expected != nil {
		AssertJSONBody(t, s, expected, rec.Body.Bytes())
	}
}
