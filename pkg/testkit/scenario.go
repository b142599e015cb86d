// Package testkit runs JSON API scenarios against an http.Handler. Each
// scenario file describes one request and the response it must produce:
//
//	testdata/
//	  track_unknown_order.json
//	  login_bad_password.json
//	  login_bad_password_req.json
//
//	{
//	  "name": "unknown order number",
//	  "requestMethod": "GET",
//	  "requestUrl": "/api/track/ORD-1-0000",
//	  "expectedCode": 404,
//	  "expectedBody": {"message": "Order not found. Please check your order number and try again."}
//	}
//
// expectedBody is matched as a subset: every key it names must be present
// with the same value, other keys are ignored. responseFileName matches the
// whole body instead.
package testkit

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Scenario is one API test case.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	RequestMethod   string            `json:"requestMethod"`
	RequestURL      string            `json:"requestUrl"`
	RequestFileName string            `json:"requestFileName"`
	RequestBody     json.RawMessage   `json:"requestBody"`
	Headers         map[string]string `json:"headers"`

	ExpectedCode     int             `json:"expectedCode"`
	ExpectedBody     json.RawMessage `json:"expectedBody"`
	ResponseFileName string          `json:"responseFileName"`

	dir string
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve %q: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}
	s.dir = filepath.Dir(abs)
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("testkit: %q: %w", abs, err)
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	switch {
	case s.Name == "":
		return errors.New("name is required")
	case s.RequestURL == "":
		return errors.New("requestUrl is required")
	case s.ExpectedCode == 0:
		return errors.New("expectedCode is required")
	case s.RequestFileName != "" && len(s.RequestBody) > 0:
		return errors.New("set requestFileName or requestBody, not both")
	}
	s.RequestMethod = strings.ToUpper(s.RequestMethod)
	if s.RequestMethod == "" {
		s.RequestMethod = http.MethodGet
	}
	return nil
}

// Body returns the request payload, if any.
func (s *Scenario) Body() ([]byte, error) {
	if len(s.RequestBody) > 0 {
		return s.RequestBody, nil
	}
	if s.RequestFileName == "" {
		return nil, nil
	}
	return os.ReadFile(s.resolve(s.RequestFileName))
}

// ExpectedResponse returns the full expected body from responseFileName.
func (s *Scenario) ExpectedResponse() ([]byte, error) {
	if s.ResponseFileName == "" {
		return nil, nil
	}
	return os.ReadFile(s.resolve(s.ResponseFileName))
}

func (s *Scenario) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

// isScenario skips companion request and response files.
func isScenario(path string) bool {
	base := strings.TrimSuffix(filepath.Base(path), ".json")
	return !strings.HasSuffix(base, "_req") && !strings.HasSuffix(base, "_res")
}
