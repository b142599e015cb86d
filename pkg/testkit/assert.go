package testkit

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func AssertStatusCode(t *testing.T, s *Scenario, got int, body []byte) {
	t.Helper()
	assert.Equal(t, s.ExpectedCode, got, "[%s] status code\nbody: %s", s.Name, body)
}

// AssertJSONBody compares whole bodies, ignoring key order and whitespace.
func AssertJSONBody(t *testing.T, s *Scenario, expected, actual []byte) {
	t.Helper()
	assert.JSONEq(t, string(expected), string(actual), "[%s] response body", s.Name)
}

// AssertJSONSubset checks that actual contains everything in expected.
func AssertJSONSubset(t *testing.T, s *Scenario, expected, actual []byte) {
	t.Helper()
	var exp, act any
	require.NoError(t, json.Unmarshal(expected, &exp), "[%s] expectedBody is not JSON", s.Name)
	if !assert.NoError(t, json.Unmarshal(actual, &act), "[%s] response is not JSON\nbody: %s", s.Name, actual) {
		return
	}
	for _, d := range Diff("", exp, act) {
		assert.Fail(t, "response mismatch", "[%s] %s\nbody: %s", s.Name, d, actual)
	}
}

// Diff lists where actual departs from expected. Objects are compared as
// subsets; arrays must match in length.
func Diff(path string, expected, actual any) []string {
	var diffs []string
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return []string{fmt.Sprintf("%s: expected object, got %T", keyPath(path), actual)}
		}
		for k, ev := range exp {
			p := k
			if path != "" {
				p = path + "." + k
			}
			av, exists := act[k]
			if !exists {
				diffs = append(diffs, p+": missing")
				continue
			}
			diffs = append(diffs, Diff(p, ev, av)...)
		}
	case []any:
		act, ok := actual.([]any)
		if !ok {
			return []string{fmt.Sprintf("%s: expected array, got %T", keyPath(path), actual)}
		}
		if len(exp) != len(act) {
			return []string{fmt.Sprintf("%s: expected %d elements, got %d", keyPath(path), len(exp), len(act))}
		}
		for i := range exp {
			diffs = append(diffs, Diff(fmt.Sprintf("%s[%d]", keyPath(path), i), exp[i], act[i])...)
		}
	default:
		if fmt.Sprint(expected) != fmt.Sprint(actual) {
			diffs = append(diffs, fmt.Sprintf("%s: expected %v, got %v", keyPath(path), expected, actual))
		}
	}
	return diffs
}

func keyPath(path string) string {
	if path == "" {
		return "root"
	}
	return path
}
