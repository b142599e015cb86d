// Package validate runs struct-tag validation for request payloads.
//
// Rules are comma separated in the `validate` tag. Rules taking a list use
// spaces between values so the comma stays a rule separator:
//
//	type Input struct {
//	    Name     string `json:"name"     validate:"required,max=120"`
//	    Email    string `json:"email"    validate:"nullable,email"`
//	    Category string `json:"category" validate:"required,in=mice keyboards"`
//	}
//
// Applications add their own rules with Register.
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Rule checks one value. It returns an empty string when the value passes.
type Rule func(field string, v reflect.Value, param string) string

var (
	rulesMu sync.RWMutex
	rules   = map[string]Rule{}
)

func init() {
	Register("required", required)
	Register("email", email)
	Register("uuid", isUUID)
	Register("numeric", numeric)
	Register("min", minRule)
	Register("max", maxRule)
	Register("gte", gte)
	Register("lte", lte)
	Register("in", in)
	Register("regex", matches)
	Register("dive_required", diveRequired)
}

// Register adds or replaces a named rule.
func Register(name string, fn Rule) {
	rulesMu.Lock()
	rules[name] = fn
	rulesMu.Unlock()
}

// Struct validates all exported fields of v that carry a `validate` tag.
// Returns a map of json field name to message. Only the first failing rule
// per field is reported.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}

		name := jsonFieldName(field)
		value := rv.Field(i)
		list := strings.Split(tag, ",")

		if hasRule(list, "nullable") && isEmpty(value) {
			continue
		}

		for _, rule := range list {
			rule = strings.TrimSpace(rule)
			if rule == "" || rule == "nullable" {
				continue
			}
			if msg := apply(rule, name, value); msg != "" {
				errs[name] = msg
				break
			}
		}
	}

	return errs
}

// HasErrors returns true when the errs map is non-empty.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

func apply(rule, field string, v reflect.Value) string {
	key, param, _ := strings.Cut(rule, "=")

	rulesMu.RLock()
	fn, ok := rules[key]
	rulesMu.RUnlock()
	if !ok {
		return fmt.Sprintf("The %s has an unknown rule %q.", field, key)
	}
	return fn(field, v, param)
}

// ─── Built-in rules ───────────────────────────────────────────────────────────

var emailRE = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func required(field string, v reflect.Value, _ string) string {
	if isEmpty(v) {
		return fmt.Sprintf("The %s field is required.", field)
	}
	return ""
}

func email(field string, v reflect.Value, _ string) string {
	if !emailRE.MatchString(Raw(v)) {
		return fmt.Sprintf("The %s must be a valid email address.", field)
	}
	return ""
}

func isUUID(field string, v reflect.Value, _ string) string {
	if _, err := uuid.Parse(Raw(v)); err != nil {
		return fmt.Sprintf("The %s must be a valid UUID.", field)
	}
	return ""
}

func numeric(field string, v reflect.Value, _ string) string {
	if _, err := strconv.ParseFloat(Raw(v), 64); err != nil {
		return fmt.Sprintf("The %s field must be a number.", field)
	}
	return ""
}

func minRule(field string, v reflect.Value, param string) string {
	n := parseFloat(param)
	if isNumericKind(v) {
		if toFloat(v) < n {
			return fmt.Sprintf("The %s must be at least %s.", field, param)
		}
		return ""
	}
	if float64(length(v)) < n {
		return fmt.Sprintf("The %s must be at least %s characters.", field, param)
	}
	return ""
}

func maxRule(field string, v reflect.Value, param string) string {
	n := parseFloat(param)
	if isNumericKind(v) {
		if toFloat(v) > n {
			return fmt.Sprintf("The %s must not be greater than %s.", field, param)
		}
		return ""
	}
	if float64(length(v)) > n {
		return fmt.Sprintf("The %s must not exceed %s characters.", field, param)
	}
	return ""
}

func gte(field string, v reflect.Value, param string) string {
	if toFloat(v) < parseFloat(param) {
		return fmt.Sprintf("The %s must be greater than or equal to %s.", field, param)
	}
	return ""
}

func lte(field string, v reflect.Value, param string) string {
	if toFloat(v) > parseFloat(param) {
		return fmt.Sprintf("The %s must be less than or equal to %s.", field, param)
	}
	return ""
}

func in(field string, v reflect.Value, param string) string {
	raw := Raw(v)
	for _, allowed := range strings.Fields(param) {
		if raw == allowed {
			return ""
		}
	}
	return fmt.Sprintf("The selected %s is invalid.", field)
}

func matches(field string, v reflect.Value, param string) string {
	re, err := regexp.Compile(param)
	if err != nil {
		return fmt.Sprintf("The %s has an invalid validation pattern.", field)
	}
	if !re.MatchString(Raw(v)) {
		return fmt.Sprintf("The %s format is invalid.", field)
	}
	return ""
}

// diveRequired rejects slices containing a blank string.
func diveRequired(field string, v reflect.Value, _ string) string {
	if v.Kind() != reflect.Slice {
		return ""
	}
	for i := 0; i < v.Len(); i++ {
		if isEmpty(v.Index(i)) {
			return fmt.Sprintf("The %s must not contain empty values.", field)
		}
	}
	return ""
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// Raw renders v as the string the rules compare against.
func Raw(v reflect.Value) string {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", v.Interface())
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Bool:
		return false
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Struct:
		return v.IsZero()
	}
	return false
}

func length(v reflect.Value) int {
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len()
	}
	return len([]rune(Raw(v)))
}

func isNumericKind(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	// decimal.Decimal and friends render as numbers.
	if v.Kind() == reflect.Struct {
		_, err := strconv.ParseFloat(Raw(v), 64)
		return err == nil
	}
	return false
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	return parseFloat(Raw(v))
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func jsonFieldName(f reflect.StructField) string {
	name := f.Tag.Get("json")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	if idx := strings.Index(name, ","); idx != -1 {
		name = name[:idx]
	}
	return name
}

func hasRule(list []string, target string) bool {
	for _, r := range list {
		if strings.TrimSpace(r) == target {
			return true
		}
	}
	return false
}
