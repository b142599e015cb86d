package validate_test

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/bytekstore/bytek/pkg/validate"
	"github.com/shopspring/decimal"
)

type productInput struct {
	Name     string          `json:"name"     validate:"required,min=2,max=50"`
	Email    string          `json:"email"    validate:"nullable,email"`
	Category string          `json:"category" validate:"required,in=mice keyboards headsets"`
	Price    decimal.Decimal `json:"price"    validate:"gte=0"`
	Stock    int             `json:"stock"    validate:"gte=0,lte=100000"`
	Sizes    []string        `json:"sizes"    validate:"dive_required"`
	ID       string          `json:"id"       validate:"nullable,uuid"`
}

func validInput() productInput {
	return productInput{
		Name:     "Viper Mini",
		Category: "mice",
		Price:    decimal.NewFromInt(4500),
		Stock:    10,
		Sizes:    []string{"One Size"},
	}
}

func TestValidInput(t *testing.T) {
	if errs := validate.Struct(validInput()); validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestRequiredFails(t *testing.T) {
	errs := validate.Struct(productInput{})
	if _, ok := errs["name"]; !ok {
		t.Error("expected name to be required")
	}
	if _, ok := errs["category"]; !ok {
		t.Error("expected category to be required")
	}
	if _, ok := errs["email"]; ok {
		t.Error("nullable email must be skipped when empty")
	}
}

func TestEmailRule(t *testing.T) {
	in := validInput()
	in.Email = "not-an-email"
	if _, ok := validate.Struct(in)["email"]; !ok {
		t.Error("expected email validation error")
	}
	in.Email = "buyer@mail.dz"
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		t.Errorf("expected valid email to pass, got: %v", errs)
	}
}

func TestInRule(t *testing.T) {
	in := validInput()
	in.Category = "monitors"
	if _, ok := validate.Struct(in)["category"]; !ok {
		t.Error("expected category outside the list to fail")
	}
}

func TestDecimalBounds(t *testing.T) {
	in := validInput()
	in.Price = decimal.NewFromInt(-1)
	if _, ok := validate.Struct(in)["price"]; !ok {
		t.Error("expected negative price to fail")
	}
}

func TestDiveRequired(t *testing.T) {
	in := validInput()
	in.Sizes = []string{"S", " "}
	if _, ok := validate.Struct(in)["sizes"]; !ok {
		t.Error("expected blank size to fail")
	}
}

func TestUUID(t *testing.T) {
	in := validInput()
	in.ID = "nope"
	if _, ok := validate.Struct(in)["id"]; !ok {
		t.Error("expected malformed uuid to fail")
	}
	in.ID = "6f1c1c6e-4b8a-4a53-9f3e-2b1f6b0d9a11"
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		t.Errorf("expected uuid to pass, got: %v", errs)
	}
}

func TestRegister(t *testing.T) {
	validate.Register("upper", func(field string, v reflect.Value, _ string) string {
		if s := validate.Raw(v); s != strings.ToUpper(s) {
			return fmt.Sprintf("The %s must be upper case.", field)
		}
		return ""
	})

	type in struct {
		Code string `json:"code" validate:"required,upper"`
	}
	if errs := validate.Struct(in{Code: "ord"}); errs["code"] != "The code must be upper case." {
		t.Errorf("unexpected errors: %v", errs)
	}
	if errs := validate.Struct(in{Code: "ORD"}); validate.HasErrors(errs) {
		t.Errorf("expected ORD to pass, got: %v", errs)
	}
}

func TestUnknownRule(t *testing.T) {
	type in struct {
		X string `json:"x" validate:"bogus"`
	}
	if _, ok := validate.Struct(in{X: "a"})["x"]; !ok {
		t.Error("expected unknown rule to be reported")
	}
}
