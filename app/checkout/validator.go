package checkout

import (
	"regexp"
	"strings"

	"github.com/bytekstore/bytek/app/shipping"
)

// InvalidMessage heads a 422 response for field errors.
const InvalidMessage = "Please fill in all required fields correctly"

var (
	phoneRE = regexp.MustCompile(`^(0|\+213)[567]\d{8}$`)
	emailRE = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	spaceRE = regexp.MustCompile(`\s+`)
)

// Input is the customer's checkout form.
type Input struct {
	FullName  string                   `json:"fullName"`
	Phone     string                   `json:"phone"`
	Email     string                   `json:"email"`
	Address   string                   `json:"address"`
	City      string                   `json:"city"`
	RegionID  int                      `json:"wilayaId"`
	Mode      shipping.FulfillmentMode `json:"shippingType"`
	Notes     string                   `json:"notes"`
	Website   string                   `json:"website"`
	FormToken string                   `json:"formToken"`
}

// NormalizePhone strips all whitespace.
func NormalizePhone(s string) string {
	return spaceRE.ReplaceAllString(s, "")
}

// ValidPhone accepts 0XXXXXXXXX or +213XXXXXXXXX mobile numbers whose
// network digit is 5, 6 or 7.
func ValidPhone(s string) bool {
	return phoneRE.MatchString(NormalizePhone(s))
}

// ValidEmail checks the local@domain.tld shape.
func ValidEmail(s string) bool {
	return emailRE.MatchString(strings.TrimSpace(s))
}

// Validate checks every field and returns all failures keyed by form field.
func Validate(in Input) map[string]string {
	errs := map[string]string{}

	if strings.TrimSpace(in.FullName) == "" {
		errs["fullName"] = "Full name is required"
	}

	switch phone := NormalizePhone(in.Phone); {
	case phone == "":
		errs["phone"] = "Phone number is required"
	case !phoneRE.MatchString(phone):
		errs["phone"] = "Please enter a valid Algerian phone number"
	}

	if email := strings.TrimSpace(in.Email); email != "" && !emailRE.MatchString(email) {
		errs["email"] = "Please enter a valid email address"
	}

	if strings.TrimSpace(in.Address) == "" {
		errs["address"] = "Address is required"
	}
	if strings.TrimSpace(in.City) == "" {
		errs["city"] = "City is required"
	}

	if _, ok := shipping.FindRegion(in.RegionID); !ok {
		errs["wilayaId"] = "Please select a wilaya"
	}

	return errs
}
