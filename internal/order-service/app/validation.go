package app

import (
	"regexp"
	"strings"

	"github.com/jcmexdev/ecommerce-orders/internal/order-service/domain"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/apperr"
)

var pincodePattern = regexp.MustCompile(`^\d{4,}$`)

// NormalizeAddress trims every field and checks that none is empty. With
// strictPincode the pincode must also be at least four digits.
func NormalizeAddress(a domain.Address, strictPincode bool) (domain.Address, error) {
	a = domain.Address{
		Street:  strings.TrimSpace(a.Street),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		Pincode: strings.TrimSpace(a.Pincode),
		Country: strings.TrimSpace(a.Country),
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"pincode", a.Pincode},
		{"country", a.Country},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return a, apperr.Validation("shippingAddress is missing %s", strings.Join(missing, ", "))
	}
	if strictPincode && !pincodePattern.MatchString(a.Pincode) {
		return a, apperr.Validation("pincode must be at least 4 digits")
	}
	return a, nil
}
