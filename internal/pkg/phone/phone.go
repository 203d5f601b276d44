// Package phone validates, normalizes and masks the mobile identifiers used
// throughout the authentication flow. Identifiers are entered as exactly ten
// decimal digits and normalized to E.164 by prefixing the configured country
// calling code.
package phone

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/vidyasetu/auth-api/internal/domain"
)

// IsLocalFormat reports whether raw is exactly ten decimal digits, the only
// shape accepted from the entry form.
func IsLocalFormat(raw string) bool {
	if len(raw) != 10 {
		return false
	}
	for _, c := range raw {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Normalize prefixes the country calling code (e.g. "+91") to a ten-digit
// identifier. Already-prefixed values pass through unchanged, so the operation
// is idempotent.
func Normalize(raw, callingCode string) string {
	if strings.HasPrefix(raw, callingCode) {
		return raw
	}
	return callingCode + raw
}

// Validate checks the local format, normalizes, and runs the result through
// the phonenumbers parser as a sanity check on the full E.164 value.
// It returns the normalized identifier.
func Validate(raw, callingCode string) (string, error) {
	if !IsLocalFormat(raw) {
		return "", fmt.Errorf("mobile number must be exactly 10 digits: %w", domain.ErrSendFailure)
	}
	e164 := Normalize(raw, callingCode)
	num, err := phonenumbers.Parse(e164, "")
	if err != nil {
		return "", fmt.Errorf("invalid mobile number: %w", domain.ErrSendFailure)
	}
	if !phonenumbers.IsPossibleNumber(num) {
		return "", fmt.Errorf("impossible mobile number: %w", domain.ErrSendFailure)
	}
	return e164, nil
}

// Mask renders a ten-digit identifier for display, e.g. "+91 98******10".
// Anything shorter than ten digits masks to "-".
func Mask(raw, callingCode string) string {
	digits := strings.TrimPrefix(raw, callingCode)
	if len(digits) < 10 {
		return "-"
	}
	return callingCode + " " + digits[:2] + "******" + digits[len(digits)-2:]
}
