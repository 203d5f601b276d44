package otpcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Numeric generates a cryptographically random n-digit code, zero padded.
func Numeric(n int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate otp code: %w", err)
	}
	return fmt.Sprintf("%0*d", n, v), nil
}
