// Package captcha implements the short human-verification challenge shown at
// the login entry point. It is a friction control against trivial automation,
// not a cryptographic one.
package captcha

import (
	"crypto/rand"
	"math/big"
	"strings"
	"sync"
)

const (
	tokenLength = 6
	// Full uppercase alphanumeric set, 0/O and 1/I included; the check is
	// case-insensitive so ambiguity costs the user nothing.
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Challenge holds the single currently-displayed token. Generating a new token
// permanently invalidates the previous one.
type Challenge struct {
	mu    sync.Mutex
	token string
}

// New returns a Challenge with an initial token already generated.
func New() *Challenge {
	c := &Challenge{}
	c.Generate()
	return c
}

// Generate produces a fresh token and replaces the displayed one.
func (c *Challenge) Generate() string {
	b := make([]byte, tokenLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			panic("captcha: crypto/rand unavailable: " + err.Error())
		}
		b[i] = alphabet[n.Int64()]
	}
	c.mu.Lock()
	c.token = string(b)
	c.mu.Unlock()
	return string(b)
}

// Token returns the currently displayed token.
func (c *Challenge) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Check compares userInput against the current token, case-insensitively.
// Any mismatch, including a length mismatch, returns false. Check never
// mutates state; callers regenerate after a failed check.
func (c *Challenge) Check(userInput string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.EqualFold(c.token, userInput)
}
