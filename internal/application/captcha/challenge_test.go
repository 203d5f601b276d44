package captcha

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_TokenShape(t *testing.T) {
	c := New()
	tok := c.Token()
	require.Len(t, tok, 6)
	for _, r := range tok {
		assert.Contains(t, alphabet, string(r))
	}
}

func TestCheck_CaseInsensitive(t *testing.T) {
	c := New()
	tok := c.Token()
	assert.True(t, c.Check(strings.ToLower(tok)))
	assert.True(t, c.Check(strings.ToUpper(tok)))
}

func TestCheck_SingleCharacterMutationFails(t *testing.T) {
	c := New()
	tok := []byte(c.Token())
	for i := range tok {
		mutated := make([]byte, len(tok))
		copy(mutated, tok)
		if mutated[i] == 'X' {
			mutated[i] = 'Y'
		} else {
			mutated[i] = 'X'
		}
		assert.False(t, c.Check(string(mutated)), "mutation at index %d should fail", i)
	}
}

func TestCheck_LengthMismatchFails(t *testing.T) {
	c := New()
	tok := c.Token()
	assert.False(t, c.Check(tok[:5]))
	assert.False(t, c.Check(tok+"A"))
	assert.False(t, c.Check(""))
}

func TestGenerate_InvalidatesOldToken(t *testing.T) {
	c := New()
	old := c.Token()
	// Regenerate until the token differs; the space is large enough that one
	// retry is overwhelmingly sufficient, but loop to avoid flakes.
	fresh := c.Generate()
	for fresh == old {
		fresh = c.Generate()
	}
	assert.False(t, c.Check(old))
	assert.True(t, c.Check(fresh))
}
