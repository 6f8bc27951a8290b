package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeE164(t *testing.T) {
	n := NewNormalizer("us")

	got, err := n.NormalizeE164("(201) 555-0123")
	require.NoError(t, err)
	assert.Equal(t, "+12015550123", got)

	got, err = n.NormalizeE164(" +1 201-555-0123 ")
	require.NoError(t, err)
	assert.Equal(t, "+12015550123", got)
}

func TestNormalizeE164RejectsGarbage(t *testing.T) {
	n := NewNormalizer("")

	for _, input := range []string{"", "   ", "not a number", "123"} {
		_, err := n.NormalizeE164(input)
		assert.ErrorIs(t, err, ErrInvalidNumber, "input %q", input)
	}
}
