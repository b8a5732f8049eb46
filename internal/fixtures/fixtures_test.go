package fixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCases_Consistent(t *testing.T) {
	cases := Cases()
	require.NotEmpty(t, cases)

	names := make(map[string]struct{})
	var invoices, others int
	for _, c := range cases {
		assert.NotEmpty(t, c.Sample.Name)
		assert.NotEmpty(t, c.Sample.Subject)
		assert.NotEmpty(t, c.Sample.From)
		assert.NotEmpty(t, c.Sample.Keywords)
		assert.LessOrEqual(t, c.Expect.MinConfidence, c.Expect.MaxConfidence)

		_, dup := names[c.Sample.Name]
		assert.False(t, dup, "duplicate fixture %s", c.Sample.Name)
		names[c.Sample.Name] = struct{}{}

		if c.Expect.Invoice {
			invoices++
			assert.GreaterOrEqual(t, c.Expect.MinConfidence, 0.5)
		} else {
			others++
			assert.LessOrEqual(t, c.Expect.MaxConfidence, 0.5)
		}
	}

	assert.Positive(t, invoices)
	assert.Positive(t, others)
}

func TestCases_ReturnsCopies(t *testing.T) {
	first := Cases()
	first[0].Sample.Subject = "mutated"
	first[0].Sample.Keywords[0] = "mutated"

	second := Cases()
	assert.NotEqual(t, "mutated", second[0].Sample.Subject)
	assert.NotEqual(t, "mutated", second[0].Sample.Keywords[0])
}

func TestFind(t *testing.T) {
	c, ok := Find("lunch-invite")
	require.True(t, ok)
	assert.False(t, c.Expect.Invoice)

	_, ok = Find("does-not-exist")
	assert.False(t, ok)
}
