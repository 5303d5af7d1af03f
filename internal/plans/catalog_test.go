package plans

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	p, ok := Lookup(StrengthTraining)
	require.True(t, ok)
	assert.Equal(t, 800, p.Price)
	assert.False(t, p.Popular)

	p, ok = Lookup(StrengthCardio)
	require.True(t, ok)
	assert.Equal(t, 1000, p.Price)
	assert.True(t, p.Popular)
	assert.Contains(t, p.Features, "Cardio equipment access")

	_, ok = Lookup("Yoga")
	assert.False(t, ok)
}

func TestAll_ReturnsCopy(t *testing.T) {
	plans := All()
	require.Len(t, plans, 2)

	plans[0].Price = 1
	plans[0].Features[0] = "changed"

	p, _ := Lookup(StrengthTraining)
	assert.Equal(t, 800, p.Price)
	assert.Equal(t, "Access to weight training area", p.Features[0])
}
