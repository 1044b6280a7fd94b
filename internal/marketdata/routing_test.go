package marketdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarketRoutingGlobalTickers(t *testing.T) {
	r := NewMarketRouting([]string{"TTWO", " fdev ", ""})

	assert.True(t, r.IsGlobal("TTWO"))
	assert.True(t, r.IsGlobal("ttwo"), "routing must be case-insensitive")
	assert.True(t, r.IsGlobal("FDEV"), "entries must be trimmed")
	assert.False(t, r.IsGlobal("LUG"))
	assert.False(t, r.IsGlobal(""))
}

func TestMarketRoutingNilDefaultsNordic(t *testing.T) {
	var r *MarketRouting
	assert.False(t, r.IsGlobal("TTWO"))
}
