package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTradeKind(t *testing.T) {
	cases := map[string]TradeKind{
		"buy":   TradeKindBuy,
		"SELL":  TradeKindSell,
		" Swap": TradeKindSwap,
	}
	for in, want := range cases {
		got, err := ParseTradeKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseTradeKind("transfer")
	assert.Error(t, err)
}

func TestTradeKind_TextRoundTrip(t *testing.T) {
	var k TradeKind
	require.NoError(t, k.UnmarshalText([]byte("sell")))
	assert.Equal(t, TradeKindSell, k)

	text, err := k.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "sell", string(text))

	_, err = TradeKind(0).MarshalText()
	assert.Error(t, err)
	assert.False(t, TradeKind(0).Valid())
}

func TestOptionalUSD(t *testing.T) {
	missing := NoUSD()
	assert.False(t, missing.IsSet())
	assert.Equal(t, 0.0, missing.OrZero())
	assert.Nil(t, missing.Ptr())

	v := 12.5
	present := USDFromPtr(&v)
	assert.True(t, present.IsSet())
	assert.Equal(t, 12.5, present.OrZero())
	require.NotNil(t, present.Ptr())
	assert.Equal(t, 12.5, *present.Ptr())

	// A present zero is not the same as absent.
	zero := USD(0)
	assert.True(t, zero.IsSet())
	assert.NotEqual(t, missing, zero)
}

func TestTradeRecord_HasMissingValuation(t *testing.T) {
	tr := TradeRecord{InputValueUSD: USD(1), OutputValueUSD: USD(2)}
	assert.False(t, tr.HasMissingValuation())

	tr.OutputValueUSD = NoUSD()
	assert.True(t, tr.HasMissingValuation())
}

func TestDefaultBaseAssets(t *testing.T) {
	base := DefaultBaseAssets()
	assert.True(t, base.Contains(MintWSOL))
	assert.True(t, base.Contains(AssetSOL))
	assert.True(t, base.Contains(MintUSDC))
	assert.False(t, base.Contains("BONK"))
	assert.False(t, NewAssetSet("", "X").Contains(""))
}
