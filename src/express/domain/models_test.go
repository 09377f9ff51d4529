package domain

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrencyMinorUnitsRoundTrip(t *testing.T) {
	values := []string{"0", "1", "0.5", "123.456", "0.000000000000000001", "98765432109876543210.123456789"}

	for decimals := 0; decimals <= 18; decimals++ {
		c := Currency{Blockchain: "ethereum", Decimals: decimals, Symbol: "TST"}
		for _, raw := range values {
			value, err := decimal.NewFromString(raw)
			require.NoError(t, err)
			// only values representable within the currency's precision
			if value.Exponent() < -int32(decimals) {
				continue
			}

			t.Run(fmt.Sprintf("decimals=%d/value=%s", decimals, raw), func(t *testing.T) {
				minor := c.ConvertToMinorUnits(value)
				back := c.ConvertFromMinorUnits(minor)
				assert.True(t, back.Equal(value), "round trip %s -> %s -> %s", value, minor, back)
			})
		}
	}
}

func TestCurrencyMinorUnitsScaling(t *testing.T) {
	usdt := Currency{Blockchain: "ethereum", ContractAddress: "0xusdt", Decimals: 6, Symbol: "USDT"}

	minor := usdt.ConvertToMinorUnits(decimal.RequireFromString("1.5"))
	assert.True(t, minor.Equal(decimal.RequireFromString("1500000")))

	major := usdt.ConvertFromMinorUnits(decimal.RequireFromString("2500000"))
	assert.True(t, major.Equal(decimal.RequireFromString("2.5")))
}

func TestCurrencyIdentity(t *testing.T) {
	a := Currency{Blockchain: "ethereum", ContractAddress: "0xusdt", Decimals: 6, Symbol: "USDT"}
	// metadata differs, identity does not
	b := Currency{Blockchain: "ethereum", ContractAddress: "0xusdt", Decimals: 18, Symbol: "usdt-bridged"}
	c := Currency{Blockchain: "polygon", ContractAddress: "0xusdt", Decimals: 6, Symbol: "USDT"}

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())
	assert.False(t, a.Equal(c))
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestCurrencyIsToken(t *testing.T) {
	assert.False(t, Currency{Blockchain: "ethereum", Decimals: 18, Symbol: "ETH"}.IsToken())
	assert.True(t, Currency{Blockchain: "ethereum", ContractAddress: "0xusdt", Decimals: 6}.IsToken())
}

func TestQuoteRate(t *testing.T) {
	eth := Currency{Blockchain: "ethereum", Decimals: 18, Symbol: "ETH"}
	usdt := Currency{Blockchain: "ethereum", ContractAddress: "0xusdt", Decimals: 6, Symbol: "USDT"}

	quote := Quote{
		FromAmount: eth.ConvertToMinorUnits(decimal.RequireFromString("2")),
		ToAmount:   usdt.ConvertToMinorUnits(decimal.RequireFromString("6400")),
	}

	rate := quote.Rate(eth, usdt)
	assert.True(t, rate.Equal(decimal.RequireFromString("3200")))

	empty := Quote{}
	assert.True(t, empty.Rate(eth, usdt).IsZero())
}
