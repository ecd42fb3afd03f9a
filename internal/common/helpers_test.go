package common

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("5.00", FormatMoney(decimal.RequireFromString("5")))
	assert.Equal("4.50", FormatMoney(decimal.RequireFromString("4.5")))
	assert.Equal("+1.25", FormatSignedMoney(decimal.RequireFromString("1.25")))
	assert.Equal("-0.10", FormatSignedMoney(decimal.RequireFromString("-0.1")))
}

func TestIsMoney(t *testing.T) {
	assert := assert.New(t)

	assert.True(IsMoney(decimal.RequireFromString("4.99")))
	assert.True(IsMoney(decimal.RequireFromString("10")))
	assert.False(IsMoney(decimal.RequireFromString("0.001")))
}
