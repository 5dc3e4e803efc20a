package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFitsScale(t *testing.T) {
	assert.True(t, FitsScale())
	assert.True(t, FitsScale(decimal.RequireFromString("12.3400"), decimal.RequireFromString("0.0001")))
	assert.False(t, FitsScale(decimal.NewFromInt(1), decimal.RequireFromString("0.00001")))
	assert.True(t, FitsScale(decimal.RequireFromString("-3.1000")))
}
