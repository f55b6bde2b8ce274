package money_test

import (
	"testing"

	"github.com/linemk/tkani-shop/internal/lib/money"
	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 10.01, money.Round2(10.005))
	assert.Equal(t, 0.3, money.Round2(0.1+0.2))
	assert.Equal(t, 100.0, money.Round2(100))
}

func TestLineTotal(t *testing.T) {
	// 3 * 33.33 без двоичной погрешности
	assert.Equal(t, 99.99, money.LineTotal(33.33, 3))
	assert.Equal(t, 0.0, money.LineTotal(10.50, 0))
	assert.Equal(t, 301.10, money.LineTotal(150.55, 2))
}
