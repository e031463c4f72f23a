package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIsMoney(t *testing.T) {
	cases := map[string]bool{
		"100":     true,
		"100.5":   true,
		"99.99":   true,
		"100.000": true,
		"99.995":  false,
		"99.999":  false,
		"0.001":   false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsMoney(decimal.RequireFromString(in)), in)
	}
}
