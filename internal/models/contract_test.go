package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContract_SetPrice(t *testing.T) {
	c := &Contract{}
	c.SetPrice(8000)

	assert.Equal(t, 8000.0, c.Price)
	assert.InDelta(t, 800.0, c.Commission, 0.001)
	assert.InDelta(t, 8800.0, c.TotalPrice, 0.001)
}

func TestContract_PairingCodeValid(t *testing.T) {
	now := time.Now()
	c := &Contract{
		PairingCode:      "482913",
		PairingExpiresAt: now.Add(PairingCodeTTL),
	}

	assert.True(t, c.PairingCodeValid("482913", now))
	assert.False(t, c.PairingCodeValid("000000", now))
	assert.False(t, c.PairingCodeValid("482913", now.Add(PairingCodeTTL+time.Minute)))
}

func TestContract_PairingCodeValid_EmptyCode(t *testing.T) {
	c := &Contract{PairingExpiresAt: time.Now().Add(time.Hour)}

	assert.False(t, c.PairingCodeValid("", time.Now()))
}
