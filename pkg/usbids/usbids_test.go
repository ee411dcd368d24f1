package usbids

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	p, ok := Lookup("0203")
	require.True(t, ok)
	assert.Equal(t, "Razer BlackWidow Chroma", p.Name)
	assert.Equal(t, "keyboard", p.Class)

	_, ok = Lookup("ffff")
	assert.False(t, ok)

	// IDs are matched case-insensitively and trimmed.
	p, ok = Lookup("  024E ")
	require.True(t, ok)
	assert.Equal(t, "Razer BlackWidow V3", p.Name)
}

func TestFromLsusbLine(t *testing.T) {
	line := "Bus 001 Device 004: ID 1532:0203 Razer USA, Ltd BlackWidow Chroma"
	p, ok := FromLsusbLine(line)
	require.True(t, ok)
	assert.Equal(t, "Razer BlackWidow Chroma", p.Name)

	// Non-Razer vendors never match, even with a known product id.
	_, ok = FromLsusbLine("Bus 001 Device 002: ID 8087:0203 Intel Corp.")
	assert.False(t, ok)

	_, ok = FromLsusbLine("garbage line")
	assert.False(t, ok)
}

func TestFromVidPid(t *testing.T) {
	p, ok := FromVidPid("1532:024e")
	require.True(t, ok)
	assert.Equal(t, "Razer BlackWidow V3", p.Name)

	_, ok = FromVidPid("046d:c52b")
	assert.False(t, ok)
}

func TestKnownNotEmpty(t *testing.T) {
	known := Known()
	require.NotEmpty(t, known)
	for _, p := range known {
		assert.NotEmpty(t, p.ID)
		assert.NotEmpty(t, p.Name)
		assert.NotEmpty(t, p.Class)
	}
}
