package razerdiag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDeviceAllowlist(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "   ", want: nil},
		{name: "commas", raw: "PM1,PM2,PM3", want: []string{"PM1", "PM2", "PM3"}},
		{name: "mixed separators", raw: "PM1; PM2|PM3\nPM4", want: []string{"PM1", "PM2", "PM3", "PM4"}},
		{name: "dedup keeps first", raw: "PM1,PM2,PM1", want: []string{"PM1", "PM2"}},
		{name: "blanks dropped", raw: ",, PM1 ,", want: []string{"PM1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseDeviceAllowlist(tc.raw))
		})
	}
}

func TestBuildDeviceAllowlistSet(t *testing.T) {
	assert.Nil(t, BuildDeviceAllowlistSet(nil))
	assert.Nil(t, BuildDeviceAllowlistSet([]string{" ", ""}))

	set := BuildDeviceAllowlistSet([]string{"PM1", "PM2", "PM1"})
	assert.Len(t, set, 2)
	_, ok := set["PM1"]
	assert.True(t, ok)
}
