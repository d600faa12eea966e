package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		total     int
		policy    Policy
		want      int
		pages     int
		err       error
	}{
		{"first page", 1, 7, Clamp, 1, 3, nil},
		{"last partial page", 3, 7, Clamp, 3, 3, nil},
		{"zero is first", 0, 7, Clamp, 1, 3, nil},
		{"negative is first", -4, 7, Strict, 1, 3, nil},
		{"past end clamps", 99, 7, Clamp, 3, 3, nil},
		{"past end strict", 4, 7, Strict, 0, 0, ErrOutOfRange},
		{"empty set", 5, 0, Clamp, 1, 1, nil},
		{"empty set strict first page", 1, 0, Strict, 1, 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := Resolve(tt.requested, 3, tt.total, tt.policy)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, page.Number)
			assert.Equal(t, tt.pages, page.TotalPages)
			assert.Equal(t, (tt.want-1)*3, page.Offset())
		})
	}
}

func TestPageNavigation(t *testing.T) {
	page, err := Resolve(2, 3, 7, Clamp)
	require.NoError(t, err)
	assert.True(t, page.HasPrevious())
	assert.True(t, page.HasNext())

	page, err = Resolve(3, 3, 7, Clamp)
	require.NoError(t, err)
	assert.False(t, page.HasNext())
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, 4, ParseNumber("4"))
	assert.Equal(t, 2, ParseNumber(" 2 "))
	assert.Equal(t, 1, ParseNumber(""))
	assert.Equal(t, 1, ParseNumber("last"))
	assert.Equal(t, -1, ParseNumber("-1"))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, Clamp, p)

	p, err = ParsePolicy(" Error ")
	require.NoError(t, err)
	assert.Equal(t, Strict, p)

	_, err = ParsePolicy("wrap")
	assert.Error(t, err)
}
