package size

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/songlex/pkg/songlex/internalerr"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		min, max float64
		unit     string
		wingspan bool
	}{
		{"13 cm", 13, 13, "cm", false},
		{"28–33 cm (11–13 in)", 28, 33, "cm", false},
		{"11–13 in (28–33 cm)", 28, 33, "cm", false},
		{`L 7½"`, 19.05, 19.05, "in", false},
		{"5 1/2 in.", 13.97, 13.97, "in", false},
		{"L 20 cm, WS 35 cm", 20, 20, "cm", false},
		{"WS 90 cm", 90, 90, "cm", true},
		{"120 mm", 12, 12, "mm", false},
		{"1.2 m", 120, 120, "m", false},
		{"13,5 cm", 13.5, 13.5, "cm", false},
		{"1,200 mm", 120, 120, "mm", false},
		{"WS 35 cm", 35, 35, "cm", true},
		{"6 to 7 inches", 15.24, 17.78, "in", false},
		{"Length: 9 in", 22.86, 22.86, "in", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.min, got.MinCM, 0.01)
			assert.InDelta(t, tt.max, got.MaxCM, 0.01)
			assert.Equal(t, tt.unit, got.Unit)
			assert.Equal(t, tt.wingspan, got.Wingspan)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"", ErrEmpty},
		{"   ", ErrEmpty},
		{"large", ErrNoNumber},
		{"20", ErrNoUnit},
		{"500 cm", ErrImplausible},
		{"1 mm", ErrImplausible},
	}
	for _, tt := range tests {
		_, err := Parse(tt.in)
		require.Error(t, err, tt.in)
		assert.True(t, errors.Is(err, tt.want), "%q: %v", tt.in, err)
		assert.True(t, errors.Is(err, internalerr.ErrInvalidInput), "%q: %v", tt.in, err)
	}
}

func TestParseImplausibleHelper(t *testing.T) {
	_, err := Parse("900 in")
	assert.True(t, IsImplausible(err))

	_, err = Parse("no size")
	assert.False(t, IsImplausible(err))
}

func TestDefaultUnit(t *testing.T) {
	n := Normalizer{DefaultUnit: "in"}
	got, err := n.Parse("7")
	require.NoError(t, err)
	assert.InDelta(t, 17.78, got.MinCM, 0.01)
	assert.Equal(t, "in", got.Unit)
}

func TestLetterUnitMustEndWord(t *testing.T) {
	_, err := Parse("2 males")
	assert.ErrorIs(t, err, ErrNoUnit)
}

func TestParsedSizesArePlausible(t *testing.T) {
	n := Normalizer{MinCM: 5, MaxCM: 100}
	for _, in := range []string{"4 cm", "101 cm", "3 ft 6 in"} {
		got, err := n.Parse(in)
		if err != nil {
			continue
		}
		assert.Greater(t, got.MinCM, 0.0)
		assert.GreaterOrEqual(t, got.MinCM, 5.0)
		assert.LessOrEqual(t, got.MaxCM, 100.0)
	}
}

func TestMid(t *testing.T) {
	assert.Equal(t, 30.5, Length{MinCM: 28, MaxCM: 33}.Mid())
}
