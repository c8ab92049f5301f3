package dice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource replays a fixed sequence of die values.
type scriptedSource struct {
	values []int
	pos    int
}

func (s *scriptedSource) IntN(n int) int {
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v - 1
}

func script(values ...int) *scriptedSource {
	return &scriptedSource{values: values}
}

func TestParse(t *testing.T) {
	tests := []struct {
		expr         string
		count, faces int
		modifier     int
		wantErr      bool
	}{
		{expr: "2d6+3", count: 2, faces: 6, modifier: 3},
		{expr: "1d20-1", count: 1, faces: 20, modifier: -1},
		{expr: "d8", count: 1, faces: 8, modifier: 0},
		{expr: "1D20 + 5", count: 1, faces: 20, modifier: 5},
		{expr: "2d6+1d4", wantErr: true},
		{expr: "banana", wantErr: true},
		{expr: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			count, faces, modifier, err := Parse(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.count, count)
			assert.Equal(t, tt.faces, faces)
			assert.Equal(t, tt.modifier, modifier)
		})
	}
}

func TestRollInvalidFaces(t *testing.T) {
	_, err := NewRoller(script(1)).Roll("1d7", Normal)
	assert.ErrorContains(t, err, "invalid die")
}

func TestRollTotals(t *testing.T) {
	r := NewRoller(script(4, 5))
	res, err := r.Roll("2d6+3", Normal)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, res.Rolls)
	assert.Equal(t, 12, res.Total)
	assert.Equal(t, 3, res.Modifier)
	assert.False(t, res.IsD20)
	assert.False(t, res.Critical)
	assert.False(t, res.Fumble)
}

func TestD20CritAndFumbleMarkers(t *testing.T) {
	res, err := NewRoller(script(20)).Roll("1d20+5", Normal)
	require.NoError(t, err)
	assert.True(t, res.Critical)
	assert.False(t, res.Fumble)
	assert.Equal(t, 25, res.Total)

	res, err = NewRoller(script(1)).Roll("1d20", Normal)
	require.NoError(t, err)
	assert.True(t, res.Fumble)
	assert.False(t, res.Critical)
}

func TestNonD20NeverFlagsCrit(t *testing.T) {
	// A maximum roll on any other die is not a critical.
	res, err := NewRoller(script(6, 6)).Roll("2d6", Normal)
	require.NoError(t, err)
	assert.False(t, res.Critical)
	assert.False(t, res.Fumble)

	// Two d20s summed are not a single-d20 roll either.
	res, err = NewRoller(script(20, 20)).Roll("2d20", Normal)
	require.NoError(t, err)
	assert.False(t, res.IsD20)
	assert.False(t, res.Critical)
}

func TestAdvantageKeepsHigher(t *testing.T) {
	res, err := NewRoller(script(8, 15)).Roll("1d20+2", Advantage)
	require.NoError(t, err)
	assert.Equal(t, []int{15}, res.Rolls)
	assert.Equal(t, []int{8}, res.Discarded)
	assert.Equal(t, 17, res.Total)
	assert.Equal(t, Advantage, res.Mode)
}

func TestDisadvantageKeepsLower(t *testing.T) {
	res, err := NewRoller(script(8, 15)).Roll("1d20", Disadvantage)
	require.NoError(t, err)
	assert.Equal(t, []int{8}, res.Rolls)
	assert.Equal(t, []int{15}, res.Discarded)
	assert.Equal(t, Disadvantage, res.Mode)
}

func TestModeIgnoredForNonD20(t *testing.T) {
	res, err := NewRoller(script(3, 4)).Roll("2d6", Advantage)
	require.NoError(t, err)
	assert.Equal(t, Normal, res.Mode)
	assert.Empty(t, res.Discarded)
	assert.Equal(t, 7, res.Total)
}

func TestResolve(t *testing.T) {
	assert.Equal(t, Normal, Resolve(true, true))
	assert.Equal(t, Advantage, Resolve(true, false))
	assert.Equal(t, Disadvantage, Resolve(false, true))
	assert.Equal(t, Normal, Resolve(false, false))
}

func TestSeededSourceReproducible(t *testing.T) {
	a := NewSeededSource()
	b := NewSeededSource()
	a.SetSeed(42)
	b.SetSeed(42)

	ra := NewRoller(a)
	rb := NewRoller(b)
	for i := 0; i < 20; i++ {
		va, err := ra.Roll("1d20+2", Normal)
		require.NoError(t, err)
		vb, err := rb.Roll("1d20+2", Normal)
		require.NoError(t, err)
		assert.Equal(t, va.Total, vb.Total)
	}

	seed, ok := a.Seed()
	assert.True(t, ok)
	assert.Equal(t, int64(42), seed)

	a.Reset()
	_, ok = a.Seed()
	assert.False(t, ok)
}

func TestResultString(t *testing.T) {
	res := Result{Rolls: []int{4, 5}, Modifier: 3, Total: 12}
	assert.Equal(t, "[4+5]+3 = 12", res.String())

	res = Result{Rolls: []int{15}, Modifier: -1, Total: 14, Discarded: []int{8}}
	assert.Equal(t, "[15]-1 = 14 (discarded: 8)", res.String())
}
