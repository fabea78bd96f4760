package allowed

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func set(ids ...int) map[int]struct{} {
	out := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func Test_Combine_OneSideUnrestricted(t *testing.T) {
	a := All()
	b := Set{Allowed: set(1, 2)}

	got := Combine(a, b)
	assert.Equal(t, b.Allowed, got.Allowed)
	assert.Empty(t, got.Banned)
}

func Test_Combine_BothPositive_Unions(t *testing.T) {
	a := Set{Allowed: set(1, 2)}
	b := Set{Allowed: set(2, 3)}

	got := Combine(a, b)
	assert.Equal(t, set(1, 2, 3), got.Allowed)
}

func Test_Combine_BothNegative_Intersects(t *testing.T) {
	a := Set{Banned: set(1, 2, 3)}
	b := Set{Banned: set(2, 3, 4)}

	got := Combine(a, b)
	assert.Equal(t, set(2, 3), got.Banned)
}

func Test_Combine_Mixed_BannedMinusAllowed(t *testing.T) {
	a := Set{Allowed: set(1, 2)}
	b := Set{Banned: set(2, 3)}

	got := Combine(a, b)
	assert.Equal(t, set(3), got.Banned)

	// symmetric case should produce the same result regardless of argument order
	got2 := Combine(b, a)
	assert.Equal(t, set(3), got2.Banned)
}

func Test_Combine_ORsLookAheadAndEOS(t *testing.T) {
	a := Set{LookAhead: true}
	b := Set{AllowEOS: true}

	got := Combine(a, b)
	assert.True(t, got.LookAhead)
	assert.True(t, got.AllowEOS)
}

func Test_Apply_AllowedListBansEverythingElse(t *testing.T) {
	scores := []float64{1, 1, 1, 1}
	s := Set{Allowed: set(1)}
	s.Apply(scores, 0)

	assert.Equal(t, 1.0, scores[1])
	assert.True(t, math.IsInf(scores[2], -1))
	assert.True(t, math.IsInf(scores[0], -1), "eos is banned by the second pass unless AllowEOS is set")
}

func Test_Apply_AllowedListKeepsEOSWhenAllowEOSSet(t *testing.T) {
	scores := []float64{1, 1, 1, 1}
	s := Set{Allowed: set(1), AllowEOS: true}
	s.Apply(scores, 0)

	assert.Equal(t, 1.0, scores[1])
	assert.Equal(t, 1.0, scores[0])
}

func Test_Apply_BannedListBansOnlyThose(t *testing.T) {
	scores := []float64{1, 1, 1, 1}
	s := Set{Banned: set(2), AllowEOS: true}
	s.Apply(scores, 0)

	assert.True(t, math.IsInf(scores[2], -1))
	assert.Equal(t, 1.0, scores[1])
	assert.Equal(t, 1.0, scores[0])
}

func Test_Apply_EOSBannedWhenNotAllowed(t *testing.T) {
	scores := []float64{1, 1}
	s := Set{}
	s.Apply(scores, 0)

	assert.True(t, math.IsInf(scores[0], -1))
}

func Test_WithLookAhead_DoesNotMutateOriginal(t *testing.T) {
	base := Set{Allowed: set(1)}
	ahead := base.WithLookAhead()

	assert.False(t, base.LookAhead)
	assert.True(t, ahead.LookAhead)
}
