package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIdentityKey(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r1 := New("cpu", map[string]string{"host": "h0", "region": "us-west"}, map[string]float64{"u": 1.0}, ts)
	r2 := New("cpu", map[string]string{"region": "us-west", "host": "h0"}, map[string]float64{"u": 99.0}, ts.Add(time.Minute))

	assert.Equal(t, IdentityKey(r1), IdentityKey(r2), "label map order and metric values must not affect identity")
}

func TestIdentityKeyDiffersByName(t *testing.T) {
	ts := time.Now()
	r1 := New("cpu", map[string]string{"host": "h0"}, map[string]float64{"u": 1.0}, ts)
	r2 := New("mem", map[string]string{"host": "h0"}, map[string]float64{"u": 1.0}, ts)
	assert.NotEqual(t, IdentityKey(r1), IdentityKey(r2))
}

func TestIdentityKeyDiffersByVariableSet(t *testing.T) {
	ts := time.Now()
	r1 := New("cpu", map[string]string{"host": "h0"}, map[string]float64{"u": 1.0}, ts)
	r2 := New("cpu", map[string]string{"host": "h0"}, map[string]float64{"v": 1.0}, ts)
	assert.NotEqual(t, IdentityKey(r1), IdentityKey(r2))
}

func TestEqual(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r1 := New("cpu", map[string]string{"host": "h0"}, map[string]float64{"u": 1.0}, ts)
	r2 := New("cpu", map[string]string{"host": "h0"}, map[string]float64{"u": 1.0}, ts)
	r3 := New("cpu", map[string]string{"host": "h0"}, map[string]float64{"u": 2.0}, ts)

	assert.True(t, Equal(r1, r2))
	assert.False(t, Equal(r1, r3))
}

func TestVariableNamesSorted(t *testing.T) {
	r := New("cpu", nil, map[string]float64{"z": 1, "a": 2, "m": 3}, time.Now())
	assert.Equal(t, []string{"a", "m", "z"}, VariableNames(r))
}

func TestLabelTokens(t *testing.T) {
	r := New("cpu", map[string]string{"host": "h0", "region": "us-west"}, nil, time.Now())
	tokens := LabelTokens(r)
	assert.ElementsMatch(t, []string{"host=h0", "region=us-west"}, tokens)
}
