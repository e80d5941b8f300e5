package block

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labeldb/labeldb/record"
)

func mkRecord(name string, labels map[string]string, vars map[string]float64, ts time.Time) record.Record {
	return record.New(name, labels, vars, ts)
}

func TestInsertGroupsByIdentityKey(t *testing.T) {
	b := New()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	r1 := mkRecord("cpu", map[string]string{"host": "h0"}, map[string]float64{"u": 1.0}, ts)
	r2 := mkRecord("cpu", map[string]string{"host": "h0"}, map[string]float64{"u": 2.0}, ts.Add(time.Minute))
	r3 := mkRecord("cpu", map[string]string{"host": "h1"}, map[string]float64{"u": 3.0}, ts.Add(2*time.Minute))

	b.Insert(r1)
	b.Insert(r2)
	b.Insert(r3)

	require.Equal(t, 2, b.SeriesCount())
	s0 := b.Series(0)
	assert.Equal(t, 2, s0.Len())
	s1 := b.Series(1)
	assert.Equal(t, 1, s1.Len())
}

func TestSearchIndexLabelToken(t *testing.T) {
	b := New()
	ts := time.Now()
	b.Insert(mkRecord("cpu", map[string]string{"host": "h0"}, map[string]float64{"u": 1.0}, ts))
	b.Insert(mkRecord("cpu", map[string]string{"host": "h1"}, map[string]float64{"u": 1.0}, ts))

	rb := b.SearchIndex("host=h0")
	require.NotNil(t, rb)
	assert.True(t, rb.Contains(0))
	assert.False(t, rb.Contains(1))

	assert.Nil(t, b.SearchIndex("host=missing"))
}

func TestSearchIndexMetricToken(t *testing.T) {
	b := New()
	ts := time.Now()
	b.Insert(mkRecord("cpu", map[string]string{"host": "h0"}, map[string]float64{"usage": 1.0}, ts))
	rb := b.SearchIndex("usage")
	require.NotNil(t, rb)
	assert.True(t, rb.Contains(0))
}

func TestStartEndBounds(t *testing.T) {
	b := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b.Insert(mkRecord("cpu", map[string]string{"host": "h0"}, map[string]float64{"u": 1}, base.Add(5*time.Minute)))
	b.Insert(mkRecord("cpu", map[string]string{"host": "h0"}, map[string]float64{"u": 2}, base))
	b.Insert(mkRecord("cpu", map[string]string{"host": "h0"}, map[string]float64{"u": 3}, base.Add(10*time.Minute)))

	assert.Equal(t, base.UnixMilli(), b.StartMs())
	assert.Equal(t, base.Add(10*time.Minute).UnixMilli(), b.EndMs())
}

func TestFreezeBlocksInsert(t *testing.T) {
	b := New()
	b.Freeze()
	assert.True(t, b.Frozen())
	assert.Panics(t, func() {
		b.Insert(mkRecord("cpu", nil, map[string]float64{"u": 1}, time.Now()))
	})
}

func TestResetClearsState(t *testing.T) {
	b := New()
	b.Insert(mkRecord("cpu", map[string]string{"host": "h0"}, map[string]float64{"u": 1}, time.Now()))
	b.Freeze()
	b.Reset()

	assert.False(t, b.Frozen())
	assert.Equal(t, 0, b.SeriesCount())
	assert.Equal(t, int64(0), b.StartMs())
	assert.Nil(t, b.SearchIndex("host=h0"))
}

func TestTokensSortedAscending(t *testing.T) {
	b := New()
	ts := time.Now()
	b.Insert(mkRecord("cpu", map[string]string{"zeta": "1", "alpha": "2"}, map[string]float64{"mid": 1}, ts))

	tokens := b.Tokens()
	for i := 1; i < len(tokens); i++ {
		assert.LessOrEqual(t, tokens[i-1], tokens[i])
	}
	assert.Contains(t, tokens, "alpha=2")
	assert.Contains(t, tokens, "zeta=1")
	assert.Contains(t, tokens, "mid")
}

func TestReinsertDoesNotReindexLabels(t *testing.T) {
	// Policy per spec.md §4.3: on insert of a pre-existing series, labels
	// and variable list are not re-indexed (they are invariant by
	// construction). Re-inserting with the same labels is a no-op on the
	// index beyond the already-present posting.
	b := New()
	ts := time.Now()
	r := mkRecord("cpu", map[string]string{"host": "h0"}, map[string]float64{"u": 1}, ts)
	b.Insert(r)
	b.Insert(r)

	rb := b.SearchIndex("host=h0")
	require.NotNil(t, rb)
	assert.Equal(t, uint64(1), rb.GetCardinality())
}
