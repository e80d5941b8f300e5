package predicate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labeldb/labeldb/block"
	"github.com/labeldb/labeldb/engineerr"
	"github.com/labeldb/labeldb/record"
)

// TestScenarioA grounds seed scenario A: single record, label lookup.
func TestScenarioA(t *testing.T) {
	b := block.New()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b.Insert(record.New("cpu", map[string]string{"host": "h0", "region": "us-west"}, map[string]float64{"u": 1.0}, ts))

	cond := Leaf{LHS: LabelKeyAtom("host"), Op: Eq, RHS: LabelValueAtom("h0")}
	rs, err := Eval(cond, b)
	require.NoError(t, err)

	data := rs.Unpack(b).Data()
	require.Len(t, data, 1)
	assert.True(t, data[0].Timestamp.Equal(ts))
}

// TestScenarioB grounds seed scenario B: metric filter Gt.
func TestScenarioB(t *testing.T) {
	b := block.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	labels := map[string]string{"host": "h0", "region": "us-west"}

	b.Insert(record.New("cpu", labels, map[string]float64{"u": 1.0}, base))
	b.Insert(record.New("cpu", labels, map[string]float64{"u": 2.0}, base.Add(time.Minute)))
	b.Insert(record.New("cpu", labels, map[string]float64{"u": 3.0}, base.Add(2*time.Minute)))

	cond := Leaf{LHS: VariableAtom("u"), Op: Gt, RHS: MetricAtom(1.5)}
	rs, err := Eval(cond, b)
	require.NoError(t, err)

	data := rs.Unpack(b).Data()
	require.Len(t, data, 2)
	assert.Equal(t, 2.0, data[0].Variables["u"])
	assert.Equal(t, 3.0, data[1].Variables["u"])
}

// TestScenarioD grounds seed scenario D: And(host=h0, Or(env=prod, env=dev)).
func TestScenarioD(t *testing.T) {
	b := block.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	b.Insert(record.New("cpu", map[string]string{"host": "h0", "env": "prod"}, map[string]float64{"u": 1.0}, base))
	b.Insert(record.New("cpu", map[string]string{"host": "h0", "env": "dev"}, map[string]float64{"u": 2.0}, base.Add(time.Minute)))
	b.Insert(record.New("cpu", map[string]string{"host": "h1", "env": "prod"}, map[string]float64{"u": 3.0}, base.Add(2*time.Minute)))

	cond := And{
		Left: Leaf{LHS: LabelKeyAtom("host"), Op: Eq, RHS: LabelValueAtom("h0")},
		Right: Or{
			Left:  Leaf{LHS: LabelKeyAtom("env"), Op: Eq, RHS: LabelValueAtom("prod")},
			Right: Leaf{LHS: LabelKeyAtom("env"), Op: Eq, RHS: LabelValueAtom("dev")},
		},
	}

	rs, err := Eval(cond, b)
	require.NoError(t, err)

	data := rs.Unpack(b).Data()
	require.Len(t, data, 2)
	assert.Equal(t, 1.0, data[0].Variables["u"])
	assert.Equal(t, 2.0, data[1].Variables["u"])
}

func TestEvalMalformedLeafReportsError(t *testing.T) {
	b := block.New()

	cond := Leaf{LHS: LabelValueAtom("h0"), Op: Eq, RHS: LabelKeyAtom("host")}
	rs, err := Eval(cond, b)

	assert.ErrorIs(t, err, engineerr.ErrMalformedQuery)
	assert.Empty(t, rs.Unpack(b).Data())
}

func TestEvalMalformedLeafPropagatesThroughAnd(t *testing.T) {
	b := block.New()

	bad := Leaf{LHS: MetricAtom(1), Op: Eq, RHS: VariableAtom("u")}
	good := Leaf{LHS: LabelKeyAtom("host"), Op: Eq, RHS: LabelValueAtom("h0")}

	_, err := Eval(And{Left: bad, Right: good}, b)
	assert.ErrorIs(t, err, engineerr.ErrMalformedQuery)
}

// TestDNFSemanticEquivalence grounds testable property 4: eval(p) ==
// eval(dnf(p)) for every p, over the scenario D database.
func TestDNFSemanticEquivalence(t *testing.T) {
	b := block.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	b.Insert(record.New("cpu", map[string]string{"host": "h0", "env": "prod"}, map[string]float64{"u": 1.0}, base))
	b.Insert(record.New("cpu", map[string]string{"host": "h0", "env": "dev"}, map[string]float64{"u": 2.0}, base.Add(time.Minute)))
	b.Insert(record.New("cpu", map[string]string{"host": "h1", "env": "prod"}, map[string]float64{"u": 3.0}, base.Add(2*time.Minute)))

	hostH0 := Leaf{LHS: LabelKeyAtom("host"), Op: Eq, RHS: LabelValueAtom("h0")}
	envProd := Leaf{LHS: LabelKeyAtom("env"), Op: Eq, RHS: LabelValueAtom("prod")}
	envDev := Leaf{LHS: LabelKeyAtom("env"), Op: Eq, RHS: LabelValueAtom("dev")}

	p := And{Left: hostH0, Right: Or{Left: envProd, Right: envDev}}

	direct, err := Eval(p, b)
	require.NoError(t, err)
	viaDNF, err := Eval(ToDNF(p), b)
	require.NoError(t, err)

	assert.Equal(t, direct.Unpack(b).Data(), viaDNF.Unpack(b).Data())
}
