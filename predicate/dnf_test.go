package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func leaf(name string) Leaf {
	return Leaf{LHS: LabelKeyAtom(name), Op: Eq, RHS: LabelValueAtom("v")}
}

// TestDNFDistribution grounds seed scenario C: And(Or(A,B), Or(C,D)) ->
// Or(Or(And(C,A),And(D,A)), Or(And(C,B),And(D,B))).
func TestDNFDistribution(t *testing.T) {
	a, b, c, d := leaf("A"), leaf("B"), leaf("C"), leaf("D")

	input := And{
		Left:  Or{Left: a, Right: b},
		Right: Or{Left: c, Right: d},
	}

	want := Or{
		Left:  Or{Left: And{Left: c, Right: a}, Right: And{Left: d, Right: a}},
		Right: Or{Left: And{Left: c, Right: b}, Right: And{Left: d, Right: b}},
	}

	assert.Equal(t, want, ToDNF(input))
}

func TestDNFLeafUnchanged(t *testing.T) {
	l := leaf("A")
	assert.Equal(t, l, ToDNF(l))
}

func TestDNFPureAndUnchanged(t *testing.T) {
	a, b := leaf("A"), leaf("B")
	and := And{Left: a, Right: b}
	assert.Equal(t, and, ToDNF(and))
}

func TestDNFOrOfLeavesUnchanged(t *testing.T) {
	a, b := leaf("A"), leaf("B")
	or := Or{Left: a, Right: b}
	assert.Equal(t, or, ToDNF(or))
}

// TestDNFIdempotent grounds testable property 3: dnf(dnf(p)) == dnf(p).
func TestDNFIdempotent(t *testing.T) {
	a, b, c, d := leaf("A"), leaf("B"), leaf("C"), leaf("D")

	cases := []Condition{
		leaf("A"),
		And{Left: a, Right: b},
		Or{Left: a, Right: b},
		And{Left: Or{Left: a, Right: b}, Right: c},
		And{Left: Or{Left: a, Right: b}, Right: Or{Left: c, Right: d}},
		Or{Left: And{Left: a, Right: Or{Left: b, Right: c}}, Right: d},
	}

	for i, c := range cases {
		once := ToDNF(c)
		twice := ToDNF(once)
		assert.Equal(t, once, twice, "case %d", i)
	}
}

func TestIsLegalLeaf(t *testing.T) {
	assert.True(t, IsLegalLeaf(Leaf{LHS: LabelKeyAtom("host"), Op: Eq, RHS: LabelValueAtom("h0")}))
	assert.True(t, IsLegalLeaf(Leaf{LHS: VariableAtom("u"), Op: Gt, RHS: MetricAtom(1.5)}))

	assert.False(t, IsLegalLeaf(Leaf{LHS: LabelKeyAtom("host"), Op: NEq, RHS: LabelValueAtom("h0")}))
	assert.False(t, IsLegalLeaf(Leaf{LHS: LabelValueAtom("h0"), Op: Eq, RHS: LabelKeyAtom("host")}))
	assert.False(t, IsLegalLeaf(Leaf{LHS: MetricAtom(1), Op: Eq, RHS: VariableAtom("u")}))
}
