package predicate

import (
	"github.com/labeldb/labeldb/block"
	"github.com/labeldb/labeldb/engineerr"
	"github.com/labeldb/labeldb/resultset"
)

// Eval evaluates c against b, producing a lazy ResultSet. A leaf outside
// the two legal shapes (spec.md §4.7) is a MalformedQuery: Eval returns an
// empty ResultSet alongside the error so callers that choose to treat it as
// "no match" (the reader task's propagation policy, spec.md §7) don't also
// need a nil check.
func Eval(c Condition, b *block.Block) (resultset.ResultSet, error) {
	switch n := c.(type) {
	case Leaf:
		return evalLeaf(n, b)
	case And:
		left, err := Eval(n.Left, b)
		if err != nil {
			return resultset.Empty(), err
		}
		right, err := Eval(n.Right, b)
		if err != nil {
			return resultset.Empty(), err
		}

		return left.Intersect(right, b), nil
	case Or:
		left, err := Eval(n.Left, b)
		if err != nil {
			return resultset.Empty(), err
		}
		right, err := Eval(n.Right, b)
		if err != nil {
			return resultset.Empty(), err
		}

		return left.Union(right, b), nil
	default:
		return resultset.Empty(), engineerr.ErrMalformedQuery
	}
}

func evalLeaf(l Leaf, b *block.Block) (resultset.ResultSet, error) {
	if l.LHS.Kind == KindLabelKey && l.RHS.Kind == KindLabelValue {
		if l.Op != Eq {
			return resultset.Empty(), engineerr.ErrMalformedQuery
		}

		token := l.LHS.Str + "=" + l.RHS.Str

		return resultset.Packed(b.SearchIndex(token), nil), nil
	}

	if l.LHS.Kind == KindVariable && l.RHS.Kind == KindMetric {
		name := l.LHS.Str
		threshold := l.RHS.Num
		op := l.Op

		filter := resultset.Filter{
			Metric: name,
			Match:  func(v float64) bool { return op.Compare(v, threshold) },
		}

		return resultset.Packed(b.SearchIndex(name), []resultset.Filter{filter}), nil
	}

	return resultset.Empty(), engineerr.ErrMalformedQuery
}
