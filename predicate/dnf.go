package predicate

// ToDNF rewrites c so every Or sits above every And, following the same
// bottom-up rules as the store this module is grounded on: a pure-And (or
// leaf) subtree is a fixed point; an And with an Or child has that Or's
// disjunction pushed down and distributed over the other side; an Or
// recurses on both children.
//
// Tie-break: when both children of an And are Or, the LEFT child is
// distributed first — Left's two branches each get ANDed with Right,
// mirroring process.rs's dnf_helper checking is_or(l) before is_or(r).
func ToDNF(c Condition) Condition {
	if isAllAnd(c) {
		return c
	}

	switch n := c.(type) {
	case Leaf:
		return n
	case Or:
		return Or{Left: ToDNF(n.Left), Right: ToDNF(n.Right)}
	case And:
		if isOr(n.Left) {
			lp, rp := pushdownDisjunction(n.Right, n.Left)
			return Or{Left: ToDNF(lp), Right: ToDNF(rp)}
		}
		if isOr(n.Right) {
			lp, rp := pushdownDisjunction(n.Left, n.Right)
			return Or{Left: ToDNF(lp), Right: ToDNF(rp)}
		}

		return ToDNF(And{Left: ToDNF(n.Left), Right: ToDNF(n.Right)})
	default:
		panic("predicate: unknown Condition shape")
	}
}

// pushdownDisjunction distributes x over or's two branches, producing the
// pair (or.Left And x, or.Right And x). Panics if or is not an Or — callers
// only ever invoke it after isOr(or) has already been checked.
func pushdownDisjunction(x, or Condition) (Condition, Condition) {
	o, ok := or.(Or)
	if !ok {
		panic("predicate: pushdownDisjunction called with a non-Or second argument")
	}

	return And{Left: o.Left, Right: x}, And{Left: o.Right, Right: x}
}

func isOr(c Condition) bool {
	_, ok := c.(Or)
	return ok
}

func isAllAnd(c Condition) bool {
	switch n := c.(type) {
	case Leaf:
		return true
	case And:
		return isAllAnd(n.Left) && isAllAnd(n.Right)
	case Or:
		return false
	default:
		return false
	}
}
