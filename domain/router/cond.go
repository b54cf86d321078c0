package router

// evalCond evaluates a Branch condition tree. Test leaves on a Pattern
// test produce captures; All merges captures from each child in order
// (a later child's capture of the same name wins) but drops everything
// if any child fails; Any returns only the captures of the branch that
// passed; Not never propagates captures, since there is no single
// "the" branch that made it succeed.
func evalCond(n *CompiledCondNode, ctx *RouterCtx) (bool, map[string]string) {
	switch n.Kind {
	case CondAll:
		merged := map[string]string{}
		for i := range n.Children {
			pass, caps := evalCond(&n.Children[i], ctx)
			if !pass {
				return false, nil
			}
			for k, v := range caps {
				merged[k] = v
			}
		}
		return true, merged
	case CondAny:
		for i := range n.Children {
			if pass, caps := evalCond(&n.Children[i], ctx); pass {
				return true, caps
			}
		}
		return false, nil
	case CondNot:
		pass, _ := evalCond(n.Child, ctx)
		return !pass, nil
	case CondTest:
		return evalTest(n, ctx)
	default:
		return false, nil
	}
}

func evalTest(n *CompiledCondNode, ctx *RouterCtx) (bool, map[string]string) {
	switch n.TestKind {
	case TestEquals:
		v, ok := valueOf(n.TestVar, ctx)
		return ok && v == n.TestEquals, nil
	case TestIn:
		v, ok := valueOf(n.TestVar, ctx)
		if !ok {
			return false, nil
		}
		for _, candidate := range n.TestIn {
			if v == candidate {
				return true, nil
			}
		}
		return false, nil
	case TestPresent:
		_, ok := valueOf(n.TestVar, ctx)
		return ok == n.TestPresent, nil
	case TestPattern:
		v, ok := valueOf(n.TestVar, ctx)
		if !ok {
			return false, nil
		}
		caps, matched := n.TestPattern.CapturesMap(v)
		if !matched {
			return false, nil
		}
		return true, caps
	default:
		return false, nil
	}
}

func valueOf(v string, ctx *RouterCtx) (string, bool) {
	return ctx.Get(v)
}
