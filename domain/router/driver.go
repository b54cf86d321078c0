package router

import "net/http"

// ServeHTTPService implements ServiceHandler for a Router node: it
// drives the step/idx loop over the compiled rule list, applying ops
// and following Stop/Continue/Restart/InternalRewrite semantics until
// it produces a terminal response or exhausts max_steps.
func (r *LoadedRouter) ServeHTTPService(ctx *RouterCtx, req *http.Request) *RouterResponse {
	step := 0
	idx := 0

	for {
		if step >= r.MaxSteps {
			return errorResponse(http.StatusLoopDetected, "router steps exceeded")
		}

		if idx >= len(r.Rules) {
			return r.delegate(ctx, req)
		}

		rule := &r.Rules[idx]

		if !MatchRule(&rule.When, ctx) {
			idx++
			continue
		}

		result := runOps(rule.Ops, ctx, req)
		switch result.outcome {
		case outcomeContinueNextRule:
			idx++
		case outcomeRestart:
			step++
			idx = 0
		case outcomeRespond, outcomeUseService:
			return result.response
		case outcomeFallthrough:
			switch rule.OnMatch {
			case OnMatchStop:
				return r.delegate(ctx, req)
			case OnMatchContinue:
				idx++
			case OnMatchRestart:
				step++
				idx = 0
			}
		}
	}
}

func (r *LoadedRouter) delegate(ctx *RouterCtx, req *http.Request) *RouterResponse {
	if r.Next == nil {
		return errorResponse(http.StatusNotFound, "no route matched")
	}
	ApplyToRequest(ctx, req)
	return r.Next.ServeHTTPService(ctx, req)
}

// Route is the entry point used by the HTTP front door: it builds a
// RouterCtx from the real request and hands it to the root service.
func Route(root ServiceHandler, req *http.Request) *RouterResponse {
	ctx := FromRequest(req)
	return root.ServeHTTPService(ctx, req)
}
