package gql

import (
	"github.com/graphql-go/graphql"

	"github.com/mnohosten/pagingsim/internal/pager"
)

type resolver struct {
	src EngineSource
}

func (r *resolver) Statistics(p graphql.ResolveParams) (any, error) {
	return r.src.WithEngine(func(e *pager.PagingEngine) (any, error) {
		s := e.Stats()
		return map[string]any{
			"policyName":        s.PolicyName,
			"accesses":          s.Accesses,
			"hits":              s.Hits,
			"faults":            s.Faults,
			"swapsOut":          s.SwapsOut,
			"swapsIn":           s.SwapsIn,
			"hitRatio":          s.HitRatio(),
			"faultTimeMillis":   float64(s.FaultTimeTotal.Microseconds()) / 1000,
			"swapOutTimeMillis": float64(s.SwapOutTimeTotal.Microseconds()) / 1000,
			"swapInTimeMillis":  float64(s.SwapInTimeTotal.Microseconds()) / 1000,
		}, nil
	})
}

func (r *resolver) ResidentPages(p graphql.ResolveParams) (any, error) {
	return r.src.WithEngine(func(e *pager.PagingEngine) (any, error) {
		pt := e.PageTable()
		var out []map[string]any
		for _, page := range pt.ResidentPages() {
			frame, valid := pt.Entry(page).Frame()
			out = append(out, map[string]any{
				"page":  int(page),
				"frame": int(frame),
				"valid": valid,
			})
		}
		return out, nil
	})
}

func (r *resolver) Frames(p graphql.ResolveParams) (any, error) {
	return r.src.WithEngine(func(e *pager.PagingEngine) (any, error) {
		ft := e.FrameTable()
		out := make([]map[string]any, ft.Len())
		for i := 0; i < ft.Len(); i++ {
			entry := ft.Entry(pager.FrameID(i))
			out[i] = map[string]any{
				"frame":    i,
				"occupied": entry.Occupied,
				"occupant": int(entry.Occupant),
			}
		}
		return out, nil
	})
}
