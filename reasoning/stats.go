package reasoning

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Query is one input of ReasonAll.
type Query struct {
	Text string
	Type QueryType
}

// ReasonAll answers every query concurrently and returns the results in
// query order. The first failure cancels the remaining calls and is returned.
func ReasonAll(ctx context.Context, r Reasoner, queries []Query) ([]*Result, error) {
	out := make([]*Result, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			res, err := r.Reason(gctx, q.Text, q.Type)
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats summarizes a set of results.
type Stats struct {
	TotalChains   int           `json:"total_chains"`
	TotalSteps    int           `json:"total_steps"`
	AvgConfidence float64       `json:"avg_confidence"`
	AvgTime       time.Duration `json:"avg_time"`
}

// Summarize aggregates results. Nil results are skipped; averages are 0 when
// nothing is left.
func Summarize(results []*Result) Stats {
	var st Stats
	var conf float64
	var elapsed time.Duration
	for _, r := range results {
		if r == nil {
			continue
		}
		st.TotalChains++
		st.TotalSteps += len(r.StepConfidences)
		conf += r.TotalConfidence()
		elapsed += r.ExecutionTime
	}
	if st.TotalChains > 0 {
		st.AvgConfidence = conf / float64(st.TotalChains)
		st.AvgTime = elapsed / time.Duration(st.TotalChains)
	}
	return st
}
