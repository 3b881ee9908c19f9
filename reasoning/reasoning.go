// Package reasoning defines the contract between the streaming pipeline and
// whatever produces final answers, plus a deterministic template
// implementation.
package reasoning

import (
	"context"
	"time"
)

// QueryType tags a query with the kind of answer expected.
type QueryType string

const (
	Factual          QueryType = "factual"
	Reasoning        QueryType = "reasoning"
	Deterministic    QueryType = "deterministic"
	NonDeterministic QueryType = "non_deterministic"
)

// Valid reports whether t is one of the known query types.
func (t QueryType) Valid() bool {
	switch t {
	case Factual, Reasoning, Deterministic, NonDeterministic:
		return true
	}
	return false
}

// Result is what a Reasoner produces for one query.
type Result struct {
	ChainID         string        `json:"chain_id"`
	FinalAnswer     string        `json:"final_answer"`
	StepConfidences []float64     `json:"step_confidences"`
	ExecutionTime   time.Duration `json:"execution_time"`
}

// TotalConfidence is the mean of the step confidences, 0 without steps.
func (r *Result) TotalConfidence() float64 {
	if r == nil || len(r.StepConfidences) == 0 {
		return 0
	}
	var sum float64
	for _, c := range r.StepConfidences {
		sum += c
	}
	return sum / float64(len(r.StepConfidences))
}

// Reasoner turns a query into a final answer.
type Reasoner interface {
	Reason(ctx context.Context, query string, qt QueryType) (*Result, error)
}

// Func adapts a plain function to Reasoner.
type Func func(ctx context.Context, query string, qt QueryType) (*Result, error)

// Reason calls f.
func (f Func) Reason(ctx context.Context, query string, qt QueryType) (*Result, error) {
	return f(ctx, query, qt)
}
