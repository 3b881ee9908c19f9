package reasoning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepReasoner_Reason(t *testing.T) {
	r := NewStepReasoner(nil)

	res, err := r.Reason(context.Background(), "Test query", Reasoning)
	require.NoError(t, err)

	assert.Equal(t,
		"Verified: Aggregated result: Inferred answer from: Retrieved context for: Test query",
		res.FinalAnswer)
	assert.Equal(t, []float64{0.85, 0.82, 0.88, 0.90}, res.StepConfidences)
	assert.InDelta(t, 0.8625, res.TotalConfidence(), 1e-9)

	_, err = uuid.Parse(res.ChainID)
	assert.NoError(t, err, "chain id must be a uuid")
}

func TestStepReasoner_WithoutVerification(t *testing.T) {
	r := NewStepReasoner(nil)
	r.Verify = false

	_, steps, err := r.Chain(context.Background(), "q", Factual)
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, StepAggregation, steps[2].Kind)
	for i, s := range steps {
		assert.Equal(t, i, s.ID)
	}
	assert.Equal(t, steps[0].Output, steps[1].Input, "stages must be chained")
}

func TestStepReasoner_UnknownQueryType(t *testing.T) {
	_, err := NewStepReasoner(nil).Reason(context.Background(), "q", QueryType("bogus"))
	assert.Error(t, err)
}

func TestStepReasoner_Cancelled(t *testing.T) {
	r := NewStepReasoner(nil)
	r.StepDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Reason(ctx, "q", Factual)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFunc(t *testing.T) {
	var r Reasoner = Func(func(_ context.Context, q string, qt QueryType) (*Result, error) {
		return &Result{FinalAnswer: q + "/" + string(qt)}, nil
	})
	res, err := r.Reason(context.Background(), "q", Deterministic)
	require.NoError(t, err)
	assert.Equal(t, "q/deterministic", res.FinalAnswer)
	assert.Zero(t, res.TotalConfidence())
}
