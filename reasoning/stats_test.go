package reasoning

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReasonAll_KeepsQueryOrder(t *testing.T) {
	r := NewStepReasoner(nil)

	res, err := ReasonAll(context.Background(), r, []Query{
		{Text: "first query", Type: Factual},
		{Text: "second query", Type: Reasoning},
		{Text: "third query", Type: Deterministic},
	})
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Contains(t, res[0].FinalAnswer, "first query")
	assert.Contains(t, res[1].FinalAnswer, "second query")
	assert.Contains(t, res[2].FinalAnswer, "third query")
}

func TestReasonAll_FirstErrorCancelsOthers(t *testing.T) {
	boom := errors.New("boom")
	var cancelled atomic.Int32
	r := Func(func(ctx context.Context, q string, _ QueryType) (*Result, error) {
		if q == "bad" {
			return nil, boom
		}
		select {
		case <-ctx.Done():
			cancelled.Add(1)
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return &Result{FinalAnswer: q}, nil
		}
	})

	res, err := ReasonAll(context.Background(), r, []Query{
		{Text: "slow", Type: Factual},
		{Text: "bad", Type: Factual},
	})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, res)
	assert.EqualValues(t, 1, cancelled.Load())
}

func TestSummarize(t *testing.T) {
	st := Summarize([]*Result{
		{StepConfidences: []float64{0.8, 0.9}, ExecutionTime: 10 * time.Millisecond},
		nil,
		{StepConfidences: []float64{0.5, 0.7, 0.6, 0.6}, ExecutionTime: 30 * time.Millisecond},
	})

	assert.Equal(t, 2, st.TotalChains)
	assert.Equal(t, 6, st.TotalSteps)
	assert.InDelta(t, (0.85+0.6)/2, st.AvgConfidence, 1e-9)
	assert.Equal(t, 20*time.Millisecond, st.AvgTime)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Stats{}, Summarize(nil))
}
