package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/vertexcache/reasoning"
	"github.com/IvanBrykalov/vertexcache/stream"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), "vertexcache.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  output_paths: [\""+filepath.Join(t.TempDir(), "log.json")+"\"]\n"), 0o600))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)
}

func TestStreamCmd_Chunks(t *testing.T) {
	out, err := execute(t, "stream", "-q", "Test query", "--chunk-size", "10", "--delay", "0", "--warm", "1")
	require.NoError(t, err)

	var lines []streamLine
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var l streamLine
		require.NoError(t, json.Unmarshal(sc.Bytes(), &l))
		lines = append(lines, l)
	}
	require.NotEmpty(t, lines)

	var text strings.Builder
	for i, l := range lines {
		require.NotNil(t, l.Chunk)
		assert.Equal(t, i, l.Chunk.ChunkID)
		text.WriteString(l.Chunk.Content)
	}
	assert.True(t, lines[len(lines)-1].Chunk.IsFinal)
	assert.Equal(t, 4, lines[0].Chunk.Metadata.CacheHits, "warmed chunk must hit every probe")
	assert.Equal(t, "Verified: Aggregated result: Inferred answer from: Retrieved context for: Test query", text.String())
}

func TestStreamCmd_BatchStats(t *testing.T) {
	out, err := execute(t, "stream", "-q", "one", "-q", "two", "--type", "factual", "--delay", "0", "--stats")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	ids := map[string]bool{}
	for _, raw := range lines {
		var l streamLine
		require.NoError(t, json.Unmarshal([]byte(raw), &l))
		require.NotNil(t, l.Stats)
		assert.Positive(t, l.Stats.TotalChunks)
		ids[l.StreamID] = true
	}
	assert.Len(t, ids, 2)
}

func TestStreamCmd_BadType(t *testing.T) {
	_, err := execute(t, "stream", "-q", "x", "--type", "poetic")
	assert.ErrorContains(t, err, "unknown query type")
}

func TestBenchCmd(t *testing.T) {
	out, err := execute(t, "bench", "--cap", "64", "--vertices", "200", "--duration", "50ms", "--workers", "2", "--compute", "--seed", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "policy=lru cap=64")
	assert.Contains(t, out, `"total_entries"`)
}

func TestBenchCmd_RejectsFlatZipf(t *testing.T) {
	_, err := execute(t, "bench", "--zipf_s", "1", "--duration", "1ms")
	assert.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("write failed") }

// A write error on the first stream must still release every producer of
// the batch, including ones whose queue is full.
func TestPrintBatch_WriteErrorClosesAllStreams(t *testing.T) {
	r := reasoning.Func(func(context.Context, string, reasoning.QueryType) (*reasoning.Result, error) {
		return &reasoning.Result{FinalAnswer: strings.Repeat("x", 64)}, nil
	})
	cfg := stream.DefaultConfig()
	cfg.ChunkSize = 1
	cfg.ChunkDelay = 0
	cfg.QueueCapacity = 1
	cfg.EnableParallelProbe = false
	p := stream.NewProducer(cfg, r, nil)

	streams := p.StreamBatch(context.Background(), []stream.Query{
		{Text: "a", Type: reasoning.Factual},
		{Text: "b", Type: reasoning.Factual},
		{Text: "c", Type: reasoning.Factual},
	})

	err := printBatch(failingWriter{}, streams, false)
	require.Error(t, err)

	for i, s := range streams {
		select {
		case <-s.Done():
		case <-time.After(2 * time.Second):
			t.Fatalf("producer %d still running after printBatch returned", i)
		}
	}
}
