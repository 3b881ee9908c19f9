package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/IvanBrykalov/vertexcache/cache"
)

type benchFlags struct {
	capacity int
	policy   string

	workers       int
	duration      time.Duration
	readPct       int
	invalidatePct int
	compute       bool

	vertices   int
	keysPerVtx int
	zipfS      float64
	zipfV      float64
	seed       int64
	preload    int

	pprofAddr string
}

func newBenchCmd(a *app) *cobra.Command {
	var f benchFlags

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a synthetic Zipf workload against the vertex cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBench(cmd, a, f)
		},
	}

	fl := cmd.Flags()
	fl.IntVar(&f.capacity, "cap", 0, "cache capacity in entries (0 = cache.max_entries from config)")
	fl.StringVar(&f.policy, "policy", "", "eviction policy: lru | scan (empty = config)")
	fl.IntVar(&f.workers, "workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
	fl.DurationVar(&f.duration, "duration", 10*time.Second, "benchmark duration")
	fl.IntVar(&f.readPct, "reads", 80, "read percentage [0..100]")
	fl.IntVar(&f.invalidatePct, "invalidate", 1, "InvalidateVertex percentage [0..100], taken from the writes")
	fl.BoolVar(&f.compute, "compute", false, "reads use GetOrCompute with a synthetic loader")
	fl.IntVar(&f.vertices, "vertices", 100_000, "vertex id space")
	fl.IntVar(&f.keysPerVtx, "keys", 4, "keys per vertex")
	fl.Float64Var(&f.zipfS, "zipf_s", 1.1, "Zipf s > 1 (skew)")
	fl.Float64Var(&f.zipfV, "zipf_v", 1.0, "Zipf v")
	fl.Int64Var(&f.seed, "seed", time.Now().UnixNano(), "random seed")
	fl.IntVar(&f.preload, "preload", 0, "preload entries (0 = cap/2)")
	fl.StringVar(&f.pprofAddr, "pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
	return cmd
}

func runBench(cmd *cobra.Command, a *app, f benchFlags) error {
	if f.zipfS <= 1 || f.zipfV < 1 {
		return fmt.Errorf("bench: need zipf_s > 1 and zipf_v >= 1, got %v and %v", f.zipfS, f.zipfV)
	}
	ctx := cmd.Context()
	log := a.log.With(zap.String("component", "bench"))

	if f.pprofAddr != "" {
		go func() {
			log.Info("pprof: serving", zap.String("addr", f.pprofAddr))
			log.Error("pprof server stopped", zap.Error(http.ListenAndServe(f.pprofAddr, nil)))
		}()
	}

	metrics, err := newMetricsBackend(a.cfg.Metrics, log)
	if err != nil {
		return err
	}

	// ---- Build cache ----
	cc := a.cfg.Cache
	if f.capacity > 0 {
		cc.MaxEntries = f.capacity
	}
	if f.policy != "" {
		cc.Policy = f.policy
	}
	opt, err := cc.CacheOptions()
	if err != nil {
		return err
	}
	opt.Logger = a.log
	opt.Metrics = metrics.adapter()
	opt.Loader = func(_ context.Context, vertexID, key string) ([]float64, float64, error) {
		return syntheticVector(vertexID, key), 1, nil
	}
	c := cache.New(opt)

	// ---- Preload half capacity to get a realistic hit-rate ----
	pl := f.preload
	if pl == 0 {
		pl = opt.MaxEntries / 2
	}
	keysPerVtx := max(f.keysPerVtx, 1)
	for i := 0; i < pl; i++ {
		v, k := vertexKey(i/keysPerVtx), "k"+strconv.Itoa(i%keysPerVtx)
		_ = c.Put(v, k, syntheticVector(v, k), 1)
	}

	workers := max(f.workers, 1)
	vertexMax := uint64(max(f.vertices, 2) - 1)

	// ---- Load generation ----
	var reads, writes, invalidations, hits, misses, total atomic.Uint64
	runCtx, cancel := context.WithTimeout(ctx, f.duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			r := rand.New(rand.NewSource(f.seed + int64(id)*9973))
			zipf := rand.NewZipf(r, f.zipfS, f.zipfV, vertexMax)

			for runCtx.Err() == nil {
				total.Add(1)
				v := vertexKey(int(zipf.Uint64()))
				k := "k" + strconv.Itoa(r.Intn(keysPerVtx))

				switch p := r.Intn(100); {
				case p < f.readPct:
					reads.Add(1)
					var err error
					if f.compute {
						_, err = c.GetOrCompute(runCtx, v, k)
					} else {
						_, err = c.Get(v, k)
					}
					if err == nil {
						hits.Add(1)
					} else {
						misses.Add(1)
					}
				case p < f.readPct+f.invalidatePct:
					invalidations.Add(1)
					_ = c.InvalidateVertex(v)
				default:
					writes.Add(1)
					_ = c.Put(v, k, syntheticVector(v, k), r.Float64())
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	out := cmd.OutOrStdout()
	ops := total.Load()
	hitRate := 0.0
	if n := reads.Load(); n > 0 {
		hitRate = float64(hits.Load()) / float64(n) * 100
	}

	fmt.Fprintf(out, "policy=%s cap=%d workers=%d vertices=%d keys=%d dur=%v seed=%d\n",
		cc.Policy, opt.MaxEntries, workers, f.vertices, keysPerVtx, elapsed, f.seed)
	fmt.Fprintf(out, "ops=%d (%.0f ops/s)  reads=%d  writes=%d  invalidations=%d\n",
		ops, float64(ops)/elapsed.Seconds(), reads.Load(), writes.Load(), invalidations.Load())
	fmt.Fprintf(out, "hits=%d  misses=%d  hit-rate=%.2f%%\n", hits.Load(), misses.Load(), hitRate)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c.Stats()); err != nil {
		return err
	}

	reportCtx, cancelReport := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancelReport()
	return metrics.report(reportCtx, out)
}

func vertexKey(i int) string { return "v:" + strconv.Itoa(i) }

// syntheticVector derives a small deterministic embedding from the key.
func syntheticVector(vertexID, key string) []float64 {
	seed := int64(len(vertexID))*31 + int64(len(key))
	for _, b := range []byte(vertexID + key) {
		seed = seed*131 + int64(b)
	}
	r := rand.New(rand.NewSource(seed))
	v := make([]float64, 8)
	for i := range v {
		v[i] = r.Float64()
	}
	return v
}
