package cache

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/IvanBrykalov/vertexcache/policy"
	"github.com/IvanBrykalov/vertexcache/policy/lru"
	"github.com/IvanBrykalov/vertexcache/policy/scan"
)

func drawKey(rt *rapid.T) Key {
	return Key{
		Vertex: fmt.Sprintf("v%d", rapid.IntRange(0, 4).Draw(rt, "vertex")),
		Name:   fmt.Sprintf("k%d", rapid.IntRange(0, 3).Draw(rt, "name")),
	}
}

// Put followed by Get returns the last stored value while nothing is evicted.
func TestProperty_PutGetRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := New(Options{MaxEntries: 64})
		last := make(map[Key][]float64)

		n := rapid.IntRange(1, 50).Draw(rt, "puts")
		for i := 0; i < n; i++ {
			k := drawKey(rt)
			v := rapid.SliceOfN(rapid.Float64Range(-1e6, 1e6), 0, 8).Draw(rt, "value")
			if err := c.Put(k.Vertex, k.Name, v, 0); err != nil {
				rt.Fatalf("Put: %v", err)
			}
			last[k] = v
		}

		for k, want := range last {
			got, err := c.Get(k.Vertex, k.Name)
			if err != nil {
				rt.Fatalf("Get %s: %v", k, err)
			}
			if !slices.Equal(got, want) {
				rt.Fatalf("Get %s: want %v, got %v", k, want, got)
			}
		}
	})
}

// A single caller never exceeds MaxEntries, and every capacity eviction
// removes an entry with the minimum last-access time present just before it.
func TestProperty_EvictsMinimumLastAccess(t *testing.T) {
	for name, pol := range map[string]policy.Policy[Key]{
		"lru":  lru.New[Key](),
		"scan": scan.New[Key](),
	} {
		t.Run(name, func(t *testing.T) {
			rapid.Check(t, func(rt *rapid.T) {
				maxEntries := rapid.IntRange(1, 6).Draw(rt, "maxEntries")
				clk := &fakeClock{t: 1}

				var evicted []Entry
				c := New(Options{
					MaxEntries: maxEntries,
					Policy:     pol,
					Clock:      clk,
					OnEvict: func(e Entry, reason EvictReason) {
						if reason == EvictCapacity {
							evicted = append(evicted, e)
						}
					},
				})
				model := make(map[Key]int64) // key -> last access

				ops := rapid.IntRange(1, 80).Draw(rt, "ops")
				for i := 0; i < ops; i++ {
					clk.add(time.Duration(rapid.IntRange(0, 3).Draw(rt, "tick")))
					k := drawKey(rt)

					if rapid.Bool().Draw(rt, "isGet") {
						if _, err := c.Get(k.Vertex, k.Name); err == nil {
							model[k] = clk.t
						}
						continue
					}

					oldest := int64(-1)
					for _, at := range model {
						if oldest < 0 || at < oldest {
							oldest = at
						}
					}

					evicted = evicted[:0]
					_ = c.Put(k.Vertex, k.Name, []float64{float64(i)}, 0)

					switch len(evicted) {
					case 0:
					case 1:
						e := evicted[0]
						if got := e.LastAccess.UnixNano(); got != oldest {
							rt.Fatalf("evicted %s/%s with last access %d, minimum was %d", e.VertexID, e.Key, got, oldest)
						}
						delete(model, Key{Vertex: e.VertexID, Name: e.Key})
					default:
						rt.Fatalf("one Put evicted %d entries", len(evicted))
					}
					model[k] = clk.t

					if c.Len() > maxEntries {
						rt.Fatalf("Len()=%d > MaxEntries=%d", c.Len(), maxEntries)
					}
					if c.Len() != len(model) {
						rt.Fatalf("Len()=%d, model has %d", c.Len(), len(model))
					}
				}
			})
		})
	}
}

// HitRate is hits/(hits+misses) for every observed pair, 0 before any request.
func TestProperty_HitRate(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := New(Options{MaxEntries: 32})
		if st := c.Stats(); st.HitRate != 0 {
			rt.Fatalf("hit rate with no requests must be 0, got %v", st.HitRate)
		}

		ops := rapid.IntRange(1, 60).Draw(rt, "ops")
		for i := 0; i < ops; i++ {
			k := drawKey(rt)
			if rapid.IntRange(0, 2).Draw(rt, "op") == 0 {
				_ = c.Put(k.Vertex, k.Name, nil, 0)
			} else {
				_, _ = c.Get(k.Vertex, k.Name)
			}

			st := c.Stats()
			total := st.TotalHits + st.TotalMisses
			want := 0.0
			if total > 0 {
				want = float64(st.TotalHits) / float64(total)
			}
			if st.HitRate != want {
				rt.Fatalf("hit rate want %v, got %v (hits=%d misses=%d)", want, st.HitRate, st.TotalHits, st.TotalMisses)
			}
		}
	})
}

// InvalidateVertex leaves no entries reachable for the vertex, via the index
// or via Get, and leaves other vertices alone.
func TestProperty_InvalidateVertex(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := New(Options{MaxEntries: rapid.IntRange(1, 40).Draw(rt, "maxEntries")})

		n := rapid.IntRange(0, 60).Draw(rt, "puts")
		for i := 0; i < n; i++ {
			k := drawKey(rt)
			_ = c.Put(k.Vertex, k.Name, []float64{1}, 0)
		}

		target := fmt.Sprintf("v%d", rapid.IntRange(0, 4).Draw(rt, "target"))
		before := c.Len() - len(c.VertexEntries(target))

		if err := c.InvalidateVertex(target); err != nil {
			rt.Fatalf("InvalidateVertex: %v", err)
		}
		if got := c.VertexEntries(target); len(got) != 0 {
			rt.Fatalf("VertexEntries(%s) after invalidate: %v", target, got)
		}
		for j := 0; j < 4; j++ {
			if _, err := c.Get(target, fmt.Sprintf("k%d", j)); !IsCacheMiss(err) {
				rt.Fatalf("Get(%s,k%d) after invalidate: want miss, got %v", target, j, err)
			}
		}
		if c.Len() != before {
			rt.Fatalf("other vertices changed: want %d entries, got %d", before, c.Len())
		}
	})
}

// Clear resets entries and counters regardless of prior state.
func TestProperty_ClearResets(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := New(Options{MaxEntries: rapid.IntRange(1, 20).Draw(rt, "maxEntries")})

		ops := rapid.IntRange(0, 50).Draw(rt, "ops")
		for i := 0; i < ops; i++ {
			k := drawKey(rt)
			if rapid.Bool().Draw(rt, "isPut") {
				_ = c.Put(k.Vertex, k.Name, []float64{1}, 1)
			} else {
				_, _ = c.Get(k.Vertex, k.Name)
			}
		}

		if err := c.Clear(); err != nil {
			rt.Fatalf("Clear: %v", err)
		}
		st := c.Stats()
		if st.TotalEntries != 0 || st.TotalHits != 0 || st.TotalMisses != 0 || st.Evictions != 0 {
			rt.Fatalf("Clear must reset everything, got %+v", st)
		}
		for v := 0; v < 5; v++ {
			if got := c.VertexEntries(fmt.Sprintf("v%d", v)); len(got) != 0 {
				rt.Fatalf("index row v%d survived Clear: %v", v, got)
			}
		}
	})
}
