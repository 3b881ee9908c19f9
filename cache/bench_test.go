package cache

import (
	"math/rand"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/IvanBrykalov/vertexcache/policy"
	"github.com/IvanBrykalov/vertexcache/policy/scan"
)

// benchmarkMix exercises a read/write mix against a warm cache.
// Writes to a full store pay for one eviction each, so the policy's victim
// selection cost shows up directly.
func benchmarkMix(b *testing.B, readsPct int, pol policy.Policy[Key]) {
	c := New(Options{MaxEntries: 50_000, Policy: pol})

	value := []float64{0.1, 0.2, 0.3, 0.4}
	for i := 0; i < 50_000; i++ {
		_ = c.Put("v:"+strconv.Itoa(i), "embedding", value, 1)
	}

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	keyMask := (1 << 17) - 1

	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		i := 0
		for pb.Next() {
			v := "v:" + strconv.Itoa(i&keyMask)
			if r.Intn(100) < readsPct {
				_, _ = c.Get(v, "embedding")
			} else {
				_ = c.Put(v, "embedding", value, 1)
			}
			i++
		}
	})
}

func BenchmarkCache_LRU_90r10w(b *testing.B) { benchmarkMix(b, 90, nil) }
func BenchmarkCache_LRU_50r50w(b *testing.B) { benchmarkMix(b, 50, nil) }

// The scan policy is O(n) per eviction; keep it to the read-heavy mix.
func BenchmarkCache_Scan_90r10w(b *testing.B) { benchmarkMix(b, 90, scan.New[Key]()) }

func BenchmarkCache_VertexEntries(b *testing.B) {
	c := New(Options{MaxEntries: 100_000})
	for v := 0; v < 1_000; v++ {
		for k := 0; k < 16; k++ {
			_ = c.Put("v:"+strconv.Itoa(v), "k"+strconv.Itoa(k), []float64{1}, 0)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			c.VertexEntries("v:" + strconv.Itoa(i%1_000))
			i++
		}
	})
}
