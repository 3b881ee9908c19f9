package util

import "testing"

func TestNextPow2(t *testing.T) {
	t.Parallel()

	cases := map[uint64]uint64{0: 1, 1: 1, 2: 2, 3: 4, 5: 8, 64: 64, 65: 128, 1<<63 + 1: 1 << 63}
	for in, want := range cases {
		if got := NextPow2(in); got != want {
			t.Fatalf("NextPow2(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestShardCount(t *testing.T) {
	t.Parallel()

	if got := ShardCount(3); got != 4 {
		t.Fatalf("ShardCount(3) = %d, want 4", got)
	}
	if got := ShardCount(10_000); got != maxShards {
		t.Fatalf("ShardCount must clamp to %d, got %d", maxShards, got)
	}
	if got := ShardCount(0); got < 1 || got&(got-1) != 0 {
		t.Fatalf("ShardCount(0) must be a power of two, got %d", got)
	}
}

// Equal keys land in the same shard and every index is in range.
func TestShardFor(t *testing.T) {
	t.Parallel()

	const shards = 16
	for _, k := range []string{"", "v1", "vertex_0_1", "αβγ"} {
		a, b := ShardFor(k, shards), ShardFor(k, shards)
		if a != b {
			t.Fatalf("ShardFor(%q) not deterministic: %d vs %d", k, a, b)
		}
		if a < 0 || a >= shards {
			t.Fatalf("ShardFor(%q) = %d out of range", k, a)
		}
	}
	if got := ShardFor("anything", 1); got != 0 {
		t.Fatalf("single shard must map to 0, got %d", got)
	}
}

func TestHashString_FNV1a(t *testing.T) {
	t.Parallel()

	// Reference FNV-1a vectors.
	if got := HashString(""); got != 0xcbf29ce484222325 {
		t.Fatalf("HashString(\"\") = %#x", got)
	}
	if got := HashString("a"); got != 0xaf63dc4c8601ec8c {
		t.Fatalf("HashString(\"a\") = %#x", got)
	}
}
