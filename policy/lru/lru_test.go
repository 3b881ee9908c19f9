package lru

import (
	"testing"

	"github.com/IvanBrykalov/vertexcache/policy"
)

// --- test doubles ---

type testNode struct {
	k  string
	at int64
}

func (n *testNode) Key() string       { return n.k }
func (n *testNode) LastAccess() int64 { return n.at }

type mockHooks struct {
	pushFrontCnt   int
	moveToFrontCnt int
	removeCnt      int

	lastPush policy.Node[string]
	lastMove policy.Node[string]

	backVal policy.Node[string]
}

func (h *mockHooks) MoveToFront(n policy.Node[string]) { h.moveToFrontCnt++; h.lastMove = n }
func (h *mockHooks) PushFront(n policy.Node[string])   { h.pushFrontCnt++; h.lastPush = n }
func (h *mockHooks) Remove(policy.Node[string])        { h.removeCnt++ }
func (h *mockHooks) Back() policy.Node[string]         { return h.backVal }
func (h *mockHooks) Len() int                          { return 0 }
func (h *mockHooks) Range(func(policy.Node[string]) bool) {}

// --- tests ---

// OnAdd should push the node to MRU.
func TestLRU_OnAdd_PushFront(t *testing.T) {
	t.Parallel()

	h := &mockHooks{}
	p := New[string]().New(h)

	n := &testNode{k: "v1/k1"}
	p.OnAdd(n)

	if h.pushFrontCnt != 1 || h.lastPush != n {
		t.Fatalf("OnAdd must call PushFront exactly once with the node")
	}
	if h.moveToFrontCnt != 0 || h.removeCnt != 0 {
		t.Fatalf("OnAdd must not call MoveToFront/Remove")
	}
}

// OnGet and OnUpdate should promote the node to MRU.
func TestLRU_OnGetOnUpdate_MoveToFront(t *testing.T) {
	t.Parallel()

	h := &mockHooks{}
	p := New[string]().New(h)

	n := &testNode{k: "v1/k2"}
	p.OnGet(n)
	p.OnUpdate(n)

	if h.moveToFrontCnt != 2 || h.lastMove != n {
		t.Fatalf("OnGet/OnUpdate must call MoveToFront once each, got %d", h.moveToFrontCnt)
	}
	if h.pushFrontCnt != 0 || h.removeCnt != 0 {
		t.Fatalf("promotion must not call PushFront/Remove")
	}
}

// OnRemove is a no-op for LRU.
func TestLRU_OnRemove_NoOp(t *testing.T) {
	t.Parallel()

	h := &mockHooks{}
	p := New[string]().New(h)

	p.OnRemove(&testNode{k: "v1/k3"})

	if h.pushFrontCnt != 0 || h.moveToFrontCnt != 0 || h.removeCnt != 0 {
		t.Fatalf("OnRemove for LRU must be no-op (no hooks should be called)")
	}
}

// Victim is the list tail.
func TestLRU_Victim_IsBack(t *testing.T) {
	t.Parallel()

	tail := &testNode{k: "v2/k1", at: 1}
	h := &mockHooks{backVal: tail}
	p := New[string]().New(h)

	if got := p.Victim(); got != tail {
		t.Fatalf("Victim must return Back(), got %v", got)
	}

	empty := New[string]().New(&mockHooks{})
	if got := empty.Victim(); got != nil {
		t.Fatalf("Victim on empty list must be nil, got %v", got)
	}
}
