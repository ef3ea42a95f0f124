package indexer

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"chainsphere/core/types"
)

type stubEvent struct {
	inner *types.Event
}

func (e stubEvent) EventType() string   { return e.inner.Type }
func (e stubEvent) Event() *types.Event { return e.inner }

func openTestIndexer(t *testing.T) *Indexer {
	t.Helper()
	ix, err := Open(filepath.Join(t.TempDir(), "index.db"), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix
}

func TestEmitAndQuery(t *testing.T) {
	ix := openTestIndexer(t)

	ix.Emit(stubEvent{inner: &types.Event{
		Type:       "social.post.created",
		Attributes: map[string]string{"postId": "0", "author": "0x01"},
	}})
	ix.Emit(stubEvent{inner: &types.Event{
		Type:       "social.vote.cast",
		Attributes: map[string]string{"postId": "0", "direction": "up"},
	}})
	ix.Emit(stubEvent{inner: &types.Event{
		Type:       "social.vote.cast",
		Attributes: map[string]string{"postId": "0", "direction": "down"},
	}})

	recent, err := ix.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recent))
	}
	// Newest first.
	if recent[0].Type != "social.vote.cast" || recent[2].Type != "social.post.created" {
		t.Fatalf("unexpected ordering: %v %v", recent[0].Type, recent[2].Type)
	}

	votes, err := ix.ByType("social.vote.cast", 10)
	if err != nil {
		t.Fatalf("by type: %v", err)
	}
	if len(votes) != 2 {
		t.Fatalf("expected 2 vote records, got %d", len(votes))
	}

	var attrs map[string]string
	if err := json.Unmarshal([]byte(votes[0].Attributes), &attrs); err != nil {
		t.Fatalf("decode attributes: %v", err)
	}
	if attrs["direction"] != "down" {
		t.Fatalf("unexpected attributes: %v", attrs)
	}
}

func TestRecentLimit(t *testing.T) {
	ix := openTestIndexer(t)
	for i := 0; i < 5; i++ {
		ix.Emit(stubEvent{inner: &types.Event{Type: "social.post.created"}})
	}
	recent, err := ix.Recent(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected limit applied, got %d", len(recent))
	}
}
