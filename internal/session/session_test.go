package session

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestAppendOrder(t *testing.T) {
	s := NewStore()
	texts := []string{"first", "second", "third"}
	for _, txt := range texts {
		if err := s.Append(Turn{Role: RoleUser, Text: txt}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got := s.Snapshot()
	if len(got) != len(texts) {
		t.Fatalf("expected %d turns, got %d", len(texts), len(got))
	}
	for i, txt := range texts {
		if got[i].Text != txt {
			t.Errorf("turn %d: expected %q, got %q", i, txt, got[i].Text)
		}
	}
}

func TestAppendStampsCreatedAt(t *testing.T) {
	s := NewStore()
	before := time.Now()
	s.Append(Turn{Role: RoleUser, Text: "hi"})
	got := s.Snapshot()[0]
	if got.CreatedAt.Before(before) {
		t.Error("expected CreatedAt stamped at append time")
	}

	// An explicit timestamp is preserved.
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s.Append(Turn{Role: RoleAssistant, Text: "hey", CreatedAt: fixed})
	if got := s.Snapshot()[1]; !got.CreatedAt.Equal(fixed) {
		t.Errorf("expected preserved CreatedAt %v, got %v", fixed, got.CreatedAt)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := NewStore()
	s.Append(Turn{Role: RoleUser, Text: "one"})
	snap := s.Snapshot()
	s.Append(Turn{Role: RoleAssistant, Text: "two"})

	if len(snap) != 1 {
		t.Errorf("snapshot should not see later appends, got %d turns", len(snap))
	}
	if s.Len() != 2 {
		t.Errorf("expected store len 2, got %d", s.Len())
	}
}

func TestReset(t *testing.T) {
	s := NewStore()
	s.Append(Turn{Role: RoleUser, Text: "hello"})
	s.Append(Turn{Role: RoleAssistant, Text: "hi"})
	s.Reset()

	if s.Len() != 0 {
		t.Errorf("expected empty transcript after reset, got %d turns", s.Len())
	}
	// Store stays usable.
	if err := s.Append(Turn{Role: RoleUser, Text: "again"}); err != nil {
		t.Fatalf("append after reset: %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 turn after reset+append, got %d", s.Len())
	}
}

func TestAppendAfterClose(t *testing.T) {
	s := NewStore()
	s.Close()
	err := s.Append(Turn{Role: RoleUser, Text: "late"})
	if !errors.Is(err, ErrStoreClosed) {
		t.Errorf("expected ErrStoreClosed, got %v", err)
	}
}

func TestConcurrentAppendAndSnapshot(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Append(Turn{Role: RoleUser, Text: "x"})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.Snapshot()
			}
		}()
	}
	wg.Wait()

	if s.Len() != 8*50 {
		t.Errorf("expected %d turns, got %d", 8*50, s.Len())
	}
}

func TestUniqueSessionIDs(t *testing.T) {
	a, b := NewStore(), NewStore()
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("expected distinct non-empty session IDs, got %q and %q", a.ID(), b.ID())
	}
}
