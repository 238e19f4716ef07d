package session

import (
	"strings"
	"testing"
)

func turnsOf(texts ...string) []Turn {
	out := make([]Turn, len(texts))
	for i, txt := range texts {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		out[i] = Turn{Role: role, Text: txt}
	}
	return out
}

func TestBuildWindow_AllFit(t *testing.T) {
	turns := turnsOf("hello", "hi there", "how are you")
	w := BuildWindow(turns, "fine?", 0)
	if len(w.Turns) != 3 {
		t.Fatalf("expected all 3 turns under default budget, got %d", len(w.Turns))
	}
	if w.Query != "fine?" {
		t.Errorf("expected query preserved, got %q", w.Query)
	}
	if w.Size() > DefaultBudget {
		t.Errorf("window size %d exceeds budget %d", w.Size(), DefaultBudget)
	}
}

func TestBuildWindow_DropsOldestFirst(t *testing.T) {
	turns := turnsOf(
		strings.Repeat("a", 100),
		strings.Repeat("b", 100),
		strings.Repeat("c", 100),
	)
	// Budget fits the query plus roughly two turns.
	budget := 10 + 2*(100+turnOverhead) + 5
	w := BuildWindow(turns, strings.Repeat("q", 10), budget)

	if len(w.Turns) != 2 {
		t.Fatalf("expected 2 newest turns, got %d", len(w.Turns))
	}
	if !strings.HasPrefix(w.Turns[0].Text, "b") || !strings.HasPrefix(w.Turns[1].Text, "c") {
		t.Error("expected the contiguous newest suffix, oldest dropped")
	}
	if w.Size() > budget {
		t.Errorf("window size %d exceeds budget %d", w.Size(), budget)
	}
}

func TestBuildWindow_NeverSplitsMiddleTurns(t *testing.T) {
	turns := turnsOf(
		strings.Repeat("a", 300), // does not fit alongside the rest
		strings.Repeat("b", 50),
		strings.Repeat("c", 50),
	)
	budget := 200
	w := BuildWindow(turns, "q", budget)
	for _, turn := range w.Turns {
		if strings.Contains(turn.Text, TruncationMarker) && strings.HasPrefix(turn.Text, "a") {
			t.Error("older turn must be dropped whole, never truncated")
		}
	}
	if len(w.Turns) != 2 {
		t.Fatalf("expected the 2 newest turns whole, got %d", len(w.Turns))
	}
}

func TestBuildWindow_TruncatesOversizedNewestTurn(t *testing.T) {
	turns := turnsOf(strings.Repeat("x", 5000))
	budget := 200
	w := BuildWindow(turns, "q", budget)

	if len(w.Turns) != 1 {
		t.Fatalf("expected the newest turn kept truncated, got %d turns", len(w.Turns))
	}
	if !strings.HasSuffix(w.Turns[0].Text, TruncationMarker) {
		t.Error("expected truncation marker on the cut turn")
	}
	if w.Size() > budget {
		t.Errorf("window size %d exceeds budget %d", w.Size(), budget)
	}
}

func TestBuildWindow_EmptyTranscript(t *testing.T) {
	w := BuildWindow(nil, "first question", 0)
	if len(w.Turns) != 0 {
		t.Errorf("expected no turns, got %d", len(w.Turns))
	}
	if w.Query != "first question" {
		t.Errorf("expected query preserved, got %q", w.Query)
	}
}

func TestBuildWindow_QueryConsumesBudget(t *testing.T) {
	turns := turnsOf("short")
	w := BuildWindow(turns, strings.Repeat("q", 500), 100)
	if len(w.Turns) != 0 {
		t.Errorf("no room beyond the query itself, got %d turns", len(w.Turns))
	}
}

func TestBuildWindow_Deterministic(t *testing.T) {
	turns := turnsOf("one", "two", "three", strings.Repeat("z", 400))
	a := BuildWindow(turns, "query", 300)
	b := BuildWindow(turns, "query", 300)
	if len(a.Turns) != len(b.Turns) || a.Size() != b.Size() {
		t.Error("identical inputs must produce identical windows")
	}
}
