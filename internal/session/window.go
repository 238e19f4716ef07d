package session

// DefaultBudget is the context budget in characters when none is configured,
// roughly 4k tokens at ~4 characters per token.
const DefaultBudget = 16000

// TruncationMarker is appended when the most recent turn alone exceeds the
// budget and has to be cut rather than dropped.
const TruncationMarker = " [...truncated]"

// turnOverhead approximates the per-turn framing cost (role tag, separators)
// on top of the turn text itself.
const turnOverhead = 16

// Window is an ephemeral, ordered projection of the transcript plus the new
// user query, guaranteed to fit the budget. It is recomputed on every turn
// and never persisted.
type Window struct {
	Turns []Turn
	Query string
}

// BuildWindow selects a contiguous suffix of the transcript that fits budget
// alongside query. Whole turns are accumulated newest-first and older turns
// are dropped wholesale; only when the single most recent turn exceeds the
// budget by itself is its text truncated (with an explicit marker), since
// recency matters most for resolving follow-ups.
func BuildWindow(turns []Turn, query string, budget int) Window {
	if budget <= 0 {
		budget = DefaultBudget
	}
	remaining := budget - len(query)
	if remaining <= 0 || len(turns) == 0 {
		return Window{Query: query}
	}

	start := len(turns)
	for i := len(turns) - 1; i >= 0; i-- {
		cost := len(turns[i].Text) + turnOverhead
		if cost > remaining {
			break
		}
		remaining -= cost
		start = i
	}

	if start < len(turns) {
		return Window{Turns: append([]Turn(nil), turns[start:]...), Query: query}
	}

	// Not even the newest turn fits whole. Truncate its text instead of
	// dropping it.
	last := turns[len(turns)-1]
	keep := remaining - turnOverhead - len(TruncationMarker)
	if keep <= 0 {
		return Window{Query: query}
	}
	if keep < len(last.Text) {
		last.Text = last.Text[:keep] + TruncationMarker
	}
	last.Invocations = nil
	return Window{Turns: []Turn{last}, Query: query}
}

// Size returns the total character cost of the window, matching the
// accounting BuildWindow uses against the budget.
func (w Window) Size() int {
	total := len(w.Query)
	for _, t := range w.Turns {
		total += len(t.Text) + turnOverhead
	}
	return total
}
