// Package session holds the conversation transcript for one chat session and
// projects it into a bounded context window for each model request.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/knowbot-ai/knowbot/internal/search"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolInvocation records one web lookup issued on behalf of a turn. It is
// owned by that turn and has no independent lifecycle.
type ToolInvocation struct {
	ToolName string
	Query    string
	Snippets []search.Snippet
	Latency  time.Duration
	Err      string // empty when the lookup succeeded
}

// Turn is a single transcript entry. Turns are immutable once appended.
type Turn struct {
	Role        Role
	Text        string
	CreatedAt   time.Time
	Invocations []ToolInvocation
}

// ErrStoreClosed is returned by Append once the session has ended.
var ErrStoreClosed = errors.New("transcript store is closed")

// Store is the append-only transcript for one session. It is the single
// source of truth for conversational context: turns are totally ordered by
// insertion, individual turns are never deleted or reordered, and Reset is
// the only mutation besides Append.
type Store struct {
	mu     sync.Mutex
	id     string
	turns  []Turn
	closed bool
}

// NewStore creates an empty transcript store with a unique session ID.
func NewStore() *Store {
	return &Store{id: uuid.NewString()}
}

// ID returns the session identifier.
func (s *Store) ID() string { return s.id }

// Append adds a turn to the end of the transcript, stamping CreatedAt when
// the caller left it zero.
func (s *Store) Append(t Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.turns = append(s.turns, t)
	return nil
}

// Snapshot returns an ordered copy of all turns. The copy is safe to hold
// across later appends; turns themselves are treated as immutable.
func (s *Store) Snapshot() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns in the transcript.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// Reset atomically empties the transcript. The store stays usable.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}

// Close marks the session as ended; subsequent Appends fail with
// ErrStoreClosed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
