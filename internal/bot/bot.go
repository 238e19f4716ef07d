// Package bot drives the per-turn orchestration loop: bounded context
// assembly, the search decision, the optional web lookup, answer synthesis,
// and the transcript updates that make follow-up questions resolve against
// prior turns.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/knowbot-ai/knowbot/internal/policy"
	"github.com/knowbot-ai/knowbot/internal/provider"
	"github.com/knowbot-ai/knowbot/internal/search"
	"github.com/knowbot-ai/knowbot/internal/session"
)

// State tracks where the controller is inside a turn.
type State int32

const (
	StateIdle State = iota
	StateAwaitingSearch
	StateAwaitingSynthesis
)

func (s State) String() string {
	switch s {
	case StateAwaitingSearch:
		return "awaiting_search"
	case StateAwaitingSynthesis:
		return "awaiting_synthesis"
	default:
		return "idle"
	}
}

// DecisionMode selects how the search decision is made.
type DecisionMode string

const (
	// DecisionAuto lets the model's own tool-call signal decide, with the
	// deterministic heuristic as fallback when the signal is absent or
	// malformed.
	DecisionAuto DecisionMode = "auto"

	// DecisionHeuristic uses only the deterministic policy.
	DecisionHeuristic DecisionMode = "heuristic"
)

var (
	// ErrInvalidInput rejects empty or whitespace-only user input before any
	// turn is recorded.
	ErrInvalidInput = errors.New("empty user input")

	// ErrBusy rejects a new turn while a previous one is still in flight.
	ErrBusy = errors.New("a turn is already in flight")
)

// Degraded assistant texts appended when an external dependency fails
// outright. The session stays usable for subsequent turns.
const (
	degradedModelText   = "I couldn't reach the language model to answer this. Please try again in a moment."
	degradedRefusalText = "The model declined to answer this question. Try rephrasing it."
)

// Options configures a Bot. Zero values select defaults.
type Options struct {
	Model         string
	MaxTokens     int
	ContextBudget int // characters; 0 = session.DefaultBudget
	Decision      DecisionMode
	SystemPrompt  string
	Log           zerolog.Logger
}

// Bot is the session controller. It exclusively owns its transcript store;
// independent sessions are independent Bot instances.
type Bot struct {
	provider     provider.Provider
	gateway      *search.Gateway
	store        *session.Store
	model        string
	maxTokens    int
	budget       int
	decision     DecisionMode
	systemPrompt string
	log          zerolog.Logger

	mu          sync.Mutex // held for the duration of one turn
	state       atomic.Int32
	resetQueued atomic.Bool
}

// New builds a session controller around a model backend, a search gateway
// and a transcript store.
func New(p provider.Provider, g *search.Gateway, store *session.Store, opts Options) *Bot {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	if opts.Decision == "" {
		opts.Decision = DecisionAuto
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = defaultSystemPrompt(time.Now())
	}
	return &Bot{
		provider:     p,
		gateway:      g,
		store:        store,
		model:        opts.Model,
		maxTokens:    opts.MaxTokens,
		budget:       opts.ContextBudget,
		decision:     opts.Decision,
		systemPrompt: opts.SystemPrompt,
		log:          opts.Log,
	}
}

// State returns the controller's current position in the turn pipeline.
func (b *Bot) State() State {
	return State(b.state.Load())
}

func (b *Bot) setState(s State) {
	b.state.Store(int32(s))
}

// Transcript returns the displayable transcript in insertion order.
func (b *Bot) Transcript() []session.Turn {
	return b.store.Snapshot()
}

// Reset clears the transcript. A reset requested while a turn is in flight
// is queued and applied right after that turn's assistant response is
// appended, so the transcript is never observed half-updated.
func (b *Bot) Reset() {
	if b.mu.TryLock() {
		b.store.Reset()
		b.mu.Unlock()
		return
	}
	b.resetQueued.Store(true)
}

func (b *Bot) applyQueuedReset() {
	if b.resetQueued.CompareAndSwap(true, false) {
		b.store.Reset()
	}
}

// turnPlan is the outcome of the search decision for one turn.
type turnPlan struct {
	searchQuery string // "" = no lookup warranted
	toolCallID  string // set when the model itself requested the search
	answer      string // set when the decision call already produced the answer
}

// SubmitTurn runs one full turn: validate input, build the context window,
// decide on a lookup, search, synthesize, and append the user / optional
// tool / assistant turns in order. External-dependency failures degrade into
// an explanatory assistant turn rather than an error; the controller always
// returns to idle.
func (b *Bot) SubmitTurn(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrInvalidInput
	}
	if !b.mu.TryLock() {
		return "", ErrBusy
	}
	defer func() {
		b.setState(StateIdle)
		b.applyQueuedReset()
		b.mu.Unlock()
	}()
	b.applyQueuedReset() // a reset queued between turns takes effect now

	window := session.BuildWindow(b.store.Snapshot(), text, b.budget)

	b.setState(StateAwaitingSearch)
	plan := b.decide(ctx, window)

	var (
		toolTurn *session.Turn
		snippets []search.Snippet
		note     string
	)
	if plan.searchQuery != "" {
		started := time.Now()
		results, err := b.gateway.Lookup(ctx, plan.searchQuery)
		inv := session.ToolInvocation{
			ToolName: searchToolName,
			Query:    plan.searchQuery,
			Latency:  time.Since(started),
		}
		switch {
		case err != nil:
			inv.Err = err.Error()
			note = "Note: web search is currently unavailable. Answer from general knowledge and say the information may be out of date."
			b.log.Warn().Err(err).Str("query", plan.searchQuery).Msg("search degraded")
		case len(results) == 0:
			note = "Note: the web search returned no results. Answer from general knowledge and say so."
		default:
			snippets = results
			inv.Snippets = results
		}
		tt := session.Turn{
			Role:        session.RoleTool,
			Text:        renderToolTurn(inv),
			Invocations: []session.ToolInvocation{inv},
		}
		toolTurn = &tt
	}

	b.setState(StateAwaitingSynthesis)
	answer := plan.answer
	if answer == "" {
		var err error
		if plan.toolCallID != "" {
			answer, err = b.synthesizeWithToolResult(ctx, window, plan, toolTurn)
		} else {
			answer, err = b.synthesize(ctx, window, snippets, note)
		}
		if err != nil {
			answer = degradedAnswer(err)
			b.log.Warn().Err(err).Msg("synthesis degraded")
		}
	}

	if err := b.store.Append(session.Turn{Role: session.RoleUser, Text: text}); err != nil {
		return "", err
	}
	if toolTurn != nil {
		if err := b.store.Append(*toolTurn); err != nil {
			return "", err
		}
	}
	if err := b.store.Append(session.Turn{Role: session.RoleAssistant, Text: answer}); err != nil {
		return "", err
	}
	return answer, nil
}

// decide runs the configured decision path. In auto mode the model's own
// tool-call signal is authoritative; the deterministic heuristic takes over
// when the signal is absent, malformed, or the model cannot be reached. When
// the model answers directly without requesting a search, that answer is
// final and no second request is made.
func (b *Bot) decide(ctx context.Context, w session.Window) turnPlan {
	if b.decision != DecisionAuto {
		return b.heuristicPlan(w)
	}

	msgs := append(buildContextMessages(w), provider.TextMessage(provider.RoleUser, w.Query))
	resp, err := b.provider.Complete(ctx, &provider.ChatRequest{
		Model:        b.model,
		Messages:     msgs,
		Tools:        []provider.ToolSchema{searchToolSchema},
		SystemPrompt: b.systemPrompt,
		MaxTokens:    b.maxTokens,
	})
	if err != nil {
		b.log.Debug().Err(err).Msg("decision call failed, falling back to heuristic")
		return b.heuristicPlan(w)
	}

	for _, tc := range resp.ToolCalls {
		if tc.Name != searchToolName {
			continue
		}
		query := parseSearchQuery(tc.Input)
		if query != "" {
			return turnPlan{searchQuery: query, toolCallID: tc.ID}
		}
	}
	if len(resp.ToolCalls) > 0 {
		// Malformed signal: the model asked for tools we can't honor.
		b.log.Debug().Msg("malformed tool-call signal, falling back to heuristic")
		return b.heuristicPlan(w)
	}
	if strings.TrimSpace(resp.Text) != "" {
		return turnPlan{answer: resp.Text}
	}
	return b.heuristicPlan(w)
}

func (b *Bot) heuristicPlan(w session.Window) turnPlan {
	if policy.ShouldSearch(w.Query, w.Turns) {
		return turnPlan{searchQuery: w.Query}
	}
	return turnPlan{}
}

func degradedAnswer(err error) string {
	if errors.Is(err, provider.ErrRefused) {
		return degradedRefusalText
	}
	return degradedModelText
}

// renderToolTurn formats a lookup outcome for the transcript.
func renderToolTurn(inv session.ToolInvocation) string {
	if inv.Err != "" {
		return fmt.Sprintf("%s %q failed: %s", inv.ToolName, inv.Query, inv.Err)
	}
	if len(inv.Snippets) == 0 {
		return fmt.Sprintf("%s %q returned no results", inv.ToolName, inv.Query)
	}
	return fmt.Sprintf("%s %q\n%s", inv.ToolName, inv.Query, renderSnippets(inv.Snippets))
}
