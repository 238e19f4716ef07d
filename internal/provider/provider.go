// Package provider defines the unified interface and shared types for the
// hosted model backends. Each adapter (openai.go, anthropic.go) converts the
// unified ChatRequest into its vendor's API format and normalizes the reply,
// including any tool-call signal, into a ChatResponse.
package provider

import (
	"context"
	"encoding/json"
	"errors"
)

// ── Message types ────────────────────────────────────────────────────────────

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ContentType string

const (
	ContentTypeText       ContentType = "text"
	ContentTypeToolUse    ContentType = "tool_use"
	ContentTypeToolResult ContentType = "tool_result"
)

// Content is a single content block within a message.
type Content struct {
	Type       ContentType
	Text       string
	ToolUseID  string          // tool_use / tool_result
	ToolName   string          // tool_use
	ToolInput  json.RawMessage // tool_use
	ToolResult string          // tool_result
	IsError    bool            // tool_result
}

// Message is a single message in the conversation history.
type Message struct {
	Role    Role
	Content []Content
}

// TextMessage builds a message holding a single text block.
func TextMessage(role Role, text string) Message {
	return Message{Role: role, Content: []Content{{Type: ContentTypeText, Text: text}}}
}

// ── Tool schema ──────────────────────────────────────────────────────────────

// ToolSchema describes a tool exposed to the model (JSON Schema properties).
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ── Request / response types ─────────────────────────────────────────────────

// ChatRequest is the unified request format sent to a backend.
type ChatRequest struct {
	Model        string
	Messages     []Message
	Tools        []ToolSchema
	SystemPrompt string
	MaxTokens    int
}

// ToolCallRequest is a tool call the model asked for.
type ToolCallRequest struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// Usage records token consumption for an API call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// ChatResponse is a completed model reply.
type ChatResponse struct {
	Text       string
	ToolCalls  []ToolCallRequest
	StopReason string
	Usage      Usage
}

// ── Errors ───────────────────────────────────────────────────────────────────

var (
	// ErrUnavailable wraps transport and backend failures.
	ErrUnavailable = errors.New("model unavailable")

	// ErrRefused marks a content-policy refusal from the backend.
	ErrRefused = errors.New("model refused")
)

// ── Provider interface ───────────────────────────────────────────────────────

// Provider is the unified interface over hosted chat-completion backends.
// Implementations make a single bounded attempt per call and honor ctx
// deadlines; retry policy belongs to the caller.
type Provider interface {
	// Complete sends one request and returns the full reply.
	Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Name returns the backend identifier, e.g. "openai", "anthropic".
	Name() string

	// DefaultModel returns the model used when the request leaves it empty.
	DefaultModel() string
}
