package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/knowbot-ai/knowbot/internal/provider"
	"github.com/knowbot-ai/knowbot/internal/search"
	"github.com/knowbot-ai/knowbot/internal/session"
)

const searchToolName = "web_search"

// searchToolSchema is the lookup tool exposed to the model in auto mode.
var searchToolSchema = provider.ToolSchema{
	Name:        searchToolName,
	Description: "Search the web for current information. Use this when the question concerns recent events, changing facts, or entities not covered by the conversation so far.",
	Parameters: map[string]any{
		"query": map[string]any{
			"type":        "string",
			"description": "The search query",
		},
	},
}

// parseSearchQuery extracts the query argument from a tool-call payload.
// Returns "" on malformed input.
func parseSearchQuery(input json.RawMessage) string {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return ""
	}
	return strings.TrimSpace(args.Query)
}

// buildContextMessages maps the bounded context window into provider
// messages. Tool turns are folded into user-role notes so every backend sees
// the same linear history regardless of its native tool-message format.
func buildContextMessages(w session.Window) []provider.Message {
	var msgs []provider.Message
	for _, t := range w.Turns {
		switch t.Role {
		case session.RoleUser:
			msgs = append(msgs, provider.TextMessage(provider.RoleUser, t.Text))
		case session.RoleAssistant:
			msgs = append(msgs, provider.TextMessage(provider.RoleAssistant, t.Text))
		case session.RoleTool:
			msgs = append(msgs, provider.TextMessage(provider.RoleUser, "[earlier web lookup]\n"+t.Text))
		}
	}
	return msgs
}

// renderSnippets formats lookup results for inclusion in a prompt. Each
// snippet keeps its title and URL so the model can attribute claims.
func renderSnippets(snippets []search.Snippet) string {
	var sb strings.Builder
	sb.WriteString("=== WEB SEARCH RESULTS ===\n")
	for i, s := range snippets {
		fmt.Fprintf(&sb, "[%d] %s (%s)\n", i+1, s.Title, s.URL)
		if s.Excerpt != "" {
			sb.WriteString(s.Excerpt)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// synthesize produces the assistant answer with a single model call. Any
// lookup results and degradation notes are embedded in the final user
// message; the model is instructed to ground its answer in them.
func (b *Bot) synthesize(ctx context.Context, w session.Window, snippets []search.Snippet, note string) (string, error) {
	var sb strings.Builder
	if len(snippets) > 0 {
		sb.WriteString(renderSnippets(snippets))
		sb.WriteString("\nUsing the search results above where relevant, answer the question:\n")
	}
	if note != "" {
		sb.WriteString(note)
		sb.WriteString("\n")
	}
	sb.WriteString(w.Query)

	msgs := append(buildContextMessages(w), provider.TextMessage(provider.RoleUser, sb.String()))
	resp, err := b.provider.Complete(ctx, &provider.ChatRequest{
		Model:        b.model,
		Messages:     msgs,
		SystemPrompt: b.systemPrompt,
		MaxTokens:    b.maxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// synthesizeWithToolResult completes an auto-mode turn where the model asked
// for the lookup itself: the assistant tool_use and its tool_result are
// replayed so the second call continues the same exchange.
func (b *Bot) synthesizeWithToolResult(ctx context.Context, w session.Window, plan turnPlan, toolTurn *session.Turn) (string, error) {
	input, err := json.Marshal(map[string]string{"query": plan.searchQuery})
	if err != nil {
		return "", err
	}

	result := "No results."
	if toolTurn != nil {
		result = toolTurn.Text
	}

	msgs := append(buildContextMessages(w),
		provider.TextMessage(provider.RoleUser, w.Query),
		provider.Message{
			Role: provider.RoleAssistant,
			Content: []provider.Content{{
				Type:      provider.ContentTypeToolUse,
				ToolUseID: plan.toolCallID,
				ToolName:  searchToolName,
				ToolInput: input,
			}},
		},
		provider.Message{
			Role: provider.RoleUser,
			Content: []provider.Content{{
				Type:       provider.ContentTypeToolResult,
				ToolUseID:  plan.toolCallID,
				ToolResult: result,
			}},
		},
	)
	resp, err := b.provider.Complete(ctx, &provider.ChatRequest{
		Model:        b.model,
		Messages:     msgs,
		Tools:        []provider.ToolSchema{searchToolSchema},
		SystemPrompt: b.systemPrompt,
		MaxTokens:    b.maxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
