package provider

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestOpenAI_BuildMessages(t *testing.T) {
	p := NewOpenAIProvider("key", "", "gpt-4o-mini", zerolog.Nop())

	req := &ChatRequest{
		SystemPrompt: "be helpful",
		Messages: []Message{
			TextMessage(RoleUser, "who is the CEO of Google?"),
			{
				Role: RoleAssistant,
				Content: []Content{{
					Type:      ContentTypeToolUse,
					ToolUseID: "call-1",
					ToolName:  "web_search",
					ToolInput: json.RawMessage(`{"query":"google ceo"}`),
				}},
			},
			{
				Role: RoleUser,
				Content: []Content{{
					Type:       ContentTypeToolResult,
					ToolUseID:  "call-1",
					ToolResult: "Sundar Pichai",
				}},
			},
		},
	}

	msgs := p.buildMessages(req)
	// system + user + assistant(tool_use) + tool
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	if msgs[0].OfSystem == nil {
		t.Error("expected system message first")
	}
	if msgs[1].OfUser == nil {
		t.Error("expected user message second")
	}
	if msgs[2].OfAssistant == nil || len(msgs[2].OfAssistant.ToolCalls) != 1 {
		t.Error("expected assistant message carrying the tool call")
	}
	if msgs[3].OfTool == nil {
		t.Error("expected tool result as a tool-role message")
	}
}

func TestOpenAI_BuildTools(t *testing.T) {
	p := NewOpenAIProvider("key", "", "", zerolog.Nop())
	tools := p.buildTools([]ToolSchema{{
		Name:        "web_search",
		Description: "search the web",
		Parameters:  map[string]any{"query": map[string]any{"type": "string"}},
	}})
	if len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}
	if tools[0].Function.Name != "web_search" {
		t.Errorf("unexpected tool name %q", tools[0].Function.Name)
	}
}

func TestOpenAI_NameFromBaseURL(t *testing.T) {
	tests := []struct {
		baseURL string
		want    string
	}{
		{"", "openai"},
		{"https://api.deepseek.com/v1", "deepseek"},
		{"https://api.groq.com/openai/v1", "groq"},
		{"https://api.moonshot.cn/v1", "kimi"},
		{"https://dashscope.aliyuncs.com/compatible-mode/v1", "qwen"},
	}
	for _, tt := range tests {
		p := NewOpenAIProvider("key", tt.baseURL, "", zerolog.Nop())
		if p.Name() != tt.want {
			t.Errorf("baseURL %q: expected name %q, got %q", tt.baseURL, tt.want, p.Name())
		}
	}
}

func TestAnthropic_BuildMessages(t *testing.T) {
	p := NewAnthropicProvider("key", "", zerolog.Nop())

	msgs := p.buildMessages([]Message{
		TextMessage(RoleUser, "hello"),
		{
			Role: RoleAssistant,
			Content: []Content{{
				Type:      ContentTypeToolUse,
				ToolUseID: "call-1",
				ToolName:  "web_search",
				ToolInput: json.RawMessage(`{"query":"x"}`),
			}},
		},
		{
			Role: RoleUser,
			Content: []Content{{
				Type:       ContentTypeToolResult,
				ToolUseID:  "call-1",
				ToolResult: "results here",
			}},
		},
	})
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if string(msgs[0].Role) != "user" || string(msgs[1].Role) != "assistant" || string(msgs[2].Role) != "user" {
		t.Error("unexpected role mapping")
	}
}

func TestAnthropic_BuildTools(t *testing.T) {
	p := NewAnthropicProvider("key", "", zerolog.Nop())
	tools := p.buildTools([]ToolSchema{{
		Name:        "web_search",
		Description: "search the web",
		Parameters:  map[string]any{"query": map[string]any{"type": "string"}},
	}})
	if len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}
	if tools[0].OfTool == nil || tools[0].OfTool.Name != "web_search" {
		t.Error("unexpected tool mapping")
	}
}

func TestTextMessage(t *testing.T) {
	m := TextMessage(RoleUser, "hi")
	if m.Role != RoleUser || len(m.Content) != 1 || m.Content[0].Text != "hi" {
		t.Errorf("unexpected message: %+v", m)
	}
}
