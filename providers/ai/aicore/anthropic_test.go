package aicore

import (
	"strings"
	"testing"

	"github.com/halcyonair/aihub/providers/ai"
)

func anthropicModel(t *testing.T) Model {
	t.Helper()
	model, ok := LookupModel("claude-3-5-sonnet")
	if !ok {
		t.Fatal("claude-3-5-sonnet missing from the catalog")
	}
	return model
}

// TestAnthropicBuildPayload_Defaults checks the baseline translation: version
// pin, system field, content blocks, and the catalog max-token cap.
func TestAnthropicBuildPayload_Defaults(t *testing.T) {
	model := anthropicModel(t)

	payload, err := anthropicWire{}.buildPayload(ai.ChatRequest{
		Model:        "claude-3-5-sonnet",
		SystemPrompt: "Be brief.",
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: "hello"},
			{Role: ai.RoleAssistant, Content: "hi"},
		},
	}, model)
	if err != nil {
		t.Fatalf("buildPayload returned unexpected error: %v", err)
	}

	request := payload.(anthropicRequest)
	if request.AnthropicVersion != anthropicWireVersion {
		t.Errorf("anthropic_version: got %q, want %q", request.AnthropicVersion, anthropicWireVersion)
	}
	if request.System != "Be brief." {
		t.Errorf("system: got %q, want %q", request.System, "Be brief.")
	}
	if request.MaxTokens != model.MaxOutputTokens {
		t.Errorf("max_tokens: got %d, want the catalog cap %d", request.MaxTokens, model.MaxOutputTokens)
	}
	if request.Temperature != nil || request.TopP != nil {
		t.Error("sampling parameters should be omitted when unset")
	}
	if len(request.Messages) != 2 {
		t.Fatalf("messages: got %d, want 2", len(request.Messages))
	}
	if request.Messages[0].Role != "user" || request.Messages[0].Content[0].Text != "hello" {
		t.Errorf("first message: got %+v", request.Messages[0])
	}
}

// TestAnthropicBuildPayload_MaxTokensClamped verifies that GenerationConfig
// can lower but never raise the catalog's output-token cap.
func TestAnthropicBuildPayload_MaxTokensClamped(t *testing.T) {
	model := anthropicModel(t)

	tests := []struct {
		name      string
		requested int
		want      int
	}{
		{"below cap", 100, 100},
		{"above cap", model.MaxOutputTokens * 2, model.MaxOutputTokens},
		{"unset", 0, model.MaxOutputTokens},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := anthropicWire{}.buildPayload(ai.ChatRequest{
				Messages:         []ai.Message{{Role: ai.RoleUser, Content: "hi"}},
				GenerationConfig: &ai.GenerationConfig{MaxOutputTokens: tt.requested},
			}, model)
			if err != nil {
				t.Fatalf("buildPayload returned unexpected error: %v", err)
			}
			if got := payload.(anthropicRequest).MaxTokens; got != tt.want {
				t.Errorf("max_tokens: got %d, want %d", got, tt.want)
			}
		})
	}
}

// TestAnthropicBuildPayload_RejectsSystemRole verifies that a system role in
// the messages array is rejected; the system prompt has a dedicated field.
func TestAnthropicBuildPayload_RejectsSystemRole(t *testing.T) {
	_, err := anthropicWire{}.buildPayload(ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: "be brief"},
			{Role: ai.RoleUser, Content: "hi"},
		},
	}, anthropicModel(t))
	if err == nil {
		t.Fatal("expected an error for a system-role message, got nil")
	}
	if !strings.Contains(err.Error(), "system") {
		t.Errorf("error %q does not name the rejected role", err)
	}
}

// TestAnthropicBuildPayload_ContentParts verifies that structured content
// parts become individual content blocks.
func TestAnthropicBuildPayload_ContentParts(t *testing.T) {
	payload, err := anthropicWire{}.buildPayload(ai.ChatRequest{
		Messages: []ai.Message{
			{
				Role: ai.RoleUser,
				ContentParts: []ai.ContentPart{
					{Type: "text", Text: "first"},
					{Type: "text", Text: "second"},
				},
			},
		},
	}, anthropicModel(t))
	if err != nil {
		t.Fatalf("buildPayload returned unexpected error: %v", err)
	}

	blocks := payload.(anthropicRequest).Messages[0].Content
	if len(blocks) != 2 || blocks[0].Text != "first" || blocks[1].Text != "second" {
		t.Errorf("content blocks: got %+v, want [first second]", blocks)
	}
}
