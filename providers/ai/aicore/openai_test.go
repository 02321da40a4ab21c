package aicore

import (
	"testing"

	"github.com/halcyonair/aihub/providers/ai"
)

func openaiModel(t *testing.T) Model {
	t.Helper()
	model, ok := LookupModel("gpt-4o")
	if !ok {
		t.Fatal("gpt-4o missing from the catalog")
	}
	return model
}

// TestOpenaiBuildPayload_Defaults checks the baseline translation: leading
// system message, streaming flag, and the explicit sampling defaults.
func TestOpenaiBuildPayload_Defaults(t *testing.T) {
	model := openaiModel(t)

	payload, err := openaiWire{}.buildPayload(ai.ChatRequest{
		Model:        "gpt-4o",
		SystemPrompt: "Be brief.",
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: "hello"},
		},
	}, model)
	if err != nil {
		t.Fatalf("buildPayload returned unexpected error: %v", err)
	}

	request := payload.(openaiRequest)
	if !request.Stream {
		t.Error("stream flag was not set")
	}
	if len(request.Messages) != 2 {
		t.Fatalf("messages: got %d, want 2 (system + user)", len(request.Messages))
	}
	if request.Messages[0].Role != "system" || request.Messages[0].Content != "Be brief." {
		t.Errorf("leading message: got %+v, want the system prompt", request.Messages[0])
	}
	if request.Temperature == nil || *request.Temperature != defaultTemperature {
		t.Errorf("temperature: got %v, want default %v", request.Temperature, defaultTemperature)
	}
	if request.FrequencyPenalty == nil || *request.FrequencyPenalty != defaultFrequencyPenalty {
		t.Errorf("frequency_penalty: got %v, want default %v", request.FrequencyPenalty, defaultFrequencyPenalty)
	}
	if request.PresencePenalty == nil || *request.PresencePenalty != defaultPresencePenalty {
		t.Errorf("presence_penalty: got %v, want default %v", request.PresencePenalty, defaultPresencePenalty)
	}
	if request.TopP != nil {
		t.Error("top_p should be omitted when unset")
	}
	if request.MaxTokens != model.MaxOutputTokens {
		t.Errorf("max_tokens: got %d, want the catalog cap %d", request.MaxTokens, model.MaxOutputTokens)
	}
}

// TestOpenaiBuildPayload_GenerationConfig verifies that caller overrides
// replace the sampling defaults and clamp the token budget.
func TestOpenaiBuildPayload_GenerationConfig(t *testing.T) {
	model := openaiModel(t)

	payload, err := openaiWire{}.buildPayload(ai.ChatRequest{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "hi"}},
		GenerationConfig: &ai.GenerationConfig{
			MaxOutputTokens:  256,
			Temperature:      0.25,
			TopP:             0.75,
			FrequencyPenalty: 0.5,
			PresencePenalty:  -0.5,
		},
	}, model)
	if err != nil {
		t.Fatalf("buildPayload returned unexpected error: %v", err)
	}

	request := payload.(openaiRequest)
	if request.MaxTokens != 256 {
		t.Errorf("max_tokens: got %d, want 256", request.MaxTokens)
	}
	if request.Temperature == nil || *request.Temperature != 0.25 {
		t.Errorf("temperature: got %v, want 0.25", request.Temperature)
	}
	if request.TopP == nil || *request.TopP != 0.75 {
		t.Errorf("top_p: got %v, want 0.75", request.TopP)
	}
	if request.FrequencyPenalty == nil || *request.FrequencyPenalty != 0.5 {
		t.Errorf("frequency_penalty: got %v, want 0.5", request.FrequencyPenalty)
	}
	if request.PresencePenalty == nil || *request.PresencePenalty != -0.5 {
		t.Errorf("presence_penalty: got %v, want -0.5", request.PresencePenalty)
	}
}

// TestOpenaiBuildPayload_SystemRoleAllowed verifies that system-role messages
// pass through untouched on this branch.
func TestOpenaiBuildPayload_SystemRoleAllowed(t *testing.T) {
	payload, err := openaiWire{}.buildPayload(ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: "be brief"},
			{Role: ai.RoleUser, Content: "hi"},
		},
	}, openaiModel(t))
	if err != nil {
		t.Fatalf("buildPayload returned unexpected error: %v", err)
	}
	request := payload.(openaiRequest)
	if request.Messages[0].Role != "system" {
		t.Errorf("first message role: got %q, want %q", request.Messages[0].Role, "system")
	}
}

// TestOpenaiBuildPayload_FlattensContentParts verifies that structured parts
// collapse into a single newline-joined string.
func TestOpenaiBuildPayload_FlattensContentParts(t *testing.T) {
	payload, err := openaiWire{}.buildPayload(ai.ChatRequest{
		Messages: []ai.Message{
			{
				Role: ai.RoleUser,
				ContentParts: []ai.ContentPart{
					{Type: "text", Text: "first"},
					{Type: "text", Text: "second"},
				},
			},
		},
	}, openaiModel(t))
	if err != nil {
		t.Fatalf("buildPayload returned unexpected error: %v", err)
	}
	if got := payload.(openaiRequest).Messages[0].Content; got != "first\nsecond" {
		t.Errorf("flattened content: got %q, want %q", got, "first\nsecond")
	}
}

// TestOpenaiBuildPayload_RejectsUnknownRole verifies the role allowlist.
func TestOpenaiBuildPayload_RejectsUnknownRole(t *testing.T) {
	_, err := openaiWire{}.buildPayload(ai.ChatRequest{
		Messages: []ai.Message{{Role: "tool", Content: "result"}},
	}, openaiModel(t))
	if err == nil {
		t.Fatal("expected an error for an unknown role, got nil")
	}
}
