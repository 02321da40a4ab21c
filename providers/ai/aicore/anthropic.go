package aicore

import (
	"fmt"

	"github.com/halcyonair/aihub/providers/ai"
)

/*
	ANTHROPIC-FORMAT DEPLOYMENTS - REQUEST TYPES

	Anthropic-format deployments accept the Messages API body on the
	gateway's invoke endpoint. The anthropic_version field pins the wire
	format the backend expects; the gateway rejects requests without it.
*/

// anthropicWireVersion is the required anthropic_version body field.
const anthropicWireVersion = "bedrock-2023-05-31"

// anthropicRequest is the request body for Anthropic-format deployments.
type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	System           string             `json:"system,omitempty"`
	Messages         []anthropicMessage `json:"messages"`
	MaxTokens        int                `json:"max_tokens"` // Required on every request
	Temperature      *float64           `json:"temperature,omitempty"`
	TopP             *float64           `json:"top_p,omitempty"`
}

// anthropicMessage represents a single message in the conversation.
type anthropicMessage struct {
	Role    string                  `json:"role"`    // "user" or "assistant"
	Content []anthropicContentBlock `json:"content"` // Array of content blocks
}

// anthropicContentBlock is a discriminated union via the Type field. Only
// text blocks are produced today.
type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// anthropicWire implements wireFormat for Anthropic-format deployments.
type anthropicWire struct{}

func (anthropicWire) family() Family { return FamilyAnthropic }

// endpoint returns the invoke-with-response-stream URL for a deployment.
func (anthropicWire) endpoint(baseURL, deploymentID string) string {
	return fmt.Sprintf("%s/v2/inference/deployments/%s/invoke-with-response-stream", baseURL, deploymentID)
}

// buildPayload converts the generic request to the Anthropic Messages wire
// format. The max-token cap comes from the catalog entry; GenerationConfig
// may lower it but never raise it.
func (anthropicWire) buildPayload(request ai.ChatRequest, model Model) (any, error) {
	messages, err := buildAnthropicMessages(request.Messages)
	if err != nil {
		return nil, err
	}

	req := anthropicRequest{
		AnthropicVersion: anthropicWireVersion,
		System:           request.SystemPrompt,
		Messages:         messages,
		MaxTokens:        model.MaxOutputTokens,
	}

	if cfg := request.GenerationConfig; cfg != nil {
		if cfg.MaxOutputTokens > 0 && cfg.MaxOutputTokens < model.MaxOutputTokens {
			req.MaxTokens = cfg.MaxOutputTokens
		} else if cfg.MaxTokens > 0 && cfg.MaxTokens < model.MaxOutputTokens {
			req.MaxTokens = cfg.MaxTokens
		}
		if cfg.Temperature > 0 {
			temp := float64(cfg.Temperature)
			req.Temperature = &temp
		}
		if cfg.TopP > 0 {
			topP := float64(cfg.TopP)
			req.TopP = &topP
		}
	}

	return req, nil
}

// buildAnthropicMessages converts generic messages into Anthropic message
// objects. System messages are rejected here: the system prompt travels in
// the dedicated request field, and Anthropic-format deployments only accept
// user/assistant turns in the messages array.
func buildAnthropicMessages(messages []ai.Message) ([]anthropicMessage, error) {
	result := make([]anthropicMessage, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case ai.RoleUser, ai.RoleAssistant:
			result = append(result, anthropicMessage{
				Role:    string(msg.Role),
				Content: messageContentBlocks(msg),
			})
		default:
			return nil, fmt.Errorf("anthropic-format deployments do not accept role %q in messages", msg.Role)
		}
	}

	return result, nil
}

// messageContentBlocks translates a message's content into Anthropic content
// blocks, preferring structured parts over the plain text field.
func messageContentBlocks(msg ai.Message) []anthropicContentBlock {
	if len(msg.ContentParts) > 0 {
		blocks := make([]anthropicContentBlock, 0, len(msg.ContentParts))
		for _, part := range msg.ContentParts {
			blocks = append(blocks, anthropicContentBlock{Type: "text", Text: part.Text})
		}
		return blocks
	}
	return []anthropicContentBlock{{Type: "text", Text: msg.Content}}
}

// mapAnthropicStopReason normalizes Anthropic stop reasons to the generic
// finish-reason vocabulary shared by all providers.
func mapAnthropicStopReason(stopReason string) string {
	switch stopReason {
	case "end_turn", "stop_sequence":
		return "stop"
	case "max_tokens":
		return "length"
	default:
		return stopReason
	}
}
