package aicore

import (
	"fmt"
	"strings"

	"github.com/halcyonair/aihub/internal/utils"
	"github.com/halcyonair/aihub/providers/ai"
)

/*
	OPENAI-FORMAT DEPLOYMENTS - REQUEST TYPES

	OpenAI-format deployments expose the chat completions surface on a
	versioned path. The api-version query parameter pins the wire format.
*/

// openaiAPIVersion is the api-version query parameter on chat completions calls.
const openaiAPIVersion = "2023-05-15"

// Sampling defaults for the OpenAI branch. Applied whenever the caller does
// not override them through GenerationConfig.
const (
	defaultTemperature      = 0.7
	defaultFrequencyPenalty = 0.0
	defaultPresencePenalty  = 0.0
)

// openaiRequest is the request body for OpenAI-format deployments.
type openaiRequest struct {
	Messages         []openaiMessage `json:"messages"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      *float64        `json:"temperature"`
	FrequencyPenalty *float64        `json:"frequency_penalty"`
	PresencePenalty  *float64        `json:"presence_penalty"`
	TopP             *float64        `json:"top_p,omitempty"`
	Stream           bool            `json:"stream"`
}

// openaiMessage represents a single message in the conversation.
type openaiMessage struct {
	Role    string `json:"role"` // "system", "user", or "assistant"
	Content string `json:"content"`
}

// openaiWire implements wireFormat for OpenAI-format deployments.
type openaiWire struct{}

func (openaiWire) family() Family { return FamilyOpenAI }

// endpoint returns the chat completions URL for a deployment.
func (openaiWire) endpoint(baseURL, deploymentID string) string {
	return fmt.Sprintf("%s/v2/inference/deployments/%s/chat/completions?api-version=%s", baseURL, deploymentID, openaiAPIVersion)
}

// buildPayload converts the generic request to the chat completions wire
// format. The system prompt becomes the leading system message; structured
// content parts are flattened to text. Sampling parameters fall back to the
// branch defaults when GenerationConfig does not set them.
func (openaiWire) buildPayload(request ai.ChatRequest, model Model) (any, error) {
	messages := make([]openaiMessage, 0, len(request.Messages)+1)

	if request.SystemPrompt != "" {
		messages = append(messages, openaiMessage{Role: "system", Content: request.SystemPrompt})
	}

	for _, msg := range request.Messages {
		switch msg.Role {
		case ai.RoleSystem, ai.RoleUser, ai.RoleAssistant:
			messages = append(messages, openaiMessage{
				Role:    string(msg.Role),
				Content: flattenContent(msg),
			})
		default:
			return nil, fmt.Errorf("openai-format deployments do not accept role %q in messages", msg.Role)
		}
	}

	req := openaiRequest{
		Messages:         messages,
		MaxTokens:        model.MaxOutputTokens,
		Temperature:      utils.Ptr(defaultTemperature),
		FrequencyPenalty: utils.Ptr(defaultFrequencyPenalty),
		PresencePenalty:  utils.Ptr(defaultPresencePenalty),
		Stream:           true,
	}

	if cfg := request.GenerationConfig; cfg != nil {
		if cfg.MaxOutputTokens > 0 && cfg.MaxOutputTokens < model.MaxOutputTokens {
			req.MaxTokens = cfg.MaxOutputTokens
		} else if cfg.MaxTokens > 0 && cfg.MaxTokens < model.MaxOutputTokens {
			req.MaxTokens = cfg.MaxTokens
		}
		if cfg.Temperature > 0 {
			req.Temperature = utils.Ptr(float64(cfg.Temperature))
		}
		if cfg.FrequencyPenalty != 0 {
			req.FrequencyPenalty = utils.Ptr(float64(cfg.FrequencyPenalty))
		}
		if cfg.PresencePenalty != 0 {
			req.PresencePenalty = utils.Ptr(float64(cfg.PresencePenalty))
		}
		if cfg.TopP > 0 {
			req.TopP = utils.Ptr(float64(cfg.TopP))
		}
	}

	return req, nil
}

// flattenContent joins structured content parts into a single text string,
// falling back to the plain Content field.
func flattenContent(msg ai.Message) string {
	if len(msg.ContentParts) == 0 {
		return msg.Content
	}
	parts := make([]string, 0, len(msg.ContentParts))
	for _, part := range msg.ContentParts {
		parts = append(parts, part.Text)
	}
	return strings.Join(parts, "\n")
}
