package aicore

import "strings"

// Family identifies the wire format a model is served with. The gateway
// exposes Anthropic-format and OpenAI-format deployments; everything else is
// unsupported.
type Family string

const (
	FamilyAnthropic Family = "anthropic"
	FamilyOpenAI    Family = "openai"
)

// Model describes a logical model the gateway can serve: its wire-format
// family, context and output limits, and pricing per million tokens (used by
// the cost package).
type Model struct {
	ID              string  // Logical model name, without version suffix
	Name            string  // Human-readable name
	Family          Family  // Wire format served by the deployment
	ContextLength   int     // Maximum context window in tokens
	MaxOutputTokens int     // Hard cap sent as max_tokens on every request
	InputPrice      float64 // USD per million prompt tokens
	OutputPrice     float64 // USD per million completion tokens
}

// catalog is the static model registry. Keys are logical base names; the
// version suffix of a requested model id (everything after the first ':') is
// ignored during lookup.
var catalog = map[string]Model{
	"claude-3-5-sonnet": {
		ID:              "claude-3-5-sonnet",
		Name:            "Claude 3.5 Sonnet",
		Family:          FamilyAnthropic,
		ContextLength:   200000,
		MaxOutputTokens: 8192,
		InputPrice:      3.0,
		OutputPrice:     15.0,
	},
	"claude-3-7-sonnet": {
		ID:              "claude-3-7-sonnet",
		Name:            "Claude 3.7 Sonnet",
		Family:          FamilyAnthropic,
		ContextLength:   200000,
		MaxOutputTokens: 64000,
		InputPrice:      3.0,
		OutputPrice:     15.0,
	},
	"claude-4-sonnet": {
		ID:              "claude-4-sonnet",
		Name:            "Claude Sonnet 4",
		Family:          FamilyAnthropic,
		ContextLength:   200000,
		MaxOutputTokens: 64000,
		InputPrice:      3.0,
		OutputPrice:     15.0,
	},
	"claude-3-5-haiku": {
		ID:              "claude-3-5-haiku",
		Name:            "Claude 3.5 Haiku",
		Family:          FamilyAnthropic,
		ContextLength:   200000,
		MaxOutputTokens: 8192,
		InputPrice:      0.8,
		OutputPrice:     4.0,
	},
	"claude-3-opus": {
		ID:              "claude-3-opus",
		Name:            "Claude 3 Opus",
		Family:          FamilyAnthropic,
		ContextLength:   200000,
		MaxOutputTokens: 4096,
		InputPrice:      15.0,
		OutputPrice:     75.0,
	},
	"gpt-4o": {
		ID:              "gpt-4o",
		Name:            "GPT-4o",
		Family:          FamilyOpenAI,
		ContextLength:   128000,
		MaxOutputTokens: 16384,
		InputPrice:      2.5,
		OutputPrice:     10.0,
	},
	"gpt-4o-mini": {
		ID:              "gpt-4o-mini",
		Name:            "GPT-4o mini",
		Family:          FamilyOpenAI,
		ContextLength:   128000,
		MaxOutputTokens: 16384,
		InputPrice:      0.15,
		OutputPrice:     0.6,
	},
	"gpt-4": {
		ID:              "gpt-4",
		Name:            "GPT-4",
		Family:          FamilyOpenAI,
		ContextLength:   8192,
		MaxOutputTokens: 8192,
		InputPrice:      30.0,
		OutputPrice:     60.0,
	},
	"gpt-4-32k": {
		ID:              "gpt-4-32k",
		Name:            "GPT-4 32k",
		Family:          FamilyOpenAI,
		ContextLength:   32768,
		MaxOutputTokens: 8192,
		InputPrice:      60.0,
		OutputPrice:     120.0,
	},
	"gpt-35-turbo": {
		ID:              "gpt-35-turbo",
		Name:            "GPT-3.5 Turbo",
		Family:          FamilyOpenAI,
		ContextLength:   16385,
		MaxOutputTokens: 4096,
		InputPrice:      0.5,
		OutputPrice:     1.5,
	},
	"o3-mini": {
		ID:              "o3-mini",
		Name:            "o3-mini",
		Family:          FamilyOpenAI,
		ContextLength:   200000,
		MaxOutputTokens: 100000,
		InputPrice:      1.1,
		OutputPrice:     4.4,
	},
}

// LookupModel returns the catalog entry for a logical model id. The version
// suffix (after the first ':') is stripped before lookup, so
// "claude-3-5-sonnet:20241022" resolves the "claude-3-5-sonnet" entry.
func LookupModel(modelID string) (Model, bool) {
	model, ok := catalog[strings.ToLower(baseModelName(modelID))]
	return model, ok
}

// Models returns all catalog entries. The slice is a copy; mutating it does
// not affect the registry.
func Models() []Model {
	result := make([]Model, 0, len(catalog))
	for _, model := range catalog {
		result = append(result, model)
	}
	return result
}

// baseModelName strips the version suffix from a model id: everything from
// the first ':' onward is discarded. Deployments label models the same way
// ("name:version"), which makes this the shared normalization for both
// catalog lookups and deployment matching.
func baseModelName(modelID string) string {
	if idx := strings.Index(modelID, ":"); idx >= 0 {
		return modelID[:idx]
	}
	return modelID
}
