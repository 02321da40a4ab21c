package cost

import (
	"fmt"

	"github.com/halcyonair/aihub/providers/ai"
	"github.com/halcyonair/aihub/providers/ai/aicore"
)

// tokensPerPriceUnit is the denominator for catalog prices, which are quoted
// per million tokens.
const tokensPerPriceUnit = 1_000_000

// Breakdown itemizes the cost of a single request in USD.
type Breakdown struct {
	Model      string  `json:"model"`
	InputCost  float64 `json:"input_cost"`
	OutputCost float64 `json:"output_cost"`
	TotalCost  float64 `json:"total_cost"`
}

// String returns a compact human-readable rendering of the breakdown.
func (b Breakdown) String() string {
	return fmt.Sprintf("%s: $%.6f (input $%.6f, output $%.6f)", b.Model, b.TotalCost, b.InputCost, b.OutputCost)
}

// Calculate prices a usage snapshot against the catalog entry for modelID.
// Returns an error when the model is not in the catalog or usage is nil.
func Calculate(modelID string, usage *ai.Usage) (Breakdown, error) {
	if usage == nil {
		return Breakdown{}, fmt.Errorf("usage is nil")
	}

	model, ok := aicore.LookupModel(modelID)
	if !ok {
		return Breakdown{}, fmt.Errorf("unknown model %q", modelID)
	}

	inputCost := float64(usage.PromptTokens) * model.InputPrice / tokensPerPriceUnit
	outputCost := float64(usage.CompletionTokens) * model.OutputPrice / tokensPerPriceUnit

	return Breakdown{
		Model:      model.ID,
		InputCost:  inputCost,
		OutputCost: outputCost,
		TotalCost:  inputCost + outputCost,
	}, nil
}
