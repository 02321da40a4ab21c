package aicore

import (
	"context"
	"io"
	"iter"

	"github.com/halcyonair/aihub/providers/ai"
)

// wireFormat is the per-family translation contract. Each model family
// provides a sibling implementation: it knows its inference endpoint shape,
// how to build the provider-specific JSON payload, and how to parse the SSE
// response back into normalized stream events.
type wireFormat interface {
	// family returns the tag this implementation serves.
	family() Family

	// endpoint returns the full inference URL for a resolved deployment.
	endpoint(baseURL, deploymentID string) string

	// buildPayload converts the generic request into the family's JSON body.
	// The catalog entry supplies the max-token cap and other static metadata.
	buildPayload(request ai.ChatRequest, model Model) (any, error)

	// parseStream consumes the open SSE response body and yields normalized
	// events. Implementations own closing the body when the iterator finishes
	// or is abandoned.
	parseStream(ctx context.Context, body io.ReadCloser) iter.Seq2[ai.StreamEvent, error]
}

// wireFormats maps each family tag to its implementation. Resolved once per
// request from the catalog entry; there is no string-list scan per call.
var wireFormats = map[Family]wireFormat{
	FamilyAnthropic: anthropicWire{},
	FamilyOpenAI:    openaiWire{},
}
