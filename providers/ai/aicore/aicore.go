package aicore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/halcyonair/aihub/internal/utils"
	"github.com/halcyonair/aihub/providers/ai"
	"github.com/halcyonair/aihub/providers/observability"
)

var (
	// ErrUnsupportedModel is returned when the requested model id belongs to
	// neither known model family. The check is pure; no network call is made.
	ErrUnsupportedModel = errors.New("unsupported model")

	// ErrNoDeployment is returned when no running deployment serves the
	// requested model, even after refreshing the deployment list.
	ErrNoDeployment = errors.New("no running deployment")
)

// Config carries the gateway credentials and endpoints supplied by the host.
type Config struct {
	ClientID      string // OAuth2 client id for the client-credentials exchange
	ClientSecret  string // OAuth2 client secret
	AuthURL       string // Token endpoint URL
	BaseURL       string // Gateway API base URL (no trailing slash)
	ResourceGroup string // Resource group header value scoping all API calls
}

// Provider implements [ai.Provider] and [ai.StreamProvider] against the
// enterprise AI hub gateway. Use [New] or [NewFromEnv] to construct a
// ready-to-use instance.
type Provider struct {
	config   Config
	client   *http.Client
	auth     *authenticator
	resolver *deploymentResolver
}

// New returns a Provider for the given gateway configuration.
func New(config Config) *Provider {
	provider := &Provider{
		config: config,
		client: &http.Client{},
	}
	provider.rewire()
	return provider
}

// NewFromEnv returns a Provider initialized from environment variables:
// AICORE_CLIENT_ID, AICORE_CLIENT_SECRET, AICORE_AUTH_URL, AICORE_BASE_URL,
// and AICORE_RESOURCE_GROUP (defaulting to "default" when unset).
func NewFromEnv() *Provider {
	resourceGroup := os.Getenv("AICORE_RESOURCE_GROUP")
	if resourceGroup == "" {
		resourceGroup = "default"
	}

	return New(Config{
		ClientID:      os.Getenv("AICORE_CLIENT_ID"),
		ClientSecret:  os.Getenv("AICORE_CLIENT_SECRET"),
		AuthURL:       os.Getenv("AICORE_AUTH_URL"),
		BaseURL:       os.Getenv("AICORE_BASE_URL"),
		ResourceGroup: resourceGroup,
	})
}

// rewire rebuilds the authenticator and resolver from the current config and
// HTTP client. Called after construction and after any WithX mutation so the
// stateful components never hold stale endpoints.
func (p *Provider) rewire() {
	p.auth = &authenticator{
		clientID:     p.config.ClientID,
		clientSecret: p.config.ClientSecret,
		tokenURL:     p.config.AuthURL,
		client:       p.client,
	}
	p.resolver = &deploymentResolver{
		baseURL:       p.config.BaseURL,
		resourceGroup: p.config.ResourceGroup,
		client:        p.client,
		auth:          p.auth,
	}
}

// WithBaseURL overrides the gateway API base URL and returns the provider so
// calls can be chained. Use this when targeting a proxy or local testing endpoint.
func (p *Provider) WithBaseURL(baseURL string) ai.Provider {
	p.config.BaseURL = baseURL
	p.rewire()
	return p
}

// WithAuthURL overrides the OAuth2 token endpoint URL and returns the
// provider so calls can be chained.
func (p *Provider) WithAuthURL(authURL string) *Provider {
	p.config.AuthURL = authURL
	p.rewire()
	return p
}

// WithHttpClient replaces the default [http.Client] used for API calls and
// returns the provider so calls can be chained. Useful for injecting custom
// timeouts, transport layers, or test doubles.
func (p *Provider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	p.rewire()
	return p
}

// buildHeaders constructs the headers every inference and listing call
// carries beyond the bearer token: the resource group scoping header.
func (p *Provider) buildHeaders() []utils.HeaderOption {
	return []utils.HeaderOption{
		{Key: "AI-Resource-Group", Value: p.config.ResourceGroup},
	}
}

// StreamMessage implements [ai.StreamProvider]. It chains the per-request
// stages sequentially: family resolution (pure, fails fast on unknown
// models), token fetch, deployment resolution, then a streaming POST whose
// SSE body is re-emitted through the family's parser.
//
// Pre-stream errors (auth, deployment resolution, non-2xx response, network
// failure) are returned as a normal error. Mid-stream transport errors are
// yielded through the iterator; malformed SSE frames are skipped.
func (p *Provider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	span := observability.SpanFromContext(ctx)
	observer := observability.ObserverFromContext(ctx)

	model, ok := LookupModel(request.Model)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, request.Model)
	}
	wire := wireFormats[model.Family]

	if span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, "aicore"),
			observability.String(observability.AttrLLMEndpoint, p.config.BaseURL),
			observability.String(observability.AttrLLMModel, request.Model),
			observability.String(observability.AttrGatewayModelFamily, string(model.Family)),
			observability.String(observability.AttrGatewayResourceGroup, p.config.ResourceGroup),
			observability.Bool("llm.streaming", true),
		)
	}

	if observer != nil {
		observer.Trace(ctx, "AI hub provider preparing streaming request",
			observability.String(observability.AttrLLMProvider, "aicore"),
			observability.String(observability.AttrLLMEndpoint, p.config.BaseURL),
			observability.String(observability.AttrLLMModel, request.Model),
			observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
		)
	}

	token, err := p.auth.Token(ctx)
	if err != nil {
		if observer != nil {
			observer.Trace(ctx, "Authentication failed", observability.Error(err))
		}
		return nil, err
	}

	deployment, err := p.resolver.deploymentForModel(ctx, request.Model)
	if err != nil {
		if observer != nil {
			observer.Trace(ctx, "Deployment resolution failed", observability.Error(err))
		}
		return nil, err
	}

	if span != nil {
		span.SetAttributes(observability.String(observability.AttrGatewayDeploymentID, deployment.ID))
	}

	payload, err := wire.buildPayload(request, model)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", model.Family, err)
	}

	streamURL := wire.endpoint(p.config.BaseURL, deployment.ID)

	// Send the streaming request — body is left open for SSE reading.
	httpResponse, err := utils.DoPostStream(ctx, p.client, streamURL, token, payload, p.buildHeaders()...)
	if err != nil {
		if observer != nil {
			observer.Trace(ctx, "Streaming HTTP request failed", observability.Error(err))
		}
		return nil, err
	}

	return ai.NewChatStream(wire.parseStream(ctx, httpResponse.Body)), nil
}

// SendMessage implements [ai.Provider] by issuing a streaming request and
// collecting it into a complete response. The gateway only exposes streaming
// inference endpoints, so the synchronous path rides on the same translation.
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	timer := utils.NewTimer()

	stream, err := p.StreamMessage(ctx, request)
	if err != nil {
		return nil, err
	}

	response, err := stream.Collect()
	if err != nil {
		return nil, err
	}
	response.Model = request.Model

	timer.Stop()
	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Histogram("llm.request.duration_ms").Record(ctx, float64(timer.GetDuration().Milliseconds()),
			observability.String(observability.AttrLLMModel, request.Model),
		)
	}

	return response, nil
}

// IsStopMessage reports whether message represents a terminal response that
// requires no further action. A nil message, a response whose FinishReason is
// "stop", "length", or "content_filter", or a response with no content are
// treated as stop signals.
func (p *Provider) IsStopMessage(message *ai.ChatResponse) bool {
	if message == nil {
		return true
	}
	if message.FinishReason == "stop" || message.FinishReason == "length" || message.FinishReason == "content_filter" {
		return true
	}
	return message.Content == ""
}

// Interface guards
var (
	_ ai.Provider       = (*Provider)(nil)
	_ ai.StreamProvider = (*Provider)(nil)
)
