package aicore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/halcyonair/aihub/internal/utils"
	"github.com/halcyonair/aihub/providers/observability"
)

// deploymentsEndpoint is the path of the gateway's deployment listing API,
// relative to the base URL.
const deploymentsEndpoint = "/v2/lm/deployments"

// deploymentsPageSize is sent as the $top pagination parameter. The gateway
// caps resource groups well below this, so a single page always holds the
// full list.
const deploymentsPageSize = "10000"

// Deployment is a running model deployment resolved from the gateway:
// an opaque identifier plus the served model's name and version.
type Deployment struct {
	ID           string
	ModelName    string
	ModelVersion string
}

// Label returns the deployment's "name:version" model label.
func (d Deployment) Label() string {
	return d.ModelName + ":" + d.ModelVersion
}

// deploymentResolver maps logical model names to live deployments. The list
// is fetched lazily and refreshed reactively: only when a lookup misses, and
// at most once per lookup. There is no TTL. The cache is mutex-guarded; a
// refresh replaces the list wholesale (last write wins).
type deploymentResolver struct {
	baseURL       string
	resourceGroup string
	client        *http.Client
	auth          *authenticator

	mu          sync.Mutex
	deployments []Deployment
	fetched     bool
}

/*
	DEPLOYMENT LISTING - WIRE TYPES

	The listing endpoint nests the served model under
	resources.backend_details.model. Some gateway versions serialize
	backend_details as an embedded JSON string rather than an object, so the
	field is captured raw and parsed tolerantly.
*/

type deploymentList struct {
	Count     int              `json:"count"`
	Resources []deploymentItem `json:"resources"`
}

type deploymentItem struct {
	ID           string            `json:"id"`
	TargetStatus string            `json:"targetStatus"`
	Status       string            `json:"status,omitempty"`
	Details      deploymentDetails `json:"details"`
}

type deploymentDetails struct {
	Resources deploymentResources `json:"resources"`
}

type deploymentResources struct {
	BackendDetails json.RawMessage `json:"backend_details,omitempty"`
}

type backendDetails struct {
	Model backendModel `json:"model"`
}

type backendModel struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// deploymentForModel returns the deployment serving the given logical model.
// Matching compares the requested model's base name (version suffix stripped
// at the first ':') against the deployment's model name, case-insensitively.
// On a miss the whole list is refreshed once and matching is retried; a second
// miss fails with an error naming the model.
func (r *deploymentResolver) deploymentForModel(ctx context.Context, modelID string) (Deployment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fetched {
		if deployment, ok := matchDeployment(r.deployments, modelID); ok {
			return deployment, nil
		}
	}

	deployments, err := r.fetchDeployments(ctx)
	if err != nil {
		return Deployment{}, err
	}
	r.deployments = deployments
	r.fetched = true

	if deployment, ok := matchDeployment(r.deployments, modelID); ok {
		return deployment, nil
	}

	return Deployment{}, fmt.Errorf("%w for model %q", ErrNoDeployment, modelID)
}

// invalidate drops the cached list so the next lookup fetches a fresh one.
func (r *deploymentResolver) invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deployments = nil
	r.fetched = false
}

// matchDeployment scans for a deployment whose model name equals the
// requested model's base name, ignoring case. No partial-match fallback.
func matchDeployment(deployments []Deployment, modelID string) (Deployment, bool) {
	wanted := baseModelName(modelID)
	for _, deployment := range deployments {
		if strings.EqualFold(deployment.ModelName, wanted) {
			return deployment, true
		}
	}
	return Deployment{}, false
}

// fetchDeployments retrieves the full deployment list from the gateway and
// filters it down to well-formed, running entries. Entries that are not in
// the RUNNING target state, or whose backend details lack a model name or
// version, are dropped silently.
func (r *deploymentResolver) fetchDeployments(ctx context.Context) ([]Deployment, error) {
	observer := observability.ObserverFromContext(ctx)

	token, err := r.auth.Token(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("$top", deploymentsPageSize)

	_, list, err := utils.DoGetSync[deploymentList](
		ctx,
		r.client,
		r.baseURL+deploymentsEndpoint,
		token,
		query,
		utils.HeaderOption{Key: "AI-Resource-Group", Value: r.resourceGroup},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deployments: %w", err)
	}

	deployments := make([]Deployment, 0, len(list.Resources))
	for _, item := range list.Resources {
		if item.TargetStatus != "RUNNING" {
			continue
		}

		model, ok := parseBackendModel(item.Details.Resources.BackendDetails)
		if !ok {
			if observer != nil {
				observer.Debug(ctx, "Skipping deployment without model details",
					observability.String(observability.AttrGatewayDeploymentID, item.ID),
				)
			}
			continue
		}

		deployments = append(deployments, Deployment{
			ID:           item.ID,
			ModelName:    model.Name,
			ModelVersion: model.Version,
		})
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventDeploymentsRefreshed,
			observability.Int("gateway.deployments.count", len(deployments)),
		)
	}

	return deployments, nil
}

// parseBackendModel extracts the model name/version from the raw
// backend_details field, which may be a JSON object or a JSON string holding
// encoded (possibly sloppy) JSON. Entries without both name and version are
// rejected.
func parseBackendModel(raw json.RawMessage) (backendModel, bool) {
	if len(raw) == 0 {
		return backendModel{}, false
	}

	var details backendDetails
	if err := json.Unmarshal(raw, &details); err == nil && details.Model.Name != "" && details.Model.Version != "" {
		return details.Model, true
	}

	// Fall back to the string-encoded form.
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return backendModel{}, false
	}
	details, err := utils.ParseStringAs[backendDetails](encoded)
	if err != nil || details.Model.Name == "" || details.Model.Version == "" {
		return backendModel{}, false
	}
	return details.Model, true
}
