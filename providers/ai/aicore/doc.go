// Package aicore implements [ai.Provider] and [ai.StreamProvider] for an
// enterprise AI hub gateway that fronts multiple model families behind a
// single deployment-based inference API.
//
// A request goes through three stages: an OAuth2 client-credentials exchange
// (tokens are cached in memory until expiry), resolution of the logical model
// name to a live deployment (the deployment list is fetched lazily and
// refreshed once on a miss), and a streaming POST to the family-specific
// inference endpoint. The SSE response is re-emitted as normalized
// [ai.StreamEvent] values carrying text deltas and cumulative token usage.
//
// Model families are a closed set: Anthropic-format and OpenAI-format
// deployments. The family is resolved once from the static model catalog;
// each family supplies its own payload builder and stream parser.
package aicore
