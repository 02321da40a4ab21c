// Package observability defines the vendor-neutral tracing, metrics, and
// structured-logging contract used across the SDK. Components propagate a
// [Provider] and [Span] through a [context.Context] using [ContextWithObserver]
// and [ContextWithSpan]; they can be retrieved with [ObserverFromContext] and
// [SpanFromContext]. When neither is present in the context, instrumented code
// paths are no-ops, so observability is strictly opt-in.
//
// The slog subpackage provides a ready-to-use implementation backed by the
// standard library's log/slog.
package observability
