// Package utils provides shared low-level helpers used throughout the aihub
// internals. It covers HTTP request helpers for both synchronous and
// streaming (SSE) communication with AI gateway APIs, generic pointer and
// string utilities, and a simple elapsed-time timer.
//
// Key entry points: [DoPostSync] and [DoGetSync] for synchronous JSON
// round-trips, [DoPostForm] for form-encoded exchanges (OAuth2 token
// endpoints), [DoPostStream] together with [SSEScanner] for Server-Sent
// Events streaming, [Ptr] for converting values to pointers, and [Timer]
// for measuring latency.
package utils
