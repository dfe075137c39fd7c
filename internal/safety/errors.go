// Package safety provides the typed tool-failure taxonomy and the recipient
// policy applied before outbound email delivery.
package safety

import "encoding/json"

// Failure kinds surfaced back to the model inside tool_result payloads.
// Tool implementations classify their own errors into one of these; anything
// unclassifiable is a plain error and reported as a generic tool error.
const (
	KindUpstreamUnavailable  = "UPSTREAM_UNAVAILABLE"
	KindRateLimited          = "RATE_LIMITED"
	KindAuthenticationFailed = "AUTHENTICATION_FAILED"
	KindRecipientRejected    = "RECIPIENT_REJECTED"
	KindTransportError       = "TRANSPORT_ERROR"
)

// ToolError is a machine-readable error body for surfacing back to the agent as JSON.
type ToolError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Error returns a compact, single-line JSON string to keep tool_result payloads small.
func (e ToolError) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}
