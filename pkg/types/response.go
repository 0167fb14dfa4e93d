// Package types holds the wire envelopes shared by every JSON endpoint.
package types

// SuccessEnvelope wraps every 2xx payload under a "data" key so clients
// decode uniformly regardless of endpoint.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error body. Details is only populated for
// codes whose metadata allows structured detail.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
