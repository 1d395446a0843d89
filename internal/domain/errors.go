package domain

import (
	"errors"
	"fmt"
	"strings"
)

// APIError is the single error shape surfaced across the gateway core.
// Adapters never let an unmapped upstream failure escape; everything is
// converted to an APIError at the adapter boundary.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Code       string `json:"code"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// NewAPIError creates an APIError with an explicit status, message and code.
func NewAPIError(statusCode int, message, code string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ErrModelNotFound reports that no catalog contains the requested model id.
func ErrModelNotFound(modelID string) *APIError {
	return NewAPIError(400, fmt.Sprintf("Model '%s' not found", modelID), "MODEL_NOT_FOUND")
}

// ErrProviderModelMismatch reports that the request pinned a provider that
// does not own the resolved model. The message names both providers.
func ErrProviderModelMismatch(modelID string, owner, requested AIProvider) *APIError {
	return NewAPIError(
		400,
		fmt.Sprintf("Model '%s' belongs to provider '%s', not '%s'", modelID, owner, requested),
		"PROVIDER_MODEL_MISMATCH",
	)
}

// ErrUnsupportedProvider reports a provider with no registered adapter.
// This is a configuration bug, not a user error, hence the 500.
func ErrUnsupportedProvider(p AIProvider) *APIError {
	return NewAPIError(500, fmt.Sprintf("Unsupported provider: %s", p), "UNSUPPORTED_PROVIDER")
}

// codeTag returns the upper-cased provider tag used in upstream error codes.
func codeTag(p AIProvider) string {
	return strings.ToUpper(string(p))
}

// displayName returns the provider name used in human-readable messages.
func displayName(p AIProvider) string {
	switch p {
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderDeepSeek:
		return "DeepSeek"
	case ProviderLiteLLM:
		return "LiteLLM"
	case ProviderOpenAICompatible:
		return "OpenAI-compatible"
	default:
		return string(p)
	}
}

// ErrConnection maps a transport-level failure (no HTTP response reached) to
// the provider's connection error.
func ErrConnection(p AIProvider, cause error) *APIError {
	return NewAPIError(
		500,
		fmt.Sprintf("%s API connection error: %v", displayName(p), cause),
		codeTag(p)+"_CONNECTION_ERROR",
	)
}

// ErrUpstream maps an upstream HTTP status to the provider error taxonomy.
// The table is identical for every provider; only the tag differs.
// upstreamMessage is the message extracted from the upstream error body, if
// any; it is only used verbatim for 400 responses.
func ErrUpstream(p AIProvider, statusCode int, upstreamMessage string) *APIError {
	name := displayName(p)
	tag := codeTag(p)

	switch statusCode {
	case 401:
		return NewAPIError(401, fmt.Sprintf("Invalid %s API key", name), tag+"_UNAUTHORIZED")
	case 429:
		return NewAPIError(429, fmt.Sprintf("%s rate limit exceeded", name), tag+"_RATE_LIMIT")
	case 400:
		message := upstreamMessage
		if message == "" {
			message = fmt.Sprintf("Bad request to %s API", name)
		}
		return NewAPIError(400, message, tag+"_BAD_REQUEST")
	default:
		message := fmt.Sprintf("%s API error", name)
		if upstreamMessage != "" {
			message = fmt.Sprintf("%s API error: %s", name, upstreamMessage)
		}
		return NewAPIError(statusCode, message, tag+"_API_ERROR")
	}
}

// ErrBadUpstreamPayload maps a 2xx upstream response whose body could not be
// decoded. The payload is malformed but the call itself succeeded, so it is
// reported as a provider API error rather than a connection failure.
func ErrBadUpstreamPayload(p AIProvider, cause error) *APIError {
	return NewAPIError(
		500,
		fmt.Sprintf("Invalid response from %s API: %v", displayName(p), cause),
		codeTag(p)+"_API_ERROR",
	)
}

// AsAPIError extracts the APIError from err, converting unrecognized errors
// into a generic internal error so nothing else leaks past the core boundary.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewAPIError(500, "Internal server error", "INTERNAL_ERROR")
}
