package auth

import "fmt"

// Kind classifies a credential failure.
type Kind string

const (
	KindInvalidGrant     Kind = "invalid_grant"
	KindInvalidClient    Kind = "invalid_client"
	KindProviderRejected Kind = "provider_rejected"
	KindNetworkTimeout   Kind = "network_timeout"
	KindUnauthorized     Kind = "unauthorized"
	KindForbidden        Kind = "forbidden"
)

// AuthError is a credential problem. It is fatal to the operation that
// raised it: the caller must re-obtain a credential rather than retry.
// Message is safe to show to users; raw provider bodies never end up
// in it.
type AuthError struct {
	Kind    Kind
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// ValidationError is a malformed input caught before any network call.
// It is the caller's fault and distinct from AuthError: nothing was
// sent to the provider.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
