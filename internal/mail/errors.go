package mail

import "fmt"

// FetchKind classifies a folder fetch failure.
type FetchKind string

const (
	FetchUnauthorized  FetchKind = "unauthorized"
	FetchForbidden     FetchKind = "forbidden"
	FetchNetwork       FetchKind = "network"
	FetchProviderError FetchKind = "provider_error"
)

// FetchError is the tagged result of a failed folder fetch. Callers
// inspect Kind to decide whether the failure kills the whole scan
// (dead or under-privileged credential) or just that folder.
type FetchError struct {
	Kind   FetchKind
	Folder Folder
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: %s (status %d)", e.Folder, e.Kind, e.Status)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.Folder, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fatal reports whether the failure invalidates the credential for
// every folder. 401 means the token is dead, 403 means the grant lacks
// mailbox permission; neither is folder-specific.
func (e *FetchError) Fatal() bool {
	return e.Kind == FetchUnauthorized || e.Kind == FetchForbidden
}
