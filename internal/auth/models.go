package auth

// Credential is a short-lived bearer credential for mailbox calls.
// The token is opaque: no expiry is tracked, and a 401 during use is
// treated as expiry. It must never be logged or persisted.
type Credential struct {
	AccessToken string
	ClientID    string
}
