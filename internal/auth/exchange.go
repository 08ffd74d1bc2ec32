package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

// tokenScope requests Graph access on behalf of the mailbox owner.
const tokenScope = "https://graph.microsoft.com/.default"

const exchangeTimeout = 10 * time.Second

// Exchanger trades a long-lived refresh token for a bearer access
// token. One POST per call, no caching, no automatic retry or refresh;
// callers re-exchange when a downstream 401 tells them the token died.
type Exchanger struct {
	endpoint oauth2.Endpoint
	client   *http.Client
}

// NewExchanger creates an exchanger against the common Microsoft
// identity endpoint.
func NewExchanger() *Exchanger {
	return NewExchangerWithEndpoint(microsoft.AzureADEndpoint("common"))
}

// NewExchangerWithEndpoint creates an exchanger against a custom token
// endpoint.
func NewExchangerWithEndpoint(endpoint oauth2.Endpoint) *Exchanger {
	return &Exchanger{
		endpoint: endpoint,
		client:   &http.Client{Timeout: exchangeTimeout},
	}
}

// Exchange validates its inputs, performs the refresh-token grant and
// returns the resulting credential. Malformed inputs come back as
// *ValidationError without touching the network; provider failures and
// timeouts come back as *AuthError.
func (e *Exchanger) Exchange(ctx context.Context, refreshToken, clientID string) (*Credential, error) {
	if err := validateInput("refresh token", refreshToken); err != nil {
		return nil, err
	}
	if err := validateInput("client id", clientID); err != nil {
		return nil, err
	}

	conf := &oauth2.Config{
		ClientID: clientID,
		Endpoint: e.endpoint,
		Scopes:   []string{tokenScope},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.client)
	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, mapExchangeError(err)
	}

	return &Credential{AccessToken: tok.AccessToken, ClientID: clientID}, nil
}

func validateInput(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	if len(value) < 10 {
		return &ValidationError{Field: field, Reason: "incomplete value"}
	}
	return nil
}

// mapExchangeError translates provider responses into the AuthError
// taxonomy. Raw provider bodies are dropped; only error_description
// survives, wrapped.
func mapExchangeError(err error) *AuthError {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		switch retrieveErr.ErrorCode {
		case "invalid_grant":
			return &AuthError{
				Kind:    KindInvalidGrant,
				Message: "refresh token invalid or expired; provision a new mailbox",
			}
		case "invalid_client":
			return &AuthError{
				Kind:    KindInvalidClient,
				Message: "client id rejected; check the provisioned mailbox data",
			}
		}
		if retrieveErr.ErrorDescription != "" {
			return &AuthError{
				Kind:    KindProviderRejected,
				Message: "token exchange rejected: " + retrieveErr.ErrorDescription,
			}
		}
		return &AuthError{
			Kind:    KindProviderRejected,
			Message: "could not obtain an access token",
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &AuthError{
			Kind:    KindNetworkTimeout,
			Message: "token endpoint timed out",
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &AuthError{
			Kind:    KindNetworkTimeout,
			Message: "token endpoint timed out",
		}
	}

	return &AuthError{
		Kind:    KindProviderRejected,
		Message: "could not obtain an access token",
	}
}
