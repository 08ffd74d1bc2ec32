package outlook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/models/odataerrors"
	"github.com/microsoftgraph/msgraph-sdk-go/users"

	"github.com/otpwatch/mail-otp-infra/internal/auth"
	"github.com/otpwatch/mail-otp-infra/internal/mail"
)

// Adapter implements mail.FolderReader over Microsoft Graph
type Adapter struct {
	client *msgraphsdk.GraphServiceClient
}

const requestTimeout = 10 * time.Second

// Projection limited to the normalized Message shape to keep payloads
// small.
var selectFields = []string{"id", "subject", "from", "receivedDateTime", "bodyPreview", "body"}

// New creates a Graph-backed adapter bound to one credential
func New(cred *auth.Credential) (*Adapter, error) {
	tokenCred := &staticTokenCredential{token: cred.AccessToken}

	client, err := msgraphsdk.NewGraphServiceClientWithCredentials(tokenCred, []string{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Graph client: %w", err)
	}

	return &Adapter{client: client}, nil
}

// List fetches the most recent limit messages of a folder, newest
// first, normalized into the canonical Message shape. Failures come
// back as *mail.FetchError carrying the HTTP status when the provider
// answered.
func (a *Adapter) List(ctx context.Context, folder mail.Folder, limit int) ([]mail.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	requestConfig := &users.ItemMailFoldersItemMessagesRequestBuilderGetRequestConfiguration{
		QueryParameters: &users.ItemMailFoldersItemMessagesRequestBuilderGetQueryParameters{
			Top:     Int32Ptr(int32(limit)),
			Orderby: []string{"receivedDateTime desc"},
			Select:  selectFields,
		},
	}

	result, err := a.client.Me().MailFolders().ByMailFolderId(string(folder)).Messages().Get(ctx, requestConfig)
	if err != nil {
		return nil, fetchError(folder, err)
	}

	raw := result.GetValue()
	messages := make([]mail.Message, 0, len(raw))
	for _, m := range raw {
		if m == nil {
			continue
		}
		messages = append(messages, normalizeMessage(m))
	}
	return messages, nil
}

// fetchError maps a Graph failure onto the FetchError taxonomy. The
// caller tells 401 (dead token) and 403 (missing permission) apart
// from soft per-folder failures.
func fetchError(folder mail.Folder, err error) *mail.FetchError {
	var odataErr *odataerrors.ODataError
	if errors.As(err, &odataErr) {
		status := odataErr.ResponseStatusCode
		kind := mail.FetchProviderError
		switch status {
		case http.StatusUnauthorized:
			kind = mail.FetchUnauthorized
		case http.StatusForbidden:
			kind = mail.FetchForbidden
		}
		return &mail.FetchError{Kind: kind, Folder: folder, Status: status, Err: err}
	}
	return &mail.FetchError{Kind: mail.FetchNetwork, Folder: folder, Err: err}
}

// normalizeMessage converts a Graph message to the canonical shape
func normalizeMessage(m models.Messageable) mail.Message {
	msg := mail.Message{
		Subject: "(no subject)",
		From:    "(unknown)",
	}

	if id := m.GetId(); id != nil {
		msg.ID = *id
	}

	if subject := m.GetSubject(); subject != nil && *subject != "" {
		msg.Subject = *subject
	}

	if from := m.GetFrom(); from != nil {
		if emailAddr := from.GetEmailAddress(); emailAddr != nil {
			if addr := emailAddr.GetAddress(); addr != nil && *addr != "" {
				msg.From = *addr
			}
		}
	}

	if rcvd := m.GetReceivedDateTime(); rcvd != nil {
		msg.ReceivedAt = *rcvd
	}

	if preview := m.GetBodyPreview(); preview != nil {
		msg.Preview = *preview
	}

	if body := m.GetBody(); body != nil {
		if content := body.GetContent(); content != nil {
			msg.Body = *content
		}
	}

	// Preview stands in when the full body was not returned.
	if msg.Body == "" {
		msg.Body = msg.Preview
	}

	return msg
}

// staticTokenCredential implements Azure credential interface
type staticTokenCredential struct {
	token string
}

func (c *staticTokenCredential) GetToken(ctx context.Context, options policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{
		Token:     c.token,
		ExpiresOn: time.Now().Add(1 * time.Hour),
	}, nil
}

// Int32Ptr returns a pointer to an int32
func Int32Ptr(i int32) *int32 {
	return &i
}
