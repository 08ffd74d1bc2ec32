package mail

import (
	"context"
	"time"
)

// Folder identifies a provider mail folder by its well-known key.
type Folder string

const (
	FolderInbox        Folder = "inbox"
	FolderDeletedItems Folder = "deleteditems"
	FolderJunk         Folder = "junkemail"
)

// ScanOrder returns the folders in scan priority order. New
// transactional mail usually lands in the inbox, can already sit in
// deleted items if a rule handled it, and occasionally gets auto-filed
// to junk, so the inbox is checked first.
func ScanOrder() []Folder {
	return []Folder{FolderInbox, FolderDeletedItems, FolderJunk}
}

// Message is the normalized view of a provider message. Instances are
// read-only after normalization; Body is always set (possibly empty)
// and falls back to Preview when the provider returned no full body.
type Message struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	From       string    `json:"from"`
	ReceivedAt time.Time `json:"receivedDateTime"`
	Preview    string    `json:"bodyPreview"`
	Body       string    `json:"body"`
}

// FolderReader lists the most recent messages of a single folder,
// ordered by receive time descending.
type FolderReader interface {
	List(ctx context.Context, folder Folder, limit int) ([]Message, error)
}
