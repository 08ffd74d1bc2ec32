package monitor

import (
	"context"
	"errors"
	"log"

	"github.com/otpwatch/mail-otp-infra/internal/extract"
	"github.com/otpwatch/mail-otp-infra/internal/mail"
)

// DefaultFolderLimit is how many messages each folder contributes to
// one scan pass.
const DefaultFolderLimit = 30

// Scanner performs a single extraction pass across the mailbox
// folders in priority order.
type Scanner struct {
	reader  mail.FolderReader
	folders []mail.Folder
	limit   int
}

// NewScanner creates a scanner over the standard folder order. A
// non-positive limit falls back to DefaultFolderLimit.
func NewScanner(reader mail.FolderReader, limit int) *Scanner {
	if limit <= 0 {
		limit = DefaultFolderLimit
	}
	return &Scanner{
		reader:  reader,
		folders: mail.ScanOrder(),
		limit:   limit,
	}
}

// ScanOnce checks each folder in order and returns the first extracted
// code. A 401 or 403 aborts the pass immediately: the credential is
// dead for every folder, so scanning further wastes calls. Any other
// folder failure is logged and the next folder is tried.
func (s *Scanner) ScanOnce(ctx context.Context) (extract.Result, error) {
	for _, folder := range s.folders {
		if err := ctx.Err(); err != nil {
			return extract.Result{}, err
		}

		messages, err := s.reader.List(ctx, folder, s.limit)
		if err != nil {
			var fetchErr *mail.FetchError
			if errors.As(err, &fetchErr) && fetchErr.Fatal() {
				return extract.Result{}, err
			}
			log.Printf("scan: folder %s unavailable: %v", folder, err)
			continue
		}

		for _, msg := range messages {
			text := msg.Body
			if text == "" {
				text = msg.Preview
			}
			if text == "" {
				continue
			}
			if result := extract.Extract(text); result.Found {
				log.Printf("scan: code found in %s", folder)
				return result, nil
			}
		}
	}

	return extract.Result{}, nil
}
