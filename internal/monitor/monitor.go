package monitor

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/otpwatch/mail-otp-infra/internal/auth"
	"github.com/otpwatch/mail-otp-infra/internal/extract"
	"github.com/otpwatch/mail-otp-infra/internal/mail"
)

// Status of a finished monitor run.
type Status string

const (
	StatusFound     Status = "found"
	StatusNotFound  Status = "not_found"
	StatusCancelled Status = "cancelled"
)

// Outcome describes how a monitor run ended. Not finding a code within
// the attempt budget is a legitimate outcome, not an error.
type Outcome struct {
	Status   Status
	Code     string
	Attempts int
	RunID    string
}

const (
	// DefaultMaxAttempts bounds the polling loop.
	DefaultMaxAttempts = 60
	// DefaultBaseDelay is the wait after the first empty attempt.
	DefaultBaseDelay = 2 * time.Second
	// delayStep grows the wait on each later attempt, giving
	// slower-arriving mail more time without unbounding the total.
	delayStep = 100 * time.Millisecond
)

type singleScanner interface {
	ScanOnce(ctx context.Context) (extract.Result, error)
}

// Monitor drives repeated scans until a code is found, the attempt
// budget runs out, the context is cancelled, or the credential turns
// out to be dead.
type Monitor struct {
	scanner     singleScanner
	maxAttempts int
	baseDelay   time.Duration
}

// NewMonitor creates a monitor around one scanner. Non-positive
// parameters fall back to the defaults.
func NewMonitor(scanner singleScanner, maxAttempts int, baseDelay time.Duration) *Monitor {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return &Monitor{
		scanner:     scanner,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}
}

// Run executes the polling loop. Transient absence of mail is retried
// with a linearly growing delay; a 401/403 is not, because retrying
// with a dead token burns the budget and cannot succeed — it surfaces
// as *auth.AuthError. Cancellation is observed between attempts and at
// the top of each sleep and yields StatusCancelled, distinct from
// StatusNotFound.
func (m *Monitor) Run(ctx context.Context) (Outcome, error) {
	runID := uuid.NewString()
	log.Printf("monitor %s: start (%d attempts, base delay %s)", runID, m.maxAttempts, m.baseDelay)

	for attempt := 0; attempt < m.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			log.Printf("monitor %s: cancelled before attempt %d", runID, attempt+1)
			return Outcome{Status: StatusCancelled, Attempts: attempt, RunID: runID}, nil
		}

		result, err := m.scanner.ScanOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Printf("monitor %s: cancelled during attempt %d", runID, attempt+1)
				return Outcome{Status: StatusCancelled, Attempts: attempt + 1, RunID: runID}, nil
			}
			var fetchErr *mail.FetchError
			if errors.As(err, &fetchErr) && fetchErr.Fatal() {
				log.Printf("monitor %s: fatal auth failure on attempt %d (status %d)", runID, attempt+1, fetchErr.Status)
				return Outcome{Attempts: attempt + 1, RunID: runID}, credentialError(fetchErr)
			}
			// Soft folder errors are absorbed inside the scanner;
			// anything else still burns the attempt.
			log.Printf("monitor %s: scan error on attempt %d: %v", runID, attempt+1, err)
		}

		if result.Found {
			log.Printf("monitor %s: code found on attempt %d", runID, attempt+1)
			return Outcome{Status: StatusFound, Code: result.Code, Attempts: attempt + 1, RunID: runID}, nil
		}

		if attempt < m.maxAttempts-1 {
			wait := m.baseDelay + time.Duration(attempt)*delayStep
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				log.Printf("monitor %s: cancelled while waiting", runID)
				return Outcome{Status: StatusCancelled, Attempts: attempt + 1, RunID: runID}, nil
			case <-timer.C:
			}
		}
	}

	log.Printf("monitor %s: attempts exhausted", runID)
	return Outcome{Status: StatusNotFound, Attempts: m.maxAttempts, RunID: runID}, nil
}

func credentialError(fetchErr *mail.FetchError) error {
	if fetchErr.Kind == mail.FetchForbidden {
		return &auth.AuthError{
			Kind:    auth.KindForbidden,
			Message: "permission denied; check the mailbox credentials",
		}
	}
	return &auth.AuthError{
		Kind:    auth.KindUnauthorized,
		Message: "session expired; provision a new mailbox",
	}
}
