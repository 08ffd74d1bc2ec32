package monitor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/otpwatch/mail-otp-infra/internal/auth"
	"github.com/otpwatch/mail-otp-infra/internal/mail"
	natsjs "github.com/otpwatch/mail-otp-infra/internal/nats"
)

// ErrMonitorRunning means a monitor is already polling for the same
// credential. The operation is read-only, so running two is harmless
// but pure waste; the second caller is refused instead.
var ErrMonitorRunning = errors.New("a monitor is already running for this credential")

// ReaderFactory builds a folder reader bound to one credential.
type ReaderFactory func(cred *auth.Credential) (mail.FolderReader, error)

// Manager runs monitor loops, guarding at most one concurrent run per
// credential and emitting lifecycle events when a publisher is
// configured.
type Manager struct {
	factory     ReaderFactory
	publisher   *natsjs.Publisher
	maxAttempts int
	baseDelay   time.Duration
	folderLimit int

	running      map[string]struct{}
	runningMutex sync.Mutex
}

// NewManager creates a manager. publisher may be nil, which disables
// events. Non-positive limits fall back to the monitor defaults.
func NewManager(factory ReaderFactory, publisher *natsjs.Publisher, maxAttempts int, baseDelay time.Duration, folderLimit int) *Manager {
	return &Manager{
		factory:     factory,
		publisher:   publisher,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		folderLimit: folderLimit,
		running:     make(map[string]struct{}),
	}
}

// Monitor runs the polling loop for cred. maxAttempts and baseDelay
// override the manager's configured values when positive. A second
// concurrent call for the same credential fails with
// ErrMonitorRunning.
func (m *Manager) Monitor(ctx context.Context, cred *auth.Credential, maxAttempts int, baseDelay time.Duration) (Outcome, error) {
	key := fingerprint(cred.AccessToken)

	m.runningMutex.Lock()
	if _, exists := m.running[key]; exists {
		m.runningMutex.Unlock()
		return Outcome{}, ErrMonitorRunning
	}
	m.running[key] = struct{}{}
	m.runningMutex.Unlock()

	defer func() {
		m.runningMutex.Lock()
		delete(m.running, key)
		m.runningMutex.Unlock()
	}()

	reader, err := m.factory(cred)
	if err != nil {
		return Outcome{}, fmt.Errorf("create mail reader: %w", err)
	}

	if maxAttempts <= 0 {
		maxAttempts = m.maxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = m.baseDelay
	}

	mon := NewMonitor(NewScanner(reader, m.folderLimit), maxAttempts, baseDelay)
	outcome, runErr := mon.Run(ctx)
	m.publishOutcome(key, outcome, runErr)
	return outcome, runErr
}

// IsRunning reports whether a monitor is active for the credential.
func (m *Manager) IsRunning(cred *auth.Credential) bool {
	key := fingerprint(cred.AccessToken)

	m.runningMutex.Lock()
	defer m.runningMutex.Unlock()

	_, exists := m.running[key]
	return exists
}

// publishOutcome emits a lifecycle event. Payloads carry the run ID
// and credential fingerprint, never token material or the code's
// source text.
func (m *Manager) publishOutcome(key string, outcome Outcome, runErr error) {
	if m.publisher == nil {
		return
	}

	name := "finished"
	switch {
	case runErr != nil:
		name = "failed"
	case outcome.Status == StatusFound:
		name = "code.found"
	case outcome.Status == StatusNotFound:
		name = "exhausted"
	case outcome.Status == StatusCancelled:
		name = "cancelled"
	}

	event := map[string]interface{}{
		"run_id":      outcome.RunID,
		"credential":  key,
		"status":      string(outcome.Status),
		"attempts":    outcome.Attempts,
		"found":       outcome.Status == StatusFound,
		"finished_at": time.Now().Unix(),
	}

	payload, _ := json.Marshal(event)
	subject := fmt.Sprintf("mailbox.%s.monitor.%s", key, name)
	msgID := fmt.Sprintf("monitor|%s|%s", key, outcome.RunID)

	if err := m.publisher.Publish(subject, payload, msgID); err != nil {
		log.Printf("manager: publish %s: %v", subject, err)
	}
}

// fingerprint derives a stable non-reversible key for a credential so
// the raw token never appears in maps, logs or event subjects.
func fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
