// Package server exposes the mailbox engine over HTTP. Results cross
// this boundary as plain envelopes with a success flag; typed errors
// are mapped to their user-facing messages here and raw provider error
// bodies never leave the process.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/otpwatch/mail-otp-infra/internal/auth"
	"github.com/otpwatch/mail-otp-infra/internal/mail"
	"github.com/otpwatch/mail-otp-infra/internal/monitor"
)

type tokenExchanger interface {
	Exchange(ctx context.Context, refreshToken, clientID string) (*auth.Credential, error)
}

type inboxMonitor interface {
	Monitor(ctx context.Context, cred *auth.Credential, maxAttempts int, baseDelay time.Duration) (monitor.Outcome, error)
}

// Server wires the engine components behind the HTTP routes. All
// dependencies are injected; there is no package-level client state.
type Server struct {
	exchanger tokenExchanger
	monitors  inboxMonitor
	factory   monitor.ReaderFactory
	listLimit int
}

// New creates a server.
func New(exchanger tokenExchanger, monitors inboxMonitor, factory monitor.ReaderFactory, listLimit int) *Server {
	return &Server{
		exchanger: exchanger,
		monitors:  monitors,
		factory:   factory,
		listLimit: listLimit,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")
	api.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	api.POST("/token", s.handleToken)
	api.POST("/monitor", s.handleMonitor)
	api.POST("/emails", s.handleEmails)

	return r
}

type tokenRequest struct {
	RefreshToken string `json:"refreshToken"`
	ClientID     string `json:"clientId"`
}

type tokenResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
}

func (s *Server) handleToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tokenResponse{Success: false, Message: "invalid request body"})
		return
	}

	cred, err := s.exchanger.Exchange(c.Request.Context(), req.RefreshToken, req.ClientID)
	if err != nil {
		c.JSON(http.StatusOK, tokenResponse{Success: false, Message: userMessage(err)})
		return
	}

	c.JSON(http.StatusOK, tokenResponse{Success: true, AccessToken: cred.AccessToken})
}

type monitorRequest struct {
	AccessToken string `json:"accessToken"`
	MaxAttempts int    `json:"maxAttempts"`
	BaseDelayMs int    `json:"baseDelayMs"`
}

type monitorResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	VerificationCode string `json:"verificationCode"`
}

func (s *Server) handleMonitor(c *gin.Context) {
	var req monitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, monitorResponse{Success: false, Message: "invalid request body"})
		return
	}

	if len(req.AccessToken) < 10 {
		c.JSON(http.StatusOK, monitorResponse{Success: false, Message: "access token invalid or incomplete"})
		return
	}

	cred := &auth.Credential{AccessToken: req.AccessToken}
	baseDelay := time.Duration(req.BaseDelayMs) * time.Millisecond

	// The request context carries cancellation: a client that goes
	// away aborts the polling loop.
	outcome, err := s.monitors.Monitor(c.Request.Context(), cred, req.MaxAttempts, baseDelay)
	if err != nil {
		c.JSON(http.StatusOK, monitorResponse{Success: false, Message: userMessage(err)})
		return
	}

	switch outcome.Status {
	case monitor.StatusFound:
		c.JSON(http.StatusOK, monitorResponse{
			Success:          true,
			Message:          "verification code found",
			VerificationCode: outcome.Code,
		})
	case monitor.StatusCancelled:
		c.JSON(http.StatusOK, monitorResponse{
			Success: false,
			Message: "monitoring cancelled",
		})
	default:
		c.JSON(http.StatusOK, monitorResponse{
			Success: false,
			Message: "verification code not found; check that the email arrived and contains a 6-digit code",
		})
	}
}

type emailsRequest struct {
	AccessToken string `json:"accessToken"`
	Limit       int    `json:"limit"`
}

type emailsResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Emails  []mail.Message `json:"emails"`
}

func (s *Server) handleEmails(c *gin.Context) {
	var req emailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, emailsResponse{Success: false, Message: "invalid request body", Emails: []mail.Message{}})
		return
	}

	if len(req.AccessToken) < 10 {
		c.JSON(http.StatusOK, emailsResponse{Success: false, Message: "access token invalid or incomplete", Emails: []mail.Message{}})
		return
	}

	reader, err := s.factory(&auth.Credential{AccessToken: req.AccessToken})
	if err != nil {
		log.Printf("emails: create reader: %v", err)
		c.JSON(http.StatusOK, emailsResponse{Success: false, Message: "could not list emails", Emails: []mail.Message{}})
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.listLimit
	}

	emails := mail.NewLister(reader).List(c.Request.Context(), mail.ScanOrder(), limit)
	if emails == nil {
		emails = []mail.Message{}
	}

	c.JSON(http.StatusOK, emailsResponse{
		Success: true,
		Message: "emails listed",
		Emails:  emails,
	})
}

// userMessage maps typed errors to their user-facing text. Anything
// untyped gets a generic message so provider internals stay inside.
func userMessage(err error) string {
	var validationErr *auth.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}

	var authErr *auth.AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}

	if errors.Is(err, monitor.ErrMonitorRunning) {
		return monitor.ErrMonitorRunning.Error()
	}

	log.Printf("server: unmapped error: %v", err)
	return "operation failed, try again"
}
