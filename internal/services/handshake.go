package services

import (
	"context"
	"errors"
	"log"
	"time"
	"unicode"

	"github.com/RengaN02/api.ss13.org/internal/metrics"
	"github.com/RengaN02/api.ss13.org/internal/models"
	"github.com/RengaN02/api.ss13.org/internal/provider"
	"github.com/RengaN02/api.ss13.org/internal/store"
)

// ErrInvalidAccessCode is returned when the correlation token is not purely
// alphanumeric. The check runs before any store or provider call.
var ErrInvalidAccessCode = errors.New("access code must be alphanumeric")

// HandshakeService runs the end-to-end authentication handshake: access code
// validation, token exchange, identity fetch, link resolution and approval.
type HandshakeService struct {
	store    *store.Store
	provider *provider.Client
	audit    *AuditService
	metrics  metrics.Recorder
}

func NewHandshakeService(
	s *store.Store,
	p *provider.Client,
	audit *AuditService,
	m metrics.Recorder,
) *HandshakeService {
	return &HandshakeService{
		store:    s,
		provider: p,
		audit:    audit,
		metrics:  m,
	}
}

// AuthCodeURL returns the provider authorize URL with the access code carried
// as OAuth state.
func (s *HandshakeService) AuthCodeURL(accessCode string) string {
	return s.provider.AuthCodeURL(accessCode)
}

// Authorize validates the access code against a pending request, exchanges
// the authorization code, resolves the external identity and an optional
// account link, then approves the request. Any step failure aborts the
// handshake and leaves the pending request untouched, so the player can retry
// with a fresh authorization code while the freshness window lasts.
func (s *HandshakeService) Authorize(
	ctx context.Context,
	accessCode, authCode, actorIP string,
) (*provider.Identity, error) {
	if !isAlphanumeric(accessCode) {
		return nil, s.fail(accessCode, actorIP, "", ErrInvalidAccessCode)
	}

	requestID, err := s.store.FindPendingRequest(accessCode)
	if err != nil {
		return nil, s.fail(accessCode, actorIP, "", err)
	}

	start := time.Now()
	token, err := s.provider.ExchangeCode(ctx, authCode)
	s.metrics.RecordProviderCall("token_exchange", time.Since(start), err == nil)
	if err != nil {
		return nil, s.fail(accessCode, actorIP, "", err)
	}

	start = time.Now()
	identity, err := s.provider.FetchIdentity(ctx, token.AccessToken)
	s.metrics.RecordProviderCall("identity_fetch", time.Since(start), err == nil)
	if err != nil {
		return nil, s.fail(accessCode, actorIP, "", err)
	}

	approval := models.Approval{
		Method:           s.provider.Name(),
		ExternalUID:      identity.ID,
		ExternalUsername: identity.Username,
	}

	// An unlinked identity is a normal outcome: the request is approved
	// without an account reference.
	link, err := s.store.GetAccountLink(identity.ID)
	switch {
	case err == nil:
		approval.InternalAccountID = &link.AccountID
	case errors.Is(err, store.ErrNotLinked):
		// leave InternalAccountID unset
	default:
		return nil, s.fail(accessCode, actorIP, identity.ID, err)
	}

	if err := s.store.ApproveRequest(requestID, approval); err != nil {
		return nil, s.fail(accessCode, actorIP, identity.ID, err)
	}

	s.metrics.RecordHandshake("approved")
	s.audit.Record(AuditEntry{
		EventType:   models.EventHandshakeApproved,
		AccessCode:  accessCode,
		Method:      approval.Method,
		ExternalUID: identity.ID,
		ActorIP:     actorIP,
		Success:     true,
	})
	log.Printf("[Handshake] Request approved: id=%d method=%s uid=%s",
		requestID, approval.Method, identity.ID)

	return identity, nil
}

// fail records metrics and audit for a failed handshake and returns the error.
func (s *HandshakeService) fail(accessCode, actorIP, externalUID string, err error) error {
	s.metrics.RecordHandshake(failureResult(err))
	s.audit.Record(AuditEntry{
		EventType:   models.EventHandshakeFailed,
		AccessCode:  accessCode,
		ExternalUID: externalUID,
		ActorIP:     actorIP,
		Success:     false,
		Reason:      err.Error(),
	})
	return err
}

// failureResult maps a handshake error to a metrics result label.
func failureResult(err error) string {
	var apiErr *provider.APIError
	switch {
	case errors.Is(err, ErrInvalidAccessCode):
		return "invalid_code"
	case errors.Is(err, store.ErrRequestNotFound):
		return "not_found"
	case errors.Is(err, store.ErrRequestAlreadyApproved):
		return "already_approved"
	case errors.As(err, &apiErr):
		return "provider_error"
	case errors.Is(err, provider.ErrTimeout):
		return "timeout"
	case errors.Is(err, provider.ErrTransport):
		return "transport_error"
	case errors.Is(err, provider.ErrDecode):
		return "decode_error"
	default:
		return "store_error"
	}
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
