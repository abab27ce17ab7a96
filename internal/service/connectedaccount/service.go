// Package connectedaccount links third-party accounts to collectives.
package connectedaccount

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/collective-ledger/internal/auth"
	"github.com/josh-kwaku/collective-ledger/internal/domain"
	"github.com/josh-kwaku/collective-ledger/internal/logging"
)

type accountRepo interface {
	Ensure(ctx context.Context, service domain.ConnectedAccountService, collectiveID uuid.UUID, createdBy *uuid.UUID) (*domain.ConnectedAccount, error)
	UpdateCredentials(ctx context.Context, a *domain.ConnectedAccount) error
	ListByCollective(ctx context.Context, collectiveID uuid.UUID) ([]domain.ConnectedAccount, error)
}

type collectiveRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Collective, error)
}

type Service struct {
	accounts    accountRepo
	collectives collectiveRepo
	secret      string
	tokenTTL    time.Duration
}

func NewService(accounts accountRepo, collectives collectiveRepo, secret string, tokenTTL time.Duration) *Service {
	return &Service{
		accounts:    accounts,
		collectives: collectives,
		secret:      secret,
		tokenTTL:    tokenTTL,
	}
}

// LinkRequest carries what the OAuth callback of a provider hands back.
// Nil fields leave the stored value untouched.
type LinkRequest struct {
	Service         domain.ConnectedAccountService
	CollectiveID    uuid.UUID
	CreatedByUserID uuid.UUID
	Username        *string
	ClientID        *string
	Token           *string
	Data            json.RawMessage
}

type LinkResult struct {
	Account *domain.ConnectedAccount
	// VerificationToken is empty when the provider gave no username.
	VerificationToken string
}

// Ensure returns the single account for (service, collective), creating it
// on first use. createdBy is recorded only by the call that creates it;
// uuid.Nil leaves it empty.
func (s *Service) Ensure(ctx context.Context, service domain.ConnectedAccountService, collectiveID, createdBy uuid.UUID) (*domain.ConnectedAccount, error) {
	if !service.IsValid() {
		return nil, fmt.Errorf("Ensure: %q: %w", service, domain.ErrUnsupportedService)
	}
	if _, err := s.collectives.GetByID(ctx, collectiveID); err != nil {
		return nil, fmt.Errorf("Ensure: %w", err)
	}

	var by *uuid.UUID
	if createdBy != uuid.Nil {
		by = &createdBy
	}
	a, err := s.accounts.Ensure(ctx, service, collectiveID, by)
	if err != nil {
		return nil, fmt.Errorf("Ensure: %w", err)
	}
	return a, nil
}

// Link ensures the account and overwrites the credentials the provider
// returned.
func (s *Service) Link(ctx context.Context, req LinkRequest) (*LinkResult, error) {
	if len(req.Data) > 0 && !json.Valid(req.Data) {
		return nil, fmt.Errorf("Link: data is not valid JSON: %w", domain.ErrInvalidRequest)
	}

	a, err := s.Ensure(ctx, req.Service, req.CollectiveID, req.CreatedByUserID)
	if err != nil {
		return nil, fmt.Errorf("Link: %w", err)
	}

	if req.Username != nil {
		a.Username = req.Username
	}
	if req.ClientID != nil {
		a.ClientID = req.ClientID
	}
	if req.Token != nil {
		a.Token = req.Token
	}
	if len(req.Data) > 0 {
		a.Data = req.Data
	}
	if err := s.accounts.UpdateCredentials(ctx, a); err != nil {
		return nil, fmt.Errorf("Link: %w", err)
	}

	logging.FromContext(ctx).Info("connected account linked",
		"connected_account_id", a.ID,
		"collective_id", a.CollectiveID,
		"service", a.Service,
	)

	res := &LinkResult{Account: a}
	if a.Username != nil && *a.Username != "" {
		token, err := auth.GenerateConnectedAccountToken(auth.ConnectedAccountClaims{
			ConnectedAccountID: a.ID,
			CollectiveID:       a.CollectiveID,
			Service:            string(a.Service),
			Username:           *a.Username,
		}, s.secret, s.tokenTTL)
		if err != nil {
			return nil, fmt.Errorf("Link: %w", err)
		}
		res.VerificationToken = token
	}
	return res, nil
}

// Verify checks a token issued by Link.
func (s *Service) Verify(token string) (*auth.ConnectedAccountClaims, error) {
	claims, err := auth.ValidateConnectedAccountToken(token, s.secret)
	if err != nil {
		return nil, fmt.Errorf("Verify: %w: %w", domain.ErrInvalidRequest, err)
	}
	return claims, nil
}

func (s *Service) List(ctx context.Context, collectiveID uuid.UUID) ([]domain.ConnectedAccount, error) {
	if _, err := s.collectives.GetByID(ctx, collectiveID); err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	accounts, err := s.accounts.ListByCollective(ctx, collectiveID)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return accounts, nil
}
