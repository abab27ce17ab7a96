package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/collective-ledger/internal/auth"
	"github.com/josh-kwaku/collective-ledger/internal/domain"
	"github.com/josh-kwaku/collective-ledger/internal/logging"
	"github.com/josh-kwaku/collective-ledger/internal/service/connectedaccount"
)

type connectedAccountService interface {
	Link(ctx context.Context, req connectedaccount.LinkRequest) (*connectedaccount.LinkResult, error)
	Verify(token string) (*auth.ConnectedAccountClaims, error)
	List(ctx context.Context, collectiveID uuid.UUID) ([]domain.ConnectedAccount, error)
}

type ConnectedAccountHandler struct {
	accounts connectedAccountService
}

func NewConnectedAccountHandler(accounts connectedAccountService) *ConnectedAccountHandler {
	return &ConnectedAccountHandler{accounts: accounts}
}

type linkAccountRequest struct {
	Username *string         `json:"username"`
	ClientID *string         `json:"client_id"`
	Token    *string         `json:"token"`
	Data     json.RawMessage `json:"data"`
}

// connectedAccountResponse never carries the provider token.
type connectedAccountResponse struct {
	ID                string          `json:"id"`
	CollectiveID      string          `json:"collective_id"`
	Service           string          `json:"service"`
	Username          *string         `json:"username"`
	ClientID          *string         `json:"client_id"`
	Data              json.RawMessage `json:"data,omitempty"`
	VerificationToken string          `json:"verification_token,omitempty"`
	UpdatedAt         string          `json:"updated_at"`
}

type verifyAccountResponse struct {
	ConnectedAccountID string `json:"connected_account_id"`
	CollectiveID       string `json:"collective_id"`
	Service            string `json:"service"`
	Username           string `json:"username"`
}

func toConnectedAccountResponse(a *domain.ConnectedAccount) connectedAccountResponse {
	return connectedAccountResponse{
		ID:           a.ID.String(),
		CollectiveID: a.CollectiveID.String(),
		Service:      string(a.Service),
		Username:     a.Username,
		ClientID:     a.ClientID,
		Data:         a.Data,
		UpdatedAt:    a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *ConnectedAccountHandler) Link(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}
	collectiveID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	service := domain.ConnectedAccountService(r.PathValue("service"))
	if !service.IsValid() {
		RespondAppError(w, ErrUnsupportedService, nil)
		return
	}

	var body linkAccountRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	res, err := h.accounts.Link(r.Context(), connectedaccount.LinkRequest{
		Service:         service,
		CollectiveID:    collectiveID,
		CreatedByUserID: userID,
		Username:        body.Username,
		ClientID:        body.ClientID,
		Token:           body.Token,
		Data:            body.Data,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("link connected account failed", "error", err, "collective_id", collectiveID, "service", service)
		RespondDomainError(w, err)
		return
	}

	resp := toConnectedAccountResponse(res.Account)
	resp.VerificationToken = res.VerificationToken
	RespondSuccess(w, http.StatusOK, resp)
}

func (h *ConnectedAccountHandler) List(w http.ResponseWriter, r *http.Request) {
	collectiveID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	accounts, err := h.accounts.List(r.Context(), collectiveID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("list connected accounts failed", "error", err, "collective_id", collectiveID)
		RespondDomainError(w, err)
		return
	}

	items := make([]connectedAccountResponse, len(accounts))
	for i := range accounts {
		items[i] = toConnectedAccountResponse(&accounts[i])
	}
	RespondSuccess(w, http.StatusOK, items)
}

func (h *ConnectedAccountHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		RespondValidationError(w, []FieldError{{Field: "token", Message: "required"}})
		return
	}

	claims, err := h.accounts.Verify(token)
	if err != nil {
		logging.FromContext(r.Context()).Info("connected account token rejected", "error", err)
		RespondAppError(w, ErrInvalidToken, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, verifyAccountResponse{
		ConnectedAccountID: claims.ConnectedAccountID.String(),
		CollectiveID:       claims.CollectiveID.String(),
		Service:            claims.Service,
		Username:           claims.Username,
	})
}
