package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ScopeSession          = "session"
	ScopeConnectedAccount = "connected-account"
)

var ErrWrongScope = errors.New("token scope not accepted here")

type Claims struct {
	UserID uuid.UUID
}

// ConnectedAccountClaims is carried by the token issued after an account
// link, so a client can prove which account was linked.
type ConnectedAccountClaims struct {
	ConnectedAccountID uuid.UUID
	CollectiveID       uuid.UUID
	Service            string
	Username           string
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Scope              string `json:"scope"`
	UserID             string `json:"user_id,omitempty"`
	ConnectedAccountID string `json:"connected_account_id,omitempty"`
	CollectiveID       string `json:"collective_id,omitempty"`
	Service            string `json:"service,omitempty"`
	Username           string `json:"username,omitempty"`
}

func GenerateToken(userID uuid.UUID, secret string, expiry time.Duration) (string, error) {
	signed, err := sign(tokenClaims{
		RegisteredClaims: registered(expiry),
		Scope:            ScopeSession,
		UserID:           userID.String(),
	}, secret)
	if err != nil {
		return "", fmt.Errorf("GenerateToken: %w", err)
	}
	return signed, nil
}

func ValidateToken(tokenString string, secret string) (*Claims, error) {
	tc, err := parse(tokenString, secret, ScopeSession)
	if err != nil {
		return nil, fmt.Errorf("ValidateToken: %w", err)
	}

	userID, err := uuid.Parse(tc.UserID)
	if err != nil {
		return nil, fmt.Errorf("ValidateToken: invalid user_id in token: %w", err)
	}
	return &Claims{UserID: userID}, nil
}

func GenerateConnectedAccountToken(c ConnectedAccountClaims, secret string, expiry time.Duration) (string, error) {
	signed, err := sign(tokenClaims{
		RegisteredClaims:   registered(expiry),
		Scope:              ScopeConnectedAccount,
		ConnectedAccountID: c.ConnectedAccountID.String(),
		CollectiveID:       c.CollectiveID.String(),
		Service:            c.Service,
		Username:           c.Username,
	}, secret)
	if err != nil {
		return "", fmt.Errorf("GenerateConnectedAccountToken: %w", err)
	}
	return signed, nil
}

// ValidateConnectedAccountToken accepts only connected-account tokens that
// name a username.
func ValidateConnectedAccountToken(tokenString string, secret string) (*ConnectedAccountClaims, error) {
	tc, err := parse(tokenString, secret, ScopeConnectedAccount)
	if err != nil {
		return nil, fmt.Errorf("ValidateConnectedAccountToken: %w", err)
	}
	if tc.Username == "" {
		return nil, fmt.Errorf("ValidateConnectedAccountToken: missing username")
	}

	accountID, err := uuid.Parse(tc.ConnectedAccountID)
	if err != nil {
		return nil, fmt.Errorf("ValidateConnectedAccountToken: invalid connected_account_id: %w", err)
	}
	collectiveID, err := uuid.Parse(tc.CollectiveID)
	if err != nil {
		return nil, fmt.Errorf("ValidateConnectedAccountToken: invalid collective_id: %w", err)
	}

	return &ConnectedAccountClaims{
		ConnectedAccountID: accountID,
		CollectiveID:       collectiveID,
		Service:            tc.Service,
		Username:           tc.Username,
	}, nil
}

func registered(expiry time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
}

func sign(claims tokenClaims, secret string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parse(tokenString, secret, scope string) (*tokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	tc, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if tc.Scope != scope {
		return nil, fmt.Errorf("scope %q: %w", tc.Scope, ErrWrongScope)
	}
	return tc, nil
}
