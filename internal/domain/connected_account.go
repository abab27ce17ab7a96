package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ConnectedAccountService string

const (
	ConnectedAccountServiceGithub  ConnectedAccountService = "github"
	ConnectedAccountServiceTwitter ConnectedAccountService = "twitter"
	ConnectedAccountServiceMeetup  ConnectedAccountService = "meetup"
)

func (s ConnectedAccountService) IsValid() bool {
	switch s {
	case ConnectedAccountServiceGithub, ConnectedAccountServiceTwitter, ConnectedAccountServiceMeetup:
		return true
	}
	return false
}

// ConnectedAccount is unique per (Service, CollectiveID).
type ConnectedAccount struct {
	ID              uuid.UUID
	CollectiveID    uuid.UUID
	Service         ConnectedAccountService
	Username        *string
	ClientID        *string
	Token           *string
	Data            json.RawMessage
	CreatedByUserID *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
