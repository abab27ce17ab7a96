package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CollectiveType string

const (
	CollectiveTypeUser         CollectiveType = "USER"
	CollectiveTypeOrganization CollectiveType = "ORGANIZATION"
	CollectiveTypeCollective   CollectiveType = "COLLECTIVE"
	CollectiveTypeEvent        CollectiveType = "EVENT"
)

type Collective struct {
	ID               uuid.UUID
	Slug             string
	Name             string
	Type             CollectiveType
	Currency         Currency
	HostCollectiveID *uuid.UUID
	HostFeePercent   decimal.Decimal
	Website          *string
	CreatedByUserID  uuid.UUID
	CreatedAt        time.Time
}

// IsHostedBy reports whether hostID is the collective's current host.
func (c *Collective) IsHostedBy(hostID uuid.UUID) bool {
	return c.HostCollectiveID != nil && *c.HostCollectiveID == hostID
}
