package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "PENDING"
	OrderStatusPaid    OrderStatus = "PAID"
	OrderStatusError   OrderStatus = "ERROR"
)

type Order struct {
	ID               uuid.UUID
	IdempotencyKey   string
	FromCollectiveID uuid.UUID
	CollectiveID     uuid.UUID
	PaymentMethodID  *uuid.UUID
	TotalAmount      int64
	Currency         Currency
	Description      string
	Status           OrderStatus
	FailureReason    *string
	// RequestFingerprint identifies the request that created the order.
	// A replayed idempotency key must carry the same one.
	RequestFingerprint string
	CreatedByUserID    uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
