package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentMethodService string

const (
	PaymentMethodServiceOpenCollective PaymentMethodService = "opencollective"
	PaymentMethodServiceStripe         PaymentMethodService = "stripe"
	PaymentMethodServicePaypal         PaymentMethodService = "paypal"
	PaymentMethodServicePrepaid        PaymentMethodService = "prepaid"
)

// PaymentMethod carries no balance column; see ledger.Engine.GetBalance.
type PaymentMethod struct {
	ID           uuid.UUID
	CollectiveID uuid.UUID
	Service      PaymentMethodService
	Name         string
	Token        *string
	Currency     Currency
	CreatedAt    time.Time
}
