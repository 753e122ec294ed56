// Package directory describes the client, consultant, service and payment-method
// registries the ledger reads but does not own.
package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind names a directory
type Kind string

const (
	KindClient        Kind = "client"
	KindConsultant    Kind = "consultant"
	KindService       Kind = "service"
	KindPaymentMethod Kind = "payment_method"
)

type Client struct {
	ID          uuid.UUID
	DisplayName string
	Active      bool
}

type Consultant struct {
	ID                uuid.UUID
	DisplayName       string
	CommissionRateBps int // 1000 = 10 %
	Active            bool
}

type Service struct {
	ID        uuid.UUID
	Name      string
	BasePrice decimal.Decimal
	Active    bool
}

type PaymentMethod struct {
	ID                 uuid.UUID
	Name               string
	AllowsInstallments bool // only card-like methods may be split
	Active             bool
}

// Reader is the read-only lookup boundary over the directories
type Reader interface {
	GetClient(ctx context.Context, id uuid.UUID) (*Client, error)
	GetConsultant(ctx context.Context, id uuid.UUID) (*Consultant, error)
	GetService(ctx context.Context, id uuid.UUID) (*Service, error)
	GetPaymentMethod(ctx context.Context, id uuid.UUID) (*PaymentMethod, error)
}

// ErrReferenceNotFound indicates a reference that resolves to nothing
type ErrReferenceNotFound struct {
	Kind Kind
	ID   uuid.UUID
}

func (e ErrReferenceNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// Is implements the errors.Is interface for ErrReferenceNotFound.
// Empty fields in the target act as wildcards.
func (e ErrReferenceNotFound) Is(target error) bool {
	t, ok := target.(ErrReferenceNotFound)
	if !ok {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	return t.ID == uuid.Nil || t.ID == e.ID
}
