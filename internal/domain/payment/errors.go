package payment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound matches both ErrPaymentNotFound and ErrInstallmentNotFound through errors.Is
var ErrNotFound = errors.New("not found")

// ValidationError reports bad input. It is raised before anything is written.
type ValidationError struct {
	Problems []string
}

func (e ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// ConsistencyViolation means a computed payment breaks a ledger invariant. It is fatal.
type ConsistencyViolation struct {
	PaymentID uuid.UUID
	Reason    string
}

func (e ConsistencyViolation) Error() string {
	return fmt.Sprintf("consistency violation for payment %s: %s", e.PaymentID, e.Reason)
}

// PersistenceFailure means the storage layer could not complete Op. Nothing was committed.
type PersistenceFailure struct {
	Op  string
	Err error
}

func (e PersistenceFailure) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e PersistenceFailure) Unwrap() error {
	return e.Err
}

// Retryable is always true: the whole operation can be submitted again.
func (e PersistenceFailure) Retryable() bool {
	return true
}

// ErrPaymentNotFound indicates missing payment
type ErrPaymentNotFound struct {
	PaymentID uuid.UUID
}

func (e ErrPaymentNotFound) Error() string {
	return "payment not found: " + e.PaymentID.String()
}

// Is implements the errors.Is interface for ErrPaymentNotFound
func (e ErrPaymentNotFound) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	t, ok := target.(ErrPaymentNotFound)
	if !ok {
		return false
	}
	// If the target PaymentID is empty, consider it a match for any ErrPaymentNotFound
	return t.PaymentID == uuid.Nil || e.PaymentID == t.PaymentID
}

// ErrInstallmentNotFound indicates missing installment
type ErrInstallmentNotFound struct {
	InstallmentID uuid.UUID
}

func (e ErrInstallmentNotFound) Error() string {
	return "installment not found: " + e.InstallmentID.String()
}

// Is implements the errors.Is interface for ErrInstallmentNotFound
func (e ErrInstallmentNotFound) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	t, ok := target.(ErrInstallmentNotFound)
	if !ok {
		return false
	}
	return t.InstallmentID == uuid.Nil || e.InstallmentID == t.InstallmentID
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	InstallmentID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for installment: " + e.InstallmentID.String()
}
