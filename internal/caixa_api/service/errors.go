package service

import (
	"errors"

	"github.com/caixa-installment-ledger/internal/domain/directory"
	"github.com/caixa-installment-ledger/internal/domain/payment"
)

// persistenceFailure wraps an infrastructure error for op. Ledger errors pass through
// untouched so callers can still match them.
func persistenceFailure(op string, err error) error {
	if err == nil || isLedgerError(err) {
		return err
	}
	return payment.PersistenceFailure{Op: op, Err: err}
}

func isLedgerError(err error) bool {
	var validation payment.ValidationError
	var consistency payment.ConsistencyViolation
	var concurrent payment.ErrConcurrentModification
	var persistence payment.PersistenceFailure

	return errors.As(err, &validation) ||
		errors.As(err, &consistency) ||
		errors.As(err, &concurrent) ||
		errors.As(err, &persistence) ||
		errors.Is(err, payment.ErrNotFound) ||
		errors.Is(err, directory.ErrReferenceNotFound{})
}

func validationError(problems ...string) error {
	return payment.ValidationError{Problems: problems}
}
