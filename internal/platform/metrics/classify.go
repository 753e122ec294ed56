package metrics

import (
	"context"
	"errors"

	"github.com/caixa-installment-ledger/internal/domain/payment"
	"github.com/jackc/pgx/v5/pgconn"
)

// Failure kinds keep the failures label low-cardinality
const (
	FailureKindValidation           = "validation"
	FailureKindNotFound             = "not_found"
	FailureKindConcurrentUpdate     = "concurrent_modification"
	FailureKindConsistency          = "consistency_violation"
	FailureKindDBLockTimeout        = "db_lock_timeout"
	FailureKindSerializationFailure = "serialization_failure"
	FailureKindPersistence          = "persistence"
	FailureKindDeadlineExceeded     = "deadline_exceeded"
	FailureKindUnknown              = "unknown"
)

// ClassifyFailure maps an operation error onto a failure kind
func ClassifyFailure(err error) string {
	if err == nil {
		return ""
	}

	var validation payment.ValidationError
	var consistency payment.ConsistencyViolation
	var concurrent payment.ErrConcurrentModification
	var persistence payment.PersistenceFailure
	var pgErr *pgconn.PgError

	switch {
	case errors.As(err, &validation):
		return FailureKindValidation
	case errors.Is(err, payment.ErrNotFound):
		return FailureKindNotFound
	case errors.As(err, &concurrent):
		return FailureKindConcurrentUpdate
	case errors.As(err, &consistency):
		return FailureKindConsistency
	case errors.Is(err, context.DeadlineExceeded):
		return FailureKindDeadlineExceeded
	case errors.As(err, &pgErr) && pgErr.Code == "55P03":
		return FailureKindDBLockTimeout
	case errors.As(err, &pgErr) && pgErr.Code == "40001":
		return FailureKindSerializationFailure
	case errors.As(err, &persistence):
		return FailureKindPersistence
	}
	return FailureKindUnknown
}
