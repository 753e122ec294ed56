package commission

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository manages commission entry persistence
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*Entry, error)

	// LatestForPayment returns the payment's most recently recorded entry, or ErrEntryNotFound
	LatestForPayment(ctx context.Context, paymentID uuid.UUID) (*Entry, error)

	// ListByConsultant returns entries effective between from and to, inclusive, oldest first
	ListByConsultant(ctx context.Context, consultantRef uuid.UUID, from, to time.Time) ([]*Entry, error)
}

// ErrEntryNotFound indicates missing commission entry
type ErrEntryNotFound struct {
	EventID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "commission entry not found: " + e.EventID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	// If the target EventID is empty, consider it a match for any ErrEntryNotFound
	if t.EventID == uuid.Nil {
		return true
	}
	return e.EventID == t.EventID
}

// ErrDuplicateEntry indicates the event was already recorded
type ErrDuplicateEntry struct {
	EventID uuid.UUID
}

func (e ErrDuplicateEntry) Error() string {
	return "duplicate commission entry: " + e.EventID.String()
}

// Is implements the errors.Is interface for ErrDuplicateEntry
func (e ErrDuplicateEntry) Is(target error) bool {
	t, ok := target.(ErrDuplicateEntry)
	if !ok {
		return false
	}
	if t.EventID == uuid.Nil {
		return true
	}
	return e.EventID == t.EventID
}
