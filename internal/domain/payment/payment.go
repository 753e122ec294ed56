package payment

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/caixa-installment-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxNotesLength = 2000

// InstallmentStatus is the stored settlement state of an installment
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "pending"
	InstallmentStatusPaid    InstallmentStatus = "paid"
)

// DisplayStatus is the status shown to users. Overdue is derived at read time and never stored.
type DisplayStatus string

const (
	DisplayStatusPaid    DisplayStatus = "paid"
	DisplayStatusPending DisplayStatus = "pending"
	DisplayStatusOverdue DisplayStatus = "overdue"
)

// Payment is the parent monetary transaction split into installments
type Payment struct {
	ID               uuid.UUID              `json:"id"`
	ClientRef        uuid.UUID              `json:"client_ref"`
	ConsultantRef    uuid.UUID              `json:"consultant_ref"`
	ServiceRef       uuid.UUID              `json:"service_ref"`
	PaymentMethodRef uuid.UUID              `json:"payment_method_ref"`
	TransactionType  shared.TransactionType `json:"transaction_type"`
	TotalAmount      decimal.Decimal        `json:"total_amount"`
	InstallmentCount int                    `json:"installment_count"`
	TransactionDate  time.Time              `json:"transaction_date"` // civil date, midnight UTC
	Notes            string                 `json:"notes,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
	Installments     []*Installment         `json:"installments,omitempty"`

	// AllPaid is filled by listings that load the payment without its installments
	AllPaid bool `json:"-"`
}

// Installment is one scheduled portion of a payment
type Installment struct {
	ID             uuid.UUID         `json:"id"`
	PaymentID      uuid.UUID         `json:"payment_id"`
	SequenceNumber int               `json:"sequence_number"`
	Amount         decimal.Decimal   `json:"amount"`
	DueDate        time.Time         `json:"due_date"`
	PaidDate       *time.Time        `json:"paid_date,omitempty"`
	Status         InstallmentStatus `json:"status"`
	Version        int               `json:"version"` // For optimistic locking
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Draft carries everything needed to record a payment
type Draft struct {
	ClientRef        uuid.UUID
	ConsultantRef    uuid.UUID
	ServiceRef       uuid.UUID
	PaymentMethodRef uuid.UUID
	TransactionType  shared.TransactionType
	TotalAmount      decimal.Decimal
	InstallmentCount int
	TransactionDate  time.Time
	Notes            string
}

// Validate checks the shape of the draft and reports every problem at once
func (d Draft) Validate(maxInstallments int) error {
	var problems []string

	if !d.TransactionType.Valid() {
		problems = append(problems, "transaction_type must be credit or debit")
	}
	if !d.TotalAmount.IsPositive() {
		problems = append(problems, "total_amount must be positive")
	} else if !HasAtMostTwoDecimals(d.TotalAmount) {
		problems = append(problems, "total_amount must have at most 2 decimal places")
	} else if !FitsMinorUnits(d.TotalAmount) {
		problems = append(problems, "total_amount is too large")
	}
	if d.InstallmentCount < 1 || d.InstallmentCount > maxInstallments {
		problems = append(problems, fmt.Sprintf("installment_count must be between 1 and %d", maxInstallments))
	} else if d.TotalAmount.IsPositive() && FitsMinorUnits(d.TotalAmount) && ToMinorUnits(d.TotalAmount) < int64(d.InstallmentCount) {
		problems = append(problems, fmt.Sprintf("total_amount cannot be split into %d installments of at least 0.01", d.InstallmentCount))
	}
	if d.ClientRef == uuid.Nil {
		problems = append(problems, "client_ref is required")
	}
	if d.ConsultantRef == uuid.Nil {
		problems = append(problems, "consultant_ref is required")
	}
	if d.ServiceRef == uuid.Nil {
		problems = append(problems, "service_ref is required")
	}
	if d.PaymentMethodRef == uuid.Nil {
		problems = append(problems, "payment_method_ref is required")
	}
	if d.TransactionDate.IsZero() {
		problems = append(problems, "transaction_date is required")
	}
	if utf8.RuneCountInString(d.Notes) > maxNotesLength {
		problems = append(problems, fmt.Sprintf("notes must not exceed %d characters", maxNotesLength))
	}

	if len(problems) > 0 {
		return ValidationError{Problems: problems}
	}
	return nil
}

// NewPayment builds a payment and its installments from a validated draft.
// The first installment is settled on the transaction date; the rest start pending.
func NewPayment(d Draft, now time.Time) (*Payment, error) {
	amounts, err := Split(d.TotalAmount, d.InstallmentCount)
	if err != nil {
		return nil, err
	}
	transactionDate := civil(d.TransactionDate)
	dueDates := Schedule(transactionDate, d.InstallmentCount)

	p := &Payment{
		ID:               uuid.New(),
		ClientRef:        d.ClientRef,
		ConsultantRef:    d.ConsultantRef,
		ServiceRef:       d.ServiceRef,
		PaymentMethodRef: d.PaymentMethodRef,
		TransactionType:  d.TransactionType,
		TotalAmount:      d.TotalAmount,
		InstallmentCount: d.InstallmentCount,
		TransactionDate:  transactionDate,
		Notes:            d.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
		Installments:     make([]*Installment, d.InstallmentCount),
	}

	for i := range p.Installments {
		inst := &Installment{
			ID:             uuid.New(),
			PaymentID:      p.ID,
			SequenceNumber: i + 1,
			Amount:         amounts[i],
			DueDate:        dueDates[i],
			Status:         InstallmentStatusPending,
			Version:        1,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if i == 0 {
			paid := transactionDate
			inst.PaidDate = &paid
			inst.Status = InstallmentStatusPaid
		}
		p.Installments[i] = inst
	}

	return p, nil
}

// CheckInvariants verifies the attached installments against the payment
func (p *Payment) CheckInvariants() error {
	violation := func(format string, args ...any) error {
		return ConsistencyViolation{PaymentID: p.ID, Reason: fmt.Sprintf(format, args...)}
	}

	if len(p.Installments) != p.InstallmentCount {
		return violation("expected %d installments, got %d", p.InstallmentCount, len(p.Installments))
	}

	sum := decimal.Zero
	for i, inst := range p.Installments {
		if inst.PaymentID != p.ID {
			return violation("installment %d belongs to payment %s", inst.SequenceNumber, inst.PaymentID)
		}
		if inst.SequenceNumber != i+1 {
			return violation("installment at position %d has sequence number %d", i+1, inst.SequenceNumber)
		}
		if !inst.Amount.IsPositive() {
			return violation("installment %d has non-positive amount %s", inst.SequenceNumber, inst.Amount)
		}
		if i > 0 && inst.DueDate.Before(p.Installments[i-1].DueDate) {
			return violation("installment %d is due before installment %d", inst.SequenceNumber, i)
		}
		if (inst.Status == InstallmentStatusPaid) != (inst.PaidDate != nil) {
			return violation("installment %d has status %s with paid date %v", inst.SequenceNumber, inst.Status, inst.PaidDate)
		}
		sum = sum.Add(inst.Amount)
	}

	if !sum.Equal(p.TotalAmount) {
		return violation("installments sum to %s, total is %s", sum.StringFixed(2), p.TotalAmount.StringFixed(2))
	}
	return nil
}

// IsSettled reports whether every installment is paid. Without attached
// installments it falls back to AllPaid.
func (p *Payment) IsSettled() bool {
	if len(p.Installments) == 0 {
		return p.AllPaid
	}
	for _, inst := range p.Installments {
		if inst.Status != InstallmentStatusPaid {
			return false
		}
	}
	return true
}

// IsPaid reports whether the installment is settled
func (i *Installment) IsPaid() bool {
	return i.Status == InstallmentStatusPaid
}

// IsOverdue is true for a pending installment whose due date is before today
func (i *Installment) IsOverdue(today time.Time) bool {
	return i.Status == InstallmentStatusPending && i.DueDate.Before(civil(today))
}

func (i *Installment) DisplayStatus(today time.Time) DisplayStatus {
	switch {
	case i.IsPaid():
		return DisplayStatusPaid
	case i.IsOverdue(today):
		return DisplayStatusOverdue
	default:
		return DisplayStatusPending
	}
}

// civil drops the clock part of t, keeping its calendar date
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
