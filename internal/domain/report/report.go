// Package report holds the read models handed to the receipt generator, the
// cash-register daily report and the commission extract.
package report

import (
	"context"
	"time"

	"github.com/caixa-installment-ledger/internal/domain/commission"
	"github.com/caixa-installment-ledger/internal/domain/directory"
	"github.com/caixa-installment-ledger/internal/domain/payment"
	"github.com/caixa-installment-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Parties are the directory records a receipt names
type Parties struct {
	Client        *directory.Client
	Consultant    *directory.Consultant
	Service       *directory.Service
	PaymentMethod *directory.PaymentMethod
}

type ReceiptLine struct {
	InstallmentID  uuid.UUID
	SequenceNumber int
	Amount         decimal.Decimal
	DueDate        time.Time
	PaidDate       *time.Time
	Status         payment.DisplayStatus
}

// Receipt is a payment with its schedule, ready to be rendered
type Receipt struct {
	PaymentID         uuid.UUID
	TransactionType   shared.TransactionType
	TransactionDate   time.Time
	TotalAmount       decimal.Decimal
	InstallmentCount  int
	Notes             string
	ClientName        string
	ConsultantName    string
	ServiceName       string
	ServiceBasePrice  decimal.Decimal
	PaymentMethodName string
	Lines             []ReceiptLine
	PaidTotal         decimal.Decimal
	OutstandingTotal  decimal.Decimal
	OverdueCount      int
	NextDueDate       *time.Time
	AsOf              time.Time
}

// NewReceipt renders p as of today; the payment must carry its installments
func NewReceipt(p *payment.Payment, parties Parties, today time.Time) *Receipt {
	r := &Receipt{
		PaymentID:        p.ID,
		TransactionType:  p.TransactionType,
		TransactionDate:  p.TransactionDate,
		TotalAmount:      p.TotalAmount,
		InstallmentCount: p.InstallmentCount,
		Notes:            p.Notes,
		Lines:            make([]ReceiptLine, 0, len(p.Installments)),
		PaidTotal:        decimal.Zero,
		OutstandingTotal: decimal.Zero,
		AsOf:             today,
	}
	if parties.Client != nil {
		r.ClientName = parties.Client.DisplayName
	}
	if parties.Consultant != nil {
		r.ConsultantName = parties.Consultant.DisplayName
	}
	if parties.Service != nil {
		r.ServiceName = parties.Service.Name
		r.ServiceBasePrice = parties.Service.BasePrice
	}
	if parties.PaymentMethod != nil {
		r.PaymentMethodName = parties.PaymentMethod.Name
	}

	for _, inst := range p.Installments {
		status := inst.DisplayStatus(today)
		r.Lines = append(r.Lines, ReceiptLine{
			InstallmentID:  inst.ID,
			SequenceNumber: inst.SequenceNumber,
			Amount:         inst.Amount,
			DueDate:        inst.DueDate,
			PaidDate:       inst.PaidDate,
			Status:         status,
		})

		if inst.IsPaid() {
			r.PaidTotal = r.PaidTotal.Add(inst.Amount)
			continue
		}
		r.OutstandingTotal = r.OutstandingTotal.Add(inst.Amount)
		if status == payment.DisplayStatusOverdue {
			r.OverdueCount++
		}
		if r.NextDueDate == nil {
			due := inst.DueDate
			r.NextDueDate = &due
		}
	}

	return r
}

// Figure is a count of records and the amount they add up to
type Figure struct {
	Count  int64
	Amount decimal.Decimal
}

// ByType splits a figure by transaction direction
type ByType struct {
	Credit Figure
	Debit  Figure
}

// DailyCash is the cash-register report for a single day
type DailyCash struct {
	Date time.Time

	// Recorded counts payments whose transaction date is Date.
	Recorded ByType

	// Collected counts installments paid on Date.
	Collected ByType

	// Overdue counts installments still pending with a due date before Date.
	Overdue ByType

	Balance decimal.Decimal
}

// ComputeBalance sets Balance to the money collected in minus the money paid out
func (d *DailyCash) ComputeBalance() {
	d.Balance = d.Collected.Credit.Amount.Sub(d.Collected.Debit.Amount)
}

// Repository aggregates the ledger tables for reporting
type Repository interface {
	DailyCash(ctx context.Context, date time.Time) (*DailyCash, error)
}

// CommissionExtract lists a consultant's commission entries over a period
type CommissionExtract struct {
	ConsultantRef  uuid.UUID
	ConsultantName string
	From           time.Time
	To             time.Time
	Entries        []*commission.Entry
	Credits        decimal.Decimal
	Debits         decimal.Decimal
	Balance        decimal.Decimal
}

func NewCommissionExtract(consultant *directory.Consultant, from, to time.Time, entries []*commission.Entry) *CommissionExtract {
	e := &CommissionExtract{
		ConsultantRef:  consultant.ID,
		ConsultantName: consultant.DisplayName,
		From:           from,
		To:             to,
		Entries:        entries,
		Credits:        decimal.Zero,
		Debits:         decimal.Zero,
	}
	for _, entry := range entries {
		switch entry.Direction {
		case shared.TransactionTypeCredit:
			e.Credits = e.Credits.Add(entry.Amount)
		case shared.TransactionTypeDebit:
			e.Debits = e.Debits.Add(entry.Amount)
		}
	}
	e.Balance = e.Credits.Sub(e.Debits)
	return e
}
