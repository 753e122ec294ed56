package shared

import "fmt"

// TransactionType is the direction money flows: credit ("entrada") or debit ("saída")
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// ParseTransactionType accepts the canonical names and the Portuguese cash-register labels
func ParseTransactionType(s string) (TransactionType, error) {
	switch s {
	case "credit", "entrada":
		return TransactionTypeCredit, nil
	case "debit", "saida", "saída":
		return TransactionTypeDebit, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTransactionType, s)
}

func (t TransactionType) Valid() bool {
	return t == TransactionTypeCredit || t == TransactionTypeDebit
}

// Opposite is the direction of a correcting entry
func (t TransactionType) Opposite() TransactionType {
	if t == TransactionTypeCredit {
		return TransactionTypeDebit
	}
	return TransactionTypeCredit
}

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
