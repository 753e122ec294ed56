package payment

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Split divides total into n installment amounts that add up to total exactly.
//
// Every installment receives floor(total/n) at cent precision and the rounding
// remainder is added to the first one, the amount collected at the counter:
// 100.00 over 3 gives 33.34, 33.33, 33.33.
func Split(total decimal.Decimal, n int) ([]decimal.Decimal, error) {
	var problems []string
	if n < 1 {
		problems = append(problems, "installment_count must be at least 1")
	}
	if !total.IsPositive() {
		problems = append(problems, "total_amount must be positive")
	} else if !HasAtMostTwoDecimals(total) {
		problems = append(problems, "total_amount must have at most 2 decimal places")
	} else if !FitsMinorUnits(total) {
		problems = append(problems, "total_amount is too large")
	}
	if len(problems) > 0 {
		return nil, ValidationError{Problems: problems}
	}

	cents := ToMinorUnits(total)
	count := int64(n)
	if cents < count {
		return nil, ValidationError{Problems: []string{
			fmt.Sprintf("total_amount %s cannot be split into %d installments of at least 0.01", total.StringFixed(2), n),
		}}
	}

	base := cents / count
	remainder := cents - base*count

	amounts := make([]decimal.Decimal, n)
	for i := range amounts {
		amounts[i] = FromMinorUnits(base)
	}
	amounts[0] = FromMinorUnits(base + remainder)

	return amounts, nil
}
