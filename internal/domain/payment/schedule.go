package payment

import "time"

// Schedule returns one due date per installment: element i is start plus i calendar months.
func Schedule(start time.Time, n int) []time.Time {
	if n < 1 {
		return nil
	}
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = AddMonths(start, i)
	}
	return dates
}

// AddMonths moves the civil date d by the given number of calendar months, keeping the
// day of month and clamping it to the last day of a shorter month (Jan 31 + 1 = Feb 28/29).
// time.AddDate is not used because it normalises Feb 31 into March.
func AddMonths(d time.Time, months int) time.Time {
	year, month, day := d.Date()

	offset := int(month) - 1 + months
	year += offset / 12
	offset %= 12
	if offset < 0 {
		offset += 12
		year--
	}
	target := time.Month(offset + 1)

	if last := daysIn(year, target); day > last {
		day = last
	}
	return time.Date(year, target, day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
