package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{"zero months", date(2024, time.January, 15), 0, date(2024, time.January, 15)},
		{"keeps day of month", date(2024, time.January, 15), 2, date(2024, time.March, 15)},
		{"clamps to leap february", date(2024, time.January, 31), 1, date(2024, time.February, 29)},
		{"clamps to common february", date(2023, time.January, 31), 1, date(2023, time.February, 28)},
		{"clamps to thirty day month", date(2024, time.March, 31), 1, date(2024, time.April, 30)},
		{"crosses year", date(2024, time.November, 30), 3, date(2025, time.February, 28)},
		{"many years", date(2024, time.February, 29), 48, date(2028, time.February, 29)},
		{"backwards", date(2024, time.March, 31), -1, date(2024, time.February, 29)},
		{"backwards across year", date(2024, time.January, 10), -13, date(2022, time.December, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddMonths(tt.start, tt.months))
		})
	}
}

func TestSchedule(t *testing.T) {
	t.Run("OffsetsFromStartNotFromPreviousDate", func(t *testing.T) {
		got := Schedule(date(2024, time.January, 31), 4)
		assert.Equal(t, []time.Time{
			date(2024, time.January, 31),
			date(2024, time.February, 29),
			date(2024, time.March, 31),
			date(2024, time.April, 30),
		}, got)
	})

	t.Run("DropsClockPart", func(t *testing.T) {
		got := Schedule(time.Date(2024, time.January, 15, 18, 45, 0, 0, time.UTC), 1)
		assert.Equal(t, []time.Time{date(2024, time.January, 15)}, got)
	})

	t.Run("EmptyForNonPositiveCount", func(t *testing.T) {
		assert.Nil(t, Schedule(date(2024, time.January, 15), 0))
	})

	t.Run("Monotonic", func(t *testing.T) {
		for _, start := range []time.Time{date(2024, time.January, 31), date(2023, time.August, 29), date(2024, time.December, 31)} {
			dates := Schedule(start, 360)
			require.Len(t, dates, 360)
			for i := 1; i < len(dates); i++ {
				require.False(t, dates[i].Before(dates[i-1]), "start %s index %d", start, i)
			}
		}
	})
}
