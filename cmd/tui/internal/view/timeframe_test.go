package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeframe_DateRange(t *testing.T) {
	// Wednesday.
	now := time.Date(2024, 3, 13, 18, 0, 0, 0, time.UTC)

	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		tf        Timeframe
		wantStart time.Time
		wantEnd   time.Time
	}{
		{TimeframeThisWeek, day(2024, 3, 11), day(2024, 3, 13)},
		{TimeframeThisMonth, day(2024, 3, 1), day(2024, 3, 31)},
		{TimeframeLastMonth, day(2024, 2, 1), day(2024, 2, 29)},
		{TimeframeThisYear, day(2024, 1, 1), day(2024, 12, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.tf.String(), func(t *testing.T) {
			start, end := tt.tf.DateRange(now)
			require.NotNil(t, start)
			require.NotNil(t, end)
			assert.Equal(t, tt.wantStart, *start)
			assert.Equal(t, tt.wantEnd, *end)
		})
	}

	start, end := TimeframeAll.DateRange(now)
	assert.Nil(t, start)
	assert.Nil(t, end)
}

func TestTimeframe_NextCycles(t *testing.T) {
	tf := TimeframeAll
	for range int(timeframeCount) {
		tf = tf.Next()
	}

	assert.Equal(t, TimeframeAll, tf)
}

func TestTimeframe_SundayBelongsToPreviousWeek(t *testing.T) {
	sunday := time.Date(2024, 3, 17, 9, 0, 0, 0, time.UTC)

	start, _ := TimeframeThisWeek.DateRange(sunday)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), *start)
}
