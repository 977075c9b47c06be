package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddBillingPeriods(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		unit  BillingPeriodUnit
		count int
		want  time.Time
	}{
		{"one month", BILLING_PERIOD_MONTH, 1, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"three months", BILLING_PERIOD_MONTH, 3, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
		{"one year", BILLING_PERIOD_YEAR, 1, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"two weeks", BILLING_PERIOD_WEEK, 2, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"ten days", BILLING_PERIOD_DAY, 10, time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)},
		{"six hours", BILLING_PERIOD_HOUR, 6, time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC)},
		{"zero periods", BILLING_PERIOD_MONTH, 0, start},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AddBillingPeriods(start, tt.unit, tt.count)
			assert.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestAddBillingPeriodsMonthEndNormalization(t *testing.T) {
	// AddDate normalizes Jan 31 + 1 month into early March.
	start := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	got, err := AddBillingPeriods(start, BILLING_PERIOD_MONTH, 1)
	assert.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)))
}

func TestAddBillingPeriodsInvalid(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := AddBillingPeriods(start, "fortnight", 1)
	assert.Error(t, err)

	_, err = AddBillingPeriods(start, BILLING_PERIOD_MONTH, -1)
	assert.Error(t, err)
}

func TestDaysUntil(t *testing.T) {
	end := time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 28, DaysUntil(end, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, DaysUntil(end, time.Date(2025, 1, 28, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, DaysUntil(end, end))
	assert.Equal(t, 0, DaysUntil(end, time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)))
}
