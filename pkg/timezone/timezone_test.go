package timezone

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
)

func TestLocalToUTC(t *testing.T) {
	cases := []struct {
		name     string
		date     string
		clock    string
		zone     string
		wantDate string
		wantTime string
	}{
		{"cairo winter", "2025-03-03", "15:00", "Africa/Cairo", "2025-03-03", "13:00"},
		{"tokyo crosses to previous day", "2025-03-03", "01:00", "Asia/Tokyo", "2025-03-02", "16:00"},
		{"new york summer uses target date offset", "2025-07-01", "09:00", "America/New_York", "2025-07-01", "13:00"},
		{"new york winter", "2025-01-15", "09:00", "America/New_York", "2025-01-15", "14:00"},
		{"utc identity", "2025-03-03", "23:59", "UTC", "2025-03-03", "23:59"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			date, clock, err := LocalToUTC(tc.date, tc.clock, tc.zone)
			require.NoError(t, err)
			assert.Equal(t, tc.wantDate, date)
			assert.Equal(t, tc.wantTime, clock)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	zones := []string{"Africa/Cairo", "Asia/Karachi", "Europe/London", "America/Los_Angeles", "Australia/Sydney", "Asia/Kolkata"}
	dates := []string{"2025-01-15", "2025-06-15", "2024-02-29", "2025-12-31"}
	clocks := []string{"00:00", "00:30", "09:15", "12:00", "23:45"}
	for _, zone := range zones {
		for _, date := range dates {
			for _, clock := range clocks {
				utcDate, utcClock, err := LocalToUTC(date, clock, zone)
				require.NoError(t, err)
				localDate, localClock, err := UTCToLocal(utcDate, utcClock, zone)
				require.NoError(t, err)
				assert.Equal(t, date, localDate, "%s %s %s", zone, date, clock)
				assert.Equal(t, clock, localClock, "%s %s %s", zone, date, clock)
			}
		}
	}
}

func TestConversionErrors(t *testing.T) {
	_, _, err := LocalToUTC("2025-03-03", "15:00", "Mars/Olympus")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConversion))

	_, _, err = LocalToUTC("03/03/2025", "15:00", "UTC")
	assert.True(t, errors.Is(err, appErrors.ErrConversion))

	_, _, err = UTCToLocal("2025-03-03", "25:00", "UTC")
	assert.True(t, errors.Is(err, appErrors.ErrConversion))

	assert.Error(t, Validate(""))
	assert.NoError(t, Validate("Africa/Cairo"))
}

func TestDisplayName(t *testing.T) {
	at := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	name, err := displayNameAt("Africa/Cairo", at)
	require.NoError(t, err)
	assert.Equal(t, "Africa/Cairo (EET)", name)

	_, err = DisplayName("Nowhere/Zone")
	assert.Error(t, err)
}

func TestClockHelpers(t *testing.T) {
	minutes, err := ParseClock("15:30")
	require.NoError(t, err)
	assert.Equal(t, 930, minutes)

	end, err := AddMinutes("23:30", 60)
	require.NoError(t, err)
	assert.Equal(t, "00:30", end)

	first, last := MonthBounds(2, 2024)
	assert.Equal(t, "2024-02-01", first)
	assert.Equal(t, "2024-02-29", last)

	today, err := Today("Asia/Tokyo", time.Date(2025, 3, 2, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2025-03-03", today)
}
