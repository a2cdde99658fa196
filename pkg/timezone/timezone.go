// Package timezone converts between local wall-clock dates/times in an IANA zone
// and the canonical UTC date/time pair stored on class records.
//
// Offsets are resolved for the target date rather than the current instant, so a
// conversion in July uses summer time even when called in January. Wall-clock
// values that fall inside a DST gap are normalised forward by the time package and
// therefore do not round-trip.
package timezone

import (
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
)

const (
	// DateLayout is the storage layout for calendar dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the storage layout for minute precision times of day.
	ClockLayout = "15:04"
)

var locations sync.Map

// Load resolves an IANA zone name, caching successful lookups.
func Load(zone string) (*time.Location, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return nil, appErrors.Clone(appErrors.ErrConversion, "timezone is required")
	}
	if cached, ok := locations.Load(zone); ok {
		return cached.(*time.Location), nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrConversion.Code, appErrors.ErrConversion.Status, fmt.Sprintf("unknown timezone %q", zone))
	}
	locations.Store(zone, loc)
	return loc, nil
}

// Validate reports whether zone is a loadable IANA zone name.
func Validate(zone string) error {
	_, err := Load(zone)
	return err
}

// LocalToUTC interprets date and clock as wall-clock time in zone and returns the
// equivalent UTC date and time of day, truncated to the minute.
func LocalToUTC(date, clock, zone string) (string, string, error) {
	loc, err := Load(zone)
	if err != nil {
		return "", "", err
	}
	local, err := parseIn(date, clock, loc)
	if err != nil {
		return "", "", err
	}
	utc := local.UTC()
	return utc.Format(DateLayout), utc.Format(ClockLayout), nil
}

// UTCToLocal converts a stored UTC date and time into wall-clock values for zone.
func UTCToLocal(utcDate, utcClock, zone string) (string, string, error) {
	loc, err := Load(zone)
	if err != nil {
		return "", "", err
	}
	utc, err := parseIn(utcDate, utcClock, time.UTC)
	if err != nil {
		return "", "", err
	}
	local := utc.In(loc)
	return local.Format(DateLayout), local.Format(ClockLayout), nil
}

// Instant returns the absolute time for a UTC date/time pair.
func Instant(utcDate, utcClock string) (time.Time, error) {
	return parseIn(utcDate, utcClock, time.UTC)
}

// DisplayName renders a label such as "Africa/Cairo (EET)" using the abbreviation
// in effect at the current instant.
func DisplayName(zone string) (string, error) {
	return displayNameAt(zone, time.Now())
}

func displayNameAt(zone string, at time.Time) (string, error) {
	loc, err := Load(zone)
	if err != nil {
		return "", err
	}
	abbr, _ := at.In(loc).Zone()
	return fmt.Sprintf("%s (%s)", loc.String(), abbr), nil
}

// Today returns the current calendar date in zone.
func Today(zone string, now time.Time) (string, error) {
	loc, err := Load(zone)
	if err != nil {
		return "", err
	}
	return now.In(loc).Format(DateLayout), nil
}

// ParseDate parses a YYYY-MM-DD value as a UTC midnight.
func ParseDate(date string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), time.UTC)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrConversion.Code, appErrors.ErrConversion.Status, fmt.Sprintf("invalid date %q", date))
	}
	return d, nil
}

// ParseClock parses an HH:MM value and returns minutes since midnight.
func ParseClock(clock string) (int, error) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(clock))
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrConversion.Code, appErrors.ErrConversion.Status, fmt.Sprintf("invalid time %q", clock))
	}
	return t.Hour()*60 + t.Minute(), nil
}

// AddMinutes shifts an HH:MM clock by the given minutes, wrapping at midnight.
func AddMinutes(clock string, minutes int) (string, error) {
	start, err := ParseClock(clock)
	if err != nil {
		return "", err
	}
	total := ((start+minutes)%(24*60) + 24*60) % (24 * 60)
	return fmt.Sprintf("%02d:%02d", total/60, total%60), nil
}

// MonthBounds returns the first and last calendar dates of a month.
func MonthBounds(month, year int) (string, string) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format(DateLayout), last.Format(DateLayout)
}

func parseIn(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	minutes, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), minutes/60, minutes%60, 0, 0, loc), nil
}
