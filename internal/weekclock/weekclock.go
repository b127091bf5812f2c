// Package weekclock computes the game's weekly boundary: every period starts on
// Thursday 00:00:00 UTC and ends the following Wednesday 23:59:59 UTC.
package weekclock

import (
	"fmt"
	"time"

	"github.com/nv0110/bosstracker/internal/models"
)

const (
	Layout        = "2006-01-02"
	ResetWeekday  = time.Thursday
	daysPerPeriod = 7
)

// StartOf returns the week key governing the instant t.
func StartOf(t time.Time) models.WeekKey {
	return models.WeekKey(startTime(t).Format(Layout))
}

// CurrentWeekStart returns the week key for the present moment.
func CurrentWeekStart() models.WeekKey {
	return StartOf(time.Now())
}

// WeekStartWithOffset shifts the current week by n periods, negative for the past.
func WeekStartWithOffset(n int) models.WeekKey {
	return WeekStartWithOffsetAt(time.Now(), n)
}

func WeekStartWithOffsetAt(t time.Time, n int) models.WeekKey {
	return models.WeekKey(startTime(t).AddDate(0, 0, n*daysPerPeriod).Format(Layout))
}

// WeekEnd returns the Wednesday that closes the period opened by start.
func WeekEnd(start models.WeekKey) (models.WeekKey, error) {
	startDate, err := Parse(start)
	if err != nil {
		return "", err
	}
	return models.WeekKey(startDate.AddDate(0, 0, daysPerPeriod-1).Format(Layout)), nil
}

// Shift moves a valid week key by n periods.
func Shift(start models.WeekKey, n int) (models.WeekKey, error) {
	startDate, err := Parse(start)
	if err != nil {
		return "", err
	}
	return models.WeekKey(startDate.AddDate(0, 0, n*daysPerPeriod).Format(Layout)), nil
}

func IsValidWeekStart(s string) bool {
	date, err := time.Parse(Layout, s)
	if err != nil {
		return false
	}
	return date.Weekday() == ResetWeekday
}

// Parse returns the UTC midnight of a week key, rejecting dates that are not Thursdays.
func Parse(key models.WeekKey) (time.Time, error) {
	date, err := time.Parse(Layout, string(key))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing week key %q: %w", key, err)
	}
	if date.Weekday() != ResetWeekday {
		return time.Time{}, fmt.Errorf("week key %q is a %s, not a %s", key, date.Weekday(), ResetWeekday)
	}
	return date, nil
}

func startTime(t time.Time) time.Time {
	utc := t.UTC()
	day := int(utc.Weekday())

	var offset int
	if day >= int(ResetWeekday) {
		offset = day - int(ResetWeekday)
	} else {
		offset = day + 3
	}

	midnight := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.AddDate(0, 0, -offset)
}
