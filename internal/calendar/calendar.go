// Package calendar converts instants into civil day and hour numbers in a
// given location. Day boundaries throughout the simulation are compared as
// these integers rather than as formatted date strings.
package calendar

import "time"

// Day is the number of days between 1970-01-01 and a civil date.
type Day int64

// Hour is the number of hours between 1970-01-01T00:00 and a civil
// date-hour, counted in the same location as the instant it came from.
type Hour int64

// DayOf returns the civil day of t as observed in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return FromDate(y, m, d)
}

// FromDate returns the Day for a calendar date.
func FromDate(year int, month time.Month, day int) Day {
	// Anchoring in UTC keeps the arithmetic free of DST gaps.
	u := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Day(u.Unix() / 86400)
}

// HourOf returns the civil hour number of t as observed in loc.
func HourOf(t time.Time, loc *time.Location) Hour {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	return Hour(int64(DayOf(t, loc))*24 + int64(lt.Hour()))
}

// LocalHour returns the hour of day (0-23) of t in loc.
func LocalHour(t time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Hour()
}

// Date returns the calendar date of the day.
func (d Day) Date() (int, time.Month, int) {
	return time.Unix(int64(d)*86400, 0).UTC().Date()
}

// Start returns local midnight of the day in loc.
func (d Day) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, dd := d.Date()
	return time.Date(y, m, dd, 0, 0, 0, 0, loc)
}

// ISO formats the day as YYYY-MM-DD.
func (d Day) ISO() string {
	return time.Unix(int64(d)*86400, 0).UTC().Format("2006-01-02")
}

// ParseISO parses a YYYY-MM-DD date into a Day.
func ParseISO(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return 0, err
	}
	return FromDate(t.Date()), nil
}
