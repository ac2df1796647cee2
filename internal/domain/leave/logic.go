package leave

import "time"

// StartOfDay truncates to 00:00:00 of the instant's calendar day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of the calendar day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// DaysInclusive returns the inclusive day count between start and end.
func DaysInclusive(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(StartOfDay(end).Sub(StartOfDay(start)).Hours()/24) + 1
}

// Overlaps tests inclusive whole-day interval intersection between
// [aStart, aEnd] and [bStart, bEnd].
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !StartOfDay(aStart).After(EndOfDay(bEnd)) && !EndOfDay(aEnd).Before(StartOfDay(bStart))
}

// CoversDay reports whether the day of now falls inside [start, end].
func CoversDay(start, end, now time.Time) bool {
	return !StartOfDay(start).After(now) && !EndOfDay(end).Before(now)
}
