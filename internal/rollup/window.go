package rollup

import "time"

// Window is a closed time interval [Since, Until].
type Window struct {
	Since time.Time
	Until time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Since) && !t.After(w.Until)
}

// TodayWindow runs from the start of now's calendar day in loc to now.
// Used for today's activity.
func TodayWindow(now time.Time, loc *time.Location) Window {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Window{Since: start, Until: now}
}

// TrailingDayWindow covers the 24 hours before now. Used for client
// sentiment and the urgent queue.
func TrailingDayWindow(now time.Time) Window {
	return Window{Since: now.Add(-24 * time.Hour), Until: now}
}

// CalendarDayWindow covers the whole calendar day containing day in loc.
func CalendarDayWindow(day time.Time, loc *time.Location) Window {
	local := day.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return Window{Since: start, Until: end}
}
