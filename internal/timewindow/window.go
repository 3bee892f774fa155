package timewindow

import "time"

// Window is the calendar gate on order creation. The engine never evaluates
// it; callers check before inserting an order and recording ownership.
type Window struct {
	OpenHour    int
	OpenMinute  int
	CloseHour   int
	CloseMinute int
}

// Lunch is the office default: weekdays, 11:30 to 14:00 local time.
func Lunch() Window {
	return Window{OpenHour: 11, OpenMinute: 30, CloseHour: 14}
}

// Open reports whether t falls inside the ordering window.
func (w Window) Open(t time.Time) bool {
	t = t.Local()
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}

	minutes := t.Hour()*60 + t.Minute()
	open := w.OpenHour*60 + w.OpenMinute
	last := w.CloseHour*60 + w.CloseMinute
	return minutes >= open && minutes < last
}
