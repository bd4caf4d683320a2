package services

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// DateRange is a closed interval [From, To] on order creation time.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// BusinessCalendar builds reporting windows in the shop's local time.
type BusinessCalendar struct {
	loc *time.Location
}

// NewBusinessCalendar returns a calendar for loc. A nil loc means UTC.
func NewBusinessCalendar(loc *time.Location) BusinessCalendar {
	if loc == nil {
		loc = time.UTC
	}
	return BusinessCalendar{loc: loc}
}

// FixedOffsetCalendar returns a calendar at a fixed UTC offset in hours.
func FixedOffsetCalendar(hours int) BusinessCalendar {
	return NewBusinessCalendar(time.FixedZone(fmt.Sprintf("UTC%+d", hours), hours*3600))
}

// Location returns the calendar's time zone.
func (c BusinessCalendar) Location() *time.Location { return c.loc }

func (c BusinessCalendar) startOfDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

// endOfDay is the last instant of the day, so sub-second timestamps after
// 23:59:59 still fall inside it.
func (c BusinessCalendar) endOfDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), c.loc)
}

// Day is the business day containing t, 00:00:00 to 23:59:59.
func (c BusinessCalendar) Day(t time.Time) DateRange {
	y, m, d := t.In(c.loc).Date()
	return DateRange{From: c.startOfDay(y, m, d), To: c.endOfDay(y, m, d)}
}

// Month is the calendar month containing t, first day 00:00:00 to last day
// 23:59:59.
func (c BusinessCalendar) Month(t time.Time) DateRange {
	y, m, _ := t.In(c.loc).Date()
	last := c.startOfDay(y, m+1, 0).Day()
	return DateRange{From: c.startOfDay(y, m, 1), To: c.endOfDay(y, m, last)}
}

// Year is the calendar year containing t.
func (c BusinessCalendar) Year(t time.Time) DateRange {
	y := t.In(c.loc).Year()
	return DateRange{From: c.startOfDay(y, time.January, 1), To: c.endOfDay(y, time.December, 31)}
}

// Between spans the business days of from and to inclusive. The bounds are
// swapped when given in reverse.
func (c BusinessCalendar) Between(from, to time.Time) DateRange {
	if to.Before(from) {
		from, to = to, from
	}
	return DateRange{From: c.Day(from).From, To: c.Day(to).To}
}

// ParseDate reads a YYYY-MM-DD date as midnight in the business location.
func (c BusinessCalendar) ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, value, c.loc)
	if err != nil {
		return time.Time{}, invalid("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

// EndOfDate returns 23:59:59 of the given YYYY-MM-DD business day.
func (c BusinessCalendar) EndOfDate(value string) (time.Time, error) {
	t, err := c.ParseDate(value)
	if err != nil {
		return time.Time{}, err
	}
	return c.Day(t).To, nil
}

// Window builds the reporting range for a filter kind: "day", "month" and
// "year" use date alone, "range" spans date to to.
func (c BusinessCalendar) Window(kind string, date, to time.Time) (DateRange, error) {
	switch kind {
	case "", "day":
		return c.Day(date), nil
	case "month":
		return c.Month(date), nil
	case "year":
		return c.Year(date), nil
	case "range":
		return c.Between(date, to), nil
	}
	return DateRange{}, invalid("unknown window type %q", kind)
}
