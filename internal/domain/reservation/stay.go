package reservation

import (
	"errors"
	"time"
)

var (
	ErrInvalidDateRange = errors.New("check-out must be after check-in")
	ErrPastCheckIn      = errors.New("check-in date cannot be in the past")
)

const dateLayout = "2006-01-02"

// Date is a pure calendar day. No time-of-day, no timezone: every timestamp
// entering the system is reduced to its calendar day at the boundary, so all
// interval comparisons happen on day granularity.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf reduces a timestamp to its calendar day as observed in the
// timestamp's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }
func (d Date) IsZero() bool       { return d.t.IsZero() }

func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

func (d Date) String() string {
	return d.t.Format(dateLayout)
}

// Time returns the day as UTC midnight, for persistence.
func (d Date) Time() time.Time {
	return d.t
}

// Stay is a half-open interval [checkIn, checkOut): the check-out day is not
// occupied, which makes same-day turnovers legal.
type Stay struct {
	checkIn  Date
	checkOut Date
}

func NewStay(checkIn, checkOut Date) (Stay, error) {
	if !checkOut.After(checkIn) {
		return Stay{}, ErrInvalidDateRange
	}
	return Stay{checkIn: checkIn, checkOut: checkOut}, nil
}

func (s Stay) CheckIn() Date  { return s.checkIn }
func (s Stay) CheckOut() Date { return s.checkOut }

// Overlaps is the single definition of a booking conflict. Every caller
// (creation, update, calendar, webhook confirmation) goes through it.
func (s Stay) Overlaps(o Stay) bool {
	return s.checkIn.Before(o.checkOut) && o.checkIn.Before(s.checkOut)
}

func (s Stay) Contains(day Date) bool {
	return !day.Before(s.checkIn) && day.Before(s.checkOut)
}

func (s Stay) Nights() int {
	return int(s.checkOut.t.Sub(s.checkIn.t).Hours() / 24)
}
