package daterange

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: check-in must be before check-out")
	ErrInvalidDate  = errors.New("daterange: invalid calendar date")
)

const dateLayout = "2006-01-02"

// Date is a timezone-naive calendar day. It is stored as midnight UTC so that
// stepping a day forward never crosses a DST boundary.
type Date struct {
	t time.Time
}

// NewDate builds a Date from calendar components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts ISO YYYY-MM-DD input.
func ParseDate(value string) (Date, error) {
	parsed, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return Date{t: parsed}, nil
}

// DateOf truncates an instant to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Before(o Date) bool    { return d.t.Before(o.t) }
func (d Date) After(o Date) bool     { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool     { return d.t.Equal(o.t) }
func (d Date) Next() Date            { return Date{t: d.t.AddDate(0, 0, 1)} }
func (d Date) AddDays(days int) Date { return Date{t: d.t.AddDate(0, 0, days)} }

// Time exposes the underlying midnight-UTC instant for persistence layers.
func (d Date) Time() time.Time { return d.t }

func (d Date) String() string {
	return d.t.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return fmt.Errorf("%w: %s", ErrInvalidDate, raw)
	}
	parsed, err := ParseDate(raw[1 : len(raw)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange is a half-open interval [CheckIn, CheckOut) of calendar days.
type DateRange struct {
	CheckIn  Date
	CheckOut Date
}

// New validates that check-in strictly precedes check-out.
func New(checkIn, checkOut Date) (DateRange, error) {
	if checkIn.IsZero() || checkOut.IsZero() {
		return DateRange{}, ErrInvalidDate
	}
	if !checkIn.Before(checkOut) {
		return DateRange{}, ErrInvalidRange
	}
	return DateRange{CheckIn: checkIn, CheckOut: checkOut}, nil
}

// Parse builds a range from two ISO date strings.
func Parse(checkIn, checkOut string) (DateRange, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return DateRange{}, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return DateRange{}, err
	}
	return New(in, out)
}

// Overlaps reports whether two half-open ranges share at least one night:
// [a,b) and [c,d) overlap iff a < d && c < b.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(r.CheckOut)
}

// Contains reports whether the given day falls inside the range.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.CheckIn) && d.Before(r.CheckOut)
}

// Nights returns every date from CheckIn inclusive to CheckOut exclusive in
// ascending order. The checkout day is never part of the stay.
func (r DateRange) Nights() []Date {
	nights := make([]Date, 0, r.NightsCount())
	for d := r.CheckIn; d.Before(r.CheckOut); d = d.Next() {
		nights = append(nights, d)
	}
	return nights
}

// NightsCount is the number of nights covered by the range.
func (r DateRange) NightsCount() int {
	return int(r.CheckOut.t.Sub(r.CheckIn.t) / (24 * time.Hour))
}

func (r DateRange) String() string {
	return r.CheckIn.String() + "/" + r.CheckOut.String()
}
