package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidRange     = errors.New("start date must not be after end date")
)

const dayLayout = "2006-01-02"

// Day is a local calendar date. It carries no time of day and no offset.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the calendar day the instant falls on in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	y, m, d := t.In(loc).Date()
	return Day{Year: y, Month: m, Day: d}
}

// FromDate normalizes y/m/d (overflowing values roll over like time.Date).
func FromDate(year int, month time.Month, day int) Day {
	y, m, d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Date()
	return Day{Year: y, Month: m, Day: d}
}

// Midnight returns local 00:00:00 of the day in loc.
func (d Day) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// utc anchors the day at UTC midnight so day arithmetic never sees DST gaps.
func (d Day) utc() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Day) AddDays(n int) Day {
	return FromDate(d.Year, d.Month, d.Day+n)
}

// Compare returns -1, 0 or +1.
func (d Day) Compare(o Day) int {
	return d.utc().Compare(o.utc())
}

func (d Day) Before(o Day) bool { return d.Compare(o) < 0 }
func (d Day) After(o Day) bool  { return d.Compare(o) > 0 }

// DaysSince returns the number of days from o to d (negative when d is earlier).
func (d Day) DaysSince(o Day) int {
	return int(d.utc().Sub(o.utc()).Hours() / 24)
}

func (d Day) Weekday() time.Weekday {
	return d.utc().Weekday()
}

func (d Day) IsZero() bool {
	return d == Day{}
}

func (d Day) String() string {
	return d.utc().Format(dayLayout)
}

// SameDay compares two instants by local year/month/day only.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return DayOf(a, loc) == DayOf(b, loc)
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, strings.TrimSpace(s))
	if err != nil {
		return Day{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	return Day{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// Layouts without an offset are interpreted in the reference location.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	dayLayout,
}

// ParseInstant parses an ISO-8601-like timestamp. Inputs with an explicit offset keep it;
// inputs without one are read as wall-clock time in loc.
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidTimestamp)
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}

	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// ParseClock resolves a time of day ("15:04" or "15:04:05") on day d in loc.
func ParseClock(s string, d Day, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if c, err := time.Parse(layout, s); err == nil {
			return time.Date(d.Year, d.Month, d.Day, c.Hour(), c.Minute(), c.Second(), 0, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// Range is an inclusive span of calendar days.
type Range struct {
	Start Day
	End   Day
}

func NewRange(start, end Day) (Range, error) {
	if start.After(end) {
		return Range{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, end)
	}
	return Range{Start: start, End: end}, nil
}

// ParseRange parses both bounds; empty strings fall back to the given defaults.
func ParseRange(start, end string, def Range) (Range, error) {
	r := def
	if start != "" {
		d, err := ParseDay(start)
		if err != nil {
			return Range{}, err
		}
		r.Start = d
	}
	if end != "" {
		d, err := ParseDay(end)
		if err != nil {
			return Range{}, err
		}
		r.End = d
	}
	return NewRange(r.Start, r.End)
}

func (r Range) Contains(d Day) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Len is the number of days in the range, both ends included.
func (r Range) Len() int {
	return r.End.DaysSince(r.Start) + 1
}

func (r Range) Days() []Day {
	days := make([]Day, 0, r.Len())
	for d := r.Start; !d.After(r.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

func (r Range) String() string {
	return r.Start.String() + ".." + r.End.String()
}

// MonthOf returns the whole calendar month containing d.
func MonthOf(d Day) Range {
	start := Day{Year: d.Year, Month: d.Month, Day: 1}
	end := FromDate(d.Year, d.Month+1, 0)
	return Range{Start: start, End: end}
}

// YearOf returns January 1st to December 31st of d's year.
func YearOf(d Day) Range {
	return Range{
		Start: Day{Year: d.Year, Month: time.January, Day: 1},
		End:   Day{Year: d.Year, Month: time.December, Day: 31},
	}
}

// TrailingDays returns the n days ending at end.
func TrailingDays(end Day, n int) Range {
	if n < 1 {
		n = 1
	}
	return Range{Start: end.AddDays(-(n - 1)), End: end}
}

// TrailingMonths returns n whole months ending with the month of d, oldest first.
func TrailingMonths(d Day, n int) []Range {
	months := make([]Range, 0, n)
	for i := n - 1; i >= 0; i-- {
		months = append(months, MonthOf(FromDate(d.Year, d.Month-time.Month(i), 1)))
	}
	return months
}
