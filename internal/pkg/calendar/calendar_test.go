package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var newYork = time.FixedZone("UTC-4", -4*60*60)

func TestDayOf_UsesLocalDateNotUTC(t *testing.T) {
	lateEvening, err := time.Parse(time.RFC3339, "2023-05-01T23:50:00-04:00")
	require.NoError(t, err)

	// 03:50 UTC on May 2nd, still May 1st locally
	assert.Equal(t, Day{Year: 2023, Month: time.May, Day: 1}, DayOf(lateEvening, newYork))
	assert.Equal(t, Day{Year: 2023, Month: time.May, Day: 2}, DayOf(lateEvening, time.UTC))
}

func TestSameDay(t *testing.T) {
	a := time.Date(2023, 5, 1, 0, 0, 1, 0, newYork)
	b := time.Date(2023, 5, 1, 23, 59, 59, 0, newYork)
	c := time.Date(2023, 5, 2, 0, 0, 0, 0, newYork)

	assert.True(t, SameDay(a, b, newYork))
	assert.False(t, SameDay(b, c, newYork))
	// same instant seen through a different stored offset
	assert.True(t, SameDay(b.UTC(), b, newYork))
}

func TestMidnight(t *testing.T) {
	d := Day{Year: 2024, Month: time.February, Day: 29}
	m := d.Midnight(newYork)

	assert.Equal(t, 0, m.Hour())
	assert.Equal(t, d, DayOf(m, newYork))
}

func TestParseInstant(t *testing.T) {
	cases := []struct {
		input string
		want  time.Time
	}{
		{"2023-05-01T23:50:00-04:00", time.Date(2023, 5, 1, 23, 50, 0, 0, newYork)},
		{"2023-05-02T03:50:00Z", time.Date(2023, 5, 1, 23, 50, 0, 0, newYork)},
		{"2023-05-01T23:50:00.123Z", time.Date(2023, 5, 1, 23, 50, 0, 123000000, time.UTC)},
		{"2023-05-01T08:30:00", time.Date(2023, 5, 1, 8, 30, 0, 0, newYork)},
		{"2023-05-01 08:30:00", time.Date(2023, 5, 1, 8, 30, 0, 0, newYork)},
		{"2023-05-01", time.Date(2023, 5, 1, 0, 0, 0, 0, newYork)},
	}
	for _, c := range cases {
		got, err := ParseInstant(c.input, newYork)
		require.NoError(t, err, c.input)
		assert.True(t, c.want.Equal(got), "ParseInstant(%q) = %v, want %v", c.input, got, c.want)
	}
}

func TestParseInstant_Invalid(t *testing.T) {
	for _, input := range []string{"", "yesterday", "2023-13-01", "01/05/2023"} {
		_, err := ParseInstant(input, newYork)
		assert.ErrorIs(t, err, ErrInvalidTimestamp, input)
	}
}

func TestParseClock(t *testing.T) {
	d := Day{Year: 2023, Month: time.May, Day: 1}

	got, err := ParseClock("08:15", d, newYork)
	require.NoError(t, err)
	assert.True(t, time.Date(2023, 5, 1, 8, 15, 0, 0, newYork).Equal(got))

	_, err = ParseClock("8 o'clock", d, newYork)
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
}

func TestDayArithmetic(t *testing.T) {
	d := Day{Year: 2023, Month: time.December, Day: 31}

	assert.Equal(t, Day{Year: 2024, Month: time.January, Day: 1}, d.AddDays(1))
	assert.Equal(t, Day{Year: 2023, Month: time.December, Day: 25}, d.AddDays(-6))
	assert.Equal(t, 6, d.DaysSince(d.AddDays(-6)))
	assert.Equal(t, "2023-12-31", d.String())
	assert.Equal(t, time.Sunday, d.Weekday())
}

func TestNewRange(t *testing.T) {
	start := Day{Year: 2023, Month: time.May, Day: 1}
	end := Day{Year: 2023, Month: time.May, Day: 7}

	r, err := NewRange(start, end)
	require.NoError(t, err)
	assert.Equal(t, 7, r.Len())
	assert.Len(t, r.Days(), 7)
	assert.True(t, r.Contains(start))
	assert.True(t, r.Contains(end))
	assert.False(t, r.Contains(end.AddDays(1)))

	_, err = NewRange(end, start)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestParseRange_Defaults(t *testing.T) {
	def := MonthOf(Day{Year: 2023, Month: time.February, Day: 10})

	r, err := ParseRange("", "", def)
	require.NoError(t, err)
	assert.Equal(t, "2023-02-01", r.Start.String())
	assert.Equal(t, "2023-02-28", r.End.String())

	_, err = ParseRange("2023-03-01", "2023-02-01", def)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = ParseRange("03/01/2023", "", def)
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
}

func TestTrailingMonths(t *testing.T) {
	months := TrailingMonths(Day{Year: 2024, Month: time.March, Day: 15}, 6)

	require.Len(t, months, 6)
	assert.Equal(t, "2023-10-01", months[0].Start.String())
	assert.Equal(t, "2024-02-29", months[4].End.String())
	assert.Equal(t, "2024-03-31", months[5].End.String())
}
