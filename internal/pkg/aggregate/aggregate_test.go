package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/calendar"
)

func day(s string) calendar.Day {
	d, err := calendar.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func span(start, end string) calendar.Range {
	return calendar.Range{Start: day(start), End: day(end)}
}

func rec(employeeID, date string, status attendance.Status) attendance.Record {
	return attendance.Record{EmployeeID: employeeID, Day: day(date), Status: status}
}

func recIn(departmentID, employeeID, date string, status attendance.Status) attendance.Record {
	r := rec(employeeID, date, status)
	r.DepartmentID = &departmentID
	return r
}

func TestRate(t *testing.T) {
	mixed := []attendance.Record{
		rec("e1", "2023-05-01", attendance.StatusPresent),
		rec("e1", "2023-05-02", attendance.StatusPresent),
		rec("e1", "2023-05-03", attendance.StatusLate),
		rec("e1", "2023-05-04", attendance.StatusAbsent),
	}
	assert.Equal(t, 75, Rate(mixed))
	assert.Equal(t, 0, Rate(nil))

	// half-day counts toward the total only
	assert.Equal(t, 50, Rate([]attendance.Record{
		rec("e1", "2023-05-01", attendance.StatusPresent),
		rec("e1", "2023-05-02", attendance.StatusHalfDay),
	}))

	// 12.5 rounds half-up
	oneOfEight := []attendance.Record{rec("e1", "2023-05-01", attendance.StatusPresent)}
	for i := 2; i <= 8; i++ {
		oneOfEight = append(oneOfEight, rec("e1", day("2023-05-01").AddDays(i).String(), attendance.StatusAbsent))
	}
	assert.Equal(t, 13, Rate(oneOfEight))
}

func TestTally(t *testing.T) {
	c := Tally([]attendance.Record{
		rec("e1", "2023-05-01", attendance.StatusPresent),
		rec("e2", "2023-05-01", attendance.StatusAbsent),
		rec("e3", "2023-05-01", attendance.StatusLate),
		rec("e4", "2023-05-01", attendance.StatusHalfDay),
	})
	assert.Equal(t, Counts{Present: 1, Absent: 1, Late: 1, HalfDay: 1, Total: 4}, c)
}

func TestBucketBy_DayWithoutRecordsIsZeroFilled(t *testing.T) {
	buckets, err := BucketBy(nil, UnitDay, calendar.TrailingDays(day("2023-05-07"), 7))
	require.NoError(t, err)

	require.Len(t, buckets, 7)
	labels := make([]string, 0, len(buckets))
	for _, b := range buckets {
		labels = append(labels, b.Label)
		assert.Zero(t, b.Present+b.Absent+b.Late)
	}
	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}, labels)
}

func TestBucketBy_DayCounts(t *testing.T) {
	records := []attendance.Record{
		rec("e1", "2023-05-01", attendance.StatusPresent),
		rec("e2", "2023-05-01", attendance.StatusLate),
		rec("e1", "2023-05-07", attendance.StatusAbsent),
		rec("e3", "2023-05-07", attendance.StatusHalfDay),
		rec("e1", "2023-04-30", attendance.StatusAbsent), // outside the range
	}

	buckets, err := BucketBy(records, UnitDay, span("2023-05-01", "2023-05-07"))
	require.NoError(t, err)

	assert.Equal(t, 1, buckets[0].Present)
	assert.Equal(t, 1, buckets[0].Late)
	assert.Equal(t, 1, buckets[6].Absent)
	assert.Zero(t, buckets[6].Present+buckets[6].Late)
}

func TestBucketBy_WeekCountsBackwardFromEnd(t *testing.T) {
	records := []attendance.Record{
		rec("e1", "2023-04-16", attendance.StatusLate),
		rec("e1", "2023-04-17", attendance.StatusPresent),
		rec("e1", "2023-05-07", attendance.StatusAbsent),
	}

	buckets, err := BucketBy(records, UnitWeek, calendar.TrailingDays(day("2023-05-07"), 28))
	require.NoError(t, err)
	require.Len(t, buckets, 4)

	assert.Equal(t, "Week 1", buckets[0].Label)
	assert.Equal(t, "2023-04-10", buckets[0].Start.String())
	assert.Equal(t, "2023-04-16", buckets[0].End.String())
	assert.Equal(t, 1, buckets[0].Late)

	assert.Equal(t, 1, buckets[1].Present)

	assert.Equal(t, "Week 4", buckets[3].Label)
	assert.Equal(t, "2023-05-01", buckets[3].Start.String())
	assert.Equal(t, 1, buckets[3].Absent)
}

func TestBucketBy_WeekClampsOldestWindow(t *testing.T) {
	buckets, err := BucketBy(nil, UnitWeek, span("2023-04-28", "2023-05-07"))
	require.NoError(t, err)
	require.Len(t, buckets, 2)

	assert.Equal(t, "2023-04-28", buckets[0].Start.String())
	assert.Equal(t, "2023-04-30", buckets[0].End.String())
	assert.Equal(t, "2023-05-01", buckets[1].Start.String())
}

func TestInvalidRangeIsRejected(t *testing.T) {
	backwards := span("2023-05-07", "2023-05-01")

	_, err := BucketBy(nil, UnitDay, backwards)
	assert.ErrorIs(t, err, calendar.ErrInvalidRange)

	_, err = PerfectAttendance(nil, []string{"e1"}, backwards)
	assert.ErrorIs(t, err, calendar.ErrInvalidRange)

	_, err = ChronicLateness(nil, backwards, DefaultChronicLateThreshold)
	assert.ErrorIs(t, err, calendar.ErrInvalidRange)

	_, err = DepartmentRate(nil, "d1", backwards)
	assert.ErrorIs(t, err, calendar.ErrInvalidRange)

	_, err = WeeklyBreakdown(nil, backwards)
	assert.ErrorIs(t, err, calendar.ErrInvalidRange)
}

func TestPerfectAttendance(t *testing.T) {
	rng := span("2023-05-01", "2023-05-31")
	universe := []string{"e1", "e2", "e3"}
	records := []attendance.Record{
		rec("e1", "2023-05-02", attendance.StatusAbsent),
		rec("e2", "2023-05-02", attendance.StatusPresent),
		rec("e4", "2023-05-02", attendance.StatusAbsent), // not part of the universe
		rec("e2", "2023-06-01", attendance.StatusAbsent), // outside the range
	}

	perfect, err := PerfectAttendance(records, universe, rng)
	require.NoError(t, err)
	// e3 has no records at all and still counts
	assert.Equal(t, 2, perfect)

	records = append(records, rec("e2", "2023-05-03", attendance.StatusAbsent))
	after, err := PerfectAttendance(records, universe, rng)
	require.NoError(t, err)
	assert.Equal(t, perfect-1, after)
}

func TestChronicLateness_IsStrictlyGreaterThanThreshold(t *testing.T) {
	rng := span("2023-05-01", "2023-05-31")
	var records []attendance.Record
	for i := 1; i <= 3; i++ {
		records = append(records, rec("e1", day("2023-05-01").AddDays(i).String(), attendance.StatusLate))
	}

	n, err := ChronicLateness(records, rng, DefaultChronicLateThreshold)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	records = append(records, rec("e1", "2023-05-20", attendance.StatusLate))
	n, err = ChronicLateness(records, rng, DefaultChronicLateThreshold)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDepartmentRate(t *testing.T) {
	records := []attendance.Record{
		recIn("eng", "e1", "2023-05-01", attendance.StatusPresent),
		recIn("eng", "e2", "2023-05-01", attendance.StatusAbsent),
		recIn("ops", "e3", "2023-05-01", attendance.StatusAbsent),
		rec("e4", "2023-05-01", attendance.StatusAbsent),
	}

	rate, err := DepartmentRate(records, "eng", span("2023-05-01", "2023-05-31"))
	require.NoError(t, err)
	assert.Equal(t, 50, rate)

	rate, err = DepartmentRate(records, "sales", span("2023-05-01", "2023-05-31"))
	require.NoError(t, err)
	assert.Equal(t, 0, rate)
}

func TestImprovement(t *testing.T) {
	assert.Equal(t, "+3%", Improvement(83, 80))
	assert.Equal(t, "-2%", Improvement(78, 80))
	assert.Equal(t, "0%", Improvement(80, 80))
}

func TestWeeklyBreakdown_AnchorsToFirstRecord(t *testing.T) {
	records := []attendance.Record{
		rec("e1", "2023-05-20", attendance.StatusLate),
		rec("e1", "2023-05-03", attendance.StatusPresent),
		rec("e1", "2023-05-04", attendance.StatusAbsent),
	}

	weeks, err := WeeklyBreakdown(records, span("2023-05-01", "2023-05-31"))
	require.NoError(t, err)
	require.Len(t, weeks, 3)

	assert.Equal(t, "Week of 2023-05-03", weeks[0].Label)
	assert.Equal(t, 1, weeks[0].Present)
	assert.Equal(t, 1, weeks[0].Absent)

	assert.Equal(t, "Week of 2023-05-10", weeks[1].Label)
	assert.Zero(t, weeks[1].Present+weeks[1].Absent+weeks[1].Late)

	assert.Equal(t, "Week of 2023-05-17", weeks[2].Label)
	assert.Equal(t, 1, weeks[2].Late)
}

func TestWeeklyBreakdown_Empty(t *testing.T) {
	weeks, err := WeeklyBreakdown(nil, span("2023-05-01", "2023-05-31"))
	require.NoError(t, err)
	assert.Empty(t, weeks)
}

func TestMonthlyTrend(t *testing.T) {
	records := []attendance.Record{
		rec("e1", "2024-01-10", attendance.StatusPresent),
		rec("e1", "2024-02-10", attendance.StatusAbsent),
		rec("e1", "2024-02-11", attendance.StatusLate),
	}

	points := MonthlyTrend(records, calendar.TrailingMonths(day("2024-03-05"), 3))
	assert.Equal(t, []TrendPoint{
		{Month: "Jan", Rate: 100},
		{Month: "Feb", Rate: 50},
		{Month: "Mar", Rate: 0},
	}, points)
}

func TestWorkSummary(t *testing.T) {
	at := func(s string) *time.Time {
		v, err := time.Parse(time.RFC3339, s)
		if err != nil {
			panic(err)
		}
		return &v
	}

	closed := rec("e1", "2023-05-01", attendance.StatusPresent)
	closed.CheckIn, closed.CheckOut = at("2023-05-01T08:00:00Z"), at("2023-05-01T16:30:00Z")

	open := rec("e1", "2023-05-02", attendance.StatusPresent)
	open.CheckIn = at("2023-05-02T08:00:00Z")

	broken := rec("e1", "2023-05-03", attendance.StatusPresent)
	broken.CheckIn, broken.CheckOut = at("2023-05-03T10:00:00Z"), at("2023-05-03T09:00:00Z")

	minutes, ok := WorkMinutes(closed)
	require.True(t, ok)
	assert.Equal(t, int64(510), minutes)

	_, ok = WorkMinutes(broken)
	assert.False(t, ok)

	w := WorkSummary([]attendance.Record{closed, open, broken})
	assert.Equal(t, "8.5", w.TotalHours.String())
	assert.Equal(t, "8.5", w.AverageHours.String())
	assert.Equal(t, 1, w.Sessions)
	assert.Equal(t, 1, w.OpenSessions)
	assert.Equal(t, 1, w.InvalidSessions)
}
