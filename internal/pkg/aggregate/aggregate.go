// Package aggregate turns attendance records into bucketed counts, rates and cohort metrics.
// Every function is pure; callers load the records from the store first.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/calendar"
)

type Unit string

const (
	UnitDay  Unit = "day"
	UnitWeek Unit = "week"
)

// DefaultChronicLateThreshold is the LATE count an employee must exceed to be chronically late.
const DefaultChronicLateThreshold = 3

var hundred = decimal.NewFromInt(100)

// Bucket holds the status counts of one time window. HALF_DAY records are not counted here.
type Bucket struct {
	Label   string       `json:"name"`
	Start   calendar.Day `json:"-"`
	End     calendar.Day `json:"-"`
	Present int          `json:"present"`
	Absent  int          `json:"absent"`
	Late    int          `json:"late"`
}

func (b *Bucket) add(s attendance.Status) {
	switch s {
	case attendance.StatusPresent:
		b.Present++
	case attendance.StatusAbsent:
		b.Absent++
	case attendance.StatusLate:
		b.Late++
	case attendance.StatusHalfDay:
	}
}

// Counts is the per-status tally of a record set.
type Counts struct {
	Present int
	Absent  int
	Late    int
	HalfDay int
	Total   int
}

func checkRange(r calendar.Range) error {
	if r.Start.After(r.End) {
		return fmt.Errorf("%w: %s", calendar.ErrInvalidRange, r)
	}
	return nil
}

// BucketBy groups records into zero-filled buckets covering rng, oldest first.
//
// UnitDay yields one bucket per day labeled with the short weekday name. UnitWeek yields
// 7-day windows counted backward from rng.End, labeled "Week 1".."Week k" from oldest to
// newest; the oldest window is clamped to rng.Start.
func BucketBy(records []attendance.Record, unit Unit, rng calendar.Range) ([]Bucket, error) {
	if err := checkRange(rng); err != nil {
		return nil, err
	}

	var buckets []Bucket
	switch unit {
	case UnitDay:
		for _, d := range rng.Days() {
			buckets = append(buckets, Bucket{Label: d.Weekday().String()[:3], Start: d, End: d})
		}
	case UnitWeek:
		for end := rng.End; !end.Before(rng.Start); end = end.AddDays(-7) {
			start := end.AddDays(-6)
			if start.Before(rng.Start) {
				start = rng.Start
			}
			buckets = append(buckets, Bucket{Start: start, End: end})
		}
		for i, j := 0, len(buckets)-1; i < j; i, j = i+1, j-1 {
			buckets[i], buckets[j] = buckets[j], buckets[i]
		}
		for i := range buckets {
			buckets[i].Label = fmt.Sprintf("Week %d", i+1)
		}
	default:
		return nil, fmt.Errorf("unknown bucket unit %q", unit)
	}

	for _, r := range records {
		if !rng.Contains(r.Day) {
			continue
		}
		// buckets are contiguous and ordered, so the first whose end is not before the day holds it
		i := sort.Search(len(buckets), func(i int) bool { return !buckets[i].End.Before(r.Day) })
		if i < len(buckets) {
			buckets[i].add(r.Status)
		}
	}

	return buckets, nil
}

// Tally counts records per status.
func Tally(records []attendance.Record) Counts {
	var c Counts
	for _, r := range records {
		c = c.with(r.Status)
	}
	return c
}

// Rate is round(100 * (present + late) / total), half-up, and 0 for an empty set.
func Rate(records []attendance.Record) int {
	return Tally(records).Rate()
}

func (c Counts) Rate() int {
	if c.Total == 0 {
		return 0
	}
	attended := decimal.NewFromInt(int64(c.Present + c.Late))
	return int(attended.Mul(hundred).Div(decimal.NewFromInt(int64(c.Total))).Round(0).IntPart())
}

// PerfectAttendance counts universe members with no ABSENT record in rng.
// Employees without any record in rng count as perfect.
func PerfectAttendance(records []attendance.Record, universe []string, rng calendar.Range) (int, error) {
	if err := checkRange(rng); err != nil {
		return 0, err
	}

	absent := make(map[string]struct{})
	for _, r := range records {
		if r.Status == attendance.StatusAbsent && rng.Contains(r.Day) {
			absent[r.EmployeeID] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(universe))
	perfect := 0
	for _, id := range universe {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := absent[id]; !ok {
			perfect++
		}
	}
	return perfect, nil
}

// ChronicLateness counts employees whose LATE records in rng are strictly more than threshold.
func ChronicLateness(records []attendance.Record, rng calendar.Range, threshold int) (int, error) {
	if err := checkRange(rng); err != nil {
		return 0, err
	}

	late := make(map[string]int)
	for _, r := range records {
		if r.Status == attendance.StatusLate && rng.Contains(r.Day) {
			late[r.EmployeeID]++
		}
	}

	chronic := 0
	for _, n := range late {
		if n > threshold {
			chronic++
		}
	}
	return chronic, nil
}

// DepartmentRate is Rate restricted to rng and to employees of departmentID.
func DepartmentRate(records []attendance.Record, departmentID string, rng calendar.Range) (int, error) {
	if err := checkRange(rng); err != nil {
		return 0, err
	}

	var c Counts
	for _, r := range records {
		if r.DepartmentID == nil || *r.DepartmentID != departmentID || !rng.Contains(r.Day) {
			continue
		}
		c = c.with(r.Status)
	}
	return c.Rate(), nil
}

func (c Counts) with(s attendance.Status) Counts {
	switch s {
	case attendance.StatusPresent:
		c.Present++
	case attendance.StatusAbsent:
		c.Absent++
	case attendance.StatusLate:
		c.Late++
	case attendance.StatusHalfDay:
		c.HalfDay++
	default:
		return c
	}
	c.Total++
	return c
}

// Improvement formats the change between two rates as "+3%", "-2%" or "0%".
func Improvement(current, previous int) string {
	diff := current - previous
	if diff > 0 {
		return fmt.Sprintf("+%d%%", diff)
	}
	return fmt.Sprintf("%d%%", diff)
}

// WeeklyBreakdown groups records in rng into 7-day windows anchored at the earliest
// record's day, labeled "Week of YYYY-MM-DD". Windows between the first and last record
// are zero-filled; no records yields no windows.
func WeeklyBreakdown(records []attendance.Record, rng calendar.Range) ([]Bucket, error) {
	if err := checkRange(rng); err != nil {
		return nil, err
	}

	inRange := FilterRange(records, rng)
	if len(inRange) == 0 {
		return []Bucket{}, nil
	}

	anchor, last := inRange[0].Day, inRange[0].Day
	for _, r := range inRange[1:] {
		if r.Day.Before(anchor) {
			anchor = r.Day
		}
		if r.Day.After(last) {
			last = r.Day
		}
	}

	weeks := make([]Bucket, last.DaysSince(anchor)/7+1)
	for i := range weeks {
		start := anchor.AddDays(7 * i)
		weeks[i] = Bucket{Label: "Week of " + start.String(), Start: start, End: start.AddDays(6)}
	}
	for _, r := range inRange {
		weeks[r.Day.DaysSince(anchor)/7].add(r.Status)
	}

	return weeks, nil
}

// TrendPoint is the attendance rate of one calendar month.
type TrendPoint struct {
	Month string `json:"month"`
	Rate  int    `json:"rate"`
}

// MonthlyTrend computes one rate per month range, in the order given.
func MonthlyTrend(records []attendance.Record, months []calendar.Range) []TrendPoint {
	points := make([]TrendPoint, 0, len(months))
	for _, m := range months {
		points = append(points, TrendPoint{
			Month: m.Start.Month.String()[:3],
			Rate:  Rate(FilterRange(records, m)),
		})
	}
	return points
}

// WorkMinutes returns the worked minutes of a closed session. ok is false when the
// session is still open or its check-out precedes its check-in.
func WorkMinutes(r attendance.Record) (minutes int64, ok bool) {
	if r.CheckIn == nil || r.CheckOut == nil || r.CheckOut.Before(*r.CheckIn) {
		return 0, false
	}
	return int64(r.CheckOut.Sub(*r.CheckIn).Minutes()), true
}

// WorkHours returns worked hours rounded to two places.
func WorkHours(r attendance.Record) (decimal.Decimal, bool) {
	m, ok := WorkMinutes(r)
	if !ok {
		return decimal.Zero, false
	}
	return minutesToHours(m), true
}

func minutesToHours(m int64) decimal.Decimal {
	return decimal.NewFromInt(m).Div(decimal.NewFromInt(60)).Round(2)
}

type WorkTotals struct {
	TotalHours      decimal.Decimal
	AverageHours    decimal.Decimal
	Sessions        int
	OpenSessions    int
	InvalidSessions int
}

// WorkSummary sums closed sessions. Sessions whose check-out precedes check-in are
// counted as invalid and excluded from the totals.
func WorkSummary(records []attendance.Record) WorkTotals {
	var (
		w       WorkTotals
		minutes int64
	)
	for _, r := range records {
		if r.CheckIn == nil {
			continue
		}
		if r.CheckOut == nil {
			w.OpenSessions++
			continue
		}
		m, ok := WorkMinutes(r)
		if !ok {
			w.InvalidSessions++
			continue
		}
		minutes += m
		w.Sessions++
	}

	w.TotalHours = minutesToHours(minutes)
	w.AverageHours = decimal.Zero
	if w.Sessions > 0 {
		w.AverageHours = decimal.NewFromInt(minutes).
			Div(decimal.NewFromInt(60 * int64(w.Sessions))).
			Round(2)
	}
	return w
}

// FilterRange keeps records whose day falls inside rng.
func FilterRange(records []attendance.Record, rng calendar.Range) []attendance.Record {
	out := make([]attendance.Record, 0, len(records))
	for _, r := range records {
		if rng.Contains(r.Day) {
			out = append(out, r)
		}
	}
	return out
}

func FilterEmployee(records []attendance.Record, employeeID string) []attendance.Record {
	out := make([]attendance.Record, 0)
	for _, r := range records {
		if r.EmployeeID == employeeID {
			out = append(out, r)
		}
	}
	return out
}
