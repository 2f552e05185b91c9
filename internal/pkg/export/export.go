// Package export renders attendance reports as xlsx workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/report"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	summarySheet     = "Summary"
	departmentSheet  = "Departments"
	employeeSheet    = "Employee"
	weeklySheet      = "Weekly"
	dailyLogSheet    = "Daily Log"
	defaultSheetName = "Sheet1"
)

// sheet writes rows top-down starting at A1.
type sheet struct {
	f    *excelize.File
	name string
	row  int
}

func newSheet(f *excelize.File, name string) (*sheet, error) {
	if _, err := f.NewSheet(name); err != nil {
		return nil, err
	}
	return &sheet{f: f, name: name}, nil
}

func (s *sheet) append(values ...any) error {
	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	return s.f.SetSheetRow(s.name, cell, &values)
}

func (s *sheet) header(values ...any) error {
	if err := s.append(values...); err != nil {
		return err
	}
	style, err := s.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(len(values), s.row)
	if err != nil {
		return err
	}
	return s.f.SetCellStyle(s.name, fmt.Sprintf("A%d", s.row), end, style)
}

func finish(f *excelize.File, first string) error {
	idx, err := f.GetSheetIndex(first)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	return f.DeleteSheet(defaultSheetName)
}

// SummaryWorkbook builds a workbook with organization totals and one row per department.
func SummaryWorkbook(rep report.SummaryReport) (*excelize.File, error) {
	f := excelize.NewFile()

	totals, err := newSheet(f, summarySheet)
	if err != nil {
		return nil, err
	}
	rows := [][]any{
		{"Start Date", rep.StartDate},
		{"End Date", rep.EndDate},
		{"Total Employees", rep.TotalEmployees},
		{"Present", rep.Totals.Present},
		{"Absent", rep.Totals.Absent},
		{"Late", rep.Totals.Late},
		{"Half Days", rep.Totals.HalfDays},
		{"Total Records", rep.Totals.Total},
		{"Attendance Rate (%)", rep.AttendanceRate},
		{"Perfect Attendance", rep.PerfectAttendance},
		{"Chronic Lateness", rep.ChronicLateness},
	}
	if err := totals.header("Metric", "Value"); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := totals.append(r...); err != nil {
			return nil, err
		}
	}

	deps, err := newSheet(f, departmentSheet)
	if err != nil {
		return nil, err
	}
	if err := deps.header("Department ID", "Department", "Employees", "Attendance Rate (%)"); err != nil {
		return nil, err
	}
	for _, d := range rep.Departments {
		if err := deps.append(d.DepartmentID, d.DepartmentName, d.EmployeeCount, d.AttendanceRate); err != nil {
			return nil, err
		}
	}

	if err := finish(f, summarySheet); err != nil {
		return nil, err
	}
	return f, nil
}

// EmployeeWorkbook builds a workbook with an employee's summary, weekly breakdown and daily log.
func EmployeeWorkbook(rep report.EmployeeReport) (*excelize.File, error) {
	f := excelize.NewFile()

	info, err := newSheet(f, employeeSheet)
	if err != nil {
		return nil, err
	}
	department := ""
	if rep.Employee.DepartmentName != nil {
		department = *rep.Employee.DepartmentName
	}
	rows := [][]any{
		{"Employee ID", rep.Employee.ID},
		{"Name", rep.Employee.Name},
		{"Email", rep.Employee.Email},
		{"Department", department},
		{"Start Date", rep.StartDate},
		{"End Date", rep.EndDate},
		{"Present", rep.Summary.Present},
		{"Absent", rep.Summary.Absent},
		{"Late", rep.Summary.Late},
		{"Half Days", rep.Summary.HalfDays},
		{"Attendance Rate (%)", rep.Summary.AttendanceRate},
		{"Total Work Hours", rep.WorkHours.TotalHours},
		{"Average Work Hours", rep.WorkHours.AverageHours},
	}
	if err := info.header("Field", "Value"); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := info.append(r...); err != nil {
			return nil, err
		}
	}

	weekly, err := newSheet(f, weeklySheet)
	if err != nil {
		return nil, err
	}
	if err := weekly.header("Week", "Present", "Absent", "Late"); err != nil {
		return nil, err
	}
	for _, w := range rep.Weekly {
		if err := weekly.append(w.Name, w.Present, w.Absent, w.Late); err != nil {
			return nil, err
		}
	}

	daily, err := newSheet(f, dailyLogSheet)
	if err != nil {
		return nil, err
	}
	if err := daily.header("Date", "Day", "Status", "Check In", "Check Out", "Work Hours", "Notes"); err != nil {
		return nil, err
	}
	for _, d := range rep.DailyLogs {
		if err := daily.append(d.Date, d.DayOfWeek, d.Status, deref(d.CheckIn), deref(d.CheckOut), deref(d.WorkingHours), deref(d.Notes)); err != nil {
			return nil, err
		}
	}

	if err := finish(f, employeeSheet); err != nil {
		return nil, err
	}
	return f, nil
}

// Write streams the workbook and closes it.
func Write(f *excelize.File, w io.Writer) error {
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("%w: %w", report.ErrExportFailed, err)
	}
	return nil
}

func deref[T any](p *T) any {
	if p == nil {
		return ""
	}
	return *p
}
