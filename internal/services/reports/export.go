// services/reports/export.go
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/smena/smena_backend/internal/models"
	"github.com/smena/smena_backend/internal/services/timeclock"
)

// TimesheetRow — строка отчёта: смена + табель + имя сотрудника.
type TimesheetRow struct {
	Shift     models.Shift
	Timesheet models.Timesheet
	Username  string
}

// ReportStore — выборка закрытых табелей за период.
type ReportStore interface {
	FindTimesheetRows(ctx context.Context, workspaceID int, from, to time.Time) ([]TimesheetRow, error)
}

// Exporter собирает Excel-отчёт по табелям рабочего пространства.
type Exporter struct {
	Store ReportStore
}

func NewExporter(store ReportStore) *Exporter {
	return &Exporter{Store: store}
}

var reportHeaders = []string{
	"Сотрудник", "User ID", "Начало смены", "Конец смены",
	"Clock-in", "Перерыв с", "Перерыв до", "Clock-out",
	"Отработано", "Статус",
}

// BuildTimesheetReport формирует книгу с одним листом "Timesheets".
func (e *Exporter) BuildTimesheetReport(ctx context.Context, workspaceID int, from, to time.Time) (*excelize.File, error) {
	rows, err := e.Store.FindTimesheetRows(ctx, workspaceID, from, to)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Timesheets"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for col, header := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for i, row := range rows {
		values := []interface{}{
			row.Username,
			row.Shift.UserID,
			row.Shift.StartTime.Format("2006-01-02 15:04"),
			row.Shift.EndTime.Format("2006-01-02 15:04"),
			formatClock(row.Timesheet.ClockInTime),
			formatClock(row.Timesheet.StartBreakTime),
			formatClock(row.Timesheet.EndBreakTime),
			formatClock(row.Timesheet.ClockOutTime),
			FormatDuration(workedSeconds(&row.Timesheet)),
			string(timeclock.DeriveStatus(&row.Timesheet)),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	return f, nil
}

func formatClock(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("15:04")
}

// workedSeconds — фактически отработанное время за вычетом перерыва.
func workedSeconds(ts *models.Timesheet) int {
	if ts.ClockInTime == nil || ts.ClockOutTime == nil {
		return 0
	}
	worked := ts.ClockOutTime.Sub(*ts.ClockInTime)
	if ts.StartBreakTime != nil && ts.EndBreakTime != nil {
		worked -= ts.EndBreakTime.Sub(*ts.StartBreakTime)
	}
	if worked < 0 {
		return 0
	}
	return int(worked.Seconds())
}

// FormatDuration печатает секунды как "N ч M мин".
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "0 мин"
	}
	hours := seconds / 3600
	mins := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%d ч %d мин", hours, mins)
	}
	return fmt.Sprintf("%d мин", mins)
}
