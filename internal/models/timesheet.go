// models/timesheet.go
package models

import "time"

// Timesheet — фактический учёт времени по одной смене (1:1 с Shift).
// Используем указатели, чтобы отличать 0 от отсутствия значения.
// Инвариант: clock_in <= start_break <= end_break <= clock_out.
type Timesheet struct {
	ShiftID        int        `json:"shift_id"`
	ClockInTime    *time.Time `json:"clock_in_time,omitempty"`
	StartBreakTime *time.Time `json:"start_break_time,omitempty"`
	EndBreakTime   *time.Time `json:"end_break_time,omitempty"`
	ClockOutTime   *time.Time `json:"clock_out_time,omitempty"`
}
