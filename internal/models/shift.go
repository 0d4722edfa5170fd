package models

import "time"

// Shift — запланированная смена сотрудника в рамках рабочего пространства.
// Интервал полуоткрытый: [StartTime, EndTime).
type Shift struct {
	ID                   int       `json:"id"`
	WorkspaceID          int       `json:"workspace_id"`
	UserID               int       `json:"user_id"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	BreakDurationMinutes int       `json:"break_duration_minutes"`
}
