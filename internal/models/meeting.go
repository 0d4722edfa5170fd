// models/meeting.go
package models

import "time"

// Meeting — встреча в рамках рабочего пространства.
type Meeting struct {
	ID          int       `json:"id"`
	WorkspaceID int       `json:"workspace_id"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	CreatedBy   int       `json:"created_by"`
}
