package models

import "time"

// Workspace — рабочее пространство (организация), разделяющее смены и заявки.
type Workspace struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedBy int       `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Роли участников рабочего пространства.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleMember  = "member"
)

// IsManagerRole — admin и manager имеют права менеджера.
func IsManagerRole(role string) bool {
	return role == RoleAdmin || role == RoleManager
}
