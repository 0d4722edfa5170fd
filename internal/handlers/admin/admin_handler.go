// internal/handlers/admin/admin_handler.go
package admin

import (
	"github.com/smena/smena_backend/internal/middleware"
	"github.com/smena/smena_backend/internal/services/presence"
	"github.com/smena/smena_backend/internal/services/reports"
	"github.com/smena/smena_backend/internal/services/timeclock"
)

// AdminHandler — административные операции пространства: живая доска
// статусов, отчёты, массовый импорт расписания, автозакрытие смен.
type AdminHandler struct {
	presence  *presence.Store
	exporter  *reports.Exporter
	importer  *reports.Importer
	timeclock *timeclock.Service
	roles     middleware.RoleSource
}

func NewAdminHandler(pres *presence.Store, exporter *reports.Exporter, importer *reports.Importer, tc *timeclock.Service, roles middleware.RoleSource) *AdminHandler {
	return &AdminHandler{
		presence:  pres,
		exporter:  exporter,
		importer:  importer,
		timeclock: tc,
		roles:     roles,
	}
}
