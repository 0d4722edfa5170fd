package routes

import (
	"database/sql"
	"net/http"

	"github.com/smena/smena_backend/config"
	adminHandlers "github.com/smena/smena_backend/internal/handlers/admin"
	clockHandlers "github.com/smena/smena_backend/internal/handlers/clock"
	exchangeHandlers "github.com/smena/smena_backend/internal/handlers/exchange"
	meetingHandlers "github.com/smena/smena_backend/internal/handlers/meeting"
	shiftHandlers "github.com/smena/smena_backend/internal/handlers/shift"
	streamHandlers "github.com/smena/smena_backend/internal/handlers/stream"
	workspaceHandlers "github.com/smena/smena_backend/internal/handlers/workspace"

	"github.com/smena/smena_backend/internal/middleware" // ваш middleware
	"github.com/smena/smena_backend/internal/pkg/response"
	"github.com/smena/smena_backend/internal/repositories"
	authService "github.com/smena/smena_backend/internal/services/auth"
	"github.com/smena/smena_backend/internal/services/events"
	"github.com/smena/smena_backend/internal/services/exchange"
	"github.com/smena/smena_backend/internal/services/presence"
	"github.com/smena/smena_backend/internal/services/reports"
	"github.com/smena/smena_backend/internal/services/scheduling"
	"github.com/smena/smena_backend/internal/services/timeclock"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // ← алиас!
	"github.com/go-chi/jwtauth/v5"
	"github.com/redis/go-redis/v9"
)

// Setup инициализирует и возвращает настроенный маршрутизатор
// вместе с хабом событий и сервисом табеля (нужны фоновому циклу).
func Setup(cfg *config.Config, database *sql.DB, redisClient *redis.Client) (*chi.Mux, *events.Hub, *timeclock.Service) {
	jwtAuth := jwtauth.New("HS256", []byte(cfg.JwtSecret), nil)
	jwtService := authService.NewJWTService(cfg.JwtSecret)

	hub := events.NewHub()

	shiftRepo := repositories.NewShiftRepository(database)
	timesheetRepo := repositories.NewTimesheetRepository(database)
	requestRepo := repositories.NewRequestRepository(database)
	workspaceRepo := repositories.NewWorkspaceRepository(database)
	meetingRepo := repositories.NewMeetingRepository(database)
	reportRepo := repositories.NewReportRepository(database)

	presenceStore := presence.NewStore(redisClient)
	shiftSvc := scheduling.NewShiftService(shiftRepo, hub)
	clockSvc := timeclock.NewService(shiftRepo, timesheetRepo, hub, presenceStore)
	exchangeSvc := exchange.NewService(requestRepo, shiftRepo, workspaceRepo, hub)
	exporter := reports.NewExporter(reportRepo)
	importer := reports.NewImporter(shiftSvc, cfg.GoogleCredentialsFile)

	shiftHandler := shiftHandlers.NewShiftHandler(shiftSvc, shiftRepo, timesheetRepo, workspaceRepo)
	clockHandler := clockHandlers.NewClockHandler(clockSvc)
	requestHandler := exchangeHandlers.NewRequestHandler(exchangeSvc, requestRepo, workspaceRepo)
	meetingHandler := meetingHandlers.NewMeetingHandler(meetingRepo, workspaceRepo, hub)
	workspaceHandler := workspaceHandlers.NewWorkspaceHandler(workspaceRepo, hub)
	streamHandler := streamHandlers.NewStreamHandler(hub, jwtService, workspaceRepo)
	adminHandler := adminHandlers.NewAdminHandler(presenceStore, exporter, importer, clockSvc, workspaceRepo)

	router := chi.NewRouter()

	// Используем chiMiddleware для Logger и Recoverer
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(jwtauth.Verifier(jwtAuth))
	router.Use(middleware.AddUserIDToContext()) // ваш middleware

	// Публичные маршруты
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		stats := hub.Stats()
		response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"clients": stats.Clients,
		})
	})

	// WebSocket: токен приходит query-параметром, Authenticator не нужен
	router.Get("/api/stream", streamHandler.Subscribe)

	router.Group(func(r chi.Router) {
		r.Use(jwtauth.Authenticator(jwtAuth))

		r.Post("/api/workspaces", workspaceHandler.CreateWorkspace)
		r.Get("/api/workspaces/{workspaceID}/members", workspaceHandler.ListMembers)

		r.Get("/api/shifts", shiftHandler.ListShifts)
		r.Get("/api/shifts/{shiftID}", shiftHandler.GetShift)
		r.Post("/api/shifts", shiftHandler.CreateShift)
		r.Put("/api/shifts/{shiftID}", shiftHandler.UpdateShift)
		r.Delete("/api/shifts/{shiftID}", shiftHandler.DeleteShift)

		r.Post("/api/shifts/{shiftID}/clock-in", clockHandler.ClockIn)
		r.Post("/api/shifts/{shiftID}/start-break", clockHandler.StartBreak)
		r.Post("/api/shifts/{shiftID}/end-break", clockHandler.EndBreak)
		r.Post("/api/shifts/{shiftID}/clock-out", clockHandler.ClockOut)

		r.Get("/api/requests", requestHandler.ListRequests)
		r.Post("/api/requests", requestHandler.CreateRequest)
		r.Post("/api/requests/{requestID}/respond", requestHandler.Respond)
		r.Post("/api/requests/{requestID}/review", requestHandler.Review)

		r.Get("/api/meetings", meetingHandler.ListMeetings)
		r.Post("/api/meetings", meetingHandler.CreateMeeting)
		r.Put("/api/meetings/{meetingID}", meetingHandler.UpdateMeeting)
		r.Delete("/api/meetings/{meetingID}", meetingHandler.DeleteMeeting)

		r.Get("/api/admin/workspaces/{workspaceID}/live-board", adminHandler.LiveBoard)
		r.Get("/api/admin/workspaces/{workspaceID}/timesheet-report", adminHandler.TimesheetReport)
		r.Post("/api/admin/workspaces/{workspaceID}/import-schedule", adminHandler.ImportSchedule)
		r.Post("/api/admin/auto-clock-out", adminHandler.AutoClockOut)
	})

	return router, hub, clockSvc
}
