package routes

import (
	"github.com/brkpoint/tournament-platform/handlers"
	"github.com/brkpoint/tournament-platform/middleware"
	"github.com/brkpoint/tournament-platform/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	scheduleHandler *handlers.ScheduleHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticated := middleware.Authenticate(jwtSecret)
	organizerOnly := middleware.Authorize(models.RoleOrganizer, models.RoleAdmin)

	router.Get("/swagger/*", httpSwagger.Handler())

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.List)
		r.Get("/{tournamentID}", tournamentHandler.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Use(organizerOnly)

			r.Post("/", tournamentHandler.Create)
			r.Put("/{tournamentID}/logo", tournamentHandler.UploadLogo)
			r.Post("/{tournamentID}/stages", tournamentHandler.CreateStage)
			r.Post("/{tournamentID}/tables", tournamentHandler.CreateTable)
			r.Post("/{tournamentID}/autoschedule", scheduleHandler.AutoScheduleTournament)
		})
	})

	router.Route("/stages", func(r chi.Router) {
		r.Get("/{stageID}/bracket", tournamentHandler.GetStageBracket)
		r.Get("/{stageID}/matches", matchHandler.ListByStage)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Use(organizerOnly)

			r.Post("/{stageID}/participants", tournamentHandler.AddParticipant)
			r.Post("/{stageID}/bracket", tournamentHandler.ImportBracket)
			r.Delete("/{stageID}/matches", tournamentHandler.ResetStage)
			r.Post("/{stageID}/autoschedule", scheduleHandler.AutoScheduleStage)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.GetByID)
		r.Get("/{matchID}/conflicts", scheduleHandler.FindConflicts)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Use(organizerOnly)

			r.Post("/{matchID}/start", matchHandler.Start)
			r.Post("/{matchID}/score", matchHandler.SubmitScore)
			r.Post("/{matchID}/walkover", matchHandler.Walkover)
			r.Post("/{matchID}/schedule", scheduleHandler.ScheduleMatch)
			r.Put("/{matchID}/schedule", scheduleHandler.RescheduleMatch)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
