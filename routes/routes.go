package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/anleague/tournament-engine/handlers"
	"github.com/anleague/tournament-engine/middleware"
	"github.com/anleague/tournament-engine/models"
)

// SetupRoutes wires every handler into the router. Public reads stay open;
// team mutations require a representative or admin token; bracket control
// and data management are admin only.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	teamHandler *handlers.TeamHandler,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	adminHandler *handlers.AdminHandler,
	wsHandler *handlers.WSHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)
	adminOnly := middleware.Authorize(models.RoleAdmin)

	router.Get("/swagger/*", httpSwagger.Handler())

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/teams", func(r chi.Router) {
		r.Get("/", teamHandler.List)
		r.Get("/top-scorers", teamHandler.TopScorers)
		r.Get("/{teamID}", teamHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", teamHandler.Create)
			r.Get("/mine", teamHandler.MyTeam)
			r.Put("/{teamID}/manager", teamHandler.UpdateManager)
			r.Put("/{teamID}/players/{slot}/name", teamHandler.RenamePlayer)
			r.Put("/{teamID}/players/{slot}/ratings", teamHandler.UpdatePlayerRatings)
			r.Put("/{teamID}/captain/{slot}", teamHandler.SetCaptain)
			r.Post("/{teamID}/flag", teamHandler.UploadFlag)
		})
	})

	router.Route("/tournament", func(r chi.Router) {
		r.Get("/", tournamentHandler.Active)
		r.Get("/bracket", tournamentHandler.Bracket)
		r.Get("/history", tournamentHandler.History)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)

			r.Post("/start", tournamentHandler.Start)
			r.Post("/simulate", tournamentHandler.SimulateRound)
			r.Post("/advance", tournamentHandler.Advance)
			r.Post("/restart", tournamentHandler.Restart)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{matchID}/resolve", matchHandler.Resolve)
		})
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Put("/{matchID}/score", matchHandler.EditScore)
		})
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(adminOnly)

		r.Get("/data", adminHandler.DataOverview)
		r.Post("/export", adminHandler.ExportSnapshot)
		r.Delete("/matches/{matchID}", adminHandler.DeleteMatch)
		r.Delete("/teams/{teamID}", adminHandler.DeleteTeam)
		r.Delete("/users/{userID}", adminHandler.DeleteUser)
		r.Delete("/tournaments/{tournamentID}/matches", adminHandler.PurgeTournamentMatches)
	})

	router.Get("/ws", wsHandler.Subscribe)
}
