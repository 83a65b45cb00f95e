package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Dosada05/tournament-bracket/handlers"
	"github.com/Dosada05/tournament-bracket/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

type Handlers struct {
	Tournament *handlers.TournamentHandler
	Match      *handlers.MatchHandler
	Player     *handlers.PlayerHandler
	WebSocket  *handlers.WebSocketHandler
}

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	Logger         *slog.Logger
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// WebSocket-соединения не должны попадать под Timeout.
	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	authenticate := middleware.Authenticate(opts.JWTSecret, opts.Logger)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Route("/tournaments/{tournamentID}", func(r chi.Router) {
			// Публичные маршруты просмотра
			r.Get("/", h.Tournament.GetByIDHandler)
			r.Get("/bracket", h.Tournament.BracketHandler)
			r.Get("/standings", h.Tournament.StandingsHandler)
			r.Get("/matches", h.Match.ListByTournamentHandler)

			// Защищенные маршруты только для организаторов
			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(middleware.RequireOrganizer)

				r.Patch("/status", h.Tournament.UpdateStatusHandler)
				r.Post("/complete", h.Tournament.CompleteHandler)
				r.Post("/bracket/regenerate", h.Tournament.RegenerateBracketHandler)
				r.Post("/playoffs", h.Tournament.GeneratePlayoffsHandler)
			})
		})

		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireOrganizer)

			r.Put("/result", h.Match.RecordResultHandler)
			r.Put("/scores", h.Match.RecordScoresHandler)
			r.Post("/rating", h.Match.ProcessRatingHandler)
		})

		r.Get("/players/{playerID}/rating-history", h.Player.RatingHistoryHandler)
	})
}
