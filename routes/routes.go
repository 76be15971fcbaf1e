package routes

import (
	"net/http"

	"github.com/Dosada05/tournament-brackets/handlers"
	"github.com/Dosada05/tournament-brackets/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handlers struct {
	Tournament *handlers.TournamentHandler
	Bracket    *handlers.BracketHandler
	Match      *handlers.MatchHandler
	WebSocket  *handlers.WebSocketHandler
}

// SetupRoutes mounts the JSON API and the websocket endpoint on router. Write endpoints
// go through limiter when it is not nil.
func SetupRoutes(router chi.Router, h Handlers, limiter *middleware.RateLimiter, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	write := func(r chi.Router) chi.Router {
		if limiter == nil {
			return r
		}
		return r.With(limiter.Limit)
	}

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournament.ListTournaments)
		write(r).Post("/", h.Tournament.CreateTournament)

		r.Route("/{tournamentID}", func(r chi.Router) {
			r.Get("/", h.Tournament.GetTournamentByID)
			r.Get("/bracket", h.Bracket.GetBracket)
			write(r).Post("/bracket", h.Bracket.BuildBracket)
			r.Get("/standings", h.Bracket.GetStandings)
			write(r).Post("/advance", h.Bracket.Advance)
			r.Get("/matches", h.Bracket.ListMatches)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		write(r).Post("/{matchID}/result", h.Match.RecordResult)
	})

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)
}
