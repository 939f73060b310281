// internal/httpapi/routes.go
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lasershot/lasershot/internal/middleware"
)

// SetupRoutes builds the router: lobby lifecycle over plain HTTP, the
// persistent game channel on /ws (wired by the caller).
func SetupRoutes(s *Server, wsHandler http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.LogMiddleware(s.Log))

	r.Post("/lobby", s.CreateLobby)
	r.Get("/lobby/{code}", s.LobbyDetails)
	r.Post("/lobby/{code}/join", s.JoinLobby)
	r.Post("/lobby/{code}/leave", s.LeaveTeam)
	r.Get("/ws/{code}/{team}/{user}", wsHandler)
	r.Get("/healthz", s.Healthz)
	return r
}
