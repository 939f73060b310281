// internal/httpapi/handlers.go
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/lasershot/lasershot/internal/lobby"
)

// Server carries the dependencies of the HTTP boundary. All game semantics
// live behind the lobby store; the handlers only validate input and map
// errors to status codes.
type Server struct {
	Log   *logrus.Logger
	Store *lobby.Store
}

type createLobbyRequest struct {
	MaxPlayers int `json:"max_players"`
}

type createLobbyResponse struct {
	LobbyCode  string    `json:"lobby_code"`
	Colors     [2]string `json:"colors"`
	Shape      string    `json:"shape"`
	Teams      [2]string `json:"teams"`
	GameStatus string    `json:"game_status"`
}

// CreateLobby allocates a lobby. The size must be even and at least 2 so the
// two teams split it evenly; anything else is rejected here, before the core.
func (s *Server) CreateLobby(w http.ResponseWriter, r *http.Request) {
	var req createLobbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request payload", http.StatusBadRequest)
		return
	}

	lob, err := s.Store.CreateLobby(req.MaxPlayers)
	if err != nil {
		s.writeError(w, err)
		return
	}

	lob.Mu.Lock()
	resp := createLobbyResponse{
		LobbyCode:  lob.Code,
		Colors:     [2]string{lob.TeamA().Color, lob.TeamB().Color},
		Shape:      lob.TeamA().Shape,
		Teams:      lob.TeamOrder,
		GameStatus: string(lob.GameStatus),
	}
	lob.Mu.Unlock()

	writeJSON(w, http.StatusCreated, resp)
}

type joinLobbyRequest struct {
	Username string `json:"username"`
}

// JoinLobby creates a player and balances them onto the smaller team.
func (s *Server) JoinLobby(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req joinLobbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "username required", http.StatusBadRequest)
		return
	}

	player := s.Store.NewPlayer(req.Username)
	if err := s.Store.AssignTeam(code, player); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

// LobbyDetails returns the spectator snapshot, with live time remaining while
// a match runs.
func (s *Server) LobbyDetails(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	details, ok := s.Store.Details(code)
	if !ok {
		http.Error(w, "lobby not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

type leaveTeamRequest struct {
	PlayerID int `json:"player_id"`
}

// LeaveTeam removes a player from their team. A lobby emptied before its
// match started disappears with them.
func (s *Server) LeaveTeam(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req leaveTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request payload", http.StatusBadRequest)
		return
	}

	if _, err := s.Store.RemovePlayer(code, req.PlayerID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Healthz reports liveness.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lobby.ErrLobbyNotFound),
		errors.Is(err, lobby.ErrTeamNotFound),
		errors.Is(err, lobby.ErrPlayerNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, lobby.ErrLobbyFull):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, lobby.ErrInvalidLobbySize):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.Log.WithError(err).Error("unexpected handler error")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
