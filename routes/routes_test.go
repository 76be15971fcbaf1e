package routes_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/tournament-brackets/brackets"
	"github.com/Dosada05/tournament-brackets/db/dbtest"
	"github.com/Dosada05/tournament-brackets/handlers"
	"github.com/Dosada05/tournament-brackets/middleware"
	"github.com/Dosada05/tournament-brackets/repositories"
	"github.com/Dosada05/tournament-brackets/routes"
	"github.com/Dosada05/tournament-brackets/services"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type server struct {
	*httptest.Server
	hub *brackets.Hub
}

func newServer(t *testing.T, limiter *middleware.RateLimiter) *server {
	conn := dbtest.Open(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tourRepo := repositories.NewTournamentRepository(conn)
	playerRepo := repositories.NewPlayerRepository(conn)
	stageRepo := repositories.NewStageRepository(conn)
	matchRepo := repositories.NewMatchRepository(conn)

	hub := brackets.NewHub(logger)
	done := make(chan struct{})
	go hub.Run(done)
	t.Cleanup(func() { close(done) })

	bracketService := services.NewBracketService(conn, tourRepo, playerRepo, stageRepo, matchRepo, brackets.NewRandShuffler(7), hub, nil, logger)
	tournamentService := services.NewTournamentService(conn, tourRepo, playerRepo, stageRepo, matchRepo, bracketService, hub, nil, logger)
	matchService := services.NewMatchService(conn, tourRepo, playerRepo, stageRepo, matchRepo, hub, nil, logger)
	standingsService := services.NewStandingsService(tourRepo, playerRepo, stageRepo, matchRepo, logger)

	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		Tournament: handlers.NewTournamentHandler(tournamentService, logger),
		Bracket:    handlers.NewBracketHandler(bracketService, standingsService, matchService, logger),
		Match:      handlers.NewMatchHandler(matchService, logger),
		WebSocket:  handlers.NewWebSocketHandler(hub, tournamentService, nil, logger),
	}, limiter, []string{"*"})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &server{Server: srv, hub: hub}
}

func (s *server) do(t *testing.T, method, path, body string) (int, map[string]json.RawMessage) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env map[string]json.RawMessage
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

type bracketBody struct {
	Tournament struct {
		ID int `json:"id"`
	} `json:"tournament"`
	GroupStages []struct {
		Name    string `json:"name"`
		Matches []struct {
			ID          int    `json:"id"`
			MatchNumber int    `json:"match_number"`
			Player1Name string `json:"player1_name"`
		} `json:"matches"`
	} `json:"group_stages"`
	FinalStages []json.RawMessage `json:"final_stages"`
	CanAdvance  bool              `json:"can_advance"`
}

const roundRobinBody = `{
	"name": "Club Championship",
	"semester": "Spring 2025",
	"type": "round_robin",
	"player_num": 8,
	"num_groups": 2,
	"group_size": 4,
	"advance_per_group": 2,
	"players": [
		{"name": "Alice", "innings": 20}, {"name": "Bob", "innings": 20},
		{"name": "Carol", "innings": 20}, {"name": "Dave", "innings": 20},
		{"name": "Erin", "innings": 20}, {"name": "Frank", "innings": 20},
		{"name": "Grace", "innings": 20}, {"name": "Heidi", "innings": 20}
	]
}`

func createRoundRobin(t *testing.T, s *server) bracketBody {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/tournaments", roundRobinBody)
	require.Equal(t, http.StatusCreated, status)
	var bracket bracketBody
	require.NoError(t, json.Unmarshal(env["bracket"], &bracket))
	return bracket
}

func TestAPI_TournamentLifecycle(t *testing.T) {
	s := newServer(t, nil)

	bracket := createRoundRobin(t, s)
	id := bracket.Tournament.ID
	require.NotZero(t, id)
	require.Len(t, bracket.GroupStages, 2)
	assert.True(t, bracket.CanAdvance)
	firstMatch := bracket.GroupStages[0].Matches[0]

	status, _ := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusNoContent, status)

	status, env := s.do(t, http.MethodGet, "/tournaments", "")
	assert.Equal(t, http.StatusOK, status)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(env["tournaments"], &list))
	assert.Len(t, list, 1)

	status, _ = s.do(t, http.MethodGet, fmt.Sprintf("/tournaments/%d", id), "")
	assert.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodGet, fmt.Sprintf("/tournaments/%d/matches?q=alice", id), "")
	assert.Equal(t, http.StatusOK, status)
	var matches []map[string]any
	require.NoError(t, json.Unmarshal(env["matches"], &matches))
	assert.Len(t, matches, 3)

	status, _ = s.do(t, http.MethodPost, fmt.Sprintf("/matches/%d/result", firstMatch.ID), `{"point1": "12", "point2": "7", "winner": 1}`)
	assert.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodPost, fmt.Sprintf("/matches/%d/result", firstMatch.ID), `{"point1": "12", "point2": "7", "winner": 2}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(env["error"]), "already been recorded")

	status, env = s.do(t, http.MethodGet, fmt.Sprintf("/tournaments/%d/standings", id), "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env["standings"]), "Alice")

	status, _ = s.do(t, http.MethodPost, fmt.Sprintf("/tournaments/%d/bracket", id), "")
	assert.Equal(t, http.StatusConflict, status)

	status, env = s.do(t, http.MethodPost, fmt.Sprintf("/tournaments/%d/advance", id), "")
	require.Equal(t, http.StatusCreated, status)
	var advanced bracketBody
	require.NoError(t, json.Unmarshal(env["bracket"], &advanced))
	assert.False(t, advanced.CanAdvance)
	assert.Len(t, advanced.FinalStages, 3)

	status, _ = s.do(t, http.MethodPost, fmt.Sprintf("/tournaments/%d/advance", id), `{"strategy": "round_robin_standings"}`)
	assert.Equal(t, http.StatusConflict, status)
}

func TestAPI_ErrorStatuses(t *testing.T) {
	s := newServer(t, nil)
	bracket := createRoundRobin(t, s)
	matchPath := fmt.Sprintf("/matches/%d/result", bracket.GroupStages[0].Matches[0].ID)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"invalid group settings", http.MethodPost, "/tournaments", `{"name": "League", "type": "round_robin", "player_num": 5, "num_groups": 2, "group_size": 4, "advance_per_group": 2}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/tournaments", `{"name": "Cup", "kind": "single_elim"}`, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/tournaments", `{"name": `, http.StatusBadRequest},
		{"non numeric id", http.MethodGet, "/tournaments/abc", "", http.StatusBadRequest},
		{"negative limit", http.MethodGet, "/tournaments?limit=-1", "", http.StatusBadRequest},
		{"unknown tournament", http.MethodGet, "/tournaments/9999/bracket", "", http.StatusNotFound},
		{"unknown match", http.MethodPost, "/matches/9999/result", `{"winner": 1}`, http.StatusNotFound},
		{"missing result body", http.MethodPost, matchPath, "", http.StatusBadRequest},
		{"invalid score", http.MethodPost, matchPath, `{"point1": "x", "winner": 1}`, http.StatusBadRequest},
		{"unknown builder", http.MethodPost, fmt.Sprintf("/tournaments/%d/bracket", bracket.Tournament.ID), `{"builder": "swiss"}`, http.StatusBadRequest},
		{"unknown strategy", http.MethodPost, fmt.Sprintf("/tournaments/%d/advance", bracket.Tournament.ID), `{"strategy": "coin_flip"}`, http.StatusBadRequest},
		{"unknown websocket room", http.MethodGet, "/ws/tournaments/9999", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, status)
			assert.NotEmpty(t, env["error"])
		})
	}
}

func TestAPI_RateLimitsWrites(t *testing.T) {
	limiter := middleware.NewRateLimiter(0.001, 2, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s := newServer(t, limiter)

	for i := 0; i < 2; i++ {
		status, _ := s.do(t, http.MethodPost, "/tournaments", `{"name": ""}`)
		assert.Equal(t, http.StatusBadRequest, status)
	}
	status, env := s.do(t, http.MethodPost, "/tournaments", `{"name": ""}`)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Contains(t, string(env["error"]), "rate limit")

	status, _ = s.do(t, http.MethodGet, "/tournaments", "")
	assert.Equal(t, http.StatusOK, status, "reads are not limited")
}

func TestAPI_WebSocketReceivesMatchUpdates(t *testing.T) {
	s := newServer(t, nil)
	bracket := createRoundRobin(t, s)
	id := bracket.Tournament.ID

	url := "ws" + strings.TrimPrefix(s.URL, "http") + fmt.Sprintf("/ws/tournaments/%d", id)
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	room := brackets.TournamentRoom(id)
	require.Eventually(t, func() bool { return s.hub.RoomSize(room) == 1 }, 2*time.Second, 10*time.Millisecond)

	matchID := bracket.GroupStages[0].Matches[0].ID
	status, _ := s.do(t, http.MethodPost, fmt.Sprintf("/matches/%d/result", matchID), `{"point1": "9", "point2": "12", "winner": 2}`)
	require.Equal(t, http.StatusOK, status)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Type    string `json:"type"`
		RoomID  string `json:"room_id"`
		Payload struct {
			Match struct {
				ID       int  `json:"id"`
				WinnerID *int `json:"winner_id"`
			} `json:"match"`
		} `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, brackets.MessageMatchUpdated, msg.Type)
	assert.Equal(t, room, msg.RoomID)
	assert.Equal(t, matchID, msg.Payload.Match.ID)
	assert.NotNil(t, msg.Payload.Match.WinnerID)
}
