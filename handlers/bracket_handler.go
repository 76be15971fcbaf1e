package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Dosada05/tournament-brackets/brackets"
	"github.com/Dosada05/tournament-brackets/models"
	"github.com/Dosada05/tournament-brackets/services"
)

type BracketHandler struct {
	bracketService   services.BracketService
	standingsService services.StandingsService
	matchService     services.MatchService
	errorResponder
}

func NewBracketHandler(bs services.BracketService, ss services.StandingsService, ms services.MatchService, logger *slog.Logger) *BracketHandler {
	return &BracketHandler{
		bracketService:   bs,
		standingsService: ss,
		matchService:     ms,
		errorResponder:   newErrorResponder(logger),
	}
}

// buildBracketRequest picks players explicitly. Without a body the whole roster is used
// with the builder of the tournament type.
type buildBracketRequest struct {
	Builder          models.TournamentType `json:"builder"`
	PlayerIDs        []int                 `json:"player_ids"`
	StartMatchNumber int                   `json:"start_match_number"`
}

type advanceRequest struct {
	Strategy brackets.SeedingStrategy `json:"strategy"`
}

func (h *BracketHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.bracketService.GetBracket(r.Context(), tournamentID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": bracket}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) BuildBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	var input buildBracketRequest
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &input); err != nil {
			h.badRequestResponse(w, r, err)
			return
		}
	}

	var bracket *services.BracketView
	switch input.Builder {
	case "":
		bracket, err = h.bracketService.GenerateForTournament(r.Context(), tournamentID)
	case models.TypeSingleElimination:
		bracket, err = h.bracketService.BuildSingleElimination(r.Context(), tournamentID, input.PlayerIDs, input.StartMatchNumber)
	case models.TypeDoubleElimination:
		bracket, err = h.bracketService.BuildDoubleElimination(r.Context(), tournamentID, input.PlayerIDs, input.StartMatchNumber)
	case models.TypeRoundRobin:
		bracket, err = h.bracketService.BuildGroupRoundRobin(r.Context(), tournamentID, input.PlayerIDs)
	default:
		h.badRequestResponse(w, r, fmt.Errorf("unknown builder %q", input.Builder))
		return
	}
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"bracket": bracket}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) Advance(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	var input advanceRequest
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &input); err != nil {
			h.badRequestResponse(w, r, err)
			return
		}
	}

	bracket, err := h.bracketService.Advance(r.Context(), tournamentID, input.Strategy)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"bracket": bracket}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	standings, err := h.standingsService.ComputeStandings(r.Context(), tournamentID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// ListMatches returns every match of a tournament, or only those whose players match ?q=.
func (h *BracketHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	var matches []services.MatchView
	if query := r.URL.Query().Get("q"); query != "" {
		matches, err = h.matchService.SearchMatches(r.Context(), tournamentID, query)
	} else {
		matches, err = h.matchService.ListMatches(r.Context(), tournamentID)
	}
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
