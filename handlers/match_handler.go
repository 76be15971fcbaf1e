package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Dosada05/tournament-brackets/services"
)

var errMissingResult = errors.New("result body is required")

type MatchHandler struct {
	matchService services.MatchService
	errorResponder
}

func NewMatchHandler(ms services.MatchService, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{
		matchService:   ms,
		errorResponder: newErrorResponder(logger),
	}
}

func (h *MatchHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if r.ContentLength == 0 {
		h.badRequestResponse(w, r, errMissingResult)
		return
	}

	var input services.ResultInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	outcome, err := h.matchService.RecordResult(r.Context(), matchID, input)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": outcome}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
