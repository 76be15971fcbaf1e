package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-brackets/brackets"
	"github.com/Dosada05/tournament-brackets/models"
	"github.com/Dosada05/tournament-brackets/repositories"
)

type GroupStandingView struct {
	Stage string            `json:"stage"`
	Rows  []models.Standing `json:"rows"`
	// Advancing is how many of the top rows move on to the elimination bracket.
	Advancing int `json:"advancing"`
}

type StandingsService interface {
	ComputeStandings(ctx context.Context, tournamentID int) ([]GroupStandingView, error)
}

type standingsService struct {
	store  *store
	logger *slog.Logger
}

func NewStandingsService(
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	stageRepo repositories.StageRepository,
	matchRepo repositories.MatchRepository,
	logger *slog.Logger,
) StandingsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &standingsService{
		store: &store{
			tournaments: tournamentRepo,
			players:     playerRepo,
			stages:      stageRepo,
			matches:     matchRepo,
		},
		logger: logger,
	}
}

func (s *standingsService) ComputeStandings(ctx context.Context, tournamentID int) ([]GroupStandingView, error) {
	data, err := s.store.loadConcurrently(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if data.tournament.Type != models.TypeRoundRobin {
		return nil, fmt.Errorf("%w: standings are kept for round robin tournaments only", ErrWrongTournamentType)
	}

	standings, err := brackets.CalculateStandings(data.stages, data.matches, data.playersByID)
	if err != nil {
		return nil, classifyBracketError(err)
	}
	_, _, advancePerGroup, _ := data.tournament.GroupSettings()

	views := make([]GroupStandingView, 0, len(standings))
	for _, group := range standings {
		views = append(views, GroupStandingView{
			Stage:     group.Stage.Name,
			Rows:      group.Rows,
			Advancing: min(advancePerGroup, len(group.Rows)),
		})
	}

	s.logger.DebugContext(ctx, "standings computed",
		slog.Int("tournament_id", tournamentID),
		slog.Int("groups", len(views)))
	return views, nil
}
