package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/tournament-brackets/brackets"
	"github.com/Dosada05/tournament-brackets/db"
	"github.com/Dosada05/tournament-brackets/models"
	"github.com/Dosada05/tournament-brackets/repositories"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

const maxPointLength = 3

// ResultInput is a reported match result. Winner is 1 or 2 for the slot that won, or 0
// to store scores without deciding the match.
type ResultInput struct {
	Point1    string     `json:"point1"`
	Point2    string     `json:"point2"`
	Winner    int        `json:"winner"`
	Table     *int       `json:"table,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
}

// ResultOutcome is the recorded match, the dependents that received a player and
// anything that could not be propagated.
type ResultOutcome struct {
	Match    *models.Match   `json:"match"`
	Updated  []*models.Match `json:"updated_matches"`
	Warnings []string        `json:"warnings,omitempty"`
}

type MatchService interface {
	RecordResult(ctx context.Context, matchID int, input ResultInput) (*ResultOutcome, error)
	ListMatches(ctx context.Context, tournamentID int) ([]MatchView, error)
	// SearchMatches returns the matches where either player's name fuzzily contains query.
	SearchMatches(ctx context.Context, tournamentID int, query string) ([]MatchView, error)
}

type matchService struct {
	db     *sql.DB
	store  *store
	pub    *publisher
	logger *slog.Logger
}

func NewMatchService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	stageRepo repositories.StageRepository,
	matchRepo repositories.MatchRepository,
	notifier Notifier,
	snapshots SnapshotStore,
	logger *slog.Logger,
) MatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &matchService{
		db: db,
		store: &store{
			tournaments: tournamentRepo,
			players:     playerRepo,
			stages:      stageRepo,
			matches:     matchRepo,
		},
		pub:    &publisher{notifier: notifier, snapshots: snapshots, logger: logger},
		logger: logger,
	}
}

func validateResultInput(input *ResultInput) error {
	if input.Winner < 0 || input.Winner > 2 {
		return fmt.Errorf("%w: got %d", ErrInvalidWinnerSlot, input.Winner)
	}
	input.Point1 = strings.TrimSpace(input.Point1)
	input.Point2 = strings.TrimSpace(input.Point2)
	for _, point := range []string{input.Point1, input.Point2} {
		if len(point) > maxPointLength {
			return fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidScore, point, maxPointLength)
		}
		if err := brackets.ValidatePoint(point); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidScore, point)
		}
	}
	if input.Table != nil && *input.Table < 0 {
		return withKind(ErrConfiguration, fmt.Errorf("table must not be negative, got %d", *input.Table))
	}
	return nil
}

func (s *matchService) RecordResult(ctx context.Context, matchID int, input ResultInput) (*ResultOutcome, error) {
	if err := validateResultInput(&input); err != nil {
		return nil, err
	}

	outcome := &ResultOutcome{Updated: make([]*models.Match, 0)}
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		match, err := s.store.matches.GetByID(ctx, tx, matchID)
		if err != nil {
			return mapRepositoryError(err)
		}
		if match.IsDecided() {
			return fmt.Errorf("%w: match #%d", ErrMatchAlreadyDecided, match.MatchNumber)
		}

		match.Point1 = input.Point1
		match.Point2 = input.Point2
		if input.Table != nil {
			match.Table = *input.Table
		}
		if input.StartTime != nil {
			start := input.StartTime.UTC()
			match.StartTime = &start
		}
		if err := applyWinner(match, input.Winner); err != nil {
			return err
		}

		if err := s.store.matches.UpdateResult(ctx, tx, match); err != nil {
			if errors.Is(err, repositories.ErrMatchConflict) {
				return fmt.Errorf("%w: match #%d", ErrMatchAlreadyDecided, match.MatchNumber)
			}
			return fmt.Errorf("failed to store result of match #%d: %w", match.MatchNumber, err)
		}
		outcome.Match = match

		if !match.IsDecided() {
			return nil
		}
		return s.propagate(ctx, tx, match, outcome)
	})
	if err != nil {
		return nil, err
	}

	for _, w := range outcome.Warnings {
		s.logger.WarnContext(ctx, "result not propagated",
			slog.Int("match_id", matchID),
			slog.String("reason", w))
	}
	s.logger.InfoContext(ctx, "match result recorded",
		slog.Int("tournament_id", outcome.Match.TournamentID),
		slog.Int("match_number", outcome.Match.MatchNumber),
		slog.String("outcome", outcome.Match.Outcome().String()),
		slog.Int("updated_matches", len(outcome.Updated)))

	s.pub.publish(ctx, outcome.Match.TournamentID, brackets.MessageMatchUpdated, eventMatchRecorded, outcome)
	return outcome, nil
}

func applyWinner(match *models.Match, slot int) error {
	switch slot {
	case 1:
		if match.Player1ID == nil {
			return fmt.Errorf("%w: slot 1 of match #%d is empty", ErrInvalidWinnerSlot, match.MatchNumber)
		}
		match.WinnerID = copyID(match.Player1ID)
		match.LoserID = copyID(match.Player2ID)
	case 2:
		if match.Player2ID == nil {
			return fmt.Errorf("%w: slot 2 of match #%d is empty", ErrInvalidWinnerSlot, match.MatchNumber)
		}
		match.WinnerID = copyID(match.Player2ID)
		match.LoserID = copyID(match.Player1ID)
	}
	return nil
}

// propagate moves the winner and loser of a decided match into the slots that wait on it.
// Dependents that are already decided are left alone and reported as warnings.
func (s *matchService) propagate(ctx context.Context, tx *sql.Tx, source *models.Match, outcome *ResultOutcome) error {
	matches, err := s.store.matches.ListByTournament(ctx, tx, source.TournamentID)
	if err != nil {
		return err
	}

	for _, dependent := range brackets.IndexDependents(matches)[source.ID] {
		if dependent.IsDecided() {
			outcome.Warnings = append(outcome.Warnings,
				fmt.Sprintf("match #%d is already decided and was not updated", dependent.MatchNumber))
			continue
		}
		slots := brackets.Propagate(source, dependent)
		if len(slots) == 0 {
			continue
		}
		// Write only the slots this source feeds. The other slot may have been filled by
		// a concurrent result since the matches were read.
		conflict := false
		for _, slot := range slots {
			playerID, _ := dependent.Slot(slot)
			err := s.store.matches.UpdateSlot(ctx, tx, dependent.ID, slot, playerID)
			if errors.Is(err, repositories.ErrMatchConflict) {
				conflict = true
				break
			}
			if err != nil {
				return fmt.Errorf("failed to advance players into match #%d: %w", dependent.MatchNumber, err)
			}
		}
		if conflict {
			outcome.Warnings = append(outcome.Warnings,
				fmt.Sprintf("match #%d was decided concurrently and was not updated", dependent.MatchNumber))
			continue
		}
		fresh, err := s.store.matches.GetByID(ctx, tx, dependent.ID)
		if err != nil {
			return fmt.Errorf("failed to reload match #%d: %w", dependent.MatchNumber, err)
		}
		outcome.Updated = append(outcome.Updated, fresh)
	}
	return nil
}

func (s *matchService) ListMatches(ctx context.Context, tournamentID int) ([]MatchView, error) {
	return s.SearchMatches(ctx, tournamentID, "")
}

func (s *matchService) SearchMatches(ctx context.Context, tournamentID int, query string) ([]MatchView, error) {
	data, err := s.store.loadConcurrently(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	stagesByID := make(map[int]*models.Stage, len(data.stages))
	for _, st := range data.stages {
		stagesByID[st.ID] = st
	}
	matchesByID := make(map[int]*models.Match, len(data.matches))
	for _, m := range data.matches {
		matchesByID[m.ID] = m
	}

	views := make([]MatchView, 0, len(data.matches))
	for _, m := range data.matches {
		if query != "" && !matchesPlayerName(m, query, data.playersByID) {
			continue
		}
		views = append(views, newMatchView(m, stagesByID[m.StageID], data.playersByID, matchesByID))
	}
	return views, nil
}

func matchesPlayerName(m *models.Match, query string, players map[int]*models.Player) bool {
	for _, id := range []*int{m.Player1ID, m.Player2ID} {
		if id == nil {
			continue
		}
		if p, ok := players[*id]; ok && p.Name != "" && fuzzy.MatchFold(query, p.Name) {
			return true
		}
	}
	return false
}

func copyID(id *int) *int {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
