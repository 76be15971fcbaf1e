package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/tournament-brackets/brackets"
	"github.com/Dosada05/tournament-brackets/db"
	"github.com/Dosada05/tournament-brackets/models"
	"github.com/Dosada05/tournament-brackets/repositories"
)

const (
	maxTournamentNameLength = 100
	maxSemesterLength       = 50
	maxPlayerNameLength     = 100
	defaultListLimit        = 50
)

type RosterEntry struct {
	Name string `json:"name"`
	// Innings defaults to the placeholder value when missing or not positive.
	Innings *int `json:"innings,omitempty"`
}

type CreateTournamentInput struct {
	Name            string                `json:"name"`
	Semester        string                `json:"semester"`
	Type            models.TournamentType `json:"type"`
	PlayerNum       int                   `json:"player_num"`
	NumGroups       *int                  `json:"num_groups,omitempty"`
	GroupSize       *int                  `json:"group_size,omitempty"`
	AdvancePerGroup *int                  `json:"advance_per_group,omitempty"`
	Players         []RosterEntry         `json:"players"`
}

type TournamentService interface {
	// CreateTournament stores the tournament and its roster and builds the first bracket,
	// all in one transaction.
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*BracketView, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context, limit, offset int) ([]*models.Tournament, error)
}

type tournamentService struct {
	db             *sql.DB
	store          *store
	bracketService BracketService
	pub            *publisher
	logger         *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	stageRepo repositories.StageRepository,
	matchRepo repositories.MatchRepository,
	bracketService BracketService,
	notifier Notifier,
	snapshots SnapshotStore,
	logger *slog.Logger,
) TournamentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &tournamentService{
		db: db,
		store: &store{
			tournaments: tournamentRepo,
			players:     playerRepo,
			stages:      stageRepo,
			matches:     matchRepo,
		},
		bracketService: bracketService,
		pub:            &publisher{notifier: notifier, snapshots: snapshots, logger: logger},
		logger:         logger,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*BracketView, error) {
	tournament, err := newTournamentFromInput(input)
	if err != nil {
		return nil, err
	}

	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.store.tournaments.Create(ctx, tx, tournament); err != nil {
			return fmt.Errorf("failed to create tournament: %w", err)
		}

		players := make([]*models.Player, 0, tournament.PlayerNum)
		for i := 0; i < tournament.PlayerNum; i++ {
			player := newRosterPlayer(tournament.ID, i+1, input.Players, i)
			if err := s.store.players.Create(ctx, tx, player); err != nil {
				return fmt.Errorf("failed to create player at position %d: %w", player.Position, err)
			}
			players = append(players, player)
		}

		data := newTournamentData(tournament, players, nil, nil)
		_, err := s.store.generateInitial(ctx, tx, data, players)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tournament created",
		slog.Int("tournament_id", tournament.ID),
		slog.String("type", string(tournament.Type)),
		slog.Int("players", tournament.PlayerNum))

	view, err := s.bracketService.GetBracket(ctx, tournament.ID)
	if err != nil {
		return nil, err
	}
	s.pub.publish(ctx, tournament.ID, brackets.MessageBracketCreated, eventBracketCreated, view)
	return view, nil
}

// newTournamentFromInput validates everything that can be checked before touching the
// database.
func newTournamentFromInput(input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > maxTournamentNameLength {
		return nil, fmt.Errorf("%w: name is required and must be at most %d characters", ErrInvalidTournamentInput, maxTournamentNameLength)
	}
	semester := strings.TrimSpace(input.Semester)
	if len(semester) > maxSemesterLength {
		return nil, fmt.Errorf("%w: semester must be at most %d characters", ErrInvalidTournamentInput, maxSemesterLength)
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTournamentType, input.Type)
	}
	if input.PlayerNum < 2 {
		return nil, fmt.Errorf("%w: player_num must be at least 2, got %d", ErrRosterSize, input.PlayerNum)
	}
	if len(input.Players) > input.PlayerNum {
		return nil, fmt.Errorf("%w: %d roster entries for %d players", ErrRosterSize, len(input.Players), input.PlayerNum)
	}
	for i, entry := range input.Players {
		if len(strings.TrimSpace(entry.Name)) > maxPlayerNameLength {
			return nil, fmt.Errorf("%w: player %d name must be at most %d characters", ErrInvalidTournamentInput, i+1, maxPlayerNameLength)
		}
	}

	t := &models.Tournament{
		Name:      name,
		Semester:  semester,
		Type:      input.Type,
		PlayerNum: input.PlayerNum,
	}
	if t.Type == models.TypeRoundRobin {
		t.NumGroups = input.NumGroups
		t.GroupSize = input.GroupSize
		t.AdvancePerGroup = input.AdvancePerGroup
		if _, _, _, err := brackets.ValidateGroupSettings(t, t.PlayerNum); err != nil {
			return nil, withKind(ErrConfiguration, err)
		}
	}
	return t, nil
}

// newRosterPlayer returns the player at index i of the roster. Missing or blank entries
// become placeholders.
func newRosterPlayer(tournamentID, position int, roster []RosterEntry, i int) *models.Player {
	if i >= len(roster) {
		return models.NewPlaceholderPlayer(tournamentID, position)
	}
	name := strings.TrimSpace(roster[i].Name)
	if name == "" {
		return models.NewPlaceholderPlayer(tournamentID, position)
	}
	innings := models.PlaceholderInnings
	if roster[i].Innings != nil && *roster[i].Innings > 0 {
		innings = *roster[i].Innings
	}
	return &models.Player{
		TournamentID: tournamentID,
		Name:         name,
		Innings:      innings,
		Position:     position,
	}
}

func (s *tournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.store.tournaments.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return t, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, limit, offset int) ([]*models.Tournament, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.tournaments.List(ctx, limit, offset)
}
