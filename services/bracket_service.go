package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-brackets/brackets"
	"github.com/Dosada05/tournament-brackets/db"
	"github.com/Dosada05/tournament-brackets/models"
	"github.com/Dosada05/tournament-brackets/repositories"
)

const (
	eventBracketCreated = "created"
	eventBracketSeeded  = "seeded"
	eventMatchRecorded  = "match_recorded"
)

type MatchView struct {
	*models.Match
	StageName   string `json:"stage_name"`
	Player1Name string `json:"player1_name"`
	Player2Name string `json:"player2_name"`
	WinnerName  string `json:"winner_name,omitempty"`
}

type StageView struct {
	*models.Stage
	Matches []MatchView `json:"matches"`
}

// BracketView is a tournament with its stages split into the first phase (group stages)
// and the elimination phase.
type BracketView struct {
	Tournament  *models.Tournament `json:"tournament"`
	Players     []*models.Player   `json:"players"`
	GroupStages []StageView        `json:"group_stages"`
	FinalStages []StageView        `json:"final_stages"`
	CanAdvance  bool               `json:"can_advance"`
}

type BracketService interface {
	BuildSingleElimination(ctx context.Context, tournamentID int, playerIDs []int, startMatchNumber int) (*BracketView, error)
	BuildDoubleElimination(ctx context.Context, tournamentID int, playerIDs []int, startMatchNumber int) (*BracketView, error)
	BuildGroupRoundRobin(ctx context.Context, tournamentID int, playerIDs []int) (*BracketView, error)
	// GenerateForTournament builds the first bracket from the whole roster according to
	// the tournament type.
	GenerateForTournament(ctx context.Context, tournamentID int) (*BracketView, error)
	// Advance seeds the elimination bracket from a finished first phase.
	Advance(ctx context.Context, tournamentID int, strategy brackets.SeedingStrategy) (*BracketView, error)
	AdvanceRoundRobinToElimination(ctx context.Context, tournamentID int) (*BracketView, error)
	AdvanceDoubleEliminationToElimination(ctx context.Context, tournamentID int) (*BracketView, error)
	GetBracket(ctx context.Context, tournamentID int) (*BracketView, error)
}

type bracketService struct {
	db       *sql.DB
	store    *store
	shuffler brackets.Shuffler
	pub      *publisher
	logger   *slog.Logger
}

func NewBracketService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	stageRepo repositories.StageRepository,
	matchRepo repositories.MatchRepository,
	shuffler brackets.Shuffler,
	notifier Notifier,
	snapshots SnapshotStore,
	logger *slog.Logger,
) BracketService {
	if logger == nil {
		logger = slog.Default()
	}
	if shuffler == nil {
		shuffler = brackets.NewRandShuffler(0)
	}
	return &bracketService{
		db: db,
		store: &store{
			tournaments: tournamentRepo,
			players:     playerRepo,
			stages:      stageRepo,
			matches:     matchRepo,
		},
		shuffler: shuffler,
		pub:      &publisher{notifier: notifier, snapshots: snapshots, logger: logger},
		logger:   logger,
	}
}

func (s *bracketService) BuildSingleElimination(ctx context.Context, tournamentID int, playerIDs []int, startMatchNumber int) (*BracketView, error) {
	return s.build(ctx, tournamentID, playerIDs, brackets.NewSingleEliminationGenerator(), startMatchNumber)
}

func (s *bracketService) BuildDoubleElimination(ctx context.Context, tournamentID int, playerIDs []int, startMatchNumber int) (*BracketView, error) {
	return s.build(ctx, tournamentID, playerIDs, brackets.NewDoubleEliminationGenerator(), startMatchNumber)
}

func (s *bracketService) BuildGroupRoundRobin(ctx context.Context, tournamentID int, playerIDs []int) (*BracketView, error) {
	return s.build(ctx, tournamentID, playerIDs, brackets.NewGroupRoundRobinGenerator(), 1)
}

func (s *bracketService) build(ctx context.Context, tournamentID int, playerIDs []int, gen brackets.BracketGenerator, startMatchNumber int) (*BracketView, error) {
	var bracket *brackets.Bracket
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		data, err := s.store.load(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		if len(data.stages) > 0 {
			return ErrBracketAlreadyExists
		}
		players, err := data.resolvePlayers(playerIDs)
		if err != nil {
			return err
		}
		bracket, err = s.store.generate(ctx, tx, gen, brackets.GenerateBracketParams{
			Tournament:       data.tournament,
			Players:          players,
			StartMatchNumber: startMatchNumber,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "bracket built",
		slog.Int("tournament_id", tournamentID),
		slog.String("generator", gen.GetName()),
		slog.Int("stages", len(bracket.Stages)),
		slog.Int("matches", len(bracket.Matches)))

	return s.publishBracket(ctx, tournamentID, eventBracketCreated)
}

func (s *bracketService) GenerateForTournament(ctx context.Context, tournamentID int) (*BracketView, error) {
	var bracket *brackets.Bracket
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		data, err := s.store.load(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		if len(data.stages) > 0 {
			return ErrBracketAlreadyExists
		}
		bracket, err = s.store.generateInitial(ctx, tx, data, data.players)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "initial bracket generated",
		slog.Int("tournament_id", tournamentID),
		slog.Int("stages", len(bracket.Stages)),
		slog.Int("matches", len(bracket.Matches)))

	return s.publishBracket(ctx, tournamentID, eventBracketCreated)
}

func (s *bracketService) Advance(ctx context.Context, tournamentID int, strategy brackets.SeedingStrategy) (*BracketView, error) {
	var (
		bracket *brackets.Bracket
		seeded  int
	)
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		data, err := s.store.load(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		t := data.tournament

		if strategy == "" {
			var ok bool
			if strategy, ok = brackets.DefaultSeedingStrategy(t.Type); !ok {
				return fmt.Errorf("%w: %s tournaments have no second phase", ErrWrongTournamentType, t.Type.DisplayName())
			}
		}
		if !strategy.IsValid() {
			return fmt.Errorf("%w: %q", ErrInvalidSeedingStrategy, strategy)
		}
		if expected, _ := brackets.DefaultSeedingStrategy(t.Type); expected != strategy {
			return fmt.Errorf("%w: %s cannot seed a %s tournament", ErrWrongTournamentType, strategy, t.Type.DisplayName())
		}
		if len(data.groupStages()) == 0 {
			return ErrBracketNotBuilt
		}
		if data.hasFinalStages() {
			return ErrBracketAlreadyExists
		}

		var players []*models.Player
		switch strategy {
		case brackets.SeedRoundRobinStandings:
			standings, err := brackets.CalculateStandings(data.stages, data.matches, data.playersByID)
			if err != nil {
				return classifyBracketError(err)
			}
			_, _, advancePerGroup, ok := t.GroupSettings()
			if !ok {
				return fmt.Errorf("%w: tournament %d has no group settings", ErrInvalidGroupSettings, t.ID)
			}
			players = brackets.SeedFromStandings(standings, advancePerGroup, s.shuffler)
		case brackets.SeedDoubleElimQualifiers:
			players, err = brackets.SeedFromDoubleElimination(data.stages, data.matches, data.playersByID, s.shuffler)
			if err != nil {
				return classifyBracketError(err)
			}
		}
		seeded = len(players)

		players, err = s.store.padForElimination(ctx, tx, t.ID, players, data.nextPosition())
		if err != nil {
			return err
		}

		bracket, err = s.store.generate(ctx, tx, brackets.NewSingleEliminationGenerator(), brackets.GenerateBracketParams{
			Tournament:       t,
			Players:          players,
			StartMatchNumber: data.nextMatchNumber(),
			StageOrderOffset: data.maxStageOrder(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "elimination bracket seeded",
		slog.Int("tournament_id", tournamentID),
		slog.String("strategy", string(strategy)),
		slog.Int("seeded_players", seeded),
		slog.Int("matches", len(bracket.Matches)))

	return s.publishBracket(ctx, tournamentID, eventBracketSeeded)
}

func (s *bracketService) AdvanceRoundRobinToElimination(ctx context.Context, tournamentID int) (*BracketView, error) {
	return s.Advance(ctx, tournamentID, brackets.SeedRoundRobinStandings)
}

func (s *bracketService) AdvanceDoubleEliminationToElimination(ctx context.Context, tournamentID int) (*BracketView, error) {
	return s.Advance(ctx, tournamentID, brackets.SeedDoubleElimQualifiers)
}

func (s *bracketService) GetBracket(ctx context.Context, tournamentID int) (*BracketView, error) {
	data, err := s.store.loadConcurrently(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return buildBracketView(data), nil
}

func (s *bracketService) publishBracket(ctx context.Context, tournamentID int, event string) (*BracketView, error) {
	view, err := s.GetBracket(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	s.pub.publish(ctx, tournamentID, brackets.MessageBracketCreated, event, view)
	return view, nil
}

func buildBracketView(data *tournamentData) *BracketView {
	matchesByID := make(map[int]*models.Match, len(data.matches))
	matchesByStage := make(map[int][]*models.Match)
	for _, m := range data.matches {
		matchesByID[m.ID] = m
		matchesByStage[m.StageID] = append(matchesByStage[m.StageID], m)
	}

	view := &BracketView{
		Tournament:  data.tournament,
		Players:     data.players,
		GroupStages: make([]StageView, 0),
		FinalStages: make([]StageView, 0),
	}
	for _, stage := range data.stages {
		sv := StageView{Stage: stage, Matches: make([]MatchView, 0, len(matchesByStage[stage.ID]))}
		for _, m := range matchesByStage[stage.ID] {
			sv.Matches = append(sv.Matches, newMatchView(m, stage, data.playersByID, matchesByID))
		}
		if stage.IsGroupPhase() {
			view.GroupStages = append(view.GroupStages, sv)
		} else {
			view.FinalStages = append(view.FinalStages, sv)
		}
	}

	switch data.tournament.Type {
	case models.TypeRoundRobin, models.TypeDoubleElimination:
		view.CanAdvance = len(view.GroupStages) > 0 && len(view.FinalStages) == 0
	}
	return view
}

func newMatchView(m *models.Match, stage *models.Stage, players map[int]*models.Player, matches map[int]*models.Match) MatchView {
	mv := MatchView{
		Match:       m,
		Player1Name: m.SlotDisplay(1, players, matches),
		Player2Name: m.SlotDisplay(2, players, matches),
	}
	if stage != nil {
		mv.StageName = stage.Name
	}
	if m.WinnerID != nil {
		if p, ok := players[*m.WinnerID]; ok {
			mv.WinnerName = p.DisplayName()
		}
	}
	return mv
}
