package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-brackets/brackets"
	"github.com/Dosada05/tournament-brackets/models"
	"github.com/Dosada05/tournament-brackets/repositories"
	"github.com/Dosada05/tournament-brackets/storage"
	"golang.org/x/sync/errgroup"
)

// Notifier pushes live updates to watchers of a tournament. *brackets.Hub implements it.
type Notifier interface {
	BroadcastToRoom(roomID string, message interface{})
}

// SnapshotStore keeps an archived copy of a bracket. *storage.SnapshotWriter implements it.
type SnapshotStore interface {
	Write(ctx context.Context, tournamentID int, event string, payload any) (*storage.UploadResult, error)
}

// store groups the repositories every service needs and the persistence steps they share.
type store struct {
	tournaments repositories.TournamentRepository
	players     repositories.PlayerRepository
	stages      repositories.StageRepository
	matches     repositories.MatchRepository
}

type tournamentData struct {
	tournament  *models.Tournament
	players     []*models.Player
	playersByID map[int]*models.Player
	stages      []*models.Stage
	matches     []*models.Match
}

func newTournamentData(t *models.Tournament, players []*models.Player, stages []*models.Stage, matches []*models.Match) *tournamentData {
	data := &tournamentData{
		tournament:  t,
		players:     players,
		playersByID: make(map[int]*models.Player, len(players)),
		stages:      stages,
		matches:     matches,
	}
	for _, p := range players {
		data.playersByID[p.ID] = p
	}
	return data
}

func (d *tournamentData) groupStages() []*models.Stage {
	var out []*models.Stage
	for _, s := range d.stages {
		if s.IsGroupPhase() {
			out = append(out, s)
		}
	}
	return out
}

func (d *tournamentData) hasFinalStages() bool {
	for _, s := range d.stages {
		if !s.IsGroupPhase() {
			return true
		}
	}
	return false
}

func (d *tournamentData) nextMatchNumber() int {
	highest := 0
	for _, m := range d.matches {
		highest = max(highest, m.MatchNumber)
	}
	return highest + 1
}

func (d *tournamentData) maxStageOrder() int {
	highest := 0
	for _, s := range d.stages {
		highest = max(highest, s.Order)
	}
	return highest
}

func (d *tournamentData) nextPosition() int {
	highest := 0
	for _, p := range d.players {
		highest = max(highest, p.Position)
	}
	return highest + 1
}

func (d *tournamentData) resolvePlayers(ids []int) ([]*models.Player, error) {
	out := make([]*models.Player, 0, len(ids))
	for _, id := range ids {
		p, ok := d.playersByID[id]
		if !ok {
			return nil, fmt.Errorf("%w: id %d", ErrPlayerNotFound, id)
		}
		out = append(out, p)
	}
	return out, nil
}

// load reads a tournament with its roster, stages and matches through exec, one query
// after another, so it can run inside a transaction.
func (st *store) load(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (*tournamentData, error) {
	t, err := st.tournaments.GetByID(ctx, exec, tournamentID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	players, err := st.players.ListByTournament(ctx, exec, tournamentID)
	if err != nil {
		return nil, err
	}
	stages, err := st.stages.ListByTournament(ctx, exec, tournamentID)
	if err != nil {
		return nil, err
	}
	matches, err := st.matches.ListByTournament(ctx, exec, tournamentID)
	if err != nil {
		return nil, err
	}
	return newTournamentData(t, players, stages, matches), nil
}

// loadConcurrently reads the same data as load outside of a transaction with one
// goroutine per table.
func (st *store) loadConcurrently(ctx context.Context, tournamentID int) (*tournamentData, error) {
	var (
		t       *models.Tournament
		players []*models.Player
		stages  []*models.Stage
		matches []*models.Match
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		t, err = st.tournaments.GetByID(gCtx, nil, tournamentID)
		if err != nil {
			return mapRepositoryError(err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		players, err = st.players.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load players for tournament %d: %w", tournamentID, err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		stages, err = st.stages.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load stages for tournament %d: %w", tournamentID, err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		matches, err = st.matches.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load matches for tournament %d: %w", tournamentID, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return newTournamentData(t, players, stages, matches), nil
}

// generate runs a builder and stores its stages and matches.
func (st *store) generate(ctx context.Context, exec repositories.SQLExecutor, gen brackets.BracketGenerator, params brackets.GenerateBracketParams) (*brackets.Bracket, error) {
	bracket, err := gen.GenerateBracket(ctx, params)
	if err != nil {
		return nil, classifyBracketError(err)
	}
	if err := st.persistBracket(ctx, exec, params.Tournament.ID, bracket); err != nil {
		return nil, classifyBracketError(err)
	}
	return bracket, nil
}

// persistBracket inserts stages first and then matches in builder order. Builders only
// reference earlier matches, so every source id is known by the time it is needed.
func (st *store) persistBracket(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, bracket *brackets.Bracket) error {
	stageIDs := make(map[string]int, len(bracket.Stages))
	for _, bs := range bracket.Stages {
		stage := &models.Stage{TournamentID: tournamentID, Name: bs.Name, Order: bs.Order}
		if err := st.stages.Create(ctx, exec, stage); err != nil {
			return fmt.Errorf("failed to create stage %q: %w", bs.Name, err)
		}
		stageIDs[bs.UID] = stage.ID
	}

	matchIDs := make(map[string]int, len(bracket.Matches))
	for _, bm := range bracket.Matches {
		stageID, ok := stageIDs[bm.StageUID]
		if !ok {
			return fmt.Errorf("match %s references unknown stage %s", bm.UID, bm.StageUID)
		}
		source1, err := resolveSource(bm.Source1, matchIDs)
		if err != nil {
			return fmt.Errorf("match %s: %w", bm.UID, err)
		}
		source2, err := resolveSource(bm.Source2, matchIDs)
		if err != nil {
			return fmt.Errorf("match %s: %w", bm.UID, err)
		}

		match := &models.Match{
			TournamentID:    tournamentID,
			StageID:         stageID,
			MatchNumber:     bm.MatchNumber,
			Player1ID:       bm.Player1ID,
			Player2ID:       bm.Player2ID,
			Source1:         source1,
			Source2:         source2,
			IsLosersBracket: bm.IsLosersBracket,
			RoundNumber:     bm.RoundNumber,
		}
		if err := st.matches.Create(ctx, exec, match); err != nil {
			return fmt.Errorf("failed to create match #%d: %w", bm.MatchNumber, err)
		}
		matchIDs[bm.UID] = match.ID
	}
	return nil
}

func resolveSource(src *brackets.BracketSource, matchIDs map[string]int) (*models.SourceRef, error) {
	if src == nil {
		return nil, nil
	}
	id, ok := matchIDs[src.UID]
	if !ok {
		return nil, fmt.Errorf("source match %s is not stored yet", src.UID)
	}
	return &models.SourceRef{MatchID: id, Edge: src.Edge}, nil
}

// padForElimination fills players up to the next power of two with placeholder players
// stored on the roster.
func (st *store) padForElimination(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, players []*models.Player, nextPosition int) ([]*models.Player, error) {
	if len(players) < 2 {
		return nil, withKind(ErrConfiguration, fmt.Errorf("%w: got %d", brackets.ErrNotEnoughPlayers, len(players)))
	}
	missing := brackets.NextPowerOfTwo(len(players)) - len(players)
	if missing == 0 {
		return players, nil
	}

	placeholders := make([]*models.Player, 0, missing)
	for i := 0; i < missing; i++ {
		p := models.NewPlaceholderPlayer(tournamentID, nextPosition+i)
		if err := st.players.Create(ctx, exec, p); err != nil {
			return nil, fmt.Errorf("failed to create placeholder player: %w", err)
		}
		placeholders = append(placeholders, p)
	}
	padded, err := brackets.PadWithPlaceholders(players, placeholders)
	if err != nil {
		return nil, classifyBracketError(err)
	}
	return padded, nil
}

// generateInitial builds the first bracket of a tournament from its roster.
func (st *store) generateInitial(ctx context.Context, exec repositories.SQLExecutor, data *tournamentData, players []*models.Player) (*brackets.Bracket, error) {
	t := data.tournament
	gen, ok := brackets.GeneratorFor(t.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTournamentType, t.Type)
	}
	if t.Type == models.TypeSingleElimination {
		var err error
		players, err = st.padForElimination(ctx, exec, t.ID, players, data.nextPosition())
		if err != nil {
			return nil, err
		}
	}
	return st.generate(ctx, exec, gen, brackets.GenerateBracketParams{
		Tournament:       t,
		Players:          players,
		StartMatchNumber: 1,
	})
}

func mapRepositoryError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	}
	return err
}

func classifyBracketError(err error) error {
	var kinded *kindError
	if errors.As(err, &kinded) {
		return err
	}
	switch {
	case errors.Is(err, brackets.ErrInvalidGroupSettings),
		errors.Is(err, brackets.ErrNotEnoughPlayers),
		errors.Is(err, brackets.ErrBracketSizeNotPowerOfTwo),
		errors.Is(err, brackets.ErrInvalidScore):
		return withKind(ErrConfiguration, err)
	case errors.Is(err, brackets.ErrQualifiersUndecided):
		return withKind(ErrStateConflict, err)
	case errors.Is(err, brackets.ErrUnknownPlayer):
		return withKind(ErrReference, err)
	case errors.Is(err, repositories.ErrStageNameConflict),
		errors.Is(err, repositories.ErrMatchNumberConflict):
		return fmt.Errorf("%w: %v", ErrBracketAlreadyExists, err)
	}
	return err
}

// publisher announces committed changes to live watchers and the snapshot archive.
// Both are optional and their failures never fail the request.
type publisher struct {
	notifier  Notifier
	snapshots SnapshotStore
	logger    *slog.Logger
}

func (p *publisher) publish(ctx context.Context, tournamentID int, messageType, event string, payload interface{}) {
	if p.notifier != nil {
		roomID := brackets.TournamentRoom(tournamentID)
		p.notifier.BroadcastToRoom(roomID, brackets.WebSocketMessage{
			Type:    messageType,
			Payload: payload,
			RoomID:  roomID,
		})
	}
	if p.snapshots == nil {
		return
	}
	result, err := p.snapshots.Write(ctx, tournamentID, event, payload)
	if err != nil {
		p.logger.WarnContext(ctx, "failed to store bracket snapshot",
			slog.Int("tournament_id", tournamentID),
			slog.String("event", event),
			slog.Any("error", err))
		return
	}
	p.logger.DebugContext(ctx, "bracket snapshot stored",
		slog.Int("tournament_id", tournamentID),
		slog.String("key", result.Key))
}
