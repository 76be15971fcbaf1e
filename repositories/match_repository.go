package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/tournament-brackets/models"
)

var (
	ErrMatchNotFound         = errors.New("match not found")
	ErrMatchConflict         = errors.New("match is already decided")
	ErrMatchNumberConflict   = errors.New("match number already used in this tournament")
	ErrMatchReferenceInvalid = errors.New("match stage, player or source reference is invalid")
	ErrInvalidSlot           = errors.New("match slot must be 1 or 2")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error)
	// UpdateResult stores scores, winner, loser, table and start time of an undecided
	// match. It returns ErrMatchConflict when the match already has a winner.
	UpdateResult(ctx context.Context, exec SQLExecutor, match *models.Match) error
	// UpdateSlot sets one slot of an undecided match and leaves the other untouched.
	// It returns ErrMatchConflict when the match already has a winner.
	UpdateSlot(ctx context.Context, exec SQLExecutor, matchID, slot int, playerID *int) error
}

type sqlMatchRepository struct {
	db *sql.DB
}

func NewMatchRepository(db *sql.DB) MatchRepository {
	return &sqlMatchRepository{db: db}
}

func (r *sqlMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, stage_id, match_number, player1_id, player2_id,
	source1_match_id, source1_edge, source2_match_id, source2_edge, point1, point2,
	winner_id, loser_id, is_losers_bracket, round_number, table_number, start_time, created_at`

func scanMatch(row rowScanner) (*models.Match, error) {
	var (
		m                                 models.Match
		player1, player2, winner, loser   sql.NullInt64
		source1ID, source2ID, roundNumber sql.NullInt64
		source1Edge, source2Edge          sql.NullString
		startTime                         sql.NullTime
	)
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.StageID, &m.MatchNumber, &player1, &player2,
		&source1ID, &source1Edge, &source2ID, &source2Edge, &m.Point1, &m.Point2,
		&winner, &loser, &m.IsLosersBracket, &roundNumber, &m.Table, &startTime, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Player1ID = intPtr(player1)
	m.Player2ID = intPtr(player2)
	m.WinnerID = intPtr(winner)
	m.LoserID = intPtr(loser)
	m.RoundNumber = intPtr(roundNumber)
	m.Source1 = sourceRef(source1ID, source1Edge)
	m.Source2 = sourceRef(source2ID, source2Edge)
	if startTime.Valid {
		t := startTime.Time
		m.StartTime = &t
	}
	return &m, nil
}

func sourceRef(id sql.NullInt64, edge sql.NullString) *models.SourceRef {
	if !id.Valid {
		return nil
	}
	ref := &models.SourceRef{MatchID: int(id.Int64), Edge: models.EdgeType(edge.String)}
	if !ref.Edge.IsValid() {
		ref.Edge = models.EdgeWinnerAdvances
	}
	return ref
}

func sourceColumns(ref *models.SourceRef) (interface{}, interface{}) {
	if ref == nil {
		return nil, nil
	}
	return int64(ref.MatchID), string(ref.Edge)
}

func (r *sqlMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now()
	}
	source1ID, source1Edge := sourceColumns(m.Source1)
	source2ID, source2Edge := sourceColumns(m.Source2)

	query := `
		INSERT INTO matches
			(tournament_id, stage_id, match_number, player1_id, player2_id,
			 source1_match_id, source1_edge, source2_match_id, source2_edge, point1, point2,
			 winner_id, loser_id, is_losers_bracket, round_number, table_number, start_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		m.TournamentID,
		m.StageID,
		m.MatchNumber,
		nullInt(m.Player1ID),
		nullInt(m.Player2ID),
		source1ID,
		source1Edge,
		source2ID,
		source2Edge,
		m.Point1,
		m.Point2,
		nullInt(m.WinnerID),
		nullInt(m.LoserID),
		m.IsLosersBracket,
		nullInt(m.RoundNumber),
		m.Table,
		nullTime(m.StartTime),
		m.CreatedAt,
	).Scan(&m.ID)

	return r.handleMatchError(err, m)
}

func (r *sqlMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	m, err := scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return m, nil
}

func (r *sqlMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT `)
	queryBuilder.WriteString(matchColumns)
	queryBuilder.WriteString(` FROM matches WHERE tournament_id = $1 ORDER BY match_number ASC, id ASC`)

	rows, err := r.getExecutor(exec).QueryContext(ctx, queryBuilder.String(), tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *sqlMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	query := `
		UPDATE matches
		SET point1 = $1, point2 = $2, winner_id = $3, loser_id = $4, table_number = $5, start_time = $6
		WHERE id = $7 AND winner_id IS NULL`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		m.Point1, m.Point2, nullInt(m.WinnerID), nullInt(m.LoserID), m.Table, nullTime(m.StartTime), m.ID)
	if err != nil {
		return r.handleMatchError(err, m)
	}
	return checkAffectedRows(result, ErrMatchConflict)
}

func (r *sqlMatchRepository) UpdateSlot(ctx context.Context, exec SQLExecutor, matchID, slot int, playerID *int) error {
	var query string
	switch slot {
	case 1:
		query = `UPDATE matches SET player1_id = $1 WHERE id = $2 AND winner_id IS NULL`
	case 2:
		query = `UPDATE matches SET player2_id = $1 WHERE id = $2 AND winner_id IS NULL`
	default:
		return fmt.Errorf("%w: got %d", ErrInvalidSlot, slot)
	}

	result, err := r.getExecutor(exec).ExecContext(ctx, query, nullInt(playerID), matchID)
	if err != nil {
		return fmt.Errorf("UpdateSlot: failed to execute query for match %d slot %d: %w", matchID, slot, err)
	}
	return checkAffectedRows(result, ErrMatchConflict)
}

func (r *sqlMatchRepository) handleMatchError(err error, m *models.Match) error {
	if err == nil {
		return nil
	}
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%w: #%d", ErrMatchNumberConflict, m.MatchNumber)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: match #%d", ErrMatchReferenceInvalid, m.MatchNumber)
	}
	return fmt.Errorf("match #%d: %w", m.MatchNumber, err)
}
