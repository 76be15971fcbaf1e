package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-brackets/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	List(ctx context.Context, limit, offset int) ([]*models.Tournament, error)
}

type sqlTournamentRepository struct {
	db *sql.DB
}

func NewTournamentRepository(db *sql.DB) TournamentRepository {
	return &sqlTournamentRepository{db: db}
}

func (r *sqlTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *sqlTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now()
	}
	query := `
		INSERT INTO tournaments (name, semester, type, player_num, num_groups, group_size, advance_per_group, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		t.Name, t.Semester, string(t.Type), t.PlayerNum,
		nullInt(t.NumGroups), nullInt(t.GroupSize), nullInt(t.AdvancePerGroup), t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to insert tournament: %w", err)
	}
	return nil
}

const tournamentColumns = `id, name, semester, type, player_num, num_groups, group_size, advance_per_group, created_at`

func scanTournament(row rowScanner) (*models.Tournament, error) {
	var (
		t                                   models.Tournament
		tournamentType                      string
		numGroups, groupSize, advancePerGrp sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Semester, &tournamentType, &t.PlayerNum,
		&numGroups, &groupSize, &advancePerGrp, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Type = models.TournamentType(tournamentType)
	t.NumGroups = intPtr(numGroups)
	t.GroupSize = intPtr(groupSize)
	t.AdvancePerGroup = intPtr(advancePerGrp)
	return &t, nil
}

func (r *sqlTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t, err := scanTournament(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament %d: %w", id, err)
	}
	return t, nil
}

func (r *sqlTournamentRepository) List(ctx context.Context, limit, offset int) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments ORDER BY id DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration: %w", err)
	}
	return tournaments, nil
}
