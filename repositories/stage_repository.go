package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-brackets/models"
)

var (
	ErrStageNameConflict      = errors.New("stage name already exists in this tournament")
	ErrStageTournamentInvalid = errors.New("stage tournament reference is invalid")
)

type StageRepository interface {
	Create(ctx context.Context, exec SQLExecutor, stage *models.Stage) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Stage, error)
}

type sqlStageRepository struct {
	db *sql.DB
}

func NewStageRepository(db *sql.DB) StageRepository {
	return &sqlStageRepository{db: db}
}

func (r *sqlStageRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *sqlStageRepository) Create(ctx context.Context, exec SQLExecutor, s *models.Stage) error {
	query := `INSERT INTO stages (tournament_id, name, stage_order) VALUES ($1, $2, $3) RETURNING id`

	err := r.getExecutor(exec).QueryRowContext(ctx, query, s.TournamentID, s.Name, s.Order).Scan(&s.ID)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return fmt.Errorf("%w: %q", ErrStageNameConflict, s.Name)
		case isForeignKeyViolation(err):
			return ErrStageTournamentInvalid
		}
		return fmt.Errorf("failed to insert stage %q: %w", s.Name, err)
	}
	return nil
}

func (r *sqlStageRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Stage, error) {
	query := `
		SELECT id, tournament_id, name, stage_order
		FROM stages
		WHERE tournament_id = $1
		ORDER BY stage_order ASC, id ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stages for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	stages := make([]*models.Stage, 0)
	for rows.Next() {
		var s models.Stage
		if err := rows.Scan(&s.ID, &s.TournamentID, &s.Name, &s.Order); err != nil {
			return nil, fmt.Errorf("failed to scan stage row: %w", err)
		}
		stages = append(stages, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during stage rows iteration: %w", err)
	}
	return stages, nil
}
