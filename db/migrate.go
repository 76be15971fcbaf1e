package db

import (
	"context"
	"database/sql"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS tournaments (
		id                SERIAL PRIMARY KEY,
		name              VARCHAR(100) NOT NULL,
		semester          VARCHAR(50) NOT NULL DEFAULT '',
		type              VARCHAR(20) NOT NULL,
		player_num        INTEGER NOT NULL,
		num_groups        INTEGER,
		group_size        INTEGER,
		advance_per_group INTEGER,
		created_at        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		id            SERIAL PRIMARY KEY,
		tournament_id INTEGER NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
		name          VARCHAR(100) NOT NULL DEFAULT '',
		innings       INTEGER NOT NULL,
		position      INTEGER NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stages (
		id            SERIAL PRIMARY KEY,
		tournament_id INTEGER NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
		name          VARCHAR(100) NOT NULL,
		stage_order   INTEGER NOT NULL,
		CONSTRAINT stages_tournament_id_name_key UNIQUE (tournament_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id                SERIAL PRIMARY KEY,
		tournament_id     INTEGER NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
		stage_id          INTEGER NOT NULL REFERENCES stages(id) ON DELETE CASCADE,
		match_number      INTEGER NOT NULL,
		player1_id        INTEGER REFERENCES players(id) ON DELETE SET NULL,
		player2_id        INTEGER REFERENCES players(id) ON DELETE SET NULL,
		source1_match_id  INTEGER REFERENCES matches(id) ON DELETE SET NULL,
		source1_edge      VARCHAR(10),
		source2_match_id  INTEGER REFERENCES matches(id) ON DELETE SET NULL,
		source2_edge      VARCHAR(10),
		point1            VARCHAR(3) NOT NULL DEFAULT '',
		point2            VARCHAR(3) NOT NULL DEFAULT '',
		winner_id         INTEGER REFERENCES players(id) ON DELETE SET NULL,
		loser_id          INTEGER REFERENCES players(id) ON DELETE SET NULL,
		is_losers_bracket BOOLEAN NOT NULL DEFAULT FALSE,
		round_number      INTEGER,
		table_number      INTEGER NOT NULL DEFAULT 0,
		start_time        TIMESTAMPTZ,
		created_at        TIMESTAMPTZ NOT NULL,
		CONSTRAINT matches_tournament_id_match_number_key UNIQUE (tournament_id, match_number)
	)`,
	`CREATE INDEX IF NOT EXISTS matches_stage_id_idx ON matches (stage_id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS tournaments (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		name              TEXT NOT NULL,
		semester          TEXT NOT NULL DEFAULT '',
		type              TEXT NOT NULL,
		player_num        INTEGER NOT NULL,
		num_groups        INTEGER,
		group_size        INTEGER,
		advance_per_group INTEGER,
		created_at        TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		tournament_id INTEGER NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
		name          TEXT NOT NULL DEFAULT '',
		innings       INTEGER NOT NULL,
		position      INTEGER NOT NULL,
		created_at    TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stages (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		tournament_id INTEGER NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
		name          TEXT NOT NULL,
		stage_order   INTEGER NOT NULL,
		UNIQUE (tournament_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		tournament_id     INTEGER NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
		stage_id          INTEGER NOT NULL REFERENCES stages(id) ON DELETE CASCADE,
		match_number      INTEGER NOT NULL,
		player1_id        INTEGER REFERENCES players(id) ON DELETE SET NULL,
		player2_id        INTEGER REFERENCES players(id) ON DELETE SET NULL,
		source1_match_id  INTEGER REFERENCES matches(id) ON DELETE SET NULL,
		source1_edge      TEXT,
		source2_match_id  INTEGER REFERENCES matches(id) ON DELETE SET NULL,
		source2_edge      TEXT,
		point1            TEXT NOT NULL DEFAULT '',
		point2            TEXT NOT NULL DEFAULT '',
		winner_id         INTEGER REFERENCES players(id) ON DELETE SET NULL,
		loser_id          INTEGER REFERENCES players(id) ON DELETE SET NULL,
		is_losers_bracket BOOLEAN NOT NULL DEFAULT 0,
		round_number      INTEGER,
		table_number      INTEGER NOT NULL DEFAULT 0,
		start_time        TIMESTAMP,
		created_at        TIMESTAMP NOT NULL,
		UNIQUE (tournament_id, match_number)
	)`,
	`CREATE INDEX IF NOT EXISTS matches_stage_id_idx ON matches (stage_id)`,
}

// Migrate creates the schema for the given driver. It is safe to run repeatedly.
func Migrate(ctx context.Context, conn *sql.DB, driver string) error {
	var statements []string
	switch driver {
	case DriverPostgres:
		statements = postgresSchema
	case DriverSQLite:
		statements = sqliteSchema
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
	return WithTx(ctx, conn, func(tx *sql.Tx) error {
		for i, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration statement %d failed: %w", i+1, err)
			}
		}
		return nil
	})
}
