package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"
)

// Store is the destination for canonical team records. Both implementations
// apply a batch as one all-or-nothing idempotent upsert keyed by team id.
type Store interface {
	UpsertTeams(ctx context.Context, teams []TeamRecord) (int, error)
	TeamCount(ctx context.Context) (int, error)
	Close() error
}

// OpenStore picks Postgres when pg_dsn is configured, SQLite otherwise.
func OpenStore(ctx context.Context, cfg Config) (Store, error) {
	if cfg.PGDSN != "" {
		return OpenPGStore(ctx, cfg.PGDSN, cfg.PGSchema)
	}
	return OpenSQLiteStore(cfg.DBPath)
}

// SQLiteStore is the default destination: a single local table, batch
// upserts wrapped in a transaction.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS team_rankings (
		id            INTEGER PRIMARY KEY,
		team_name     TEXT NOT NULL,
		total_points  REAL NOT NULL,
		age           TEXT NOT NULL,
		gender        TEXT NOT NULL,
		national_rank INTEGER,
		updated_at    DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_team_rankings_group ON team_rankings(gender, age);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// UpsertTeams applies the whole batch inside one transaction: either every
// record lands or none does.
func (s *SQLiteStore) UpsertTeams(ctx context.Context, teams []TeamRecord) (int, error) {
	if len(teams) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO team_rankings (id, team_name, total_points, age, gender, national_rank, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   team_name     = excluded.team_name,
		   total_points  = excluded.total_points,
		   age           = excluded.age,
		   gender        = excluded.gender,
		   national_rank = excluded.national_rank,
		   updated_at    = excluded.updated_at`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, t := range teams {
		if _, err := stmt.ExecContext(ctx,
			t.ID, t.TeamName, t.TotalPoints, t.Age, t.Gender, t.NationalRank, now,
		); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(teams), nil
}

func (s *SQLiteStore) TeamCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM team_rankings`).Scan(&count)
	return count, err
}

// GetTeam reads one stored record back by id.
func (s *SQLiteStore) GetTeam(ctx context.Context, id int64) (TeamRecord, error) {
	var t TeamRecord
	var rank sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, team_name, total_points, age, gender, national_rank
		 FROM team_rankings WHERE id = ?`, id,
	).Scan(&t.ID, &t.TeamName, &t.TotalPoints, &t.Age, &t.Gender, &rank)
	if err != nil {
		return TeamRecord{}, err
	}
	if rank.Valid {
		t.NationalRank = &rank.Int64
	}
	return t, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// PGStore targets a hosted Postgres (e.g. Supabase); enabled by pg_dsn.
type PGStore struct {
	pool   *pgxpool.Pool
	schema string
}

func OpenPGStore(ctx context.Context, dsn, schema string) (*PGStore, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing pg_dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if schema == "" {
		schema = "public"
	}
	s := &PGStore{pool: pool, schema: schema}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating team_rankings table: %w", err)
	}
	return s, nil
}

func (s *PGStore) table() string {
	return fmt.Sprintf(`"%s".team_rankings`, s.schema)
}

func (s *PGStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+s.table()+` (
		id            BIGINT PRIMARY KEY,
		team_name     TEXT NOT NULL,
		total_points  DOUBLE PRECISION NOT NULL,
		age           TEXT NOT NULL,
		gender        TEXT NOT NULL,
		national_rank BIGINT,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	return err
}

// UpsertTeams queues the whole batch and runs it inside one transaction, so
// a mid-batch rejection rolls everything back.
func (s *PGStore) UpsertTeams(ctx context.Context, teams []TeamRecord) (int, error) {
	if len(teams) == 0 {
		return 0, nil
	}
	b := &pgx.Batch{}
	for _, t := range teams {
		b.Queue(
			`INSERT INTO `+s.table()+`
			 (id, team_name, total_points, age, gender, national_rank, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, now())
			 ON CONFLICT (id) DO UPDATE SET
			   team_name     = EXCLUDED.team_name,
			   total_points  = EXCLUDED.total_points,
			   age           = EXCLUDED.age,
			   gender        = EXCLUDED.gender,
			   national_rank = EXCLUDED.national_rank,
			   updated_at    = now()`,
			t.ID, t.TeamName, t.TotalPoints, t.Age, t.Gender, t.NationalRank,
		)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, b)
	for range teams {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return 0, err
		}
	}
	if err := br.Close(); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(teams), nil
}

func (s *PGStore) TeamCount(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+s.table()).Scan(&count)
	return count, err
}

func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}
