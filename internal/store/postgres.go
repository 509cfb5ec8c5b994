package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contractintel/contract-intel/internal/entity"
)

// PostgresStore persists contracts as one row per contract with the record
// body in a JSONB column. The envelope columns exist for indexing and
// listing; the JSONB document stays the source of truth.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

type PostgresConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS contracts (
	id          UUID PRIMARY KEY,
	uploaded_at TIMESTAMPTZ NOT NULL,
	status      TEXT NOT NULL,
	body        JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS contracts_uploaded_at_idx ON contracts (uploaded_at DESC);
`

// OpenPostgres creates the pgx pool and ensures the schema exists.
func OpenPostgres(ctx context.Context, cfg PostgresConfig, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("store.postgres.connecting")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("store.postgres.parse_config_error", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "contract-intel"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = cfg.StatementTimeout.String()
	}

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("store.postgres.connect_error", "error", err)
		return nil, err
	}

	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		pool.Close()
		logger.Error("store.postgres.migrate_error", "error", err)
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	logger.Info("store.postgres.connected")
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) Close() {
	s.logger.Info("store.postgres.closing")
	s.pool.Close()
}

// HealthCheck pings the pool, bounded by timeout when one is given.
func (s *PostgresStore) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Save(ctx context.Context, c *entity.Contract) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal contract: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO contracts (id, uploaded_at, status, body)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, body = EXCLUDED.body`,
		c.ID, c.UploadedAt, string(c.Status), body)
	if err != nil {
		return fmt.Errorf("save contract: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*entity.Contract, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT body FROM contracts WHERE id = $1`, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contract: %w", err)
	}
	var c entity.Contract
	if err := json.Unmarshal(body, &c); err != nil {
		return nil, fmt.Errorf("unmarshal contract: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*entity.Contract, error) {
	rows, err := s.pool.Query(ctx, `SELECT body FROM contracts ORDER BY uploaded_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()

	var out []*entity.Contract
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		var c entity.Contract
		if err := json.Unmarshal(body, &c); err != nil {
			return nil, fmt.Errorf("unmarshal contract: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM contracts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete contract: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
