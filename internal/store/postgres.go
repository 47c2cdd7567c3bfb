package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/cardiorisk/cardiorisk/internal/db"
	"github.com/cardiorisk/cardiorisk/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 1
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			pgxCfg.MaxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			pgxCfg.MinConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS risk_reports (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	input_data  JSONB NOT NULL,
	llm_report  JSONB NOT NULL,
	rule_report JSONB NOT NULL,
	degraded    BOOLEAN NOT NULL DEFAULT false,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_risk_reports_user_created ON risk_reports(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS overall_reports (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	diseases     JSONB NOT NULL,
	general_note TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_overall_reports_user ON overall_reports(user_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveReport(ctx context.Context, rec *model.ReportRecord) error {
	cols, err := prepareReport(rec)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO risk_reports (id, user_id, input_data, llm_report, rule_report, degraded, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.UserID, cols.input, cols.llm, cols.rules, rec.Degraded, rec.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert report")
}

func (s *PostgresStore) ListReports(ctx context.Context, filter ReportFilter) ([]model.ReportRecord, error) {
	filter = filter.Normalize()

	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, input_data, llm_report, rule_report, degraded, created_at FROM risk_reports WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		filter.UserID, filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reports")
	}
	defer rows.Close()

	out := []model.ReportRecord{}
	for rows.Next() {
		var r model.ReportRecord
		var cols reportColumns
		if err := rows.Scan(&r.ID, &r.UserID, &cols.input, &cols.llm, &cols.rules, &r.Degraded, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan report")
		}
		if err := decodeReport(&r, cols); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate reports")
}

func (s *PostgresStore) SaveInsight(ctx context.Context, rec *model.InsightRecord) error {
	diseases, err := prepareInsight(rec)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO overall_reports (id, user_id, diseases, general_note, created_at) VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.UserID, diseases, rec.Insight.GeneralNote, rec.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert insight")
}
