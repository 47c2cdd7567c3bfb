package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/cardiorisk/cardiorisk/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS risk_reports (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	input_data  TEXT NOT NULL,
	llm_report  TEXT NOT NULL,
	rule_report TEXT NOT NULL,
	degraded    BOOLEAN NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_risk_reports_user_created ON risk_reports(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS overall_reports (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	diseases     TEXT NOT NULL,
	general_note TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_overall_reports_user ON overall_reports(user_id);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveReport(ctx context.Context, rec *model.ReportRecord) error {
	cols, err := prepareReport(rec)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO risk_reports (id, user_id, input_data, llm_report, rule_report, degraded, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, string(cols.input), string(cols.llm), string(cols.rules), rec.Degraded, rec.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert report")
}

func (s *SQLiteStore) ListReports(ctx context.Context, filter ReportFilter) ([]model.ReportRecord, error) {
	filter = filter.Normalize()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, input_data, llm_report, rule_report, degraded, created_at FROM risk_reports WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		filter.UserID, filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reports")
	}
	defer rows.Close()

	out := []model.ReportRecord{}
	for rows.Next() {
		var r model.ReportRecord
		var input, llm, rules string
		if err := rows.Scan(&r.ID, &r.UserID, &input, &llm, &rules, &r.Degraded, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan report")
		}
		cols := reportColumns{input: []byte(input), llm: []byte(llm), rules: []byte(rules)}
		if err := decodeReport(&r, cols); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate reports")
}

func (s *SQLiteStore) SaveInsight(ctx context.Context, rec *model.InsightRecord) error {
	diseases, err := prepareInsight(rec)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO overall_reports (id, user_id, diseases, general_note, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, string(diseases), rec.Insight.GeneralNote, rec.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert insight")
}
