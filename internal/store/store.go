// Package store persists assessment reports and insights.
package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/cardiorisk/cardiorisk/internal/model"
)

// Drivers accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Default and maximum page sizes for ListReports.
const (
	DefaultListLimit = 20
	MaxListLimit     = 200
)

// ReportFilter selects a page of one user's reports, newest first.
type ReportFilter struct {
	UserID string
	Limit  int
	Offset int
}

// Normalize clamps Limit into (0, MaxListLimit] and Offset to >= 0.
func (f ReportFilter) Normalize() ReportFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Store defines the persistence interface for assessments.
type Store interface {
	// SaveReport inserts rec, assigning ID and CreatedAt when unset.
	SaveReport(ctx context.Context, rec *model.ReportRecord) error
	ListReports(ctx context.Context, filter ReportFilter) ([]model.ReportRecord, error)

	// SaveInsight inserts rec, assigning ID and CreatedAt when unset.
	SaveInsight(ctx context.Context, rec *model.InsightRecord) error

	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the store selected by driver.
func Open(ctx context.Context, driver, dsn string, poolCfg *PoolConfig) (Store, error) {
	switch strings.ToLower(driver) {
	case DriverPostgres:
		return NewPostgres(ctx, dsn, poolCfg)
	case DriverSQLite:
		return NewSQLite(dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
