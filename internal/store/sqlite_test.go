package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardiorisk/cardiorisk/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleReport(userID string, at time.Time) model.ReportRecord {
	chol := 2
	return model.ReportRecord{
		UserID: userID,
		Input: model.PatientProfile{
			Age: 57, Gender: "male", Height: 178, Weight: 90,
			SystolicBP: 142, DiastolicBP: 91, Cholesterol: &chol,
		},
		LLMReport: model.LLMReport{
			Summary:          "Moderate risk.",
			Recommendations:  []string{"Walk 30 minutes a day"},
			PossibleDiseases: []model.DiseaseEstimate{{Name: model.DiseaseHypertension, Probability: 70}},
		},
		RuleReport: model.RuleReport{
			PossibleDiseases: []model.DiseaseEstimate{{Name: model.DiseaseHypertension, Probability: 70}},
		},
		CreatedAt: at,
	}
}

func TestSQLite_SaveAndListReports(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	for i := range 3 {
		rec := sampleReport("alice", base.Add(time.Duration(i)*time.Hour))
		rec.LLMReport.Summary = []string{"first", "second", "third"}[i]
		require.NoError(t, st.SaveReport(ctx, &rec))
		assert.NotEmpty(t, rec.ID)
	}
	other := sampleReport("bob", base)
	require.NoError(t, st.SaveReport(ctx, &other))

	got, err := st.ListReports(ctx, ReportFilter{UserID: "alice"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "third", got[0].LLMReport.Summary)
	assert.Equal(t, "first", got[2].LLMReport.Summary)
	assert.Equal(t, 57, got[0].Input.Age)
	require.NotNil(t, got[0].Input.Cholesterol)
	assert.Equal(t, 2, *got[0].Input.Cholesterol)
	assert.Equal(t, model.DiseaseHypertension, got[0].RuleReport.PossibleDiseases[0].Name)
	assert.True(t, got[0].CreatedAt.Equal(base.Add(2*time.Hour)))
}

func TestSQLite_ListReports_Paging(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	for i := range 5 {
		rec := sampleReport("alice", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, st.SaveReport(ctx, &rec))
	}

	page, err := st.ListReports(ctx, ReportFilter{UserID: "alice", Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	none, err := st.ListReports(ctx, ReportFilter{UserID: "carol"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestSQLite_SaveReport_Degraded(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := sampleReport("dave", time.Time{})
	rec.Degraded = true
	require.NoError(t, st.SaveReport(ctx, &rec))

	got, err := st.ListReports(ctx, ReportFilter{UserID: "dave"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Degraded)
	assert.Equal(t, rec.ID, got[0].ID)
}

func TestSQLite_SaveReport_DuplicateID(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := sampleReport("erin", time.Time{})
	rec.ID = "fixed"
	require.NoError(t, st.SaveReport(ctx, &rec))

	dup := sampleReport("erin", time.Time{})
	dup.ID = "fixed"
	err := st.SaveReport(ctx, &dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite: insert report")
}

func TestSQLite_SaveInsight(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := model.InsightRecord{
		UserID: "alice",
		Insight: model.Insight{
			Diseases:    []model.InsightDisease{{Name: "Hypertension", Cause: "pipes", Importance: "filters"}},
			GeneralNote: "Keep it up.",
		},
	}
	require.NoError(t, st.SaveInsight(ctx, &rec))
	assert.NotEmpty(t, rec.ID)

	var note string
	require.NoError(t, st.db.QueryRowContext(ctx, `SELECT general_note FROM overall_reports WHERE id = ?`, rec.ID).Scan(&note))
	assert.Equal(t, "Keep it up.", note)
}

func TestSQLite_PingAndOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "SQLite", filepath.Join(t.TempDir(), "open.db"), nil)
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	require.NoError(t, s.Migrate(ctx))
	assert.NoError(t, s.Ping(ctx))
}
