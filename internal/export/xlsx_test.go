package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/cardiorisk/cardiorisk/internal/model"
)

func readSheet(t *testing.T, f *xlsx.File, name string) [][]string {
	t.Helper()
	sheet, ok := f.Sheet[name]
	require.True(t, ok, "sheet %q missing", name)

	var rows [][]string
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows
}

func TestWriteReportsXLSX(t *testing.T) {
	recs := []model.ReportRecord{
		{
			ID:        "r-1",
			CreatedAt: time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC),
			Input:     model.PatientProfile{Age: 58, Gender: "male", SystolicBP: 150, DiastolicBP: 95},
			LLMReport: model.LLMReport{
				Summary:          "High blood pressure.",
				Recommendations:  []string{"Cut salt", "Walk daily"},
				PossibleDiseases: []model.DiseaseEstimate{{Name: model.DiseaseHypertension, Probability: 70}},
			},
			RuleReport: model.RuleReport{PossibleDiseases: []model.DiseaseEstimate{
				{Name: model.DiseaseHypertension, Probability: 70},
				{Name: model.DiseaseArrhythmia, Probability: 10},
			}},
		},
		{ID: "r-2", Degraded: true},
	}

	path := filepath.Join(t.TempDir(), "reports.xlsx")
	require.NoError(t, WriteReportsXLSX(path, recs))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)

	reports := readSheet(t, f, ReportsSheet)
	require.Len(t, reports, 3)
	assert.Equal(t, ReportHeader, reports[0])
	assert.Equal(t, "r-1", reports[1][0])
	assert.Equal(t, "2025-06-02T10:30:00Z", reports[1][1])
	assert.Equal(t, "58", reports[1][2])
	assert.Equal(t, "High blood pressure.", reports[1][7])
	assert.Equal(t, "Cut salt\nWalk daily", reports[1][8])
	assert.Equal(t, "r-2", reports[2][0])

	diseases := readSheet(t, f, DiseasesSheet)
	require.Len(t, diseases, 4)
	assert.Equal(t, DiseaseHeader, diseases[0])
	assert.Equal(t, []string{"r-1", SourceVisible, model.DiseaseHypertension, "70"}, diseases[1])
	assert.Equal(t, SourceRule, diseases[3][1])
	assert.Equal(t, model.DiseaseArrhythmia, diseases[3][2])
}

func TestWriteReportsXLSX_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteReportsXLSX(path, nil))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	assert.Len(t, readSheet(t, f, ReportsSheet), 1)
}

func TestWriteReportsXLSX_BadPath(t *testing.T) {
	err := WriteReportsXLSX(filepath.Join(t.TempDir(), "missing", "dir", "out.xlsx"), nil)
	require.Error(t, err)
}
