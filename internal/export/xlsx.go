// Package export writes stored reports to spreadsheet files.
package export

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/cardiorisk/cardiorisk/internal/model"
)

// Sheet names.
const (
	ReportsSheet  = "Reports"
	DiseasesSheet = "Diseases"
)

// ReportHeader is the first row of the reports sheet.
var ReportHeader = []string{"id", "created_at", "age", "gender", "systolic_bp", "diastolic_bp", "degraded", "summary", "recommendations"}

// DiseaseHeader is the first row of the diseases sheet.
var DiseaseHeader = []string{"report_id", "source", "name", "probability"}

// Disease sources on the diseases sheet.
const (
	SourceVisible = "visible"
	SourceRule    = "rule"
)

// WriteReportsXLSX writes recs to path as a two-sheet workbook: one row per
// report, and one row per disease estimate.
func WriteReportsXLSX(path string, recs []model.ReportRecord) error {
	f := xlsx.NewFile()

	reports, err := f.AddSheet(ReportsSheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add reports sheet")
	}
	diseases, err := f.AddSheet(DiseasesSheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add diseases sheet")
	}

	addStrings(reports.AddRow(), ReportHeader)
	addStrings(diseases.AddRow(), DiseaseHeader)

	for _, rec := range recs {
		row := reports.AddRow()
		row.AddCell().SetString(rec.ID)
		row.AddCell().SetString(rec.CreatedAt.UTC().Format(time.RFC3339))
		row.AddCell().SetInt(rec.Input.Age)
		row.AddCell().SetString(rec.Input.Gender)
		row.AddCell().SetInt(rec.Input.SystolicBP)
		row.AddCell().SetInt(rec.Input.DiastolicBP)
		row.AddCell().SetBool(rec.Degraded)
		row.AddCell().SetString(rec.LLMReport.Summary)
		row.AddCell().SetString(strings.Join(rec.LLMReport.Recommendations, "\n"))

		addDiseases(diseases, rec.ID, SourceVisible, rec.LLMReport.PossibleDiseases)
		addDiseases(diseases, rec.ID, SourceRule, rec.RuleReport.PossibleDiseases)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "xlsx: save")
	}
	return nil
}

func addDiseases(sheet *xlsx.Sheet, reportID, source string, ds []model.DiseaseEstimate) {
	for _, d := range ds {
		row := sheet.AddRow()
		row.AddCell().SetString(reportID)
		row.AddCell().SetString(source)
		row.AddCell().SetString(d.Name)
		row.AddCell().SetFloat(d.Probability)
	}
}

func addStrings(row *xlsx.Row, vals []string) {
	for _, v := range vals {
		row.AddCell().SetString(v)
	}
}
