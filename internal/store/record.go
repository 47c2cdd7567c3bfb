package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/cardiorisk/cardiorisk/internal/model"
)

// reportColumns are the JSON-encoded columns of a report row.
type reportColumns struct {
	input, llm, rules []byte
}

func prepareReport(rec *model.ReportRecord) (reportColumns, error) {
	if rec.UserID == "" {
		return reportColumns{}, eris.New("store: report has no user id")
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var cols reportColumns
	var err error
	if cols.input, err = json.Marshal(rec.Input); err != nil {
		return cols, eris.Wrap(err, "store: marshal input")
	}
	if cols.llm, err = json.Marshal(rec.LLMReport); err != nil {
		return cols, eris.Wrap(err, "store: marshal llm report")
	}
	if cols.rules, err = json.Marshal(rec.RuleReport); err != nil {
		return cols, eris.Wrap(err, "store: marshal rule report")
	}
	return cols, nil
}

func decodeReport(rec *model.ReportRecord, cols reportColumns) error {
	if err := json.Unmarshal(cols.input, &rec.Input); err != nil {
		return eris.Wrap(err, "store: unmarshal input")
	}
	if err := json.Unmarshal(cols.llm, &rec.LLMReport); err != nil {
		return eris.Wrap(err, "store: unmarshal llm report")
	}
	if err := json.Unmarshal(cols.rules, &rec.RuleReport); err != nil {
		return eris.Wrap(err, "store: unmarshal rule report")
	}
	return nil
}

func prepareInsight(rec *model.InsightRecord) ([]byte, error) {
	if rec.UserID == "" {
		return nil, eris.New("store: insight has no user id")
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	diseases, err := json.Marshal(rec.Insight.Diseases)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal insight diseases")
	}
	return diseases, nil
}
