// Package report runs one assessment end to end: aggregate, partition,
// narrate, merge and persist.
package report

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cardiorisk/cardiorisk/internal/model"
	"github.com/cardiorisk/cardiorisk/internal/monitoring"
	"github.com/cardiorisk/cardiorisk/internal/narration"
	"github.com/cardiorisk/cardiorisk/internal/risk"
	"github.com/cardiorisk/cardiorisk/internal/store"
)

// Canned insight notes.
const (
	NoteNoDiseases  = "No diseases detected in the selected reports."
	NoteNoneVisible = "No medium or high risk conditions to analyze."
)

const persistTimeout = 10 * time.Second

// Engine produces and partitions risk bundles.
type Engine interface {
	Aggregate(ctx context.Context, p model.PatientProfile) (model.RiskBundle, error)
	Visible(b model.RiskBundle) []model.DiseaseEstimate
	LowRisk(b model.RiskBundle) []string
	RuleSubset(b model.RiskBundle) []model.DiseaseEstimate
	Thresholds() risk.Thresholds
}

// Narrator explains bundles and disease lists.
type Narrator interface {
	Narrate(ctx context.Context, req model.NarrationRequest) (narration.Result, error)
	Insight(ctx context.Context, diseases []model.DiseaseEstimate) (model.Insight, error)
}

// Service orchestrates assessments. Store and Metrics may be nil.
type Service struct {
	engine   Engine
	narrator Narrator
	store    store.Store
	metrics  *monitoring.Metrics
}

// NewService creates a Service. A nil st disables persistence.
func NewService(engine Engine, narrator Narrator, st store.Store, metrics *monitoring.Metrics) *Service {
	return &Service{engine: engine, narrator: narrator, store: st, metrics: metrics}
}

// Assess validates and scores p, asks for a narration and returns the merged
// report. The report's disease list is always the engine's visible set.
// Validation, estimator and upstream errors are returned unchanged; a
// persistence failure is logged and ignored.
func (s *Service) Assess(ctx context.Context, userID string, p model.PatientProfile) (*model.FinalReport, error) {
	start := time.Now()
	bundle, err := s.engine.Aggregate(ctx, p)
	if err != nil {
		if errors.Is(err, model.ErrInvalidProfile) {
			s.metrics.ObserveAssessment(monitoring.OutcomeInvalid)
		} else {
			s.metrics.ObserveAssessment(monitoring.OutcomeEstimator)
		}
		return nil, err
	}
	s.metrics.ObserveAggregation(time.Since(start))

	visible := s.engine.Visible(bundle)
	req := model.NarrationRequest{
		Patient: p.Summary(),
		Bundle:  bundle.Clone(),
		LowRisk: s.engine.LowRisk(bundle),
	}

	res, err := s.narrator.Narrate(ctx, req)
	if err != nil {
		s.metrics.ObserveNarration(monitoring.OutcomeUpstreamError)
		s.metrics.ObserveAssessment(monitoring.OutcomeUpstreamError)
		return nil, err
	}

	outcome := monitoring.OutcomeOK
	if res.Degraded {
		outcome = monitoring.OutcomeDegraded
	}
	s.metrics.ObserveNarration(outcome)
	s.metrics.ObserveAssessment(outcome)

	report := Merge(res, visible, s.engine.RuleSubset(bundle))

	s.saveReport(ctx, &model.ReportRecord{
		UserID:     userID,
		Input:      p,
		LLMReport:  report.LLMReport,
		RuleReport: report.RuleReport,
		Degraded:   res.Degraded,
	})

	zap.L().Info("report: assessment complete",
		zap.String("user_id", userID),
		zap.Int("visible", len(visible)),
		zap.Bool("degraded", res.Degraded),
		zap.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}

// Merge builds the final report. Whatever diseases the narration named are
// replaced by visible.
func Merge(res narration.Result, visible, rules []model.DiseaseEstimate) *model.FinalReport {
	if visible == nil {
		visible = []model.DiseaseEstimate{}
	}
	if rules == nil {
		rules = []model.DiseaseEstimate{}
	}
	return &model.FinalReport{
		LLMReport: model.LLMReport{
			Summary:          res.Summary,
			Recommendations:  res.Recommendations,
			PossibleDiseases: visible,
		},
		RuleReport: model.RuleReport{PossibleDiseases: rules},
	}
}

// OverallInsight explains the diseases at or above the visible threshold.
// With nothing to explain it returns a canned note without calling the
// narration service.
func (s *Service) OverallInsight(ctx context.Context, userID string, diseases []model.DiseaseEstimate) (model.Insight, error) {
	if len(diseases) == 0 {
		return model.Insight{Diseases: []model.InsightDisease{}, GeneralNote: NoteNoDiseases}, nil
	}

	threshold := s.engine.Thresholds().VisibleAt
	var relevant []model.DiseaseEstimate
	for _, d := range diseases {
		if d.Probability >= threshold {
			relevant = append(relevant, d)
		}
	}
	if len(relevant) == 0 {
		return model.Insight{Diseases: []model.InsightDisease{}, GeneralNote: NoteNoneVisible}, nil
	}

	insight, err := s.narrator.Insight(ctx, relevant)
	if err != nil {
		s.metrics.ObserveNarration(monitoring.OutcomeUpstreamError)
		return model.Insight{}, err
	}
	s.metrics.ObserveNarration(monitoring.OutcomeOK)

	s.saveInsight(ctx, &model.InsightRecord{UserID: userID, Insight: insight})
	return insight, nil
}

// History lists a user's past reports, newest first.
func (s *Service) History(ctx context.Context, userID string, limit, offset int) ([]model.ReportRecord, error) {
	if s.store == nil {
		return []model.ReportRecord{}, nil
	}
	return s.store.ListReports(ctx, store.ReportFilter{UserID: userID, Limit: limit, Offset: offset})
}

func (s *Service) saveReport(ctx context.Context, rec *model.ReportRecord) {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.store.SaveReport(ctx, rec); err != nil {
		s.metrics.PersistenceFailure(monitoring.KindReport)
		zap.L().Warn("report: failed to save report", zap.String("user_id", rec.UserID), zap.Error(err))
	}
}

func (s *Service) saveInsight(ctx context.Context, rec *model.InsightRecord) {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.store.SaveInsight(ctx, rec); err != nil {
		s.metrics.PersistenceFailure(monitoring.KindInsight)
		zap.L().Warn("report: failed to save insight", zap.String("user_id", rec.UserID), zap.Error(err))
	}
}
