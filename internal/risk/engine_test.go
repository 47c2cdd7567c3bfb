package risk

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardiorisk/cardiorisk/internal/estimator"
	"github.com/cardiorisk/cardiorisk/internal/features"
	"github.com/cardiorisk/cardiorisk/internal/model"
	"github.com/cardiorisk/cardiorisk/internal/rules"
)

type fakeEstimator struct {
	name  string
	p     float64
	delay time.Duration
	err   error
}

func (f fakeEstimator) Name() string { return f.name }

func (f fakeEstimator) Estimate(ctx context.Context, _ features.Factors) (model.DiseaseEstimate, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return model.DiseaseEstimate{}, ctx.Err()
		}
	}
	if f.err != nil {
		return model.DiseaseEstimate{}, f.err
	}
	return model.DiseaseEstimate{Name: f.name, Probability: f.p}, nil
}

func intPtr(v int) *int { return &v }

func defaultEngine(t *testing.T) *Engine {
	t.Helper()
	set, err := estimator.LoadDir("../../artifacts")
	require.NoError(t, err)
	e, err := NewDefaultEngine(set, DefaultThresholds())
	require.NoError(t, err)
	return e
}

func profiles() []model.PatientProfile {
	return []model.PatientProfile{
		{Age: 34, Gender: "female", Height: 168, Weight: 61, SystolicBP: 112, DiastolicBP: 72, Active: 1, SmokingStatus: "never smoked"},
		{Age: 67, Gender: "male", Height: 172, Weight: 95, SystolicBP: 165, DiastolicBP: 98, Cholesterol: intPtr(3),
			Smoke: 1, Hypertension: 1, FamilyHeartDisease: 1, StressLevel: 2, HighFatDiet: 2,
			Symptoms: []string{"palpitations", "chest_discomfort"}, SmokingStatus: "smokes"},
		{Age: 51, Gender: "Other", Height: 180, Weight: 77, SystolicBP: 128, DiastolicBP: 84, Cholesterol: intPtr(225),
			AvgGlucoseLevel: 140, SmokingStatus: "N/A"},
		{Age: 0, Gender: "f", Height: 50, Weight: 3, SystolicBP: 70, DiastolicBP: 40},
		{Age: 130, Gender: "m", Height: 272, Weight: 500, SystolicBP: 300, DiastolicBP: 200, AvgGlucoseLevel: 1000},
	}
}

func TestAggregate_CanonicalOrderAndRange(t *testing.T) {
	t.Parallel()

	e := defaultEngine(t)
	for _, p := range profiles() {
		b, err := e.Aggregate(context.Background(), p)
		require.NoError(t, err)
		require.Len(t, b, 7)
		assert.Equal(t, model.CanonicalOrder, b.Names())
		for _, est := range b {
			assert.GreaterOrEqual(t, est.Probability, 0.0)
			assert.LessOrEqual(t, est.Probability, 100.0)
		}
		for _, est := range b[:2] {
			assert.GreaterOrEqual(t, est.Probability, 1.0)
			assert.LessOrEqual(t, est.Probability, 95.0)
		}
	}
}

func TestAggregate_KnownRuleValues(t *testing.T) {
	t.Parallel()

	e := defaultEngine(t)
	p := profiles()[0]
	p.SystolicBP, p.DiastolicBP = 150, 95
	p.Cholesterol = nil

	b, err := e.Aggregate(context.Background(), p)
	require.NoError(t, err)

	htn, ok := b.Lookup(model.DiseaseHypertension)
	require.True(t, ok)
	assert.Equal(t, 70.0, htn.Probability)

	hpl, ok := b.Lookup(model.DiseaseHyperlipidemia)
	require.True(t, ok)
	assert.Equal(t, 10.0, hpl.Probability)
}

func TestAggregate_Deterministic(t *testing.T) {
	t.Parallel()

	e := defaultEngine(t)
	for _, p := range profiles() {
		first, err := e.Aggregate(context.Background(), p)
		require.NoError(t, err)
		want, err := json.Marshal(first)
		require.NoError(t, err)

		for range 5 {
			again, err := e.Aggregate(context.Background(), p)
			require.NoError(t, err)
			got, err := json.Marshal(again)
			require.NoError(t, err)
			assert.Equal(t, string(want), string(got))
		}
	}
}

func TestAggregate_OrderIndependentOfCompletion(t *testing.T) {
	t.Parallel()

	e, err := NewEngine(DefaultThresholds(),
		[]Estimator{
			fakeEstimator{name: "slow", p: 50, delay: 30 * time.Millisecond},
			fakeEstimator{name: "fast", p: 25},
		},
		[]Estimator{fakeEstimator{name: "rule", p: 10, delay: 10 * time.Millisecond}},
	)
	require.NoError(t, err)

	b, err := e.Aggregate(context.Background(), profiles()[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"slow", "fast", "rule"}, b.Names())
	assert.Equal(t, 3, e.Size())
}

func TestAggregate_EstimatorErrorAborts(t *testing.T) {
	t.Parallel()

	e, err := NewEngine(DefaultThresholds(),
		[]Estimator{estimator.Unavailable(model.DiseaseCardio)},
		[]Estimator{fakeEstimator{name: "rule", p: 10, delay: time.Second}},
	)
	require.NoError(t, err)

	start := time.Now()
	_, err = e.Aggregate(context.Background(), profiles()[0])
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrEstimator))
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestAggregate_RejectsInvalidProfile(t *testing.T) {
	t.Parallel()

	e, err := NewEngine(DefaultThresholds(), nil, []Estimator{
		fakeEstimator{name: "rule", p: 10},
	})
	require.NoError(t, err)

	p := profiles()[0]
	p.Age = -5
	_, err = e.Aggregate(context.Background(), p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidProfile))
}

func TestAggregate_RejectsBadEstimatorOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		est  Estimator
	}{
		{"out of range", fakeEstimator{name: "x", p: 140}},
		{"negative", fakeEstimator{name: "x", p: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, err := NewEngine(DefaultThresholds(), []Estimator{tt.est}, nil)
			require.NoError(t, err)
			_, err = e.Aggregate(context.Background(), profiles()[0])
			assert.ErrorIs(t, err, model.ErrEstimator)
		})
	}
}

func TestNewEngine_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(Thresholds{VisibleAt: 20, LowRiskFloor: 30}, nil, nil)
	assert.Error(t, err)

	_, err = NewEngine(DefaultThresholds(), []Estimator{fakeEstimator{name: "a"}}, []Estimator{fakeEstimator{name: "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	_, err = NewEngine(DefaultThresholds(), []Estimator{nil}, nil)
	assert.Error(t, err)

	_, err = NewDefaultEngine(nil, DefaultThresholds())
	assert.ErrorIs(t, err, model.ErrEstimator)
}

func TestPartition(t *testing.T) {
	t.Parallel()

	e, err := NewEngine(DefaultThresholds(),
		[]Estimator{fakeEstimator{name: "a"}, fakeEstimator{name: "b"}},
		[]Estimator{fakeEstimator{name: "c"}, fakeEstimator{name: "d"}, fakeEstimator{name: "e"}, fakeEstimator{name: "f"}},
	)
	require.NoError(t, err)

	b := model.RiskBundle{
		{Name: "a", Probability: 30},
		{Name: "b", Probability: 29.9},
		{Name: "c", Probability: 20},
		{Name: "d", Probability: 19.9},
		{Name: "e", Probability: 95},
		{Name: "f", Probability: 10},
	}

	visible := e.Visible(b)
	assert.Equal(t, []model.DiseaseEstimate{{Name: "a", Probability: 30}, {Name: "e", Probability: 95}}, visible)
	assert.Equal(t, []string{"b", "c"}, e.LowRisk(b))

	lowSet := map[string]bool{}
	for _, n := range e.LowRisk(b) {
		lowSet[n] = true
	}
	for _, v := range visible {
		assert.GreaterOrEqual(t, v.Probability, 30.0)
		assert.False(t, lowSet[v.Name])
		_, ok := b.Lookup(v.Name)
		assert.True(t, ok)
	}

	assert.Equal(t, []string{"c", "d", "e", "f"}, model.RiskBundle(e.RuleSubset(b)).Names())
}

func TestRuleSubset_ReportOrder(t *testing.T) {
	t.Parallel()

	e := defaultEngine(t)
	b, err := e.Aggregate(context.Background(), profiles()[1])
	require.NoError(t, err)

	got := model.RiskBundle(e.RuleSubset(b)).Names()
	assert.Equal(t, rules.ReportOrder, got)
	assert.Equal(t, model.DiseaseArrhythmia, got[3])
	assert.Equal(t, model.DiseaseCAD, got[4])
}

func TestSetRuleOrder(t *testing.T) {
	t.Parallel()

	e, err := NewEngine(DefaultThresholds(),
		[]Estimator{fakeEstimator{name: "a"}},
		[]Estimator{fakeEstimator{name: "c"}, fakeEstimator{name: "d"}},
	)
	require.NoError(t, err)

	tests := []struct {
		name    string
		order   []string
		wantErr string
	}{
		{"too short", []string{"c"}, "has 1 names, want 2"},
		{"unknown", []string{"c", "x"}, `"x" is unknown or repeated`},
		{"statistical", []string{"a", "c"}, `"a" is unknown or repeated`},
		{"repeated", []string{"c", "c"}, `"c" is unknown or repeated`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.SetRuleOrder(tt.order)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	require.NoError(t, e.SetRuleOrder([]string{"d", "c"}))
	b := model.RiskBundle{{Name: "a", Probability: 1}, {Name: "c", Probability: 2}, {Name: "d", Probability: 3}}
	assert.Equal(t, []string{"d", "c"}, model.RiskBundle(e.RuleSubset(b)).Names())
}

func TestPartition_EmptyIsNotNil(t *testing.T) {
	t.Parallel()

	th := DefaultThresholds()
	b := model.RiskBundle{{Name: "a", Probability: 5}}
	assert.NotNil(t, th.Visible(b))
	assert.Empty(t, th.Visible(b))
	assert.NotNil(t, th.LowRisk(b))
	assert.Empty(t, th.LowRisk(b))
}

func TestThresholds_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultThresholds().Validate())
	assert.NoError(t, Thresholds{VisibleAt: 100, LowRiskFloor: 0}.Validate())
	assert.Error(t, Thresholds{VisibleAt: 30, LowRiskFloor: 30}.Validate())
	assert.Error(t, Thresholds{VisibleAt: 101, LowRiskFloor: 20}.Validate())
	assert.Error(t, Thresholds{VisibleAt: 30, LowRiskFloor: -1}.Validate())
}
