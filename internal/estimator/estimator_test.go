package estimator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardiorisk/cardiorisk/internal/features"
	"github.com/cardiorisk/cardiorisk/internal/model"
)

const artifactDir = "../../artifacts"

func intPtr(v int) *int { return &v }

func loadSet(t *testing.T) *Set {
	t.Helper()
	set, err := LoadDir(artifactDir)
	require.NoError(t, err)
	return set
}

func profile() model.PatientProfile {
	return model.PatientProfile{
		Age:           58,
		Gender:        "male",
		Height:        176,
		Weight:        88,
		SystolicBP:    145,
		DiastolicBP:   92,
		Cholesterol:   intPtr(2),
		Active:        1,
		SmokingStatus: "formerly smoked",
	}
}

func TestLoadDir_ShippedArtifacts(t *testing.T) {
	t.Parallel()

	set := loadSet(t)
	assert.Equal(t, model.DiseaseCardio, set.Cardio.Name())
	assert.Equal(t, model.DiseaseStroke, set.Stroke.Name())
}

func TestLoadDir_Missing(t *testing.T) {
	t.Parallel()

	_, err := LoadDir(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrEstimator))
}

func TestLoadDir_SchemaMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cardio, err := os.ReadFile(filepath.Join(artifactDir, "cardio.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cardio.yaml"), cardio, 0o600))

	bad := []byte(`name: stroke
features: [age, gender]
coefficients: [0.1, 0.2]
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stroke.yaml"), bad, 0o600))

	_, err = LoadDir(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrEstimator))
	assert.Contains(t, err.Error(), "does not match expected")
}

func TestArtifact_Validate(t *testing.T) {
	t.Parallel()

	schema := []string{"age", "bmi"}
	tests := []struct {
		name    string
		a       Artifact
		wantErr string
	}{
		{"ok", Artifact{Name: "m", Features: schema, Coefficients: []float64{1, 2}}, ""},
		{"reordered", Artifact{Name: "m", Features: []string{"bmi", "age"}, Coefficients: []float64{1, 2}}, "does not match"},
		{"short coefficients", Artifact{Name: "m", Features: schema, Coefficients: []float64{1}}, "1 coefficients for 2 features"},
		{"scaler mismatch", Artifact{Name: "m", Features: schema, Coefficients: []float64{1, 2},
			Scaler: &Scaler{Mean: []float64{0}, Scale: []float64{1, 1}}}, "scaler length mismatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.a.Validate(schema)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestToPercent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want float64
	}{
		{0, 1.0},
		{0.0001, 1.0},
		{0.01, 1.0},
		{0.4567, 45.7},
		{0.95, 95.0},
		{0.999, 95.0},
		{1, 95.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToPercent(tt.in), "p=%v", tt.in)
	}
}

func TestLogistic_Estimate_Bounds(t *testing.T) {
	t.Parallel()

	set := loadSet(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(p *model.PatientProfile)
	}{
		{"baseline", func(*model.PatientProfile) {}},
		{"infant", func(p *model.PatientProfile) { p.Age = 0; p.SystolicBP = 90; p.DiastolicBP = 60 }},
		{"extreme", func(p *model.PatientProfile) {
			p.Age = 130
			p.SystolicBP = 300
			p.DiastolicBP = 200
			p.Hypertension = 1
			p.FamilyHeartDisease = 1
			p.AvgGlucoseLevel = 1000
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := profile()
			tt.mutate(&p)
			f := features.Normalize(p)

			for _, l := range []*Logistic{set.Cardio, set.Stroke} {
				est, err := l.Estimate(ctx, f)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, est.Probability, 1.0)
				assert.LessOrEqual(t, est.Probability, 95.0)
			}
		})
	}
}

func TestLogistic_Estimate_ClampsExtremes(t *testing.T) {
	t.Parallel()

	set := loadSet(t)
	p := profile()
	p.Age = 0
	est, err := set.Stroke.Estimate(context.Background(), features.Normalize(p))
	require.NoError(t, err)
	assert.Equal(t, 1.0, est.Probability)

	p.Age = 130
	p.SystolicBP = 300
	p.DiastolicBP = 200
	est, err = set.Cardio.Estimate(context.Background(), features.Normalize(p))
	require.NoError(t, err)
	assert.Equal(t, 95.0, est.Probability)
}

func TestLogistic_Estimate_MedianFallback(t *testing.T) {
	t.Parallel()

	set := loadSet(t)
	p := profile()
	p.Cholesterol = nil
	absent, err := set.Cardio.Estimate(context.Background(), features.Normalize(p))
	require.NoError(t, err)

	p.Cholesterol = intPtr(1)
	median, err := set.Cardio.Estimate(context.Background(), features.Normalize(p))
	require.NoError(t, err)

	assert.Equal(t, median, absent)
}

func TestLogistic_Estimate_StrokeGenderEncoding(t *testing.T) {
	t.Parallel()

	set := loadSet(t)
	stroke := func(gender string) float64 {
		p := profile()
		p.Gender = gender
		est, err := set.Stroke.Estimate(context.Background(), features.Normalize(p))
		require.NoError(t, err)
		return est.Probability
	}

	assert.Equal(t, stroke("female"), stroke("Other"))
	assert.Equal(t, stroke("female"), stroke("unspecified"))
	assert.NotEqual(t, stroke("male"), stroke("Other"))
}

func TestLogistic_Estimate_Deterministic(t *testing.T) {
	t.Parallel()

	set := loadSet(t)
	f := features.Normalize(profile())
	first, err := set.Cardio.Estimate(context.Background(), f)
	require.NoError(t, err)
	for range 20 {
		again, err := set.Cardio.Estimate(context.Background(), f)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestLogistic_FailsClosed(t *testing.T) {
	t.Parallel()

	f := features.Normalize(profile())

	_, err := Unavailable(model.DiseaseStroke).Estimate(context.Background(), f)
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.ErrorIs(t, err, model.ErrEstimator)

	var nilEstimator *Logistic
	_, err = nilEstimator.Estimate(context.Background(), f)
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestArtifact_Predict_VectorMismatch(t *testing.T) {
	t.Parallel()

	a := &Artifact{Name: "m", Features: []string{"age"}, Coefficients: []float64{1}}
	_, err := a.Predict(features.Vector{Names: []string{"bmi"}, Values: []float64{20}})
	assert.ErrorIs(t, err, model.ErrEstimator)
}

func TestArtifact_Predict_Scaler(t *testing.T) {
	t.Parallel()

	a := &Artifact{
		Name:         "m",
		Features:     []string{"age"},
		Coefficients: []float64{2},
		Scaler:       &Scaler{Mean: []float64{50}, Scale: []float64{10}},
	}
	p, err := a.Predict(features.Vector{Names: []string{"age"}, Values: []float64{50}})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p, 1e-12)
}
