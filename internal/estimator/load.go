package estimator

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cardiorisk/cardiorisk/internal/model"
)

// Artifact file names under the model directory.
const (
	CardioArtifact = "cardio"
	StrokeArtifact = "stroke"
)

// Set holds the loaded statistical estimators.
type Set struct {
	Cardio *Logistic
	Stroke *Logistic
}

// LoadDir loads and validates both artifacts from dir. Any failure is fatal
// to the caller; there is no fallback model.
func LoadDir(dir string) (*Set, error) {
	cardio, err := load(dir, CardioArtifact, model.DiseaseCardio, CardioSchema)
	if err != nil {
		return nil, err
	}
	stroke, err := load(dir, StrokeArtifact, model.DiseaseStroke, StrokeSchema)
	if err != nil {
		return nil, err
	}
	return &Set{Cardio: cardio, Stroke: stroke}, nil
}

func load(dir, file, disease string, schema []string) (*Logistic, error) {
	path := ArtifactPath(dir, file)
	a, err := LoadArtifact(path)
	if err != nil {
		return nil, eris.Wrap(model.ErrEstimator, err.Error())
	}
	l, err := NewLogistic(disease, schema, a)
	if err != nil {
		return nil, err
	}
	zap.L().Info("estimator: loaded artifact",
		zap.String("path", path),
		zap.String("name", a.Name),
		zap.String("version", a.Version),
		zap.Int("features", len(a.Features)),
	)
	return l, nil
}
