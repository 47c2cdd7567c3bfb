// Package estimator implements the statistical disease estimators backed by
// logistic-regression artifacts exported at training time.
package estimator

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/cardiorisk/cardiorisk/internal/features"
)

// Artifact is a trained logistic-regression model as stored on disk.
type Artifact struct {
	Name         string                   `yaml:"name"`
	Version      string                   `yaml:"version"`
	Features     []string                 `yaml:"features"`
	Scaler       *Scaler                  `yaml:"scaler,omitempty"`
	Coefficients []float64                `yaml:"coefficients"`
	Intercept    float64                  `yaml:"intercept"`
	Medians      features.PopulationStats `yaml:"population_medians"`
	Gender       features.GenderEncoding  `yaml:"gender_encoding"`
}

// Scaler standardizes features as (x - mean) / scale.
type Scaler struct {
	Mean  []float64 `yaml:"mean"`
	Scale []float64 `yaml:"scale"`
}

// LoadArtifact reads and parses a model artifact from a YAML file.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "estimator: read artifact %s", path)
	}

	var a Artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, eris.Wrapf(err, "estimator: parse artifact %s", path)
	}
	return &a, nil
}

// Validate checks that the artifact was trained on exactly the expected
// feature schema and that its parameter lengths agree.
func (a *Artifact) Validate(expected []string) error {
	if !slices.Equal(a.Features, expected) {
		return eris.Errorf("estimator: artifact %q schema %v does not match expected %v", a.Name, a.Features, expected)
	}
	n := len(a.Features)
	if len(a.Coefficients) != n {
		return eris.Errorf("estimator: artifact %q has %d coefficients for %d features", a.Name, len(a.Coefficients), n)
	}
	if a.Scaler != nil && (len(a.Scaler.Mean) != n || len(a.Scaler.Scale) != n) {
		return eris.Errorf("estimator: artifact %q scaler length mismatch (mean=%d scale=%d features=%d)",
			a.Name, len(a.Scaler.Mean), len(a.Scaler.Scale), n)
	}
	return nil
}

// ArtifactPath returns the conventional artifact location for a model name.
func ArtifactPath(dir, name string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.yaml", name))
}
