package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// FeatureCount is the fixed length of the feature vector the artifacts were
// fitted with: humidity, pressure, wind_speed, clouds, month, day.
const FeatureCount = 6

// artifactFile is the on-disk JSON shape shared by all artifact kinds.
// Which fields are meaningful depends on Type.
type artifactFile struct {
	Type         string    `json:"type"`
	Mean         []float64 `json:"mean,omitempty"`
	Std          []float64 `json:"std,omitempty"`
	Coefficients []float64 `json:"coefficients,omitempty"`
	Intercept    float64   `json:"intercept,omitempty"`
}

func readArtifactFile(path string) (artifactFile, error) {
	var af artifactFile
	data, err := os.ReadFile(path)
	if err != nil {
		return af, err
	}
	if err := json.Unmarshal(data, &af); err != nil {
		return af, fmt.Errorf("parse artifact %s: %w", path, err)
	}
	return af, nil
}

// standardScaler shifts by the fitted mean and divides by the fitted
// standard deviation, per feature, preserving order.
type standardScaler struct {
	mean []float64
	std  []float64
}

func (s *standardScaler) Transform(features []float64) ([]float64, error) {
	if len(features) != len(s.mean) {
		return nil, fmt.Errorf("expected %d features, got %d", len(s.mean), len(features))
	}
	scaled := make([]float64, len(features))
	for i, v := range features {
		scaled[i] = (v - s.mean[i]) / s.std[i]
	}
	return scaled, nil
}

// linearRegressor is a fitted linear model over the scaled feature vector.
type linearRegressor struct {
	coefficients []float64
	intercept    float64
}

func (r *linearRegressor) Predict(scaled []float64) float64 {
	return r.intercept + dot(r.coefficients, scaled)
}

// logisticClassifier produces a positive-class probability via the logistic
// function and labels with a 0.5 threshold.
type logisticClassifier struct {
	coefficients []float64
	intercept    float64
}

func (c *logisticClassifier) Predict(scaled []float64) (int, float64, bool) {
	z := c.intercept + dot(c.coefficients, scaled)
	p := 1.0 / (1.0 + math.Exp(-z))
	label := 0
	if p >= 0.5 {
		label = 1
	}
	return label, p, true
}

// thresholdClassifier labels by the sign of the decision function. It has no
// probability output; callers that require one must treat it as misconfigured.
type thresholdClassifier struct {
	coefficients []float64
	intercept    float64
}

func (c *thresholdClassifier) Predict(scaled []float64) (int, float64, bool) {
	z := c.intercept + dot(c.coefficients, scaled)
	label := 0
	if z >= 0 {
		label = 1
	}
	return label, 0, false
}

// NewStandardScaler returns a Scaler fitted with the given per-feature mean
// and standard deviation.
func NewStandardScaler(mean, std []float64) Scaler {
	return &standardScaler{mean: mean, std: std}
}

// NewLinearRegressor returns a Regressor over the scaled feature vector.
func NewLinearRegressor(coefficients []float64, intercept float64) Regressor {
	return &linearRegressor{coefficients: coefficients, intercept: intercept}
}

// NewLogisticClassifier returns a Classifier with native probability output.
func NewLogisticClassifier(coefficients []float64, intercept float64) Classifier {
	return &logisticClassifier{coefficients: coefficients, intercept: intercept}
}

// NewThresholdClassifier returns a Classifier without probability output.
func NewThresholdClassifier(coefficients []float64, intercept float64) Classifier {
	return &thresholdClassifier{coefficients: coefficients, intercept: intercept}
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		if i >= len(b) {
			break
		}
		sum += a[i] * b[i]
	}
	return sum
}

func loadScaler(path string) (Scaler, error) {
	af, err := readArtifactFile(path)
	if err != nil {
		return nil, err
	}
	if af.Type != "standard" {
		return nil, fmt.Errorf("unsupported scaler type %q in %s", af.Type, path)
	}
	if len(af.Mean) != FeatureCount || len(af.Std) != FeatureCount {
		return nil, fmt.Errorf("scaler %s: expected %d mean/std values", path, FeatureCount)
	}
	for i, sd := range af.Std {
		if sd == 0 {
			return nil, fmt.Errorf("scaler %s: zero std for feature %d", path, i)
		}
	}
	return &standardScaler{mean: af.Mean, std: af.Std}, nil
}

func loadRegressor(path string) (Regressor, error) {
	af, err := readArtifactFile(path)
	if err != nil {
		return nil, err
	}
	if af.Type != "linear" {
		return nil, fmt.Errorf("unsupported regressor type %q in %s", af.Type, path)
	}
	if len(af.Coefficients) != FeatureCount {
		return nil, fmt.Errorf("regressor %s: expected %d coefficients", path, FeatureCount)
	}
	return &linearRegressor{coefficients: af.Coefficients, intercept: af.Intercept}, nil
}

func loadClassifier(path string) (Classifier, error) {
	af, err := readArtifactFile(path)
	if err != nil {
		return nil, err
	}
	if len(af.Coefficients) != FeatureCount {
		return nil, fmt.Errorf("classifier %s: expected %d coefficients", path, FeatureCount)
	}
	switch af.Type {
	case "logistic":
		return &logisticClassifier{coefficients: af.Coefficients, intercept: af.Intercept}, nil
	case "threshold":
		return &thresholdClassifier{coefficients: af.Coefficients, intercept: af.Intercept}, nil
	default:
		return nil, fmt.Errorf("unsupported classifier type %q in %s", af.Type, path)
	}
}
