package model

// Scaler transforms a raw feature vector into the scaled space the models
// were fitted on. Field order must be preserved.
type Scaler interface {
	Transform(features []float64) ([]float64, error)
}

// Regressor predicts a continuous value from a scaled feature vector.
type Regressor interface {
	Predict(scaled []float64) float64
}

// Classifier predicts a binary class from a scaled feature vector.
// probability is the probability of the positive class; hasProbability is
// false when the underlying model cannot produce one.
type Classifier interface {
	Predict(scaled []float64) (label int, probability float64, hasProbability bool)
}

// Bundle holds the three artifacts needed to serve one city's predictions.
// Bundles are owned by the registry and immutable after load.
type Bundle struct {
	CityKey     string
	Temperature Regressor
	Rain        Classifier
	Scaler      Scaler
}

// Complete reports whether all three artifacts are present. Incomplete
// bundles must never be selected for inference.
func (b *Bundle) Complete() bool {
	return b != nil && b.Temperature != nil && b.Rain != nil && b.Scaler != nil
}
