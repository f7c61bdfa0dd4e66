package predict

import (
	"errors"
	"fmt"
)

// ErrMissingProbability indicates a classifier that cannot produce a rain
// probability. Rain probability is a required output, so this is a bundle
// configuration error, not something to synthesize around.
var ErrMissingProbability = errors.New("classifier produced no rain probability")

// ValidationError reports an out-of-range input value, naming the offending
// field. Always the caller's fault; never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Message)
}

// InferenceError reports a malformed or incompatible bundle discovered at
// inference time. Server-side; logged, not retried.
type InferenceError struct {
	CityKey string
	Err     error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed for model %q: %v", e.CityKey, e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}
