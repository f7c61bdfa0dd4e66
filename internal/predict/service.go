package predict

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/i474232898/weather-prediction-api/internal/meteo"
	"github.com/i474232898/weather-prediction-api/internal/model"
	"github.com/i474232898/weather-prediction-api/internal/store"
)

// Result is a point-in-time prediction at raw precision. Rounding happens at
// the presentation boundary only.
type Result struct {
	Temperature     float64
	Rain            string // store.RainYes or store.RainNo
	RainProbability float64
}

// Outcome is the full result of one serving pass: the prediction, which
// model actually served it, and whether the record was durably saved.
type Outcome struct {
	Result      Result
	ModelCity   string
	Substituted bool
	Record      store.PredictionRecord
	Persisted   bool
	PersistErr  error
}

// ConditionsSource supplies a FeatureVector-compatible current-weather
// reading for a city.
type ConditionsSource interface {
	CurrentConditions(ctx context.Context, city string) (meteo.Conditions, error)
}

// Service orchestrates the serving pipeline: normalize the city, resolve a
// bundle, validate and infer, then persist the record. The registry is
// read-only, so the service is safe for concurrent use.
type Service struct {
	registry     *model.Registry
	store        store.Store
	conditions   ConditionsSource
	storeTimeout time.Duration
}

// NewService creates a Service. conditions may be nil when no external
// weather source is configured.
func NewService(registry *model.Registry, st store.Store, conditions ConditionsSource, storeTimeout time.Duration) *Service {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &Service{
		registry:     registry,
		store:        st,
		conditions:   conditions,
		storeTimeout: storeTimeout,
	}
}

// Cities returns the city keys with complete models, in registration order.
func (s *Service) Cities() []string {
	return s.registry.Keys()
}

// Infer validates the input, scales it and runs both models. Pure: no side
// effects, and the same bundle and input always yield the same result.
func (s *Service) Infer(bundle *model.Bundle, input FeatureVector) (Result, error) {
	if err := input.Validate(); err != nil {
		return Result{}, err
	}

	if !bundle.Complete() {
		return Result{}, &InferenceError{CityKey: bundle.CityKey, Err: errors.New("bundle is incomplete")}
	}

	scaled, err := bundle.Scaler.Transform(input.Values())
	if err != nil {
		return Result{}, &InferenceError{CityKey: bundle.CityKey, Err: err}
	}

	temperature := bundle.Temperature.Predict(scaled)

	label, probability, hasProbability := bundle.Rain.Predict(scaled)
	if !hasProbability {
		return Result{}, &InferenceError{CityKey: bundle.CityKey, Err: ErrMissingProbability}
	}

	rain := store.RainNo
	if label == 1 {
		rain = store.RainYes
	}

	return Result{
		Temperature:     temperature,
		Rain:            rain,
		RainProbability: probability,
	}, nil
}

// Predict runs the full serving pipeline for a raw city string and input
// vector. Resolution and inference failures abort the request; a persistence
// failure does not invalidate the computed result and is reported on the
// Outcome instead.
func (s *Service) Predict(ctx context.Context, city string, input FeatureVector) (*Outcome, error) {
	key := model.NormalizeCityKey(city)

	bundle, resolution, err := s.registry.Resolve(key)
	if err != nil {
		return nil, err
	}
	if resolution.Substituted() {
		log.Printf("predict: no exact model for %q, substituting %q (%s match)",
			key, resolution.CityKey, resolution.Match)
	}

	result, err := s.Infer(bundle, input)
	if err != nil {
		return nil, err
	}

	record := store.PredictionRecord{
		City:                 city,
		Humidity:             input.Humidity,
		Pressure:             input.Pressure,
		WindSpeed:            input.WindSpeed,
		Clouds:               input.Clouds,
		Month:                input.Month,
		Day:                  input.Day,
		PredictedTemperature: result.Temperature,
		PredictedRain:        result.Rain,
		RainProbability:      result.RainProbability,
	}

	outcome := &Outcome{
		Result:      result,
		ModelCity:   resolution.CityKey,
		Substituted: resolution.Substituted(),
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if _, err := s.store.Save(sctx, &record); err != nil {
		// The caller still gets the prediction; it is just not recorded.
		log.Printf("predict: failed to persist prediction for %q: %v", city, err)
		outcome.PersistErr = err
	} else {
		outcome.Persisted = true
	}
	outcome.Record = record

	return outcome, nil
}

// PredictFromCurrent fetches current conditions for city and runs the full
// pipeline on them. Used by the auto-predict scheduler.
func (s *Service) PredictFromCurrent(ctx context.Context, city string) (*Outcome, error) {
	if s.conditions == nil {
		return nil, errors.New("no weather conditions source configured")
	}

	cond, err := s.conditions.CurrentConditions(ctx, city)
	if err != nil {
		return nil, err
	}

	input := FeatureVector{
		Humidity:  cond.Humidity,
		Pressure:  cond.Pressure,
		WindSpeed: cond.WindSpeed,
		Clouds:    cond.Clouds,
		Month:     cond.Month,
		Day:       cond.Day,
	}
	return s.Predict(ctx, city, input)
}

// History returns the most recent records, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]store.PredictionRecord, error) {
	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.store.List(sctx, limit)
}

// Stats returns aggregate statistics over the persisted history.
func (s *Service) Stats(ctx context.Context) (store.Stats, error) {
	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.store.Stats(sctx)
}

// ClearHistory removes all records and reports how many were removed.
func (s *Service) ClearHistory(ctx context.Context) (int64, error) {
	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.store.DeleteAll(sctx)
}

// PingStore reports whether the persistence boundary is reachable.
func (s *Service) PingStore(ctx context.Context) error {
	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.store.Ping(sctx)
}
