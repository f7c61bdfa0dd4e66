package predict

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-prediction-api/internal/model"
	"github.com/i474232898/weather-prediction-api/internal/store"
)

func testBundle(key string) *model.Bundle {
	return &model.Bundle{
		CityKey:     key,
		Temperature: model.NewLinearRegressor([]float64{1, 0.5, -0.2, 0.1, 0.3, 0.05}, 25),
		Rain:        model.NewLogisticClassifier([]float64{0.8, -0.1, 0.2, 0.6, 0.1, 0.05}, -0.4),
		Scaler: model.NewStandardScaler(
			[]float64{70, 1005, 10, 50, 6, 15},
			[]float64{15, 20, 5, 30, 3.5, 8.8},
		),
	}
}

func validInput() FeatureVector {
	return FeatureVector{
		Humidity:  75,
		Pressure:  1010,
		WindSpeed: 15,
		Clouds:    60,
		Month:     7,
		Day:       15,
	}
}

func newTestService(mem *store.MemoryStore, bundles ...*model.Bundle) *Service {
	return NewService(model.NewRegistry(bundles...), mem, nil, time.Second)
}

func TestValidateRejectsOutOfRangeFields(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*FeatureVector)
		wantField string
	}{
		{"negative humidity", func(v *FeatureVector) { v.Humidity = -1 }, "humidity"},
		{"pressure too high", func(v *FeatureVector) { v.Pressure = 1200 }, "pressure"},
		{"pressure too low", func(v *FeatureVector) { v.Pressure = 850 }, "pressure"},
		{"wind speed too high", func(v *FeatureVector) { v.WindSpeed = 150 }, "wind_speed"},
		{"clouds too high", func(v *FeatureVector) { v.Clouds = 101 }, "clouds"},
		{"month 13", func(v *FeatureVector) { v.Month = 13 }, "month"},
		{"day 0", func(v *FeatureVector) { v.Day = 0 }, "day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(&input)

			err := input.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.wantField {
				t.Fatalf("expected field %q, got %q (%v)", tt.wantField, verr.Field, verr)
			}
		})
	}
}

func TestValidateAcceptsBoundaryValues(t *testing.T) {
	input := FeatureVector{Humidity: 0, Pressure: 900, WindSpeed: 0, Clouds: 100, Month: 12, Day: 31}
	if err := input.Validate(); err != nil {
		t.Fatalf("boundary values must pass validation: %v", err)
	}
}

func TestInferIsDeterministic(t *testing.T) {
	svc := newTestService(store.NewMemoryStore(0), testBundle("kolkata"))
	bundle := testBundle("kolkata")
	input := validInput()

	first, err := svc.Infer(bundle, input)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}

	for i := 0; i < 10; i++ {
		again, err := svc.Infer(bundle, input)
		if err != nil {
			t.Fatalf("Infer: %v", err)
		}
		if again != first {
			t.Fatalf("inference not deterministic: %+v vs %+v", again, first)
		}
	}

	if first.Rain != store.RainYes && first.Rain != store.RainNo {
		t.Fatalf("unexpected rain label %q", first.Rain)
	}
	if first.RainProbability < 0 || first.RainProbability > 1 {
		t.Fatalf("rain probability %v out of [0,1]", first.RainProbability)
	}
}

func TestInferValidatesBeforeTouchingModels(t *testing.T) {
	svc := newTestService(store.NewMemoryStore(0))

	// A bundle whose scaler rejects every input; it may only be reached if
	// validation were skipped, which would surface as an InferenceError.
	bundle := &model.Bundle{
		CityKey:     "kolkata",
		Temperature: model.NewLinearRegressor(make([]float64, model.FeatureCount), 0),
		Rain:        model.NewLogisticClassifier(make([]float64, model.FeatureCount), 0),
		Scaler:      model.NewStandardScaler(nil, nil),
	}

	input := validInput()
	input.Humidity = -1

	_, err := svc.Infer(bundle, input)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError before inference, got %v", err)
	}
}

func TestInferRejectsIncompleteBundle(t *testing.T) {
	svc := newTestService(store.NewMemoryStore(0))
	bundle := testBundle("kolkata")
	bundle.Rain = nil

	_, err := svc.Infer(bundle, validInput())
	var ierr *InferenceError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected InferenceError, got %v", err)
	}
}

func TestInferMissingProbabilityIsConfigurationError(t *testing.T) {
	svc := newTestService(store.NewMemoryStore(0))
	bundle := testBundle("kolkata")
	bundle.Rain = model.NewThresholdClassifier([]float64{1, 1, 1, 1, 1, 1}, 0)

	_, err := svc.Infer(bundle, validInput())
	if !errors.Is(err, ErrMissingProbability) {
		t.Fatalf("expected ErrMissingProbability, got %v", err)
	}
	var ierr *InferenceError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected InferenceError wrapper, got %v", err)
	}
}

func TestPredictPersistsRecord(t *testing.T) {
	mem := store.NewMemoryStore(0)
	svc := newTestService(mem, testBundle("kolkata"))

	outcome, err := svc.Predict(context.Background(), "Kolkata", validInput())
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	if !outcome.Persisted || outcome.PersistErr != nil {
		t.Fatalf("expected persisted outcome, got %+v", outcome)
	}
	if outcome.ModelCity != "kolkata" || outcome.Substituted {
		t.Fatalf("expected exact kolkata model, got %+v", outcome)
	}
	if outcome.Record.ID == uuid.Nil {
		t.Fatal("record must carry the server-assigned ID")
	}

	records, err := mem.List(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.City != "Kolkata" {
		t.Fatalf("record must keep the raw city string, got %q", r.City)
	}
	if r.PredictedTemperature != outcome.Result.Temperature ||
		r.PredictedRain != outcome.Result.Rain ||
		r.RainProbability != outcome.Result.RainProbability {
		t.Fatalf("record does not match result: %+v vs %+v", r, outcome.Result)
	}
	if r.Humidity != 75 || r.Pressure != 1010 || r.WindSpeed != 15 || r.Clouds != 60 || r.Month != 7 || r.Day != 15 {
		t.Fatalf("record does not carry the originating input: %+v", r)
	}
}

func TestPredictSignalsSubstitution(t *testing.T) {
	svc := newTestService(store.NewMemoryStore(0), testBundle(model.DefaultKey))

	outcome, err := svc.Predict(context.Background(), "Osaka", validInput())
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if !outcome.Substituted || outcome.ModelCity != model.DefaultKey {
		t.Fatalf("expected default substitution, got %+v", outcome)
	}
}

func TestPredictNoModels(t *testing.T) {
	svc := newTestService(store.NewMemoryStore(0))

	_, err := svc.Predict(context.Background(), "Kolkata", validInput())
	if !errors.Is(err, model.ErrNoModelsAvailable) {
		t.Fatalf("expected ErrNoModelsAvailable, got %v", err)
	}
}

// failingStore simulates an unavailable persistence boundary.
type failingStore struct {
	store.MemoryStore
}

func (f *failingStore) Save(ctx context.Context, record *store.PredictionRecord) (uuid.UUID, error) {
	return uuid.Nil, store.ErrUnavailable
}

func TestPredictSurvivesPersistenceFailure(t *testing.T) {
	svc := NewService(model.NewRegistry(testBundle("kolkata")), &failingStore{}, nil, time.Second)

	outcome, err := svc.Predict(context.Background(), "Kolkata", validInput())
	if err != nil {
		t.Fatalf("persistence failure must not fail the prediction: %v", err)
	}
	if outcome.Persisted {
		t.Fatal("outcome must not claim persistence")
	}
	if !errors.Is(outcome.PersistErr, store.ErrUnavailable) {
		t.Fatalf("expected persistence error on outcome, got %v", outcome.PersistErr)
	}
	if outcome.Result.Rain != store.RainYes && outcome.Result.Rain != store.RainNo {
		t.Fatalf("result missing despite persistence failure: %+v", outcome)
	}
}
