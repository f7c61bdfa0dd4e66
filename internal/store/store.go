package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrUnavailable is returned when the backing store cannot be reached.
var ErrUnavailable = errors.New("prediction store unavailable")

// Rain labels as persisted and queried.
const (
	RainYes = "Yes"
	RainNo  = "No"
)

// PredictionRecord is one persisted prediction: the originating input, the
// raw (non-normalized) city string, the result, and a server-assigned
// identifier and timestamp. Records are never mutated after creation.
type PredictionRecord struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"` // always UTC
	City      string    `json:"city"`

	// Input features, in model order.
	Humidity  float64 `json:"humidity"`
	Pressure  float64 `json:"pressure"`
	WindSpeed float64 `json:"wind_speed"`
	Clouds    float64 `json:"clouds"`
	Month     int     `json:"month"`
	Day       int     `json:"day"`

	// Prediction outputs, stored at raw precision.
	PredictedTemperature float64 `json:"predicted_temperature"`
	PredictedRain        string  `json:"predicted_rain"`
	RainProbability      float64 `json:"rain_probability"`
}

// Stats summarizes the persisted prediction history.
type Stats struct {
	TotalPredictions   int64   `json:"total_predictions"`
	RainPredictions    int64   `json:"rain_predictions"`
	NoRainPredictions  int64   `json:"no_rain_predictions"`
	RainPercentage     float64 `json:"rain_percentage"`
	AverageTemperature float64 `json:"average_predicted_temperature"`
}

// Store is the contract the persistence boundary must satisfy. Implementations
// must be safe for concurrent use; every call honors the passed context's
// deadline.
type Store interface {
	// Save persists a record, assigning its ID and timestamp, and returns
	// the assigned ID.
	Save(ctx context.Context, record *PredictionRecord) (uuid.UUID, error)
	// List returns up to limit records ordered by descending timestamp.
	List(ctx context.Context, limit int) ([]PredictionRecord, error)
	Count(ctx context.Context) (int64, error)
	// CountByRain counts records with the given predicted_rain label.
	CountByRain(ctx context.Context, label string) (int64, error)
	Stats(ctx context.Context) (Stats, error)
	// DeleteAll removes every record and returns how many were removed.
	DeleteAll(ctx context.Context) (int64, error)
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
	Close() error
}
