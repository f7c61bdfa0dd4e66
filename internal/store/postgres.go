package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

const predictionsSchema = `
CREATE TABLE IF NOT EXISTS predictions (
    id UUID PRIMARY KEY,
    ts TIMESTAMPTZ NOT NULL,
    city TEXT NOT NULL DEFAULT '',
    humidity DOUBLE PRECISION NOT NULL,
    pressure DOUBLE PRECISION NOT NULL,
    wind_speed DOUBLE PRECISION NOT NULL,
    clouds DOUBLE PRECISION NOT NULL,
    month INTEGER NOT NULL,
    day INTEGER NOT NULL,
    predicted_temperature DOUBLE PRECISION NOT NULL,
    predicted_rain TEXT NOT NULL,
    rain_probability DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_predictions_ts ON predictions (ts DESC);
CREATE INDEX IF NOT EXISTS idx_predictions_rain ON predictions (predicted_rain);
`

// PostgresStore is a Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool against databaseURL, verifies
// connectivity and bootstraps the schema.
func NewPostgresStore(ctx context.Context, databaseURL string, maxConns int) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns / 2)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, predictionsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Save(ctx context.Context, record *PredictionRecord) (uuid.UUID, error) {
	record.ID = uuid.New()
	record.Timestamp = time.Now().UTC()

	query := `
        INSERT INTO predictions
            (id, ts, city, humidity, pressure, wind_speed, clouds, month, day,
             predicted_temperature, predicted_rain, rain_probability)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `

	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.Timestamp, record.City,
		record.Humidity, record.Pressure, record.WindSpeed, record.Clouds,
		record.Month, record.Day,
		record.PredictedTemperature, record.PredictedRain, record.RainProbability,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("save prediction: %w", err)
	}
	return record.ID, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]PredictionRecord, error) {
	query := `
        SELECT id, ts, city, humidity, pressure, wind_speed, clouds, month, day,
               predicted_temperature, predicted_rain, rain_probability
        FROM predictions
        ORDER BY ts DESC
        LIMIT $1
    `

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	var records []PredictionRecord
	for rows.Next() {
		var r PredictionRecord
		if err := rows.Scan(
			&r.ID, &r.Timestamp, &r.City,
			&r.Humidity, &r.Pressure, &r.WindSpeed, &r.Clouds, &r.Month, &r.Day,
			&r.PredictedTemperature, &r.PredictedRain, &r.RainProbability,
		); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM predictions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count predictions: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) CountByRain(ctx context.Context, label string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM predictions WHERE predicted_rain = $1`, label,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count predictions by rain: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	query := `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE predicted_rain = $1),
               COUNT(*) FILTER (WHERE predicted_rain = $2),
               COALESCE(AVG(predicted_temperature), 0)
        FROM predictions
    `

	var stats Stats
	err := s.db.QueryRowContext(ctx, query, RainYes, RainNo).Scan(
		&stats.TotalPredictions,
		&stats.RainPredictions,
		&stats.NoRainPredictions,
		&stats.AverageTemperature,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("prediction stats: %w", err)
	}

	if stats.TotalPredictions > 0 {
		stats.RainPercentage = float64(stats.RainPredictions) / float64(stats.TotalPredictions) * 100
	}
	return stats, nil
}

func (s *PostgresStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM predictions`)
	if err != nil {
		return 0, fmt.Errorf("delete predictions: %w", err)
	}
	return res.RowsAffected()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
