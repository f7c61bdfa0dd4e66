package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a concurrency-safe in-memory implementation of Store, used
// in tests and when no database is configured.
type MemoryStore struct {
	mu sync.RWMutex

	// records in insertion order (ascending timestamp)
	records []PredictionRecord

	// maxHistory caps the number of retained records (<= 0 = unlimited)
	maxHistory int
}

// NewMemoryStore creates a new MemoryStore with an optional record cap.
func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{maxHistory: maxHistory}
}

// Save assigns an ID and UTC timestamp, appends the record and enforces
// retention.
func (s *MemoryStore) Save(ctx context.Context, record *PredictionRecord) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	record.ID = uuid.New()
	record.Timestamp = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, *record)

	if s.maxHistory > 0 && len(s.records) > s.maxHistory {
		over := len(s.records) - s.maxHistory
		s.records = s.records[over:]
	}

	return record.ID, nil
}

// List returns up to limit records, newest first.
func (s *MemoryStore) List(ctx context.Context, limit int) ([]PredictionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.records)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]PredictionRecord, 0, n)
	for i := len(s.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

func (s *MemoryStore) CountByRain(ctx context.Context, label string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, r := range s.records {
		if r.PredictedRain == label {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{TotalPredictions: int64(len(s.records))}
	var tempSum float64
	for _, r := range s.records {
		if r.PredictedRain == RainYes {
			stats.RainPredictions++
		} else {
			stats.NoRainPredictions++
		}
		tempSum += r.PredictedTemperature
	}

	if stats.TotalPredictions > 0 {
		stats.RainPercentage = float64(stats.RainPredictions) / float64(stats.TotalPredictions) * 100
		stats.AverageTemperature = tempSum / float64(stats.TotalPredictions)
	}
	return stats, nil
}

func (s *MemoryStore) DeleteAll(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := int64(len(s.records))
	s.records = nil
	return deleted, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() error {
	return nil
}
