package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-prediction-api/internal/predict"
)

// Scheduler periodically fetches current conditions for the tracked cities
// and runs them through the prediction pipeline.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *predict.Service
	cities    []string
	interval  time.Duration
}

// New creates a new Scheduler.
func New(cities []string, interval time.Duration, service *predict.Service) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		cities:    cities,
		interval:  interval,
	}
}

// Start schedules the periodic auto-predict job and starts the underlying
// scheduler. Job failures are logged, never fatal.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		log.Println("scheduler: no tracked cities configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 30
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("scheduler: running auto-predict job")

		var wg sync.WaitGroup
		for _, city := range s.cities {
			city := city
			wg.Add(1)
			go func() {
				defer wg.Done()

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				outcome, err := s.service.PredictFromCurrent(ctx, city)
				if err != nil {
					log.Printf("scheduler: auto-predict failed for %q: %v", city, err)
					return
				}
				if !outcome.Persisted {
					log.Printf("scheduler: prediction for %q computed but not persisted: %v", city, outcome.PersistErr)
				}
			}()
		}
		wg.Wait()
		log.Println("scheduler: completed auto-predict job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
