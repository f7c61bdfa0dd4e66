package httpapi

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-prediction-api/internal/meteo"
	"github.com/i474232898/weather-prediction-api/internal/model"
	"github.com/i474232898/weather-prediction-api/internal/predict"
	"github.com/i474232898/weather-prediction-api/internal/store"
)

const defaultHistoryLimit = 50

// WeatherLookup abstracts the third-party weather/AQI source so handlers can
// be tested without outbound calls.
type WeatherLookup interface {
	CurrentConditions(ctx context.Context, city string) (meteo.Conditions, error)
	AirQuality(ctx context.Context, city string) (meteo.AirQuality, error)
	DailyForecast(ctx context.Context, city string, days int) (meteo.Forecast, error)
}

// predictRequest is the POST /predict body: a feature vector plus an
// optional city selecting the model.
type predictRequest struct {
	predict.FeatureVector
	City string `json:"city"`
}

type predictResponse struct {
	PredictedTemperature float64 `json:"predicted_temperature"`
	PredictedRain        string  `json:"predicted_rain"`
	RainProbability      float64 `json:"rain_probability"`
	ModelCity            string  `json:"model_city"`
	Substituted          bool    `json:"substituted"`
	Persisted            bool    `json:"persisted"`
	Warning              string  `json:"warning,omitempty"`
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *predict.Service, lookup WeatherLookup) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Weather Prediction API",
			"status":  "running",
			"endpoints": fiber.Map{
				"predict": "/predict",
				"history": "/history",
				"stats":   "/stats",
				"health":  "/health",
			},
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		database := "connected"
		if err := service.PingStore(c.Context()); err != nil {
			database = "unavailable"
		}
		return c.JSON(fiber.Map{
			"status":           "healthy",
			"models_loaded":    true,
			"database":         database,
			"available_cities": service.Cities(),
		})
	})

	app.Post("/predict", func(c *fiber.Ctx) error {
		var req predictRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		outcome, err := service.Predict(c.Context(), req.City, req.FeatureVector)
		if err != nil {
			return mapPredictError(err)
		}

		resp := predictResponse{
			PredictedTemperature: round(outcome.Result.Temperature, 2),
			PredictedRain:        outcome.Result.Rain,
			RainProbability:      round(outcome.Result.RainProbability, 4),
			ModelCity:            outcome.ModelCity,
			Substituted:          outcome.Substituted,
			Persisted:            outcome.Persisted,
		}
		if outcome.PersistErr != nil {
			resp.Warning = "prediction computed but not recorded in history: " + outcome.PersistErr.Error()
		}
		return c.JSON(resp)
	})

	app.Get("/history", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", defaultHistoryLimit)
		if limit <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be a positive integer")
		}

		records, err := service.History(c.Context(), limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch prediction history")
		}
		if records == nil {
			records = []store.PredictionRecord{}
		}
		return c.JSON(records)
	})

	app.Get("/stats", func(c *fiber.Ctx) error {
		stats, err := service.Stats(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to compute statistics")
		}
		return c.JSON(fiber.Map{
			"total_predictions":             stats.TotalPredictions,
			"rain_predictions":              stats.RainPredictions,
			"no_rain_predictions":           stats.NoRainPredictions,
			"rain_percentage":               round(stats.RainPercentage, 2),
			"average_predicted_temperature": round(stats.AverageTemperature, 2),
		})
	})

	app.Delete("/history", func(c *fiber.Ctx) error {
		deleted, err := service.ClearHistory(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to clear history")
		}
		return c.JSON(fiber.Map{
			"message":         "history cleared",
			"records_deleted": deleted,
		})
	})

	app.Get("/weather/current", func(c *fiber.Ctx) error {
		city, err := requiredCity(c)
		if err != nil {
			return err
		}
		if lookup == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "weather lookups not configured")
		}

		cond, err := lookup.CurrentConditions(c.Context(), city)
		if err != nil {
			return mapLookupError(err)
		}
		return c.JSON(cond)
	})

	app.Get("/air-quality", func(c *fiber.Ctx) error {
		city, err := requiredCity(c)
		if err != nil {
			return err
		}
		if lookup == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "weather lookups not configured")
		}

		aq, err := lookup.AirQuality(c.Context(), city)
		if err != nil {
			return mapLookupError(err)
		}
		return c.JSON(aq)
	})

	app.Get("/weather/forecast/7days", func(c *fiber.Ctx) error {
		city, err := requiredCity(c)
		if err != nil {
			return err
		}
		if lookup == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "weather lookups not configured")
		}

		forecast, err := lookup.DailyForecast(c.Context(), city, 7)
		if err != nil {
			return mapLookupError(err)
		}
		return c.JSON(forecast)
	})
}

func requiredCity(c *fiber.Ctx) (string, error) {
	city := strings.TrimSpace(c.Query("city"))
	if city == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "city is required")
	}
	return city, nil
}

// mapPredictError translates pipeline failures to HTTP status codes:
// bad input is the caller's fault, a missing model is a 404-class condition,
// anything else is server-side.
func mapPredictError(err error) error {
	var verr *predict.ValidationError
	if errors.As(err, &verr) {
		return fiber.NewError(fiber.StatusBadRequest, verr.Error())
	}
	if errors.Is(err, model.ErrNoModelsAvailable) {
		return fiber.NewError(fiber.StatusNotFound, "no model available for prediction")
	}
	var ierr *predict.InferenceError
	if errors.As(err, &ierr) {
		return fiber.NewError(fiber.StatusInternalServerError, ierr.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, "prediction failed")
}

// mapLookupError translates third-party lookup failures; upstream errors are
// surfaced as 502.
func mapLookupError(err error) error {
	if errors.Is(err, meteo.ErrCityNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return fiber.NewError(fiber.StatusBadGateway, "weather lookup failed: "+err.Error())
}

func round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
