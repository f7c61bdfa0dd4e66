package meteo

import (
	"errors"
	"time"
)

// ErrCityNotFound is returned when the geocoding lookup has no result for
// the requested city.
var ErrCityNotFound = errors.New("city not found")

// Geo is a geocoded city location.
type Geo struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Conditions is a current-weather lookup shaped to be compatible with the
// prediction feature vector (humidity, pressure, wind_speed, clouds, month,
// day), plus informational fields.
type Conditions struct {
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Temperature float64   `json:"temperature"`
	RainMM      float64   `json:"rain_mm"`
	Humidity    float64   `json:"humidity"`
	Pressure    float64   `json:"pressure"`
	WindSpeed   float64   `json:"wind_speed"`
	Clouds      float64   `json:"clouds"`
	Month       int       `json:"month"`
	Day         int       `json:"day"`
	Source      string    `json:"source"`
	Timestamp   time.Time `json:"timestamp"`
}

// AirQuality is the latest air-quality reading for a city.
type AirQuality struct {
	City     string   `json:"city"`
	AQI      float64  `json:"aqi"`
	Category string   `json:"category"`
	PM25     *float64 `json:"pm25"`
	PM10     *float64 `json:"pm10"`
	Source   string   `json:"source"`
}

// ForecastDay is one day of the daily forecast.
type ForecastDay struct {
	Date            string  `json:"date"`
	TempMax         float64 `json:"temp_max"`
	TempMin         float64 `json:"temp_min"`
	RainProbability float64 `json:"rain_probability"`
}

// Forecast is a multi-day forecast for a city.
type Forecast struct {
	City string        `json:"city"`
	Days []ForecastDay `json:"forecast"`
}

// AQICategory maps a US AQI value to its category band.
func AQICategory(aqi float64) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}
