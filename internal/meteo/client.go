package meteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

const sourceName = "open-meteo"

// Client talks to the keyless Open-Meteo APIs: geocoding, current weather,
// air quality and daily forecasts. Each upstream endpoint gets its own
// circuit breaker so a failing API does not open the circuit for the others.
type Client struct {
	client  *http.Client
	backoff BackoffConfig

	geocodeURL  string
	forecastURL string
	airURL      string

	geocodeCB  *gobreaker.CircuitBreaker
	forecastCB *gobreaker.CircuitBreaker
	airCB      *gobreaker.CircuitBreaker
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// NewClient creates a Client using the shared outbound HTTP client.
func NewClient(client *http.Client) *Client {
	return &Client{
		client: client,
		backoff: BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		geocodeURL:  "https://geocoding-api.open-meteo.com/v1/search",
		forecastURL: "https://api.open-meteo.com/v1/forecast",
		airURL:      "https://air-quality-api.open-meteo.com/v1/air-quality",
		geocodeCB:   newBreaker("openmeteo-geocoding"),
		forecastCB:  newBreaker("openmeteo-forecast"),
		airCB:       newBreaker("openmeteo-airquality"),
	}
}

func (c *Client) getJSON(ctx context.Context, cb *gobreaker.CircuitBreaker, rawURL string, out interface{}) error {
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, rawURL, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.client, c.backoff, cb, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(out)
}

// Geocode resolves a city name to coordinates. Returns ErrCityNotFound when
// the upstream has no match.
func (c *Client) Geocode(ctx context.Context, city string) (Geo, error) {
	values := url.Values{}
	values.Set("name", strings.TrimSpace(city))
	values.Set("count", "1")
	values.Set("language", "en")
	values.Set("format", "json")

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Country   string  `json:"country"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}

	u := fmt.Sprintf("%s?%s", c.geocodeURL, values.Encode())
	if err := c.getJSON(ctx, c.geocodeCB, u, &payload); err != nil {
		return Geo{}, err
	}

	if len(payload.Results) == 0 {
		return Geo{}, fmt.Errorf("%w: %s", ErrCityNotFound, city)
	}

	first := payload.Results[0]
	name := first.Name
	if name == "" {
		name = city
	}
	return Geo{
		Name:      name,
		Country:   first.Country,
		Latitude:  first.Latitude,
		Longitude: first.Longitude,
	}, nil
}

// CurrentConditions geocodes the city and fetches a current-weather reading
// shaped for the prediction feature vector.
func (c *Client) CurrentConditions(ctx context.Context, city string) (Conditions, error) {
	geo, err := c.Geocode(ctx, city)
	if err != nil {
		return Conditions{}, err
	}

	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", geo.Latitude))
	values.Set("longitude", fmt.Sprintf("%f", geo.Longitude))
	values.Set("current", strings.Join([]string{
		"temperature_2m",
		"relative_humidity_2m",
		"pressure_msl",
		"cloud_cover",
		"wind_speed_10m",
		"rain",
	}, ","))
	values.Set("timezone", "UTC")

	var payload struct {
		Current struct {
			Temperature float64 `json:"temperature_2m"`
			Humidity    float64 `json:"relative_humidity_2m"`
			Pressure    float64 `json:"pressure_msl"`
			Clouds      float64 `json:"cloud_cover"`
			WindSpeed   float64 `json:"wind_speed_10m"`
			Rain        float64 `json:"rain"`
		} `json:"current"`
	}

	u := fmt.Sprintf("%s?%s", c.forecastURL, values.Encode())
	if err := c.getJSON(ctx, c.forecastCB, u, &payload); err != nil {
		return Conditions{}, err
	}

	now := time.Now().UTC()

	return Conditions{
		City:        geo.Name,
		Country:     geo.Country,
		Latitude:    geo.Latitude,
		Longitude:   geo.Longitude,
		Temperature: payload.Current.Temperature,
		RainMM:      payload.Current.Rain,
		Humidity:    payload.Current.Humidity,
		Pressure:    payload.Current.Pressure,
		WindSpeed:   payload.Current.WindSpeed,
		Clouds:      payload.Current.Clouds,
		Month:       int(now.Month()),
		Day:         now.Day(),
		Source:      sourceName,
		Timestamp:   now,
	}, nil
}

// AirQuality returns the latest US AQI reading with PM2.5/PM10 detail.
func (c *Client) AirQuality(ctx context.Context, city string) (AirQuality, error) {
	geo, err := c.Geocode(ctx, city)
	if err != nil {
		return AirQuality{}, err
	}

	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", geo.Latitude))
	values.Set("longitude", fmt.Sprintf("%f", geo.Longitude))
	values.Set("hourly", "us_aqi,pm2_5,pm10")
	values.Set("timezone", "auto")

	var payload struct {
		Hourly struct {
			USAQI []float64  `json:"us_aqi"`
			PM25  []*float64 `json:"pm2_5"`
			PM10  []*float64 `json:"pm10"`
		} `json:"hourly"`
	}

	u := fmt.Sprintf("%s?%s", c.airURL, values.Encode())
	if err := c.getJSON(ctx, c.airCB, u, &payload); err != nil {
		return AirQuality{}, err
	}

	if len(payload.Hourly.USAQI) == 0 {
		return AirQuality{}, fmt.Errorf("%w: no AQI data for %s", ErrCityNotFound, city)
	}

	aqi := payload.Hourly.USAQI[len(payload.Hourly.USAQI)-1]

	out := AirQuality{
		City:     geo.Name,
		AQI:      aqi,
		Category: AQICategory(aqi),
		Source:   sourceName,
	}
	if n := len(payload.Hourly.PM25); n > 0 {
		out.PM25 = payload.Hourly.PM25[n-1]
	}
	if n := len(payload.Hourly.PM10); n > 0 {
		out.PM10 = payload.Hourly.PM10[n-1]
	}
	return out, nil
}

// DailyForecast returns up to days daily entries with max/min temperature
// and rain probability.
func (c *Client) DailyForecast(ctx context.Context, city string, days int) (Forecast, error) {
	geo, err := c.Geocode(ctx, city)
	if err != nil {
		return Forecast{}, err
	}

	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", geo.Latitude))
	values.Set("longitude", fmt.Sprintf("%f", geo.Longitude))
	values.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_probability_max")
	values.Set("timezone", "auto")

	var payload struct {
		Daily struct {
			Time     []string  `json:"time"`
			TempMax  []float64 `json:"temperature_2m_max"`
			TempMin  []float64 `json:"temperature_2m_min"`
			RainProb []float64 `json:"precipitation_probability_max"`
		} `json:"daily"`
	}

	u := fmt.Sprintf("%s?%s", c.forecastURL, values.Encode())
	if err := c.getJSON(ctx, c.forecastCB, u, &payload); err != nil {
		return Forecast{}, err
	}

	forecast := Forecast{City: geo.Name}
	for i := range payload.Daily.Time {
		if i >= days || i >= len(payload.Daily.TempMax) ||
			i >= len(payload.Daily.TempMin) || i >= len(payload.Daily.RainProb) {
			break
		}
		forecast.Days = append(forecast.Days, ForecastDay{
			Date:            payload.Daily.Time[i],
			TempMax:         payload.Daily.TempMax[i],
			TempMin:         payload.Daily.TempMin[i],
			RainProbability: payload.Daily.RainProb[i],
		})
	}

	if len(forecast.Days) == 0 {
		return Forecast{}, fmt.Errorf("%w: no forecast data for %s", ErrCityNotFound, city)
	}
	return forecast, nil
}
