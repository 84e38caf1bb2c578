package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ivy-assistant/server/internal/agent/fetch"
	"github.com/ivy-assistant/server/internal/agent/model"
	errx "github.com/ivy-assistant/server/internal/core/error"
	logx "github.com/ivy-assistant/server/pkg/logger"
)

const (
	searchAddressPath = "/search/address/json"
	reverseSearchPath = "/search/address/reverse/json"
	currentPath       = "/weather/currentConditions/json"
	quarterDayPath    = "/weather/forecast/quarterDay/json"
	dailyPath         = "/weather/forecast/daily/json"
)

// Measure is a value with its unit.
type Measure struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Range is a minimum and maximum measure.
type Range struct {
	Minimum Measure `json:"minimum"`
	Maximum Measure `json:"maximum"`
}

// CurrentConditions is the first result of the current conditions endpoint.
type CurrentConditions struct {
	DateTime    string  `json:"dateTime"`
	Phrase      string  `json:"phrase"`
	IconCode    int     `json:"iconCode"`
	Temperature Measure `json:"temperature"`
}

// QuarterForecast is one six hour slot. Quarter 0 is the morning.
type QuarterForecast struct {
	Date        string  `json:"date"`
	Quarter     int     `json:"quarter"`
	IconCode    int     `json:"iconCode"`
	IconPhrase  string  `json:"iconPhrase"`
	Phrase      string  `json:"phrase"`
	Temperature Range   `json:"temperature"`
	DewPoint    Measure `json:"dewPoint"`
}

// DayPart is the day or night half of a daily forecast.
type DayPart struct {
	IconCode    int    `json:"iconCode"`
	IconPhrase  string `json:"iconPhrase"`
	ShortPhrase string `json:"shortPhrase"`
}

// DailyForecast is one day of the daily endpoint.
type DailyForecast struct {
	Date        string  `json:"date"`
	Temperature Range   `json:"temperature"`
	Day         DayPart `json:"day"`
	Night       DayPart `json:"night"`
}

// AzureMaps implements Geocoder, ReverseGeocoder and WeatherProvider.
type AzureMaps struct {
	fetcher  fetch.Fetcher
	baseURL  string
	key      string
	language string
}

func NewAzureMaps(fetcher fetch.Fetcher, cfg model.WeatherConfig) *AzureMaps {
	return &AzureMaps{
		fetcher:  fetcher,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		key:      cfg.SubscriptionKey,
		language: cfg.Language,
	}
}

func (a *AzureMaps) request(path string, q url.Values, emptyField string) (fetch.Request, error) {
	if a.key == "" {
		return fetch.Request{}, errx.Missing("weather subscription key")
	}
	q.Set("api-version", "1.0")
	q.Set("subscription-key", a.key)
	if a.language != "" {
		q.Set("language", a.language)
	}
	return fetch.Request{BaseURL: a.baseURL + path, Query: q, Empty: fetch.ItemsEmpty(emptyField)}, nil
}

// Geocode returns the matches for city, optionally restricted to a country.
// An empty match list is a Validation error so callers can re-prompt.
func (a *AzureMaps) Geocode(ctx context.Context, city, countryCode string) ([]Place, error) {
	q := url.Values{"query": {city}, "limit": {"5"}}
	if countryCode != "" {
		q.Set("countrySet", countryCode)
	}
	req, err := a.request(searchAddressPath, q, "results")
	if err != nil {
		return nil, err
	}

	res := a.fetcher.Fetch(ctx, req)
	if err := outcome(res, "geocode "+city, errx.Validation); err != nil {
		return nil, err
	}

	var body struct {
		Results []struct {
			Position Coordinates `json:"position"`
			Address  struct {
				Municipality string `json:"municipality"`
				CountryCode  string `json:"countryCode"`
			} `json:"address"`
		} `json:"results"`
	}
	if err := res.Decode(&body); err != nil {
		return nil, errx.Unavailable(fmt.Errorf("decode geocode: %w", err))
	}

	places := make([]Place, 0, len(body.Results))
	for _, r := range body.Results {
		places = append(places, Place{Position: r.Position, Municipality: r.Address.Municipality, CountryCode: r.Address.CountryCode})
	}
	logx.Debug().Str("city", city).Str("country", countryCode).Int("matches", len(places)).Msg("geocoded city")
	return places, nil
}

// Reverse returns the address closest to at. No address is a Validation error.
func (a *AzureMaps) Reverse(ctx context.Context, at Coordinates) (*Place, error) {
	req, err := a.request(reverseSearchPath, url.Values{"query": {at.Query()}, "number": {"1"}}, "addresses")
	if err != nil {
		return nil, err
	}

	res := a.fetcher.Fetch(ctx, req)
	if err := outcome(res, "reverse geocode "+at.Query(), errx.Validation); err != nil {
		return nil, err
	}

	var body struct {
		Addresses []struct {
			Address struct {
				Municipality string `json:"municipality"`
				CountryCode  string `json:"countryCode"`
			} `json:"address"`
		} `json:"addresses"`
	}
	if err := res.Decode(&body); err != nil {
		return nil, errx.Unavailable(fmt.Errorf("decode reverse geocode: %w", err))
	}
	if len(body.Addresses) == 0 {
		return nil, errx.Validation(fmt.Errorf("reverse geocode %s: %w", at.Query(), ErrNoResults))
	}

	addr := body.Addresses[0].Address
	logx.Debug().Str("position", at.Query()).Str("city", addr.Municipality).Str("country", addr.CountryCode).Msg("reverse geocoded position")
	return &Place{Position: at, Municipality: addr.Municipality, CountryCode: addr.CountryCode}, nil
}

func (a *AzureMaps) Current(ctx context.Context, at Coordinates) (*CurrentConditions, error) {
	req, err := a.request(currentPath, url.Values{"query": {at.Query()}, "unit": {"metric"}}, "results")
	if err != nil {
		return nil, err
	}
	res := a.fetcher.Fetch(ctx, req)
	if err := outcome(res, "current conditions", errx.Unavailable); err != nil {
		return nil, err
	}

	var body struct {
		Results []CurrentConditions `json:"results"`
	}
	if err := res.Decode(&body); err != nil {
		return nil, errx.Unavailable(fmt.Errorf("decode current conditions: %w", err))
	}
	return &body.Results[0], nil
}

// QuarterDay returns four slots per day for the requested number of days.
func (a *AzureMaps) QuarterDay(ctx context.Context, at Coordinates, days int) ([]QuarterForecast, error) {
	var body struct {
		Forecasts []QuarterForecast `json:"forecasts"`
	}
	if err := a.forecast(ctx, quarterDayPath, at, days, &body); err != nil {
		return nil, err
	}
	return body.Forecasts, nil
}

func (a *AzureMaps) Daily(ctx context.Context, at Coordinates, days int) ([]DailyForecast, error) {
	var body struct {
		Forecasts []DailyForecast `json:"forecasts"`
	}
	if err := a.forecast(ctx, dailyPath, at, days, &body); err != nil {
		return nil, err
	}
	return body.Forecasts, nil
}

func (a *AzureMaps) forecast(ctx context.Context, path string, at Coordinates, days int, into any) error {
	q := url.Values{"query": {at.Query()}, "unit": {"metric"}}
	if days > 0 {
		q.Set("duration", strconv.Itoa(days))
	}
	req, err := a.request(path, q, "forecasts")
	if err != nil {
		return err
	}
	res := a.fetcher.Fetch(ctx, req)
	if err := outcome(res, strings.TrimPrefix(path, "/weather/"), errx.Unavailable); err != nil {
		return err
	}
	if err := res.Decode(into); err != nil {
		return errx.Unavailable(fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}
