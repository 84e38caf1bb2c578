// Package providers wraps the weather, geocoding and news HTTP APIs on top of
// the retrying fetch client and decodes their payloads into small typed values.
package providers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ivy-assistant/server/internal/agent/fetch"
	errx "github.com/ivy-assistant/server/internal/core/error"
)

// ErrNoResults is wrapped by every error caused by an empty provider response.
var ErrNoResults = errors.New("provider returned no results")

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Query renders the "lat,lon" form the weather endpoints expect.
func (c Coordinates) Query() string {
	return strconv.FormatFloat(c.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(c.Lon, 'f', 6, 64)
}

// Place is one geocoding match.
type Place struct {
	Position     Coordinates
	Municipality string
	CountryCode  string
}

// Geocoder resolves a city name to candidate places.
type Geocoder interface {
	Geocode(ctx context.Context, city, countryCode string) ([]Place, error)
}

// ReverseGeocoder resolves a position to the nearest address.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, at Coordinates) (*Place, error)
}

// WeatherProvider serves the three forecast views the weather dialog renders.
type WeatherProvider interface {
	Current(ctx context.Context, at Coordinates) (*CurrentConditions, error)
	QuarterDay(ctx context.Context, at Coordinates, days int) ([]QuarterForecast, error)
	Daily(ctx context.Context, at Coordinates, days int) ([]DailyForecast, error)
}

// NewsProvider searches recent articles for a market.
type NewsProvider interface {
	Search(ctx context.Context, query, market string) ([]Article, error)
}

// outcome maps a fetch result to the error taxonomy: empty responses become
// emptyKind errors wrapping ErrNoResults, failures become ProviderUnavailable.
func outcome(res fetch.Result, what string, empty func(error) *errx.AppError) error {
	if res.OK() {
		return nil
	}
	if res.Kind == fetch.EmptyResult {
		return empty(fmt.Errorf("%s: %w", what, ErrNoResults))
	}
	return errx.Unavailable(fmt.Errorf("%s: %s", what, res.Detail))
}
