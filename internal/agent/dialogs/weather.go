package dialogs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivy-assistant/server/internal/agent/cards"
	"github.com/ivy-assistant/server/internal/agent/dialog"
	"github.com/ivy-assistant/server/internal/agent/model"
	"github.com/ivy-assistant/server/internal/agent/providers"
	errx "github.com/ivy-assistant/server/internal/core/error"
	logx "github.com/ivy-assistant/server/pkg/logger"
)

const (
	weatherIntro       = "Okay, here's the weather you can expect:"
	weatherUnavailable = "It looks like the Weather service is not responding at the moment."
	weatherRetryLater  = "Please check your Internet connection and try again later."
	notUnderstood      = "Sorry, I didn't get that. Please try asking in a different way."

	dayToday    = "today"
	dayTomorrow = "tomorrow"

	// tomorrowDays is the forecast window requested for tomorrow's card.
	tomorrowDays = 5
)

type weatherArgs struct {
	Entities map[string][]string `mapstructure:"entities"`
}

// knownLocation is handed from the first weather step when no prompting was
// needed. Unlike a popped LocationResult it is not written to the profile.
type knownLocation struct {
	model.LocationResult
}

// weather resolves a location, fetches the forecast and pops with follow-ups.
func (s *Set) weather() dialog.Definition {
	return dialog.Definition{
		ID: model.DialogWeather,
		Steps: []dialog.Step{
			s.weatherLocation,
			s.weatherForecast,
		},
	}
}

func (s *Set) weatherLocation(sc *dialog.StepContext) (dialog.StepResult, error) {
	var args weatherArgs
	if err := sc.Args(&args); err != nil {
		return dialog.StepResult{}, fmt.Errorf("decode weather args: %w", err)
	}
	entities := model.Entities(args.Entities)

	day, ok := forecastDay(entities, s.deps.Now())
	if !ok {
		return restart(sc, notUnderstood), nil
	}
	sc.SetLocal("day", day)

	profile := sc.Turn.Profile.Location
	if profile.City != "" {
		return dialog.Next(knownLocation{model.LocationResult{CountryCode: profile.CountryCode, City: profile.City}}), nil
	}
	if city, ok := entities.First("city"); ok {
		loc := model.LocationResult{CountryCode: profile.CountryCode, City: normalizeCity(city)}
		if country, ok := entities.First("country"); ok {
			if code, ok := providers.LookupCountry(country); ok {
				loc.CountryCode = code
			}
		}
		return dialog.Next(knownLocation{loc}), nil
	}
	loc, ok, err := s.positionLocation(sc)
	if err != nil {
		return dialog.StepResult{}, err
	}
	if ok && loc.City != "" {
		return dialog.Next(loc), nil
	}
	return dialog.Push(model.DialogWeatherLocale, nil), nil
}

func (s *Set) weatherForecast(sc *dialog.StepContext) (dialog.StepResult, error) {
	var loc model.LocationResult
	switch v := sc.Value.(type) {
	case knownLocation:
		loc = v.LocationResult
	case model.LocationResult:
		saveLocation(sc, v)
		loc = profileLocation(sc.Turn.Profile)
	default:
		loc = profileLocation(sc.Turn.Profile)
	}
	if loc.City == "" {
		return restart(sc, notUnderstood), nil
	}

	places, err := s.deps.Geocoder.Geocode(sc.Ctx, loc.City, loc.CountryCode)
	if err == nil && len(places) == 0 {
		err = errx.Validation(providers.ErrNoResults)
	}
	if err != nil {
		if errx.IsKind(err, errx.KindValidation) {
			return restart(sc, fmt.Sprintf("Sorry, I couldn't find %s. Please try asking in a different way.", loc.City)), nil
		}
		return s.weatherFailed(sc, err)
	}
	at := places[0].Position

	var card model.Message
	switch sc.LocalString("day") {
	case dayTomorrow:
		card, err = s.tomorrowCard(sc.Ctx, loc.City, at)
	default:
		card, err = s.todayCard(sc.Ctx, loc.City, at)
	}
	if err != nil {
		return s.weatherFailed(sc, err)
	}

	sc.Turn.Say(weatherIntro)
	sc.Turn.Send(card)
	return dialog.Pop(cards.WeatherFollowUps()), nil
}

func (s *Set) todayCard(ctx context.Context, city string, at providers.Coordinates) (model.Message, error) {
	var (
		current  *providers.CurrentConditions
		quarters []providers.QuarterForecast
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.deps.Weather.Current(gctx, at)
		return err
	})
	g.Go(func() error {
		var err error
		quarters, err = s.deps.Weather.QuarterDay(gctx, at, 1)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Message{}, err
	}
	return s.deps.Forecasts.Current(city, *current, quarters), nil
}

func (s *Set) tomorrowCard(ctx context.Context, city string, at providers.Coordinates) (model.Message, error) {
	var (
		daily    []providers.DailyForecast
		quarters []providers.QuarterForecast
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		daily, err = s.deps.Weather.Daily(gctx, at, tomorrowDays)
		return err
	})
	g.Go(func() error {
		var err error
		quarters, err = s.deps.Weather.QuarterDay(gctx, at, tomorrowDays)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Message{}, err
	}
	if len(daily) < 2 {
		return model.Message{}, errx.Unavailable(fmt.Errorf("daily forecast has %d days: %w", len(daily), providers.ErrNoResults))
	}
	return s.deps.Forecasts.Tomorrow(city, daily[1], quarters), nil
}

// weatherFailed apologises for provider failures and unwinds to the menu.
// Cancellation is handed back so the turn is abandoned unsaved.
func (s *Set) weatherFailed(sc *dialog.StepContext, err error) (dialog.StepResult, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return dialog.StepResult{}, err
	}
	logx.Warn().Err(err).Str("dialog", string(model.DialogWeather)).Str("kind", string(errx.KindOf(err))).Msg("weather lookup failed")
	return restart(sc, weatherUnavailable, weatherRetryLater), nil
}

// forecastDay maps the datetime entity onto today or tomorrow. Ranges and
// other dates are not supported.
func forecastDay(entities model.Entities, now time.Time) (string, bool) {
	raw, ok := entities.First("datetime")
	if !ok {
		return dayToday, true
	}
	switch v := strings.ToLower(raw); v {
	case dayToday, "now", "tonight":
		return dayToday, true
	case dayTomorrow:
		return dayTomorrow, true
	case "daterange":
		return "", false
	default:
		date, err := time.ParseInLocation("2006-01-02", v, now.Location())
		if err != nil {
			return "", false
		}
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		switch {
		case date.Equal(today):
			return dayToday, true
		case date.Equal(today.AddDate(0, 0, 1)):
			return dayTomorrow, true
		}
		return "", false
	}
}
