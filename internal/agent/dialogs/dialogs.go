// Package dialogs holds Ivy's concrete waterfalls: the main menu, weather,
// news, jokes and the location slot-filling family.
package dialogs

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/ivy-assistant/server/internal/agent/cards"
	"github.com/ivy-assistant/server/internal/agent/dialog"
	"github.com/ivy-assistant/server/internal/agent/model"
	"github.com/ivy-assistant/server/internal/agent/nlu"
	"github.com/ivy-assistant/server/internal/agent/providers"
	"github.com/ivy-assistant/server/internal/agent/router"
	logx "github.com/ivy-assistant/server/pkg/logger"
)

// Deps are the collaborators the dialogs call out to.
type Deps struct {
	Classifier nlu.Classifier
	Geocoder   providers.Geocoder
	Weather    providers.WeatherProvider
	News       providers.NewsProvider
	// Locator resolves a shared device position. Nil disables it.
	Locator   providers.ReverseGeocoder
	Forecasts cards.Forecasts
	// Now defaults to time.Now.
	Now func() time.Time
	// Pick returns a number in [0,n). Defaults to rand.IntN.
	Pick func(n int) int
}

// Set builds the dialog definitions over a shared Deps.
type Set struct {
	deps Deps
}

func New(deps Deps) *Set {
	if deps.Classifier == nil {
		deps.Classifier = nlu.Unconfigured{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Pick == nil {
		deps.Pick = rand.IntN
	}
	return &Set{deps: deps}
}

// Definitions lists every dialog for the registry.
func (s *Set) Definitions() []dialog.Definition {
	return []dialog.Definition{
		s.mainMenu(),
		s.weather(),
		s.news(),
		s.joke(),
		s.location(model.DialogLocation, homeLocationFlow),
		s.location(model.DialogWeatherLocale, weatherLocaleFlow),
		s.location(model.DialogNewsLocale, newsLocaleFlow),
	}
}

// Registry is a convenience for callers that need nothing else.
func (s *Set) Registry() (*dialog.Registry, error) {
	return dialog.NewRegistry(s.Definitions()...)
}

// routeUtterance classifies text and asks the router for the next move. A
// classifier that is unconfigured or failing degrades to the menu instead of
// failing the turn.
func (s *Set) routeUtterance(sc *dialog.StepContext, text string) (router.Decision, *model.Recognition, error) {
	rc := router.Context{Current: sc.Frame.DialogID, Utterance: text, ClassifierAvailable: true}

	rec, err := s.deps.Classifier.Classify(sc.Ctx, text)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || !nlu.Unavailable(err) {
			return router.Decision{}, nil, err
		}
		logx.Warn().Err(err).Str("dialog", string(sc.Frame.DialogID)).Msg("classifier unavailable, falling back to menu")
		rc.ClassifierAvailable = false
		return router.Route("", nil, rc), nil, nil
	}

	dec := router.Route(rec.TopIntent, rec.Entities, rc)
	logx.Debug().
		Str("dialog", string(sc.Frame.DialogID)).
		Str("intent", rec.TopIntent).
		Float64("score", rec.Score).
		Stringer("decision", dec.Kind).
		Str("target", string(dec.Dialog)).
		Msg("routed utterance")
	return dec, rec, nil
}

// apply turns a routing decision into a step result. stay runs for EmitAndStay
// after the canned message is queued.
func apply(sc *dialog.StepContext, dec router.Decision, stay func() dialog.StepResult) dialog.StepResult {
	switch dec.Kind {
	case router.Push:
		return dialog.Push(dec.Dialog, dec.Args)
	case router.Replace:
		return dialog.Replace(dec.Dialog, dec.Args)
	default:
		if dec.Message != "" {
			sc.Turn.Say(dec.Message)
		}
		return stay()
	}
}

// restart sends text and unwinds to a fresh main menu.
func restart(sc *dialog.StepContext, text ...string) dialog.StepResult {
	for _, t := range text {
		sc.Turn.Say(t)
	}
	return dialog.Replace(model.RootDialog, nil)
}

// saveLocation persists a sub-dialog result into the profile.
func saveLocation(sc *dialog.StepContext, v any) {
	res, ok := v.(model.LocationResult)
	if !ok {
		return
	}
	if res.Apply(sc.Turn.Profile) {
		sc.Turn.ProfileChanged()
	}
}

// positionLocation resolves the position shared with the turn, if any. Lookup
// failures are logged and reported as not found so callers fall back to prompting.
func (s *Set) positionLocation(sc *dialog.StepContext) (model.LocationResult, bool, error) {
	pos := sc.Turn.Input.Position
	if s.deps.Locator == nil || pos == nil {
		return model.LocationResult{}, false, nil
	}

	place, err := s.deps.Locator.Reverse(sc.Ctx, providers.Coordinates{Lat: pos.Lat, Lon: pos.Lon})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return model.LocationResult{}, false, err
		}
		logx.Warn().Err(err).Str("dialog", string(sc.Frame.DialogID)).Msg("could not resolve shared position")
		return model.LocationResult{}, false, nil
	}
	code, ok := providers.LookupCountry(place.CountryCode)
	if !ok {
		return model.LocationResult{}, false, nil
	}
	return model.LocationResult{CountryCode: code, City: normalizeCity(place.Municipality)}, true, nil
}

func profileLocation(p *model.UserProfile) model.LocationResult {
	return model.LocationResult{CountryCode: p.Location.CountryCode, City: p.Location.City}
}
