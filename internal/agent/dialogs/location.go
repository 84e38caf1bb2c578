package dialogs

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ivy-assistant/server/internal/agent/dialog"
	"github.com/ivy-assistant/server/internal/agent/model"
	"github.com/ivy-assistant/server/internal/agent/providers"
	errx "github.com/ivy-assistant/server/internal/core/error"
	logx "github.com/ivy-assistant/server/pkg/logger"
)

// Slot phases kept in the frame's Local["phase"].
const (
	PhaseMissingCountry   = "missing_country"
	PhasePromptingCountry = "prompting_country"
	PhaseMissingCity      = "missing_city"
	PhasePromptingCity    = "prompting_city"
	PhaseResolved         = "resolved"
)

const (
	localPhase   = "phase"
	localCountry = "country"
	localCity    = "city"
)

const (
	countryPrompt   = "Please share your country."
	countryReprompt = `Sorry, I don't know that country. Please try a country name like "Belgium" or a code like "BE".`
	cityPrompt      = "Sure, what city is the weather forecast for?"
	cityReprompt    = `Sorry, I didn't catch that. Please try saying something like "What's the weather in Brussels?"`

	homeCityPrompt      = "Which city do you live in?"
	homeCityReprompt    = `Sorry, I don't know that city. Please try a city name like "Brussels".`
	locationUnavailable = "It looks like the Location service is not responding at the moment."
)

// locationFlow configures one member of the location family.
type locationFlow struct {
	// askCountry prompts even when the profile already has a country.
	askCountry bool
	needCity   bool

	cityPrompt   string
	cityReprompt string
	// unavailable is sent before restarting when geocoding fails.
	unavailable []string
}

var (
	weatherLocaleFlow = locationFlow{
		needCity:     true,
		cityPrompt:   cityPrompt,
		cityReprompt: cityReprompt,
		unavailable:  []string{weatherUnavailable, weatherRetryLater},
	}
	homeLocationFlow = locationFlow{
		askCountry:   true,
		needCity:     true,
		cityPrompt:   homeCityPrompt,
		cityReprompt: homeCityReprompt,
		unavailable:  []string{locationUnavailable, weatherRetryLater},
	}
	newsLocaleFlow = locationFlow{}
)

// location fills the country and city slots one prompt at a time and pops a
// model.LocationResult. Invalid answers re-prompt without advancing.
func (s *Set) location(id model.DialogID, flow locationFlow) dialog.Definition {
	return dialog.Definition{
		ID:    id,
		Steps: []dialog.Step{s.locationStep(flow)},
	}
}

func (s *Set) locationStep(flow locationFlow) dialog.Step {
	return func(sc *dialog.StepContext) (dialog.StepResult, error) {
		phase := sc.LocalString(localPhase)
		if phase == "" {
			phase = PhaseMissingCountry
		}
		// A prompting phase without an answer means the prompt was lost; ask again.
		if !sc.Resumed {
			switch phase {
			case PhasePromptingCountry:
				phase = PhaseMissingCountry
			case PhasePromptingCity:
				phase = PhaseMissingCity
			}
		}

		for {
			switch phase {
			case PhaseMissingCountry:
				if known := sc.Turn.Profile.Location.CountryCode; known != "" && !flow.askCountry {
					sc.SetLocal(localCountry, known)
					phase = afterCountry(flow)
					continue
				}
				sc.Turn.Say(countryPrompt)
				sc.SetLocal(localPhase, PhasePromptingCountry)
				return dialog.Suspend(model.PromptCountry), nil

			case PhasePromptingCountry:
				code, err := s.captureCountry(sc, sc.Input)
				if err != nil {
					return dialog.StepResult{}, err
				}
				if code == "" {
					sc.Turn.Say(countryReprompt)
					return dialog.Suspend(model.PromptCountry), nil
				}
				sc.SetLocal(localCountry, code)
				phase = afterCountry(flow)

			case PhaseMissingCity:
				sc.Turn.Say(flow.cityPrompt)
				sc.SetLocal(localPhase, PhasePromptingCity)
				return dialog.Suspend(model.PromptCity), nil

			case PhasePromptingCity:
				city, err := s.captureCity(sc, sc.Input)
				if err != nil {
					return dialog.StepResult{}, err
				}
				if city == "" {
					sc.Turn.Say(flow.cityReprompt)
					return dialog.Suspend(model.PromptCity), nil
				}
				if _, err := s.deps.Geocoder.Geocode(sc.Ctx, city, sc.LocalString(localCountry)); err != nil {
					switch {
					case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
						return dialog.StepResult{}, err
					case errx.IsKind(err, errx.KindValidation):
						logx.Debug().Str("city", city).Msg("city did not geocode, re-prompting")
						sc.Turn.Say(flow.cityReprompt)
						return dialog.Suspend(model.PromptCity), nil
					default:
						logx.Warn().Err(err).Str("dialog", string(sc.Frame.DialogID)).Msg("geocoding failed")
						return restart(sc, flow.unavailable...), nil
					}
				}
				sc.SetLocal(localCity, city)
				phase = PhaseResolved

			case PhaseResolved:
				sc.SetLocal(localPhase, PhaseResolved)
				return dialog.Pop(model.LocationResult{
					CountryCode: sc.LocalString(localCountry),
					City:        sc.LocalString(localCity),
				}), nil

			default:
				phase = PhaseMissingCountry
			}
		}
	}
}

func afterCountry(flow locationFlow) string {
	if flow.needCity {
		return PhaseMissingCity
	}
	return PhaseResolved
}

// captureCountry accepts a country name or ISO code, falling back to the
// classifier's country entity. "" means the answer was not understood.
func (s *Set) captureCountry(sc *dialog.StepContext, text string) (string, error) {
	if code, ok := providers.LookupCountry(text); ok {
		return code, nil
	}
	ents, err := s.entities(sc, text)
	if err != nil || ents == nil {
		return "", err
	}
	if country, ok := ents.First("country"); ok {
		if code, ok := providers.LookupCountry(country); ok {
			return code, nil
		}
	}
	return "", nil
}

// captureCity prefers the classifier's city entity and otherwise takes the
// raw answer. The result is normalized for storage.
func (s *Set) captureCity(sc *dialog.StepContext, text string) (string, error) {
	text = strings.ReplaceAll(text, "-", " ")
	ents, err := s.entities(sc, text)
	if err != nil {
		return "", err
	}
	if city, ok := ents.First("city"); ok {
		return normalizeCity(city), nil
	}
	return normalizeCity(text), nil
}

// entities classifies text for its entities only. An unavailable classifier
// yields nil so callers fall back to the raw answer.
func (s *Set) entities(sc *dialog.StepContext, text string) (model.Entities, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	rec, err := s.deps.Classifier.Classify(sc.Ctx, text)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, nil
	}
	return rec.Entities, nil
}

// normalizeCity title-cases each word so repeated lookups match.
func normalizeCity(raw string) string {
	words := strings.Fields(strings.ReplaceAll(raw, "-", " "))
	return cases.Title(language.Und).String(strings.Join(words, " "))
}
