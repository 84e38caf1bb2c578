package dialogs

import (
	"fmt"
	"strings"

	"github.com/ivy-assistant/server/internal/agent/cards"
	"github.com/ivy-assistant/server/internal/agent/dialog"
	"github.com/ivy-assistant/server/internal/agent/model"
)

type menuArgs struct {
	Suggestions []model.Action `mapstructure:"suggestions"`
}

// mainMenu shows quick replies, routes the answer and restarts itself once
// the child it started returns.
func (s *Set) mainMenu() dialog.Definition {
	return dialog.Definition{
		ID: model.DialogMainMenu,
		Steps: []dialog.Step{
			s.menuPrompt,
			s.menuRoute,
			s.menuRestart,
		},
	}
}

func (s *Set) menuPrompt(sc *dialog.StepContext) (dialog.StepResult, error) {
	if sc.Resumed {
		return dialog.Next(sc.Input), nil
	}
	if text, ok := sc.Turn.TakeInput(); ok && strings.TrimSpace(text) != "" {
		return dialog.Next(text), nil
	}

	var args menuArgs
	if err := sc.Args(&args); err != nil {
		return dialog.StepResult{}, fmt.Errorf("decode menu args: %w", err)
	}
	actions := args.Suggestions
	if len(actions) == 0 {
		actions = cards.MainMenu()
	}
	sc.Turn.Send(cards.Suggestions("", actions))
	return dialog.Suspend(model.PromptMenu), nil
}

func (s *Set) menuRoute(sc *dialog.StepContext) (dialog.StepResult, error) {
	text, _ := sc.Value.(string)
	dec, _, err := s.routeUtterance(sc, text)
	if err != nil {
		return dialog.StepResult{}, err
	}
	return apply(sc, dec, func() dialog.StepResult {
		return dialog.Replace(model.RootDialog, nil)
	}), nil
}

func (s *Set) menuRestart(sc *dialog.StepContext) (dialog.StepResult, error) {
	switch v := sc.Value.(type) {
	case model.LocationResult:
		saveLocation(sc, v)
		sc.Turn.Say(locationConfirmation(sc.Turn.Profile.Location))
		return dialog.Replace(model.RootDialog, nil), nil
	case []model.Action:
		return dialog.Replace(model.RootDialog, map[string]any{"suggestions": v}), nil
	default:
		return dialog.Replace(model.RootDialog, nil), nil
	}
}

func locationConfirmation(loc model.Location) string {
	if loc.City == "" {
		return fmt.Sprintf("Got it, I'll use %s from now on.", loc.CountryCode)
	}
	return fmt.Sprintf("Got it, I'll use %s, %s from now on.", loc.City, loc.CountryCode)
}
