package dialogs

import (
	"slices"
	"strings"

	"github.com/ivy-assistant/server/internal/agent/cards"
	"github.com/ivy-assistant/server/internal/agent/dialog"
	"github.com/ivy-assistant/server/internal/agent/model"
	"github.com/ivy-assistant/server/internal/agent/router"
)

// punchlineDelayMS is the pause between setup and punchline.
const punchlineDelayMS = 2000

type joke struct {
	Setup     string
	Punchline string
}

var jokes = []joke{
	{"What do clouds wear under their shorts?", "Thunderpants!"},
	{"What do you call a shoe made out of a banana?", "A slipper"},
	{"Did you hear about the two antennas that got married?", "The ceremony was okay, but the reception was great!"},
	{"Why didn't the melons get married?", "Because they cantaloupe"},
}

// joke tells one joke, offers follow-ups and routes the reply.
func (s *Set) joke() dialog.Definition {
	return dialog.Definition{
		ID: model.DialogJoke,
		Steps: []dialog.Step{
			s.tellJoke,
			s.jokeReply,
		},
	}
}

func (s *Set) tellJoke(sc *dialog.StepContext) (dialog.StepResult, error) {
	if sc.Resumed {
		return dialog.Next(sc.Input), nil
	}
	j := jokes[nextJoke(&sc.Turn.State.Jokes, len(jokes), s.deps.Pick)]
	sc.Turn.Say(j.Setup)
	sc.Turn.Send(cards.Delay(punchlineDelayMS))
	sc.Turn.Say(j.Punchline)
	sc.Turn.Send(cards.Suggestions("", cards.JokeFollowUps()))
	return dialog.Suspend(model.PromptFollowUp), nil
}

// jokeReply routes the answer to a joke. Small talk keeps the follow-ups up
// and suspends here, so the next answer resumes this step.
func (s *Set) jokeReply(sc *dialog.StepContext) (dialog.StepResult, error) {
	text, _ := sc.Value.(string)
	if sc.Resumed {
		text = sc.Input
	}
	if strings.EqualFold(strings.TrimSpace(text), cards.AnotherJoke.Value) {
		return dialog.Replace(model.DialogJoke, nil), nil
	}

	dec, rec, err := s.routeUtterance(sc, text)
	if err != nil {
		return dialog.StepResult{}, err
	}
	if rec != nil && rec.TopIntent == router.IntentAnotherJoke {
		return dialog.Replace(model.DialogJoke, nil), nil
	}
	return apply(sc, dec, func() dialog.StepResult {
		sc.Turn.Send(cards.Suggestions("", cards.JokeFollowUps()))
		return dialog.Suspend(model.PromptFollowUp)
	}), nil
}

// nextJoke picks an index not yet used in the current cycle. When every joke
// has been told the cycle restarts, skipping the joke told last.
func nextJoke(cycle *model.JokeCycle, n int, pick func(int) int) int {
	fresh := make([]int, 0, n)
	for i := range n {
		if !slices.Contains(cycle.Used, i) {
			fresh = append(fresh, i)
		}
	}
	if len(fresh) == 0 {
		cycle.Used = nil
		for i := range n {
			if n == 1 || cycle.Told == 0 || i != cycle.Last {
				fresh = append(fresh, i)
			}
		}
	}

	idx := fresh[pick(len(fresh))]
	cycle.Used = append(cycle.Used, idx)
	cycle.Last = idx
	cycle.Told++
	return idx
}
