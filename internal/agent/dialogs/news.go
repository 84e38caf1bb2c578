package dialogs

import (
	"context"
	"errors"
	"fmt"

	"github.com/ivy-assistant/server/internal/agent/cards"
	"github.com/ivy-assistant/server/internal/agent/dialog"
	"github.com/ivy-assistant/server/internal/agent/model"
	errx "github.com/ivy-assistant/server/internal/core/error"
	logx "github.com/ivy-assistant/server/pkg/logger"
)

const (
	newsSearchIntro = "Here are some results from a search:"
	newsUnavailable = "Unfortunately, the News search service is unavailable at the moment. Please try again later."
)

type newsArgs struct {
	NewsType string `mapstructure:"news_type"`
}

// news makes sure a country is known, searches and pops with follow-ups
// chosen by what was asked.
func (s *Set) news() dialog.Definition {
	return dialog.Definition{
		ID: model.DialogNews,
		Steps: []dialog.Step{
			s.newsCountry,
			s.newsSearch,
		},
	}
}

func (s *Set) newsCountry(sc *dialog.StepContext) (dialog.StepResult, error) {
	if sc.Turn.Profile.Location.CountryCode != "" {
		return dialog.Next(nil), nil
	}
	loc, ok, err := s.positionLocation(sc)
	if err != nil {
		return dialog.StepResult{}, err
	}
	if ok {
		return dialog.Next(loc), nil
	}
	return dialog.Push(model.DialogNewsLocale, nil), nil
}

func (s *Set) newsSearch(sc *dialog.StepContext) (dialog.StepResult, error) {
	saveLocation(sc, sc.Value)

	var args newsArgs
	if err := sc.Args(&args); err != nil {
		return dialog.StepResult{}, fmt.Errorf("decode news args: %w", err)
	}

	query, intro := args.NewsType, fmt.Sprintf("Here's the latest %s:", args.NewsType)
	if args.NewsType == "" || args.NewsType == cards.DefaultNews.Value {
		query, intro = "", newsSearchIntro
	}
	sc.Turn.Say(intro)

	articles, err := s.deps.News.Search(sc.Ctx, query, sc.Turn.Profile.Location.CountryCode)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return dialog.StepResult{}, err
		}
		logx.Warn().Err(err).Str("dialog", string(model.DialogNews)).Str("kind", string(errx.KindOf(err))).Msg("news search failed")
		return restart(sc, newsUnavailable), nil
	}

	sc.Turn.Send(cards.NewsCarousel(articles))
	return dialog.Pop(cards.NewsFollowUps(args.NewsType)), nil
}
