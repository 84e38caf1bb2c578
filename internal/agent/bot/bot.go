// Package bot wires the dialog core to its stores, providers and classifier.
package bot

import (
	"context"
	"fmt"

	"github.com/ivy-assistant/server/internal/agent/cards"
	"github.com/ivy-assistant/server/internal/agent/dialog"
	"github.com/ivy-assistant/server/internal/agent/dialogs"
	"github.com/ivy-assistant/server/internal/agent/fetch"
	"github.com/ivy-assistant/server/internal/agent/model"
	"github.com/ivy-assistant/server/internal/agent/nlu"
	"github.com/ivy-assistant/server/internal/agent/providers"
	"github.com/ivy-assistant/server/internal/agent/repo"
	"github.com/ivy-assistant/server/internal/agent/router"
	errx "github.com/ivy-assistant/server/internal/core/error"
	logx "github.com/ivy-assistant/server/pkg/logger"
)

// Runner processes one inbound activity at a time per conversation.
type Runner interface {
	Invoke(ctx context.Context, in model.TurnInput) (*model.TurnOutcome, error)
}

// Config holds everything needed to assemble a Runner.
type Config struct {
	Store        repo.Store
	Conversation model.ConversationConfig
	NLU          model.NLUModelConfig
	Fetch        model.FetchConfig
	Weather      model.WeatherConfig
	News         model.NewsConfig

	// Optional overrides. Nil builds the defaults from the configs above.
	Classifier nlu.Classifier
	Fetcher    fetch.Fetcher
}

type runner struct {
	manager *dialog.Manager
	locks   *keyedMutex
}

// Invoke serializes turns of the same conversation; other conversations run in parallel.
func (r *runner) Invoke(ctx context.Context, in model.TurnInput) (*model.TurnOutcome, error) {
	unlock := r.locks.Lock(in.ConversationID)
	defer unlock()
	return r.manager.HandleTurn(ctx, in)
}

// Build assembles the classifier, providers, dialogs and stack manager.
func Build(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("state store is nil")
	}

	classifier := cfg.Classifier
	if classifier == nil {
		c, err := buildClassifier(ctx, cfg.NLU)
		if err != nil {
			return nil, err
		}
		classifier = c
	}

	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = fetch.NewClient(cfg.Fetch)
	}
	maps := providers.NewAzureMaps(fetcher, cfg.Weather)

	set := dialogs.New(dialogs.Deps{
		Classifier: classifier,
		Geocoder:   maps,
		Weather:    maps,
		News:       providers.NewBingNews(fetcher, cfg.News),
		Locator:    maps,
		Forecasts:  cards.Forecasts{IconsURL: cfg.Weather.IconsURL},
	})
	registry, err := set.Registry()
	if err != nil {
		return nil, fmt.Errorf("build dialog registry: %w", err)
	}

	states := repo.NewStateRepository(cfg.Store, cfg.Conversation)
	manager := dialog.NewManager(states,
		dialog.NewExecutor(registry, cfg.Conversation.MaxRunSteps),
		dialog.WithWelcome(cards.Welcome()...),
	)

	logx.Debug().Msg("Dialog runner built successfully")
	return &runner{manager: manager, locks: newKeyedMutex()}, nil
}

// buildClassifier returns the Gemini backed classifier, or Unconfigured when
// no credentials are present so the bot stays menu driven.
func buildClassifier(ctx context.Context, cfg model.NLUModelConfig) (nlu.Classifier, error) {
	if !cfg.Configured() {
		logx.Warn().Msg("GEMINI_API_KEY not set, intent classification disabled")
		return nlu.Unconfigured{}, nil
	}

	cm, err := nlu.NewGeminiChatModel(ctx, cfg)
	if err != nil {
		if errx.IsKind(err, errx.KindConfigurationMissing) {
			logx.Warn().Err(err).Msg("intent classification disabled")
			return nlu.Unconfigured{}, nil
		}
		return nil, fmt.Errorf("create nlu chat model: %w", err)
	}
	c, err := nlu.NewClassifier(ctx, cm, cfg, router.Intents)
	if err != nil {
		return nil, err
	}
	return c, nil
}
