// Package nlu classifies utterances into an intent label plus entities using
// an eino graph: prompt rendering, a chat model and a tuple parser.
package nlu

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/ivy-assistant/server/internal/agent/model"
	errx "github.com/ivy-assistant/server/internal/core/error"
	logx "github.com/ivy-assistant/server/pkg/logger"
)

// NoneIntent is reported for empty input and low-confidence results.
const NoneIntent = "None"

const (
	NodeInputConverter = "InputConverter"
	NodeNLUChatModel   = "NLUChatModel"
	NodeParser         = "Parser"
)

// Classifier is what the dialogs consume.
type Classifier interface {
	Classify(ctx context.Context, text string) (*model.Recognition, error)
}

// Unavailable is true for classifier errors the router must treat as a missing classifier.
func Unavailable(err error) bool {
	switch errx.KindOf(err) {
	case errx.KindConfigurationMissing, errx.KindProviderUnavailable:
		return true
	}
	return false
}

// Unconfigured is used when no model credentials are present.
type Unconfigured struct{}

func (Unconfigured) Classify(context.Context, string) (*model.Recognition, error) {
	return nil, errx.Missing("intent classifier")
}

// GraphClassifier runs the compiled NLU graph.
type GraphClassifier struct {
	runnable      compose.Runnable[string, *model.NLUResponse]
	minConfidence float64
	handler       einocb.Handler
}

// NewClassifier compiles the classification graph around chatModel. intents
// are the labels the prompt allows.
func NewClassifier(ctx context.Context, chatModel einomodel.BaseChatModel, cfg model.NLUModelConfig, intents []string) (*GraphClassifier, error) {
	if chatModel == nil {
		return nil, errx.Missing("nlu chat model")
	}
	if len(intents) == 0 {
		return nil, fmt.Errorf("nlu classifier needs at least one intent")
	}

	system := renderSystem(cfg, intents)
	g := compose.NewGraph[string, *model.NLUResponse]()

	if err := g.AddLambdaNode(NodeInputConverter, compose.InvokableLambda(func(ctx context.Context, text string) ([]*schema.Message, error) {
		return formatMessages(ctx, system, text)
	})); err != nil {
		return nil, fmt.Errorf("add input node: %w", err)
	}
	if err := g.AddChatModelNode(NodeNLUChatModel, chatModel); err != nil {
		return nil, fmt.Errorf("add chat model node: %w", err)
	}
	if err := g.AddLambdaNode(NodeParser, compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (*model.NLUResponse, error) {
		if msg == nil {
			return nil, errors.New("nlu model returned no message")
		}
		logUsage(cfg.Model, msg)
		return ParseNLUResponse(msg.Content)
	})); err != nil {
		return nil, fmt.Errorf("add parser node: %w", err)
	}

	for _, edge := range [][2]string{
		{compose.START, NodeInputConverter},
		{NodeInputConverter, NodeNLUChatModel},
		{NodeNLUChatModel, NodeParser},
		{NodeParser, compose.END},
	} {
		if err := g.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runnable, err := g.Compile(ctx, compose.WithGraphName("nlu"), compose.WithMaxRunSteps(10))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling nlu graph")
		return nil, fmt.Errorf("error compiling nlu graph: %w", err)
	}

	return &GraphClassifier{runnable: runnable, minConfidence: cfg.MinConfidence, handler: newCallbacks()}, nil
}

// Classify returns the top intent and entities. Results under the confidence
// floor are reported as NoneIntent. Model failures are ProviderUnavailable.
func (c *GraphClassifier) Classify(ctx context.Context, text string) (*model.Recognition, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return &model.Recognition{TopIntent: NoneIntent, Entities: model.Entities{}}, nil
	}

	resp, err := c.runnable.Invoke(ctx, text, compose.WithCallbacks(c.handler))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logx.Warn().Err(err).Str("component", "nlu").Msg("classification failed")
		return nil, errx.Unavailable(fmt.Errorf("classify: %w", err))
	}

	rec := resp.Recognition(text)
	if rec.TopIntent == "" || rec.Score < c.minConfidence {
		logx.Debug().Str("intent", rec.TopIntent).Float64("score", rec.Score).Msg("intent below confidence floor")
		rec.TopIntent = NoneIntent
	}
	if errs, ok := resp.ParsingMetadata["parsing_errors"].([]string); ok {
		logx.Debug().Strs("parsing_errors", errs).Msg("nlu output had bad records")
	}
	return rec, nil
}

func logUsage(modelName string, msg *schema.Message) {
	if msg.ResponseMeta == nil || msg.ResponseMeta.Usage == nil {
		return
	}
	u := msg.ResponseMeta.Usage
	logx.Debug().
		Str("component", "nlu").
		Str("model", modelName).
		Int("prompt_tokens", u.PromptTokens).
		Int("completion_tokens", u.CompletionTokens).
		Int("total_tokens", u.TotalTokens).
		Float64("total_cost_usd", usageCost(modelName, u)).
		Msg("LLM usage")
}
