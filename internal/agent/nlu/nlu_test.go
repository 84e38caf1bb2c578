package nlu

import (
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivy-assistant/server/internal/agent/model"
	errx "github.com/ivy-assistant/server/internal/core/error"
)

type fakeChatModel struct {
	reply string
	err   error
	calls int
	input []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	f.calls++
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	msg := schema.AssistantMessage(f.reply, nil)
	msg.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120}}
	return msg, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

var testIntents = []string{"WeatherForecast_Request", "NewsUpdate_Request", "None"}

func testConfig() model.NLUModelConfig {
	return model.NLUModelConfig{Model: "gemini-2.5-flash-lite", MinConfidence: 0.4, Entities: "city, country, datetime"}
}

func newTestClassifier(t *testing.T, cm *fakeChatModel) *GraphClassifier {
	t.Helper()
	c, err := NewClassifier(context.Background(), cm, testConfig(), testIntents)
	require.NoError(t, err)
	return c
}

func TestClassify_WeatherWithEntities(t *testing.T) {
	cm := &fakeChatModel{reply: `(intent<||>WeatherForecast_Request<||>0.96)##(entity<||>city<||>Brussels<||>0.94<||>{"entity_position":[11,19]})##(entity<||>datetime<||>tomorrow<||>0.9)<|COMPLETE|>`}
	c := newTestClassifier(t, cm)

	rec, err := c.Classify(context.Background(), "weather in Brussels tomorrow")

	require.NoError(t, err)
	assert.Equal(t, "WeatherForecast_Request", rec.TopIntent)
	assert.InDelta(t, 0.96, rec.Score, 0.0001)
	city, ok := rec.Entities.First("city")
	assert.True(t, ok)
	assert.Equal(t, "Brussels", city)
	assert.Equal(t, []string{"tomorrow"}, rec.Entities["datetime"])

	require.Len(t, cm.input, 2)
	assert.Equal(t, schema.System, cm.input[0].Role)
	assert.Contains(t, cm.input[0].Content, "- NewsUpdate_Request")
	assert.Contains(t, cm.input[0].Content, "(intent<||>")
	assert.NotContains(t, cm.input[0].Content, "{TD}")
	assert.Equal(t, schema.User, cm.input[1].Role)
	assert.Contains(t, cm.input[1].Content, "weather in Brussels tomorrow")
}

func TestClassify_LowConfidenceIsNone(t *testing.T) {
	c := newTestClassifier(t, &fakeChatModel{reply: "(intent<||>NewsUpdate_Request<||>0.2)<|COMPLETE|>"})

	rec, err := c.Classify(context.Background(), "hmm")

	require.NoError(t, err)
	assert.Equal(t, NoneIntent, rec.TopIntent)
}

func TestClassify_EmptyTextSkipsModel(t *testing.T) {
	cm := &fakeChatModel{}
	c := newTestClassifier(t, cm)

	rec, err := c.Classify(context.Background(), "   ")

	require.NoError(t, err)
	assert.Equal(t, NoneIntent, rec.TopIntent)
	assert.Zero(t, cm.calls)
}

func TestClassify_ModelFailureIsUnavailable(t *testing.T) {
	c := newTestClassifier(t, &fakeChatModel{err: errors.New("quota exceeded")})

	_, err := c.Classify(context.Background(), "news")

	require.Error(t, err)
	assert.Equal(t, errx.KindProviderUnavailable, errx.KindOf(err))
	assert.True(t, Unavailable(err))
}

func TestUnconfigured(t *testing.T) {
	_, err := Unconfigured{}.Classify(context.Background(), "news")

	assert.Equal(t, errx.KindConfigurationMissing, errx.KindOf(err))
	assert.True(t, Unavailable(err))
	assert.False(t, Unavailable(context.Canceled))
}

func TestNewGeminiChatModel_RequiresKey(t *testing.T) {
	_, err := NewGeminiChatModel(context.Background(), testConfig())
	assert.Equal(t, errx.KindConfigurationMissing, errx.KindOf(err))
}

func TestNewClassifier_Validation(t *testing.T) {
	_, err := NewClassifier(context.Background(), nil, testConfig(), testIntents)
	assert.Error(t, err)

	_, err = NewClassifier(context.Background(), &fakeChatModel{}, testConfig(), nil)
	assert.Error(t, err)
}

func TestParseNLUResponse(t *testing.T) {
	content := strings.Join([]string{
		"(intent<||>TellJoke_Request<||>0.4)",
		"(intent<||>QR_Another_joke<||>0.93<||>{\"source\":\"chip\"})",
		"(entity<||>City<||>Ghent<||>0.8<||>{\"entity_position\":[3,8]})",
		"(entity<||>city<||><||>0.8)",
		"(intent<||>Broken<||>1.7)",
		"not a tuple",
		"(mood<||>happy<||>1)",
	}, recDelim) + endDelim + "(intent<||>Ignored<||>1)"

	resp, err := ParseNLUResponse(content)

	require.NoError(t, err)
	assert.Equal(t, "QR_Another_joke", resp.PrimaryIntent)
	require.Len(t, resp.Intents, 2)
	assert.Equal(t, map[string]any{"source": "chip"}, resp.Intents[1].Metadata)
	require.Len(t, resp.Entities, 1)
	assert.Equal(t, "city", resp.Entities[0].Type)
	assert.Equal(t, []int{3, 8}, resp.Entities[0].Position)

	errs, ok := resp.ParsingMetadata["parsing_errors"].([]string)
	require.True(t, ok)
	assert.Len(t, errs, 4)
}

func TestUsageCost(t *testing.T) {
	usage := &schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 1_000_000}
	assert.InDelta(t, 0.50, usageCost("gemini-2.5-flash-lite", usage), 1e-9)
	assert.Zero(t, usageCost("unknown", usage))
	assert.Zero(t, usageCost("gemini-2.5-flash", nil))
}
