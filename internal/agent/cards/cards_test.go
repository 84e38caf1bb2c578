package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivy-assistant/server/internal/agent/model"
	"github.com/ivy-assistant/server/internal/agent/providers"
)

func TestNewsFollowUps(t *testing.T) {
	assert.Equal(t, []model.Action{ITNews, HealthNews, TellJoke}, NewsFollowUps("What is the latest news?"))
	assert.Equal(t, []model.Action{AINews, WorldNews, WeatherToday}, NewsFollowUps("IT Tech news"))
	assert.Equal(t, []model.Action{WeatherToday, DefaultNews, TellJoke}, NewsFollowUps("Health news"))
}

func TestIconURL(t *testing.T) {
	assert.Equal(t, "https://cdn/icons/cloudy.png", IconURL("https://cdn/icons", 7))
	assert.Equal(t, "https://cdn/icons/sunny.png", IconURL("https://cdn/icons/", 1))
	assert.Empty(t, IconURL("https://cdn/icons/", 999))
	assert.Empty(t, IconURL("", 1))
}

func TestNewsCarousel(t *testing.T) {
	msg := NewsCarousel([]providers.Article{{Name: "A", URL: "https://a", Provider: "Wire"}})

	require.Equal(t, model.MessageCard, msg.Kind)
	require.NotNil(t, msg.Card)
	assert.Equal(t, model.CardNewsCarousel, msg.Card.Type)
	assert.Equal(t, []model.NewsItem{{Title: "A", URL: "https://a", Provider: "Wire"}}, msg.Card.News)
}

func quarters(n int) []providers.QuarterForecast {
	out := make([]providers.QuarterForecast, n)
	for i := range out {
		out[i].Quarter = i % 4
		out[i].IconCode = 1
		out[i].Temperature.Maximum.Value = float64(i)
	}
	return out
}

func TestForecasts_Current(t *testing.T) {
	f := Forecasts{IconsURL: "https://cdn/"}
	cur := providers.CurrentConditions{DateTime: "2026-10-19T09:30:00+02:00", Phrase: "Cloudy", IconCode: 7}
	cur.Temperature.Value = 12.5

	msg := f.Current("Brussels", cur, quarters(4))

	require.NotNil(t, msg.Card)
	fc := msg.Card.Forecast
	require.NotNil(t, fc)
	assert.Equal(t, model.CardForecast, msg.Card.Type)
	assert.Equal(t, "Brussels", fc.City)
	assert.Equal(t, "2026-10-19 09:30 AM", fc.Date)
	assert.Equal(t, "12.5°C", fc.Headline)
	assert.Equal(t, "https://cdn/cloudy.png", fc.IconURL)
	require.Len(t, fc.Periods, 4)
	assert.Equal(t, "Morning", fc.Periods[0].Label)
	assert.Equal(t, "Overnight", fc.Periods[3].Label)
}

func TestForecasts_TomorrowUsesSecondDay(t *testing.T) {
	f := Forecasts{IconsURL: "https://cdn/"}
	day := providers.DailyForecast{Date: "2026-10-20T07:00:00+02:00"}
	day.Temperature.Minimum.Value = 7
	day.Temperature.Maximum.Value = 14
	day.Day.ShortPhrase = "Sunny"

	msg := f.Tomorrow("Brussels", day, quarters(8))

	fc := msg.Card.Forecast
	assert.Equal(t, "2026-10-20", fc.Date)
	assert.Equal(t, "7 °C ... 14 °C", fc.Headline)
	require.Len(t, fc.Periods, 4)
	assert.InDelta(t, 4, fc.Periods[0].Temperature, 0.001)

	short := f.Tomorrow("Brussels", day, quarters(3))
	assert.Empty(t, short.Card.Forecast.Periods)
}
