package cards

import (
	"fmt"
	"time"

	"github.com/ivy-assistant/server/internal/agent/model"
	"github.com/ivy-assistant/server/internal/agent/providers"
)

var quarterLabels = [4]string{"Morning", "Afternoon", "Evening", "Overnight"}

// NewsCarousel renders articles as a carousel card.
func NewsCarousel(articles []providers.Article) model.Message {
	items := make([]model.NewsItem, 0, len(articles))
	for _, a := range articles {
		items = append(items, model.NewsItem{
			Title:        a.Name,
			Description:  a.Description,
			URL:          a.URL,
			ImageURL:     a.ImageURL,
			Provider:     a.Provider,
			ProviderIcon: a.ProviderIcon,
		})
	}
	return model.Message{Kind: model.MessageCard, Card: &model.Card{Type: model.CardNewsCarousel, News: items}}
}

// Forecasts builds forecast cards with icons resolved against a base URL.
type Forecasts struct {
	IconsURL string
}

// Current renders today's conditions plus the day's quarter slots.
func (f Forecasts) Current(city string, cur providers.CurrentConditions, quarters []providers.QuarterForecast) model.Message {
	fc := &model.Forecast{
		City:     city,
		Date:     formatDate(cur.DateTime, "2006-01-02 03:04 PM"),
		Headline: fmt.Sprintf("%s°C", trim(cur.Temperature.Value)),
		Phrase:   cur.Phrase,
		IconURL:  IconURL(f.IconsURL, cur.IconCode),
		Periods:  f.periods(quarters, 0),
	}
	return forecastMessage(fc)
}

// Tomorrow renders a daily forecast plus the second day's quarter slots.
func (f Forecasts) Tomorrow(city string, day providers.DailyForecast, quarters []providers.QuarterForecast) model.Message {
	fc := &model.Forecast{
		City:     city,
		Date:     formatDate(day.Date, "2006-01-02"),
		Headline: fmt.Sprintf("%s °C ... %s °C", trim(day.Temperature.Minimum.Value), trim(day.Temperature.Maximum.Value)),
		Phrase:   day.Day.ShortPhrase,
		IconURL:  IconURL(f.IconsURL, day.Day.IconCode),
		Periods:  f.periods(quarters, 1),
	}
	return forecastMessage(fc)
}

// periods takes the four slots of the given day offset, tolerating short lists.
func (f Forecasts) periods(quarters []providers.QuarterForecast, day int) []model.ForecastPeriod {
	start := day * 4
	if start >= len(quarters) {
		return nil
	}
	end := min(start+4, len(quarters))

	out := make([]model.ForecastPeriod, 0, end-start)
	for i, q := range quarters[start:end] {
		label := quarterLabels[i]
		if q.Quarter >= 0 && q.Quarter < len(quarterLabels) {
			label = quarterLabels[q.Quarter]
		}
		out = append(out, model.ForecastPeriod{
			Label:       label,
			IconURL:     IconURL(f.IconsURL, q.IconCode),
			Phrase:      q.IconPhrase,
			Temperature: q.Temperature.Maximum.Value,
		})
	}
	return out
}

func forecastMessage(fc *model.Forecast) model.Message {
	return model.Message{Kind: model.MessageCard, Card: &model.Card{Type: model.CardForecast, Forecast: fc}}
}

// formatDate reformats an RFC3339 or date-only value; unparseable input is returned as is.
func formatDate(raw, layout string) string {
	for _, in := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(in, raw); err == nil {
			return t.Format(layout)
		}
	}
	return raw
}

func trim(v float64) string {
	return fmt.Sprintf("%g", v)
}
