package model

// MessageKind selects how the channel renders an outbound message.
type MessageKind string

const (
	MessageText        MessageKind = "text"
	MessageSuggestions MessageKind = "suggestions"
	MessageCard        MessageKind = "card"
	MessageDelay       MessageKind = "delay"
)

// Action is a quick reply: Title is shown, Value is sent back as the next utterance.
type Action struct {
	Title string `json:"title" mapstructure:"title"`
	Value string `json:"value" mapstructure:"value"`
}

// Message is one outbound bot activity. Cards are opaque to the dialog core.
type Message struct {
	Kind    MessageKind `json:"kind"`
	Text    string      `json:"text,omitempty"`
	Actions []Action    `json:"actions,omitempty"`
	Card    *Card       `json:"card,omitempty"`
	DelayMS int         `json:"delay_ms,omitempty"`
}

// CardType identifies the visual payload.
type CardType string

const (
	CardNewsCarousel CardType = "news_carousel"
	CardForecast     CardType = "forecast"
)

// Card is a structured visual payload passed through to the renderer.
type Card struct {
	Type     CardType   `json:"type"`
	News     []NewsItem `json:"news,omitempty"`
	Forecast *Forecast  `json:"forecast,omitempty"`
}

// NewsItem is one carousel entry.
type NewsItem struct {
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	URL          string `json:"url"`
	ImageURL     string `json:"image_url,omitempty"`
	Provider     string `json:"provider,omitempty"`
	ProviderIcon string `json:"provider_icon,omitempty"`
}

// Forecast summarises a day for one city.
type Forecast struct {
	City     string           `json:"city"`
	Date     string           `json:"date"`
	Headline string           `json:"headline"`
	Phrase   string           `json:"phrase"`
	IconURL  string           `json:"icon_url,omitempty"`
	Periods  []ForecastPeriod `json:"periods,omitempty"`
}

// ForecastPeriod is a quarter-day slot (morning, afternoon, evening, overnight).
type ForecastPeriod struct {
	Label       string  `json:"label"`
	IconURL     string  `json:"icon_url,omitempty"`
	Phrase      string  `json:"phrase,omitempty"`
	Temperature float64 `json:"temperature"`
}

// TextMessage builds a plain text message.
func TextMessage(text string) Message {
	return Message{Kind: MessageText, Text: text}
}
