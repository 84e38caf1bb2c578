package model

import "time"

// ================ Config ================
type ConversationConfig struct {
	TTL         time.Duration `envconfig:"CONVERSATION_TTL" default:"24h"`
	ProfileTTL  time.Duration `envconfig:"PROFILE_TTL" default:"0"`
	MaxRunSteps int           `envconfig:"DIALOG_MAX_RUN_STEPS" default:"50"`
}

type NLUModelConfig struct {
	APIKey        string  `envconfig:"GEMINI_API_KEY"`
	BaseURL       string  `envconfig:"GEMINI_BASE_URL"`
	Model         string  `envconfig:"NLU_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens     int     `envconfig:"NLU_MAX_TOKENS" default:"512"`
	Temperature   float32 `envconfig:"NLU_TEMPERATURE" default:"0.1"`
	MinConfidence float64 `envconfig:"NLU_MIN_CONFIDENCE" default:"0.4"`
	Entities      string  `envconfig:"NLU_ENTITIES" default:"city, country, datetime"`
}

// Configured reports whether the classifier has credentials.
func (c NLUModelConfig) Configured() bool {
	return c.APIKey != "" && c.Model != ""
}

type FetchConfig struct {
	MaxAttempts int           `envconfig:"FETCH_MAX_ATTEMPTS" default:"3"`
	RetryDelay  time.Duration `envconfig:"FETCH_RETRY_DELAY" default:"3s"`
	Timeout     time.Duration `envconfig:"FETCH_TIMEOUT" default:"10s"`
}

type WeatherConfig struct {
	BaseURL         string `envconfig:"WEATHER_BASE_URL" default:"https://atlas.microsoft.com"`
	SubscriptionKey string `envconfig:"WEATHER_SUBSCRIPTION_KEY"`
	IconsURL        string `envconfig:"WEATHER_ICONS_URL" default:"https://ivy-assets.example.com/weather/"`
	Language        string `envconfig:"WEATHER_LANGUAGE" default:"en-US"`
}

type NewsConfig struct {
	Endpoint        string `envconfig:"NEWS_ENDPOINT" default:"https://api.bing.microsoft.com/v7.0/news/search"`
	SubscriptionKey string `envconfig:"NEWS_SUBSCRIPTION_KEY"`
	Language        string `envconfig:"NEWS_LANGUAGE" default:"en"`
	MaxItems        int    `envconfig:"NEWS_MAX_ITEMS" default:"5"`
}
