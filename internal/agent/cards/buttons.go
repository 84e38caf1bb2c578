// Package cards builds the outbound messages the dialogs emit: quick reply
// sets, the news carousel and the forecast card.
package cards

import "github.com/ivy-assistant/server/internal/agent/model"

// Quick replies. Value is what the channel sends back when tapped.
var (
	WeatherToday    = model.Action{Title: "What's the weather today? ⛅", Value: "What is the weather today?"}
	DefaultNews     = model.Action{Title: "What is the latest news?", Value: "What is the latest news?"}
	TellJoke        = model.Action{Title: "Tell me a joke 🙃", Value: "Tell me a joke"}
	WorldNews       = model.Action{Title: "🌎 World news", Value: "World news"}
	AINews          = model.Action{Title: "AI news 💪🏽", Value: "AI news"}
	HealthNews      = model.Action{Title: "🍏 Health news", Value: "Health news"}
	ITNews          = model.Action{Title: "IT Tech news", Value: "IT Tech news"}
	TomorrowWeather = model.Action{Title: "What about tomorrow?", Value: "What about tomorrow?"}
	AnotherJoke     = model.Action{Title: "Another One", Value: "Another One"}
)

// MainMenu lists the root suggestions.
func MainMenu() []model.Action {
	return []model.Action{
		{Title: "What is the weather today?", Value: "What is the weather today?"},
		DefaultNews,
		{Title: "Tell me a joke", Value: "Tell me a joke"},
	}
}

// NewsFollowUps picks suggestions after a news answer based on what was asked.
func NewsFollowUps(newsType string) []model.Action {
	switch newsType {
	case DefaultNews.Value:
		return []model.Action{ITNews, HealthNews, TellJoke}
	case ITNews.Value:
		return []model.Action{AINews, WorldNews, WeatherToday}
	default:
		return []model.Action{WeatherToday, DefaultNews, TellJoke}
	}
}

// WeatherFollowUps are shown after a forecast card.
func WeatherFollowUps() []model.Action {
	return []model.Action{TomorrowWeather, DefaultNews, TellJoke}
}

// JokeFollowUps are shown after a punchline.
func JokeFollowUps() []model.Action {
	return []model.Action{
		AnotherJoke,
		{Title: "IT news", Value: "IT news"},
		{Title: "What is the weather tomorrow?", Value: "What is the weather tomorrow?"},
	}
}

// Suggestions wraps actions in a quick reply message.
func Suggestions(text string, actions []model.Action) model.Message {
	return model.Message{Kind: model.MessageSuggestions, Text: text, Actions: actions}
}

// Delay asks the renderer to pause before the next message.
func Delay(ms int) model.Message {
	return model.Message{Kind: model.MessageDelay, DelayMS: ms}
}

// Welcome is sent when the bot joins a conversation.
func Welcome() []model.Message {
	return []model.Message{
		model.TextMessage("Hi, I'm Ivy, a Voice Assistant widget for mobile apps."),
		model.TextMessage("Tap the microphone to speak.\n\nHere's something you can ask me:"),
	}
}
