// Package router maps a classified intent to the next dialog transition.
// Route is pure: it performs no I/O and keeps no state.
package router

import (
	"github.com/ivy-assistant/server/internal/agent/model"
)

// Intent labels produced by the classifier.
const (
	IntentNews            = "NewsUpdate_Request"
	IntentWeather         = "WeatherForecast_Request"
	IntentWeatherChip     = "QR_Weather_suggestion_chips"
	IntentJoke            = "TellJoke_Request"
	IntentAnotherJoke     = "QR_Another_joke"
	IntentLocationChange  = "Location_Change_Request"
	IntentGreeting        = "ST_user_greeting"
	IntentName            = "ST_What_Your_Name"
	IntentRepeat          = "ST_Repeat"
	IntentHowAreYou       = "ST_How_are_you"
	IntentMicrophoneCheck = "ST_Microphone_Check"
	IntentCapabilities    = "ST_What_can_bot_do"
	IntentWhoAreYou       = "ST_Who_are_you"
	IntentNone            = "None"
)

// Intents lists every label the router understands.
var Intents = []string{
	IntentNews, IntentWeather, IntentWeatherChip, IntentJoke, IntentAnotherJoke,
	IntentLocationChange, IntentGreeting, IntentName, IntentRepeat, IntentHowAreYou,
	IntentMicrophoneCheck, IntentCapabilities, IntentWhoAreYou, IntentNone,
}

// Argument keys set on routed dialogs.
const (
	ArgNewsType = "news_type"
	ArgEntities = "entities"
)

// NotUnderstood is emitted for labels outside the table.
const NotUnderstood = "Sorry, I didn't get that. Please try asking in a different way."

var canned = map[string]string{
	IntentGreeting:        "Hi, Ivy here, how can I help?",
	IntentName:            "I'm Ivy. Nice to meet you!",
	IntentRepeat:          "I'm Ivy. Nice to meet you!",
	IntentHowAreYou:       "I'm good 🙂 If you are looking for a laugh, try saying \"Tell me a joke\".",
	IntentMicrophoneCheck: "🙂 Yes, I'm listening. Go ahead and ask me some of the things you see below:",
	IntentCapabilities:    "Just tap on the microphone icon and ask me some of the things you see below:",
	IntentWhoAreYou: "I'm an open-source Voice Assistant widget for iOS and Android apps.\n" +
		"I understand your speech and respond according to programmed scenarios.\n" +
		"Why don't you ask me some of the things below to see how it works?",
}

// Kind of routing decision.
type Kind int

const (
	Push Kind = iota
	Replace
	EmitAndStay
)

func (k Kind) String() string {
	switch k {
	case Push:
		return "push"
	case Replace:
		return "replace"
	default:
		return "emit_and_stay"
	}
}

// Context is what the router knows about the caller.
type Context struct {
	Current             model.DialogID
	Utterance           string
	ClassifierAvailable bool
}

// Decision is the transition the calling step should perform.
type Decision struct {
	Kind    Kind
	Dialog  model.DialogID
	Args    map[string]any
	Message string
}

// Route decides where an intent leads. Without a classifier every turn falls
// back to the menu. Navigation from a non-root dialog replaces it so the stack
// stays bounded.
func Route(intent string, entities model.Entities, rc Context) Decision {
	if !rc.ClassifierAvailable {
		return Decision{Kind: Replace, Dialog: model.RootDialog}
	}

	if msg, ok := canned[intent]; ok {
		return Decision{Kind: EmitAndStay, Message: msg}
	}

	var target model.DialogID
	var args map[string]any
	switch intent {
	case IntentNews:
		target = model.DialogNews
		args = map[string]any{ArgNewsType: rc.Utterance}
	case IntentWeather, IntentWeatherChip:
		target = model.DialogWeather
		args = map[string]any{ArgEntities: copyEntities(entities)}
	case IntentJoke, IntentAnotherJoke:
		target = model.DialogJoke
	case IntentLocationChange:
		target = model.DialogLocation
	default:
		return Decision{Kind: EmitAndStay, Message: NotUnderstood}
	}

	kind := Push
	if rc.Current != "" && rc.Current != model.RootDialog {
		kind = Replace
	}
	return Decision{Kind: kind, Dialog: target, Args: args}
}

func copyEntities(e model.Entities) map[string][]string {
	out := make(map[string][]string, len(e))
	for k, vs := range e {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
