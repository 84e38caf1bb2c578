package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/ivy-assistant/server/internal/agent/model"
)

func atMenu(utterance string) Context {
	return Context{Current: model.DialogMainMenu, Utterance: utterance, ClassifierAvailable: true}
}

func TestRoute_Table(t *testing.T) {
	tests := []struct {
		name   string
		intent string
		rc     Context
		want   Decision
	}{
		{
			name:   "news carries the utterance as type",
			intent: IntentNews,
			rc:     atMenu("AI news"),
			want:   Decision{Kind: Push, Dialog: model.DialogNews, Args: map[string]any{ArgNewsType: "AI news"}},
		},
		{
			name:   "joke",
			intent: IntentJoke,
			rc:     atMenu("tell me a joke"),
			want:   Decision{Kind: Push, Dialog: model.DialogJoke},
		},
		{
			name:   "another joke from the joke dialog replaces it",
			intent: IntentAnotherJoke,
			rc:     Context{Current: model.DialogJoke, ClassifierAvailable: true},
			want:   Decision{Kind: Replace, Dialog: model.DialogJoke},
		},
		{
			name:   "location change",
			intent: IntentLocationChange,
			rc:     atMenu("I moved to Paris"),
			want:   Decision{Kind: Push, Dialog: model.DialogLocation},
		},
		{
			name:   "greeting stays",
			intent: IntentGreeting,
			rc:     atMenu("hi"),
			want:   Decision{Kind: EmitAndStay, Message: "Hi, Ivy here, how can I help?"},
		},
		{
			name:   "unknown label",
			intent: "BookFlight",
			rc:     atMenu("book a flight"),
			want:   Decision{Kind: EmitAndStay, Message: NotUnderstood},
		},
		{
			name:   "none",
			intent: IntentNone,
			rc:     atMenu("asdf"),
			want:   Decision{Kind: EmitAndStay, Message: NotUnderstood},
		},
		{
			name:   "classifier unavailable",
			intent: IntentNews,
			rc:     Context{Current: model.DialogMainMenu, Utterance: "What is the latest news?"},
			want:   Decision{Kind: Replace, Dialog: model.RootDialog},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Route(tt.intent, nil, tt.rc))
		})
	}
}

func TestRoute_WeatherCopiesEntities(t *testing.T) {
	entities := model.Entities{"city": {"Brussels"}}

	d := Route(IntentWeatherChip, entities, atMenu("weather in Brussels"))
	entities["city"][0] = "Paris"

	assert.Equal(t, Push, d.Kind)
	assert.Equal(t, model.DialogWeather, d.Dialog)
	assert.Equal(t, map[string][]string{"city": {"Brussels"}}, d.Args[ArgEntities])
}

func TestRoute_Properties(t *testing.T) {
	dialogs := []model.DialogID{"", model.DialogMainMenu, model.DialogWeather, model.DialogNews, model.DialogJoke}
	labels := append([]string{"", "Unknown_Intent"}, Intents...)

	rapid.Check(t, func(rt *rapid.T) {
		intent := rapid.SampledFrom(labels).Draw(rt, "intent")
		rc := Context{
			Current:             rapid.SampledFrom(dialogs).Draw(rt, "current"),
			Utterance:           rapid.String().Draw(rt, "utterance"),
			ClassifierAvailable: rapid.Bool().Draw(rt, "available"),
		}

		d := Route(intent, model.Entities{}, rc)

		if !rc.ClassifierAvailable {
			if d.Kind != Replace || d.Dialog != model.RootDialog {
				rt.Fatalf("unavailable classifier must fall back to the menu, got %+v", d)
			}
			return
		}
		if d.Kind == EmitAndStay {
			if d.Message == "" || d.Dialog != "" {
				rt.Fatalf("emit decision must carry only a message: %+v", d)
			}
			return
		}
		if d.Dialog == "" {
			rt.Fatalf("navigation without target: %+v", d)
		}
		nested := rc.Current != "" && rc.Current != model.RootDialog
		if nested && d.Kind != Replace {
			rt.Fatalf("navigation from %s must replace, got %s", rc.Current, d.Kind)
		}
		if !nested && d.Kind != Push {
			rt.Fatalf("navigation from the menu must push, got %s", d.Kind)
		}
	})
}
