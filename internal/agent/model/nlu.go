package model

import (
	"strings"
	"time"
)

// Entities maps an entity type (city, country, datetime) to the values
// extracted from one utterance, in order of appearance.
type Entities map[string][]string

// First returns the first value of the entity type.
func (e Entities) First(kind string) (string, bool) {
	vs := e[kind]
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// Add appends a value for the entity type.
func (e Entities) Add(kind, value string) {
	e[kind] = append(e[kind], value)
}

// Intent is one scored intent candidate.
type Intent struct {
	Name       string         `json:"name"`
	Confidence float64        `json:"confidence"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Entity is one extracted entity with its span in the utterance.
type Entity struct {
	Type       string         `json:"type"`
	Value      string         `json:"value"`
	Confidence float64        `json:"confidence"`
	Position   []int          `json:"position,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NLUResponse is the parsed classifier output.
type NLUResponse struct {
	Intents         []Intent       `json:"intents"`
	Entities        []Entity       `json:"entities"`
	PrimaryIntent   string         `json:"primary_intent"`
	ParsingMetadata map[string]any `json:"parsing_metadata,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
}

// Recognition is what the dialog layer consumes: the top intent and entities.
type Recognition struct {
	Text      string   `json:"text"`
	TopIntent string   `json:"top_intent"`
	Score     float64  `json:"score"`
	Entities  Entities `json:"entities"`
}

// Recognition flattens the parsed response.
func (r *NLUResponse) Recognition(text string) *Recognition {
	rec := &Recognition{Text: text, TopIntent: r.PrimaryIntent, Entities: Entities{}}
	for _, it := range r.Intents {
		if it.Name == r.PrimaryIntent {
			rec.Score = it.Confidence
			break
		}
	}
	for _, e := range r.Entities {
		rec.Entities.Add(e.Type, e.Value)
	}
	return rec
}
