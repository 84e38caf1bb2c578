package model

// TurnKind distinguishes user messages from channel membership events.
type TurnKind string

const (
	TurnMessage            TurnKind = "message"
	TurnConversationUpdate TurnKind = "conversation_update"
)

// GeoPoint is a device position shared by the channel.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// TurnInput represents one inbound activity.
type TurnInput struct {
	ConversationID string   `json:"conversation_id"`
	UserID         string   `json:"user_id"`
	Text           string   `json:"text"`
	Kind           TurnKind `json:"kind,omitempty"`
	// Position, when shared, lets dialogs skip the location prompts.
	Position *GeoPoint `json:"position,omitempty"`
}

// TurnOutcome is what a processed turn produced.
type TurnOutcome struct {
	ConversationID string     `json:"conversation_id"`
	Messages       []Message  `json:"messages"`
	Stack          []DialogID `json:"stack"`
	TurnCounter    int64      `json:"turn_counter"`
	Faulted        bool       `json:"faulted,omitempty"`
}
