package model

import "time"

// DialogID names a dialog definition. It is the discriminant used to look up
// a dialog's step list in the registry.
type DialogID string

const (
	DialogMainMenu      DialogID = "main_menu"
	DialogWeather       DialogID = "weather"
	DialogNews          DialogID = "news"
	DialogJoke          DialogID = "joke"
	DialogLocation      DialogID = "location"
	DialogWeatherLocale DialogID = "weather_locale"
	DialogNewsLocale    DialogID = "news_locale"
)

// RootDialog is pushed whenever a turn starts on an empty stack.
const RootDialog = DialogMainMenu

// PromptKind marks what a suspended frame expects from the next utterance.
type PromptKind string

const (
	PromptNone     PromptKind = ""
	PromptMenu     PromptKind = "menu_choice"
	PromptFollowUp PromptKind = "follow_up"
	PromptCountry  PromptKind = "country"
	PromptCity     PromptKind = "city"
)

// StackFrame is one activation of a dialog.
type StackFrame struct {
	DialogID      DialogID       `json:"dialog_id"`
	Cursor        int            `json:"cursor"`
	Args          map[string]any `json:"args,omitempty"`
	Local         map[string]any `json:"local,omitempty"`
	PendingPrompt PromptKind     `json:"pending_prompt,omitempty"`
}

// NewFrame returns a frame positioned at the first step.
func NewFrame(id DialogID, args map[string]any) StackFrame {
	return StackFrame{DialogID: id, Args: args, Local: map[string]any{}}
}

// Suspended reports whether the frame waits for user input.
func (f *StackFrame) Suspended() bool {
	return f.PendingPrompt != PromptNone
}

// JokeCycle tracks which jokes were told in the current exhaustion cycle.
type JokeCycle struct {
	Used []int `json:"used,omitempty"`
	Last int   `json:"last"`
	Told int   `json:"told"`
}

// ConversationState is persisted per conversation id between turns.
type ConversationState struct {
	ConversationID string       `json:"conversation_id"`
	Stack          []StackFrame `json:"dialog_stack"`
	TurnCounter    int64        `json:"turn_counter"`
	Jokes          JokeCycle    `json:"jokes"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// NewConversationState returns an empty state for the conversation.
func NewConversationState(conversationID string) *ConversationState {
	return &ConversationState{ConversationID: conversationID, Stack: []StackFrame{}}
}

// Top returns the active frame, or nil when the stack is empty.
func (s *ConversationState) Top() *StackFrame {
	if len(s.Stack) == 0 {
		return nil
	}
	return &s.Stack[len(s.Stack)-1]
}

// Push appends a frame on top of the stack.
func (s *ConversationState) Push(f StackFrame) {
	s.Stack = append(s.Stack, f)
}

// Pop removes the top frame and reports whether one was removed.
func (s *ConversationState) Pop() bool {
	if len(s.Stack) == 0 {
		return false
	}
	s.Stack = s.Stack[:len(s.Stack)-1]
	return true
}

// Reset replaces the whole stack with a single fresh frame.
func (s *ConversationState) Reset(f StackFrame) {
	s.Stack = []StackFrame{f}
}

// DialogIDs lists the stack outermost first.
func (s *ConversationState) DialogIDs() []DialogID {
	ids := make([]DialogID, 0, len(s.Stack))
	for _, f := range s.Stack {
		ids = append(ids, f.DialogID)
	}
	return ids
}

// Location is the last resolved user location.
type Location struct {
	CountryCode string `json:"country_code,omitempty"`
	City        string `json:"city,omitempty"`
}

// UserProfile outlives conversations and is keyed by user id.
type UserProfile struct {
	UserID    string    `json:"user_id"`
	Location  Location  `json:"location"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LocationResult is returned by the location sub-dialogs when they pop.
type LocationResult struct {
	CountryCode string `json:"country_code,omitempty" mapstructure:"country_code"`
	City        string `json:"city,omitempty" mapstructure:"city"`
}

// Apply merges the resolved slots into the profile location.
func (r LocationResult) Apply(p *UserProfile) bool {
	changed := false
	if r.CountryCode != "" && r.CountryCode != p.Location.CountryCode {
		p.Location.CountryCode = r.CountryCode
		changed = true
	}
	if r.City != "" && r.City != p.Location.City {
		p.Location.City = r.City
		changed = true
	}
	return changed
}
