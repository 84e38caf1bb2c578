package dialog

import (
	"context"

	"github.com/ivy-assistant/server/internal/agent/model"
)

// Turn is the mutable per-turn scratchpad shared by every step run in the turn.
type Turn struct {
	Input   model.TurnInput
	State   *model.ConversationState
	Profile *model.UserProfile

	messages     []model.Message
	consumed     bool
	profileDirty bool
	steps        int
}

// NewTurn prepares a turn. Conversation updates carry no utterance.
func NewTurn(in model.TurnInput, state *model.ConversationState, profile *model.UserProfile) *Turn {
	return &Turn{
		Input:    in,
		State:    state,
		Profile:  profile,
		consumed: in.Kind == model.TurnConversationUpdate,
	}
}

// Send queues outbound messages.
func (t *Turn) Send(msgs ...model.Message) {
	t.messages = append(t.messages, msgs...)
}

// Say queues a text message.
func (t *Turn) Say(text string) {
	t.Send(model.TextMessage(text))
}

// Messages returns everything queued so far.
func (t *Turn) Messages() []model.Message {
	return t.messages
}

// TakeInput hands out the utterance once per turn.
func (t *Turn) TakeInput() (string, bool) {
	if t.consumed {
		return "", false
	}
	t.consumed = true
	return t.Input.Text, true
}

// ProfileChanged marks the profile for saving at turn end.
func (t *Turn) ProfileChanged() {
	t.profileDirty = true
}

// ProfileDirty reports whether the profile must be saved.
func (t *Turn) ProfileDirty() bool {
	return t.profileDirty
}

// StepContext is passed to every step.
type StepContext struct {
	Ctx   context.Context
	Turn  *Turn
	Frame *model.StackFrame
	// Value is the previous step's Next value or a child's Pop value.
	Value any
	// Resumed is set when the step suspended earlier and now receives Input.
	Resumed bool
	Input   string
}

// Args decodes the frame's begin arguments into out.
func (sc *StepContext) Args(out any) error {
	return Decode(sc.Frame.Args, out)
}

// LocalString returns a frame-local string, "" when absent.
func (sc *StepContext) LocalString(key string) string {
	if v, ok := sc.Frame.Local[key].(string); ok {
		return v
	}
	return ""
}

// SetLocal stores a frame-local value. Values must survive a JSON round trip.
func (sc *StepContext) SetLocal(key string, v any) {
	if sc.Frame.Local == nil {
		sc.Frame.Local = map[string]any{}
	}
	sc.Frame.Local[key] = v
}
