package dialog

import (
	"context"
	"errors"
	"fmt"

	"github.com/ivy-assistant/server/internal/agent/model"
	errx "github.com/ivy-assistant/server/internal/core/error"
	logx "github.com/ivy-assistant/server/pkg/logger"
)

// FaultMessage is sent when a step fails unexpectedly.
const FaultMessage = "Sorry, something went wrong on my side. Let's start over."

// StateRepository is the persistence the manager needs.
type StateRepository interface {
	LoadConversation(ctx context.Context, conversationID string) (*model.ConversationState, error)
	SaveConversation(ctx context.Context, s *model.ConversationState) error
	LoadProfile(ctx context.Context, userID string) (*model.UserProfile, error)
	SaveProfile(ctx context.Context, p *model.UserProfile) error
}

// Manager owns the dialog stack of every conversation it is asked about.
// Callers must serialize HandleTurn per conversation id.
type Manager struct {
	repo     StateRepository
	executor *Executor
	root     model.DialogID
	welcome  []model.Message
}

type ManagerOption func(*Manager)

// WithWelcome sets the messages sent on conversation updates.
func WithWelcome(msgs ...model.Message) ManagerOption {
	return func(m *Manager) { m.welcome = msgs }
}

func NewManager(repo StateRepository, executor *Executor, opts ...ManagerOption) *Manager {
	m := &Manager{repo: repo, executor: executor, root: model.RootDialog}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// HandleTurn loads the conversation, drives the stack until the top frame
// suspends or the stack empties, and persists the result. When ctx is done
// before the save nothing is written.
func (m *Manager) HandleTurn(ctx context.Context, in model.TurnInput) (*model.TurnOutcome, error) {
	if in.ConversationID == "" {
		return nil, errx.Validation(errors.New("conversation id is required"))
	}
	if in.Kind == "" {
		in.Kind = model.TurnMessage
	}

	state, err := m.repo.LoadConversation(ctx, in.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	profile, err := m.repo.LoadProfile(ctx, userKey(in))
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	state.TurnCounter++
	turn := NewTurn(in, state, profile)
	log := logx.Component("dialog").With().
		Str("conversation_id", in.ConversationID).
		Int64("turn", state.TurnCounter).
		Logger()

	if in.Kind == model.TurnConversationUpdate {
		turn.Send(m.welcome...)
		state.Reset(model.NewFrame(m.root, nil))
	}
	if len(state.Stack) == 0 {
		state.Push(model.NewFrame(m.root, nil))
	}

	faulted, err := m.drive(ctx, turn)
	if err != nil {
		log.Warn().Err(err).Msg("turn abandoned before persist")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		log.Warn().Err(err).Msg("turn abandoned before persist")
		return nil, err
	}

	if err := m.repo.SaveConversation(ctx, state); err != nil {
		return nil, fmt.Errorf("save conversation: %w", err)
	}
	// A faulted turn keeps its stack reset but drops profile edits made before the fault.
	if turn.ProfileDirty() && !faulted {
		if err := m.repo.SaveProfile(ctx, profile); err != nil {
			return nil, fmt.Errorf("save profile: %w", err)
		}
	}

	log.Info().
		Interface("stack", state.DialogIDs()).
		Int("messages", len(turn.Messages())).
		Bool("faulted", faulted).
		Msg("turn handled")

	return &model.TurnOutcome{
		ConversationID: in.ConversationID,
		Messages:       turn.Messages(),
		Stack:          state.DialogIDs(),
		TurnCounter:    state.TurnCounter,
		Faulted:        faulted,
	}, nil
}

// drive loops the executor over the stack. Only context errors are returned;
// step faults reset the stack to the root frame.
func (m *Manager) drive(ctx context.Context, turn *Turn) (bool, error) {
	state := turn.State
	faults := 0

	in := StepInput{}
	if top := state.Top(); top != nil && top.Suspended() {
		text, ok := turn.TakeInput()
		if !ok {
			return false, nil
		}
		in = StepInput{Resumed: true, Input: text}
	}

	for {
		top := state.Top()
		if top == nil {
			return faults > 0, nil
		}

		res, err := m.executor.Run(ctx, turn, top, in)
		if err != nil {
			if ctx.Err() != nil {
				return faults > 0, ctx.Err()
			}
			faults++
			logx.Error().
				Err(err).
				Str("conversation_id", turn.Input.ConversationID).
				Str("dialog", string(top.DialogID)).
				Int("cursor", top.Cursor).
				Int("fault", faults).
				Msg("dialog step failed, resetting to root")

			state.Reset(model.NewFrame(m.root, nil))
			turn.consumed = true
			if faults > 1 {
				return true, nil
			}
			turn.Say(FaultMessage)
			turn.steps = 0
			in = StepInput{}
			continue
		}

		switch res.Kind {
		case KindSuspend:
			return faults > 0, nil
		case KindPush:
			state.Push(model.NewFrame(res.Dialog, res.Args))
			in = StepInput{}
		case KindPop:
			state.Pop()
			in = StepInput{Value: res.Value}
		case KindReplace:
			if res.Dialog == m.root {
				state.Reset(model.NewFrame(m.root, res.Args))
			} else {
				state.Pop()
				state.Push(model.NewFrame(res.Dialog, res.Args))
			}
			in = StepInput{}
		}
	}
}

func userKey(in model.TurnInput) string {
	if in.UserID != "" {
		return in.UserID
	}
	return in.ConversationID
}
