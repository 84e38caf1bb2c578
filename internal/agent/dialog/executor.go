package dialog

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/ivy-assistant/server/internal/agent/model"
	errx "github.com/ivy-assistant/server/internal/core/error"
	logx "github.com/ivy-assistant/server/pkg/logger"
)

// DefaultMaxRunSteps bounds step invocations per turn.
const DefaultMaxRunSteps = 50

// StepInput is what the executor feeds the frame's current step.
type StepInput struct {
	Value   any
	Resumed bool
	Input   string
}

// Executor runs the steps of a single frame until it yields control.
type Executor struct {
	registry    *Registry
	maxRunSteps int
}

func NewExecutor(registry *Registry, maxRunSteps int) *Executor {
	if maxRunSteps <= 0 {
		maxRunSteps = DefaultMaxRunSteps
	}
	return &Executor{registry: registry, maxRunSteps: maxRunSteps}
}

// Run executes frame from its cursor. Next results are consumed here; every
// other result is returned to the caller. Running past the last step pops
// with the last value. Step errors and panics come back as InternalFault.
func (e *Executor) Run(ctx context.Context, turn *Turn, frame *model.StackFrame, in StepInput) (StepResult, error) {
	def, ok := e.registry.Lookup(frame.DialogID)
	if !ok {
		return StepResult{}, errx.Fault(fmt.Errorf("unknown dialog %q", frame.DialogID))
	}

	for {
		if frame.Cursor < 0 || frame.Cursor >= len(def.Steps) {
			frame.PendingPrompt = model.PromptNone
			return Pop(in.Value), nil
		}
		if err := ctx.Err(); err != nil {
			return StepResult{}, err
		}
		turn.steps++
		if turn.steps > e.maxRunSteps {
			return StepResult{}, errx.Fault(fmt.Errorf("run step budget of %d exceeded in dialog %q", e.maxRunSteps, frame.DialogID))
		}

		sc := &StepContext{
			Ctx:     ctx,
			Turn:    turn,
			Frame:   frame,
			Value:   in.Value,
			Resumed: in.Resumed,
			Input:   in.Input,
		}
		frame.PendingPrompt = model.PromptNone

		logx.Debug().
			Str("conversation_id", turn.Input.ConversationID).
			Str("dialog", string(frame.DialogID)).
			Int("cursor", frame.Cursor).
			Bool("resumed", in.Resumed).
			Msg("running step")

		res, err := call(def.Steps[frame.Cursor], sc)
		if err != nil {
			return StepResult{}, errx.Fault(fmt.Errorf("dialog %q step %d: %w", frame.DialogID, frame.Cursor, err))
		}

		switch res.Kind {
		case KindNext:
			frame.Cursor++
			in = StepInput{Value: res.Value}
		case KindSuspend:
			frame.PendingPrompt = res.Prompt
			return res, nil
		case KindPush:
			frame.Cursor++
			return res, nil
		case KindPop, KindReplace:
			return res, nil
		default:
			return StepResult{}, errx.Fault(fmt.Errorf("dialog %q step %d returned %s", frame.DialogID, frame.Cursor, res.Kind))
		}
	}
}

func call(step Step, sc *StepContext) (res StepResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().
				Str("dialog", string(sc.Frame.DialogID)).
				Int("cursor", sc.Frame.Cursor).
				Bytes("stack", debug.Stack()).
				Msgf("step panicked: %v", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return step(sc)
}
