package dialog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ivy-assistant/server/internal/agent/model"
	"github.com/ivy-assistant/server/internal/agent/repo"
)

const (
	testChild  model.DialogID = "city_prompt"
	testLooper model.DialogID = "looper"
)

// testingT is satisfied by both *testing.T and *rapid.T.
type testingT interface {
	require.TestingT
	Helper()
}

// testRegistry is a small menu that can push a prompting child, fail, panic or spin.
func testRegistry(t testingT) *Registry {
	t.Helper()
	root := Definition{ID: model.RootDialog, Steps: []Step{
		func(sc *StepContext) (StepResult, error) {
			if sc.Resumed {
				return Next(sc.Input), nil
			}
			if text, ok := sc.Turn.TakeInput(); ok && text != "" {
				return Next(text), nil
			}
			sc.Turn.Say("menu")
			return Suspend(model.PromptMenu), nil
		},
		func(sc *StepContext) (StepResult, error) {
			switch sc.Value {
			case "push":
				return Push(testChild, map[string]any{"hint": "city"}), nil
			case "boom":
				return StepResult{}, errors.New("boom")
			case "panic":
				panic("kaboom")
			case "loop":
				return Replace(testLooper, nil), nil
			default:
				sc.Turn.Say("unknown")
				return Replace(model.RootDialog, nil), nil
			}
		},
		func(sc *StepContext) (StepResult, error) {
			sc.Turn.Say("got " + sc.Value.(string))
			return Replace(model.RootDialog, nil), nil
		},
	}}
	child := Definition{ID: testChild, Steps: []Step{
		func(sc *StepContext) (StepResult, error) {
			var args struct {
				Hint string `mapstructure:"hint"`
			}
			if err := sc.Args(&args); err != nil {
				return StepResult{}, err
			}
			if !sc.Resumed || strings.TrimSpace(sc.Input) == "" {
				sc.Turn.Say("which " + args.Hint + "?")
				return Suspend(model.PromptCity), nil
			}
			return Pop(strings.ToUpper(sc.Input)), nil
		},
	}}
	looper := Definition{ID: testLooper, Steps: []Step{
		func(sc *StepContext) (StepResult, error) {
			return Replace(testLooper, nil), nil
		},
	}}

	reg, err := NewRegistry(root, child, looper)
	require.NoError(t, err)
	return reg
}

type harness struct {
	store   *repo.MemoryStore
	states  *repo.StateRepository
	manager *Manager
}

func newHarness(t testingT) *harness {
	store := repo.NewMemoryStore()
	states := repo.NewStateRepository(store, model.ConversationConfig{})
	mgr := NewManager(states, NewExecutor(testRegistry(t), 20), WithWelcome(model.TextMessage("hello")))
	return &harness{store: store, states: states, manager: mgr}
}

func (h *harness) say(t testingT, text string) *model.TurnOutcome {
	t.Helper()
	out, err := h.manager.HandleTurn(context.Background(), model.TurnInput{ConversationID: "c1", UserID: "u1", Text: text})
	require.NoError(t, err)
	return out
}

func (h *harness) state(t testingT) *model.ConversationState {
	t.Helper()
	s, err := h.states.LoadConversation(context.Background(), "c1")
	require.NoError(t, err)
	return s
}

func texts(msgs []model.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Text)
	}
	return out
}

func TestManager_FirstTurnShowsMenu(t *testing.T) {
	h := newHarness(t)

	out := h.say(t, "")

	assert.Equal(t, []string{"menu"}, texts(out.Messages))
	assert.Equal(t, []model.DialogID{model.RootDialog}, out.Stack)
	assert.Equal(t, int64(1), out.TurnCounter)

	s := h.state(t)
	require.Len(t, s.Stack, 1)
	assert.Equal(t, model.PromptMenu, s.Stack[0].PendingPrompt)
	assert.Equal(t, 0, s.Stack[0].Cursor)
}

func TestManager_PushSuspendPopAcrossTurns(t *testing.T) {
	h := newHarness(t)
	h.say(t, "")

	out := h.say(t, "push")
	assert.Equal(t, []string{"which city?"}, texts(out.Messages))
	assert.Equal(t, []model.DialogID{model.RootDialog, testChild}, out.Stack)

	s := h.state(t)
	assert.Equal(t, model.PromptNone, s.Stack[0].PendingPrompt)
	assert.Equal(t, 2, s.Stack[0].Cursor)
	assert.Equal(t, model.PromptCity, s.Stack[1].PendingPrompt)

	out = h.say(t, "  ")
	assert.Equal(t, []string{"which city?"}, texts(out.Messages))
	assert.Equal(t, []model.DialogID{model.RootDialog, testChild}, out.Stack)

	out = h.say(t, "brussels")
	assert.Equal(t, []string{"got BRUSSELS", "menu"}, texts(out.Messages))
	assert.Equal(t, []model.DialogID{model.RootDialog}, out.Stack)
	assert.Equal(t, int64(4), out.TurnCounter)
}

func TestManager_StepErrorResetsToRoot(t *testing.T) {
	for _, input := range []string{"boom", "panic", "loop"} {
		t.Run(input, func(t *testing.T) {
			h := newHarness(t)
			h.say(t, "")

			out := h.say(t, input)

			assert.True(t, out.Faulted)
			assert.Equal(t, []string{FaultMessage, "menu"}, texts(out.Messages))
			assert.Equal(t, []model.DialogID{model.RootDialog}, h.state(t).DialogIDs())

			out = h.say(t, "push")
			assert.False(t, out.Faulted)
			assert.Equal(t, []model.DialogID{model.RootDialog, testChild}, out.Stack)
		})
	}
}

func TestManager_SecondFaultStops(t *testing.T) {
	failing := Definition{ID: model.RootDialog, Steps: []Step{
		func(sc *StepContext) (StepResult, error) { return StepResult{}, errors.New("always") },
	}}
	reg, err := NewRegistry(failing)
	require.NoError(t, err)
	states := repo.NewStateRepository(repo.NewMemoryStore(), model.ConversationConfig{})
	mgr := NewManager(states, NewExecutor(reg, 0))

	out, err := mgr.HandleTurn(context.Background(), model.TurnInput{ConversationID: "c1", Text: "hi"})

	require.NoError(t, err)
	assert.True(t, out.Faulted)
	assert.Equal(t, []string{FaultMessage}, texts(out.Messages))
	assert.Equal(t, []model.DialogID{model.RootDialog}, out.Stack)
}

func TestManager_CanceledTurnPersistsNothing(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.manager.HandleTurn(ctx, model.TurnInput{ConversationID: "c1", Text: "push"})

	require.ErrorIs(t, err, context.Canceled)
	_, ok, err := h.store.Load(context.Background(), "conversation:c1:state")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, h.state(t).TurnCounter)
}

func TestManager_ConversationUpdateWelcomes(t *testing.T) {
	h := newHarness(t)
	h.say(t, "")
	h.say(t, "push")

	out, err := h.manager.HandleTurn(context.Background(), model.TurnInput{ConversationID: "c1", Kind: model.TurnConversationUpdate, Text: "ignored"})

	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "menu"}, texts(out.Messages))
	assert.Equal(t, []model.DialogID{model.RootDialog}, out.Stack)
}

func TestManager_RequiresConversationID(t *testing.T) {
	h := newHarness(t)
	_, err := h.manager.HandleTurn(context.Background(), model.TurnInput{Text: "hi"})
	require.Error(t, err)
}

func TestExecutor_RunningPastLastStepPops(t *testing.T) {
	reg, err := NewRegistry(Definition{ID: "counter", Steps: []Step{
		func(sc *StepContext) (StepResult, error) { return Next(1), nil },
		func(sc *StepContext) (StepResult, error) { return Next(sc.Value.(int) + 1), nil },
	}})
	require.NoError(t, err)

	frame := model.NewFrame("counter", nil)
	turn := NewTurn(model.TurnInput{ConversationID: "c"}, model.NewConversationState("c"), &model.UserProfile{})
	res, err := NewExecutor(reg, 0).Run(context.Background(), turn, &frame, StepInput{})

	require.NoError(t, err)
	assert.Equal(t, KindPop, res.Kind)
	assert.Equal(t, 2, res.Value)
	assert.Equal(t, 2, frame.Cursor)
}

func TestRegistry_Validation(t *testing.T) {
	noop := func(sc *StepContext) (StepResult, error) { return Pop(nil), nil }

	_, err := NewRegistry(Definition{ID: "a", Steps: []Step{noop}}, Definition{ID: "a", Steps: []Step{noop}})
	assert.Error(t, err)

	_, err = NewRegistry(Definition{ID: "b"})
	assert.Error(t, err)

	_, err = NewRegistry(Definition{Steps: []Step{noop}})
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	var loc model.LocationResult
	require.NoError(t, Decode(map[string]any{"country_code": "BE", "city": "Brussels"}, &loc))
	assert.Equal(t, model.LocationResult{CountryCode: "BE", City: "Brussels"}, loc)

	var fromStruct model.LocationResult
	require.NoError(t, Decode(model.LocationResult{City: "Ghent"}, &fromStruct))
	assert.Equal(t, "Ghent", fromStruct.City)

	var args struct {
		Suggestions []model.Action `mapstructure:"suggestions"`
		Days        int            `mapstructure:"days"`
	}
	persisted := map[string]any{
		"suggestions": []any{map[string]any{"title": "A", "value": "a"}},
		"days":        float64(5),
	}
	require.NoError(t, Decode(persisted, &args))
	assert.Equal(t, []model.Action{{Title: "A", Value: "a"}}, args.Suggestions)
	assert.Equal(t, 5, args.Days)
}

// A fault on any turn leaves exactly the root frame persisted, and only the
// top frame ever waits for input.
func TestManager_NeverStuckProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := newHarness(rt)
		inputs := rapid.SliceOfN(rapid.SampledFrom([]string{"", "push", "boom", "panic", "loop", "brussels", "other"}), 1, 15).Draw(rt, "inputs")

		for _, in := range inputs {
			out := h.say(rt, in)
			s := h.state(rt)
			if out.Faulted {
				if len(s.Stack) != 1 || s.Stack[0].DialogID != model.RootDialog {
					rt.Fatalf("after fault on %q stack is %v", in, s.DialogIDs())
				}
			}
			for i, f := range s.Stack {
				if f.Suspended() && i != len(s.Stack)-1 {
					rt.Fatalf("frame %d of %v is suspended below the top", i, s.DialogIDs())
				}
			}
			if len(s.Stack) == 0 {
				rt.Fatalf("empty stack persisted after %q", in)
			}
		}
	})
}

func TestManager_FaultDiscardsProfileChanges(t *testing.T) {
	root := Definition{ID: model.RootDialog, Steps: []Step{
		func(sc *StepContext) (StepResult, error) {
			if sc.Resumed {
				return Next(sc.Input), nil
			}
			if text, ok := sc.Turn.TakeInput(); ok && text != "" {
				return Next(text), nil
			}
			return Suspend(model.PromptMenu), nil
		},
		func(sc *StepContext) (StepResult, error) {
			sc.Turn.Profile.Location.City = sc.Value.(string)
			sc.Turn.ProfileChanged()
			if sc.Value == "Atlantis" {
				return StepResult{}, errors.New("sunk")
			}
			return Replace(model.RootDialog, nil), nil
		},
	}}
	reg, err := NewRegistry(root)
	require.NoError(t, err)
	states := repo.NewStateRepository(repo.NewMemoryStore(), model.ConversationConfig{})
	mgr := NewManager(states, NewExecutor(reg, 0))
	ctx := context.Background()

	out, err := mgr.HandleTurn(ctx, model.TurnInput{ConversationID: "c1", UserID: "u1", Text: "Atlantis"})
	require.NoError(t, err)
	require.True(t, out.Faulted)

	p, err := states.LoadProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, p.Location.City)

	out, err = mgr.HandleTurn(ctx, model.TurnInput{ConversationID: "c1", UserID: "u1", Text: "Brussels"})
	require.NoError(t, err)
	require.False(t, out.Faulted)

	p, err = states.LoadProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Brussels", p.Location.City)
}
