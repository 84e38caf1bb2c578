// Package dialog runs waterfall dialogs on a persisted per-conversation stack.
//
// A dialog is an ordered list of steps. Each step returns a StepResult telling
// the executor whether to wait for the user, continue with the next step, start
// a child dialog, return a value to the parent or swap itself for another dialog.
package dialog

import (
	"fmt"

	"github.com/ivy-assistant/server/internal/agent/model"
)

// ResultKind discriminates StepResult.
type ResultKind int

const (
	KindSuspend ResultKind = iota
	KindNext
	KindPush
	KindPop
	KindReplace
)

func (k ResultKind) String() string {
	switch k {
	case KindSuspend:
		return "suspend"
	case KindNext:
		return "next"
	case KindPush:
		return "push"
	case KindPop:
		return "pop"
	case KindReplace:
		return "replace"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// StepResult is what a step asks the executor to do.
type StepResult struct {
	Kind   ResultKind
	Prompt model.PromptKind
	Dialog model.DialogID
	Args   map[string]any
	Value  any
}

// Suspend waits for the next utterance; the same step receives it.
func Suspend(prompt model.PromptKind) StepResult {
	if prompt == model.PromptNone {
		prompt = model.PromptFollowUp
	}
	return StepResult{Kind: KindSuspend, Prompt: prompt}
}

// Next runs the following step in the same turn with v as its value.
func Next(v any) StepResult {
	return StepResult{Kind: KindNext, Value: v}
}

// Push starts a child dialog. Its pop value resumes the following step.
func Push(id model.DialogID, args map[string]any) StepResult {
	return StepResult{Kind: KindPush, Dialog: id, Args: args}
}

// Pop ends the dialog and hands v to the parent.
func Pop(v any) StepResult {
	return StepResult{Kind: KindPop, Value: v}
}

// Replace ends the dialog and starts id in its place.
func Replace(id model.DialogID, args map[string]any) StepResult {
	return StepResult{Kind: KindReplace, Dialog: id, Args: args}
}
