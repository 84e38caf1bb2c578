package dialog

import (
	"fmt"

	"github.com/ivy-assistant/server/internal/agent/model"
)

// Step is one unit of a waterfall.
type Step func(sc *StepContext) (StepResult, error)

// Definition binds a dialog id to its steps.
type Definition struct {
	ID    model.DialogID
	Steps []Step
}

// Registry is the dispatch table from dialog id to definition.
type Registry struct {
	defs map[model.DialogID]*Definition
}

func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{defs: make(map[model.DialogID]*Definition, len(defs))}
	for i := range defs {
		if err := r.Register(defs[i]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(def Definition) error {
	if def.ID == "" {
		return fmt.Errorf("dialog definition without id")
	}
	if len(def.Steps) == 0 {
		return fmt.Errorf("dialog %q has no steps", def.ID)
	}
	if _, dup := r.defs[def.ID]; dup {
		return fmt.Errorf("dialog %q registered twice", def.ID)
	}
	d := def
	r.defs[def.ID] = &d
	return nil
}

func (r *Registry) Lookup(id model.DialogID) (*Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}
