package actions

import (
	"context"

	"github.com/pithecene-io/grana/types"
)

// EchoArgs is the argument schema for the echo action.
type EchoArgs struct {
	Message string `yaml:"message" json:"message"`
}

// Echo is the simplest possible action body: it emits its single rendered
// message argument and finishes successfully. Embedding *Base promotes
// the full Action contract; Echo supplies only Run.
type Echo struct {
	*Base
	args EchoArgs
}

// NewEchoAction constructs an echo action from already-rendered,
// already-validated arguments.
func NewEchoAction(
	name string,
	args EchoArgs,
	ancestors map[string]types.Dependency,
	description string,
	selectable bool,
	severity types.ActionSeverity,
) *Echo {
	e := &Echo{args: args}
	e.Base = NewBase(name, ancestors, description, selectable, severity, e)
	return e
}

func (e *Echo) Run(ctx context.Context) error {
	e.Emit(e.args.Message)
	return nil
}

// SetArgs decodes the orchestrator's freshly rendered argument document
// into EchoArgs, replacing the placeholder args this action may have
// been constructed with.
func (e *Echo) SetArgs(rendered map[string]interface{}) error {
	var args EchoArgs
	if err := decodeArgs(rendered, &args); err != nil {
		return err
	}
	e.args = args
	return nil
}
