package actions

import "github.com/pithecene-io/grana/errs"

// RunError is the typed error stored on FAILURE, carrying the
// caller-provided message passed to Fail (or the string form of an
// uncaught error returned from Run).
type RunError struct {
	Action  string
	Message string
}

func (e *RunError) Error() string {
	return e.Message
}

// AsGranaError classifies a RunError as errs.KindRun.
func (e *RunError) AsGranaError() *errs.Error {
	return errs.Wrap(errs.KindRun, "action "+e.Action+" failed", e)
}

// skipSignal is the internal panic value Skip() raises out of a running
// action body; it carries no information beyond "stop now", mirroring the
// source's ActionSkip control-flow exception.
type skipSignal struct{}

// ErrActionNotPending is returned by Disable when called outside PENDING.
type ErrActionNotPending struct {
	Action string
	Status string
}

func (e *ErrActionNotPending) Error() string {
	return "action " + e.Action + " can't be disabled, status is " + e.Status
}
