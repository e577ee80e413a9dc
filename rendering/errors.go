package rendering

import (
	"strings"

	"github.com/pithecene-io/grana/errs"
)

// ErrorKind classifies why a render failed. All are surfaced externally as
// a single errs.KindRender error; Kind lets callers (tests, display
// formatting) distinguish the subcause without string-matching.
type ErrorKind int

const (
	KindActionNotFound ErrorKind = iota
	KindOutcomeKeyMissing
	KindContextKeyMissing
	KindRestrictedBuiltin
	KindRecursionDepthExceeded
	KindOther
)

func (k ErrorKind) String() string {
	switch k {
	case KindActionNotFound:
		return "action-not-found"
	case KindOutcomeKeyMissing:
		return "outcome-key-missing"
	case KindContextKeyMissing:
		return "context-key-missing"
	case KindRestrictedBuiltin:
		return "restricted-builtin"
	case KindRecursionDepthExceeded:
		return "recursion-depth-exceeded"
	default:
		return "generic-eval"
	}
}

// RenderError is the single externally-visible render failure type.
type RenderError struct {
	ErrKind ErrorKind
	Detail  string
}

func (e *RenderError) Error() string { return e.Detail }

// Kind returns the render error subcause.
func (e *RenderError) Kind() ErrorKind { return e.ErrKind }

// AsGranaError classifies a RenderError as errs.KindRender.
func (e *RenderError) AsGranaError() *errs.Error {
	return errs.Wrap(errs.KindRender, "render failed ("+e.ErrKind.String()+")", e)
}

// panicMarker is the sentinel prefix used to encode a render-error
// classification into a plain string panic value crossing the goja
// boundary: a plain string round-trip rather than a custom Go struct
// exported through goja's reflection layer. installFailFn (containers.go)
// and translatePanic (templar.go) are its two ends.
const panicMarker = "\x00grana-render-error\x00"

// renderPanicErr is what a host function or property getter panics with
// to signal a classified render failure to goja: goja's contract for a
// native Go function is to panic with either a goja.Value or a value
// satisfying the error interface, converting it into a catchable JS
// exception rather than an unrecovered process panic.
type renderPanicErr string

func (e renderPanicErr) Error() string { return string(e) }

func encodeRenderPanic(kind ErrorKind, detail string) string {
	return panicMarker + kind.String() + "\x00" + detail
}

// decodeRenderPanic parses a panic payload produced by encodeRenderPanic.
// ok is false if the payload was not one of ours (a genuine JS runtime
// error, classified as KindOther by the caller instead).
func decodeRenderPanic(payload string) (kind ErrorKind, detail string, ok bool) {
	if !strings.HasPrefix(payload, panicMarker) {
		return 0, "", false
	}
	rest := payload[len(panicMarker):]
	parts := strings.SplitN(rest, "\x00", 2)
	kindTag := parts[0]
	if len(parts) == 2 {
		detail = parts[1]
	}
	switch kindTag {
	case "action-not-found":
		kind = KindActionNotFound
	case "outcome-key-missing":
		kind = KindOutcomeKeyMissing
	case "context-key-missing":
		kind = KindContextKeyMissing
	case "restricted-builtin":
		kind = KindRestrictedBuiltin
	case "recursion-depth-exceeded":
		kind = KindRecursionDepthExceeded
	default:
		kind = KindOther
	}
	return kind, detail, true
}
