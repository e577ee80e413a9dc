package rendering

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"github.com/pithecene-io/grana/errs"
	"github.com/pithecene-io/grana/types"
)

// maxRecursionDepth bounds how deeply render() may recurse into itself,
// guarding against self-referential context/outcome cycles. The upstream
// implementation this was distilled from defines an equivalent constant;
// its value wasn't available in the retrieved source, so this picks a
// value inside the 16-32 range the behavior description suggests.
const maxRecursionDepth = 24

// restrictedBuiltins are shadowed as globals that always fail: a
// workflow expression has no business reaching process-level escape
// hatches like exec/eval.
var restrictedBuiltins = []string{"exec", "eval", "compile", "setattr", "delattr"}

// Templar renders @{...} expressions against a fixed snapshot of outcome,
// status, and context data. One Templar is built per action per
// emission: it owns a single goja.Runtime for its whole lifetime so that
// a multi-field argument tree can share state (in particular the
// recursion-depth counter) across all the strings it renders.
type Templar struct {
	vm      *goja.Runtime
	builder *ctxBuilder
	depth   int
}

// NewTemplar builds a renderer over one action's outcome/status snapshot,
// the workflow's context tree, and the process environment.
//
// outcomes must contain an entry (possibly empty) for every action in the
// workflow: action-not-found vs. outcome-key-missing is distinguished by
// whether the action name itself is a key in this map.
func NewTemplar(
	outcomes map[string]types.OutcomeMap,
	statuses map[string]types.ActionStatus,
	context map[string]interface{},
	environment map[string]string,
	strictOutcomes bool,
) (*Templar, error) {
	vm := goja.New()
	installFailFn(vm)
	for _, name := range restrictedBuiltins {
		n := name
		vm.Set(n, func(goja.FunctionCall) goja.Value {
			panic(renderPanicErr(encodeRenderPanic(KindRestrictedBuiltin, n)))
		})
	}

	t := &Templar{vm: vm}

	builder, err := newCtxBuilder(vm, t)
	if err != nil {
		return nil, err
	}
	t.builder = builder

	outcomesVal, err := buildOutcomesValue(vm, outcomes, strictOutcomes)
	if err != nil {
		return nil, err
	}
	statusVal, err := buildStatusValue(vm, statuses)
	if err != nil {
		return nil, err
	}
	envVal, err := buildEnvironmentValue(vm, environment)
	if err != nil {
		return nil, err
	}
	if context == nil {
		context = map[string]interface{}{}
	}
	ctxObj, err := builder.buildMapObject(context)
	if err != nil {
		return nil, err
	}
	ctxVal, err := runBuilder(vm, strictFlatProxySource, ctxObj, "context-key-missing")
	if err != nil {
		return nil, err
	}

	vm.Set("outcomes", outcomesVal)
	vm.Set("out", outcomesVal)
	vm.Set("status", statusVal)
	vm.Set("context", ctxVal)
	vm.Set("ctx", ctxVal)
	vm.Set("environment", envVal)
	vm.Set("env", envVal)

	return t, nil
}

// Render renders a single string. Strings without an "@{" marker are
// returned unchanged without touching the interpreter.
func (t *Templar) Render(s string) (string, error) {
	if !types.IsPotentiallyRenderable(s) {
		return s, nil
	}
	out, err := t.renderInternal(s)
	if err != nil {
		if re, ok := err.(*RenderError); ok {
			return "", re.AsGranaError()
		}
		return "", errs.Wrap(errs.KindRender, "render failed", err)
	}
	return out, nil
}

// renderInternal is the depth-tracked worker shared by Render and the
// deferred-context machinery (which re-enters rendering from inside a
// property getter while evaluating an outer expression).
func (t *Templar) renderInternal(s string) (string, error) {
	t.depth++
	defer func() { t.depth-- }()
	if t.depth > maxRecursionDepth {
		return "", &RenderError{KindRecursionDepthExceeded, fmt.Sprintf("max recursion depth %d exceeded", maxRecursionDepth)}
	}

	var b strings.Builder
	for _, lx := range scan(s) {
		switch lx.kind {
		case lexText:
			b.WriteString(lx.text)
		case lexExpression:
			v, err := t.evalExpression(lx.text)
			if err != nil {
				return "", err
			}
			b.WriteString(stringifyResult(v))
		}
	}
	return b.String(), nil
}

func stringifyResult(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}

// evalExpression compiles and runs a single expression against the
// renderer's locals, translating both JS-thrown exceptions and raw Go
// panics (raised from deferred-context getters or restricted-builtin
// shims) into a classified *RenderError.
func (t *Templar) evalExpression(expr string) (result goja.Value, rerr error) {
	defer func() {
		if r := recover(); r != nil {
			rerr = translatePanic(r)
		}
	}()
	prog, err := goja.Compile("<expr>", expr, false)
	if err != nil {
		return nil, &RenderError{KindOther, err.Error()}
	}
	v, err := t.vm.RunProgram(prog)
	if err != nil {
		if exc, ok := err.(*goja.Exception); ok {
			return nil, translateExceptionValue(exc.Value())
		}
		return nil, &RenderError{KindOther, err.Error()}
	}
	return v, nil
}

func translatePanic(r interface{}) error {
	switch x := r.(type) {
	case string:
		if kind, detail, ok := decodeRenderPanic(x); ok {
			return &RenderError{kind, detail}
		}
		return &RenderError{KindOther, x}
	case error:
		if kind, detail, ok := decodeRenderPanic(x.Error()); ok {
			return &RenderError{kind, detail}
		}
		return &RenderError{KindOther, x.Error()}
	case goja.Value:
		return translateExceptionValue(x)
	default:
		return &RenderError{KindOther, fmt.Sprint(r)}
	}
}

func translateExceptionValue(v goja.Value) error {
	if v == nil {
		return &RenderError{KindOther, "unknown render error"}
	}
	exported := v.Export()
	if s, ok := exported.(string); ok {
		if kind, detail, ok := decodeRenderPanic(s); ok {
			return &RenderError{kind, detail}
		}
		return &RenderError{KindOther, s}
	}
	s := v.String()
	if kind, detail, ok := decodeRenderPanic(s); ok {
		return &RenderError{kind, detail}
	}
	return &RenderError{KindOther, s}
}

// RecursiveRender walks an already-YAML-decoded argument tree, rendering
// every string leaf and resolving every object-template marker. Maps and
// slices are rebuilt rather than mutated in place.
func (t *Templar) RecursiveRender(data interface{}) (interface{}, error) {
	out, err := t.recursiveRender(data)
	if err != nil {
		if re, ok := err.(*RenderError); ok {
			return nil, re.AsGranaError()
		}
		return nil, errs.Wrap(errs.KindRender, "render failed", err)
	}
	return out, nil
}

func (t *Templar) recursiveRender(data interface{}) (interface{}, error) {
	switch x := data.(type) {
	case string:
		if !types.IsPotentiallyRenderable(x) {
			return x, nil
		}
		return t.renderInternal(x)
	case types.ObjectTemplate:
		return t.evalObjectTemplateNative(x.Expression)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, v := range x {
			rendered, err := t.recursiveRender(v)
			if err != nil {
				return nil, err
			}
			out[k] = rendered
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, v := range x {
			rendered, err := t.recursiveRender(v)
			if err != nil {
				return nil, err
			}
			out[i] = rendered
		}
		return out, nil
	default:
		return x, nil
	}
}
