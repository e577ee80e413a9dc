package rendering

import (
	"strconv"

	"github.com/dop251/goja"
	"github.com/pithecene-io/grana/types"
)

// definePropertySource attaches an accessor property whose getter is a
// Go-backed function, so the property is recomputed on every access
// instead of being evaluated once and cached.
const definePropertySource = `
(function(obj, key, getter) {
  Object.defineProperty(obj, key, { get: getter, enumerable: true, configurable: true });
})
`

// ctxBuilder materializes a raw Go-native context tree (as loaded from a
// workflow's YAML context block) into a goja object tree, wiring a lazy
// getter for every templated string or object-template marker so that it
// is rendered on first access rather than eagerly at construction time,
// and again on every subsequent access rather than being cached.
type ctxBuilder struct {
	vm         *goja.Runtime
	templar    *Templar
	defineProp goja.Callable
}

func newCtxBuilder(vm *goja.Runtime, templar *Templar) (*ctxBuilder, error) {
	fnVal, err := vm.RunString(definePropertySource)
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return nil, errNotFunction
	}
	return &ctxBuilder{vm: vm, templar: templar, defineProp: fn}, nil
}

// buildMapObject builds a plain (unwrapped) object from a raw Go map.
// Callers wrap the result in the appropriate missing-key proxy.
func (b *ctxBuilder) buildMapObject(m map[string]interface{}) (*goja.Object, error) {
	obj := b.vm.NewObject()
	for k, v := range m {
		if err := b.assignProperty(obj, k, v); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func (b *ctxBuilder) buildArrayObject(arr []interface{}) (*goja.Object, error) {
	obj := b.vm.NewArray()
	for i, v := range arr {
		if err := b.assignProperty(obj, strconv.Itoa(i), v); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// assignProperty sets obj[key] from a raw context value: nested
// containers are rebuilt recursively, templated strings and object
// templates become lazy accessor properties, everything else is set
// directly.
func (b *ctxBuilder) assignProperty(obj *goja.Object, key string, v interface{}) error {
	switch t := v.(type) {
	case string:
		if types.IsPotentiallyRenderable(t) {
			return b.defineDeferred(obj, key, func() (goja.Value, error) {
				s, err := b.templar.renderInternal(t)
				if err != nil {
					return nil, err
				}
				return b.vm.ToValue(s), nil
			})
		}
		return obj.Set(key, t)
	case types.ObjectTemplate:
		return b.defineDeferred(obj, key, func() (goja.Value, error) {
			return b.templar.evalObjectTemplate(t.Expression)
		})
	case map[string]interface{}:
		child, err := b.buildMapObject(t)
		if err != nil {
			return err
		}
		wrapped, err := runBuilder(b.vm, strictFlatProxySource, child, "other")
		if err != nil {
			return err
		}
		return obj.Set(key, wrapped)
	case []interface{}:
		child, err := b.buildArrayObject(t)
		if err != nil {
			return err
		}
		return obj.Set(key, child)
	default:
		return obj.Set(key, t)
	}
}

// defineDeferred attaches a getter that recomputes compute() fresh on
// every access. compute's error, if any, is classified as KindOther
// unless it's already a *RenderError; the resulting panic crosses the
// goja call boundary and is translated back in Templar.evalExpression.
// compute returns a goja.Value rather than a plain string so that an
// object-template marker may yield a map or list, not just text (spec
// §4.2, §8 scenario 6).
func (b *ctxBuilder) defineDeferred(obj *goja.Object, key string, compute func() (goja.Value, error)) error {
	getter := func() goja.Value {
		v, err := compute()
		if err != nil {
			panic(renderPanicErr(payloadForPanic(err)))
		}
		return v
	}
	_, err := b.defineProp(goja.Undefined(), obj, b.vm.ToValue(key), b.vm.ToValue(getter))
	return err
}

func payloadForPanic(err error) string {
	if re, ok := err.(*RenderError); ok {
		return encodeRenderPanic(re.ErrKind, re.Detail)
	}
	return encodeRenderPanic(KindOther, err.Error())
}

// evalObjectTemplate evaluates the marker expression and recursively
// reloads the result through the same map/list/string logic the initial
// context load uses (assignProperty), so a dict result becomes a real
// JS object whose own string fields are in turn lazily re-rendered on
// access (spec §4.2, §8 scenario 6: `context.merged.x`). This is what
// the object-template marker ("!@ <expr>") calls on every access of the
// key it's assigned to.
func (t *Templar) evalObjectTemplate(expr string) (goja.Value, error) {
	v, err := t.evalExpression(expr)
	if err != nil {
		return nil, err
	}
	return t.builder.reloadValue(v.Export())
}

// reloadValue rebuilds a goja-exported Go value as a goja.Value, routing
// maps and arrays back through buildMapObject/buildArrayObject (so their
// string fields become deferred, re-rendered getters) rather than
// stringifying the whole thing.
func (b *ctxBuilder) reloadValue(v interface{}) (goja.Value, error) {
	switch t := v.(type) {
	case string:
		if types.IsPotentiallyRenderable(t) {
			s, err := b.templar.renderInternal(t)
			if err != nil {
				return nil, err
			}
			return b.vm.ToValue(s), nil
		}
		return b.vm.ToValue(t), nil
	case map[string]interface{}:
		obj, err := b.buildMapObject(t)
		if err != nil {
			return nil, err
		}
		return runBuilder(b.vm, strictFlatProxySource, obj, "other")
	case []interface{}:
		return b.buildArrayObject(t)
	case nil:
		return goja.Undefined(), nil
	default:
		return b.vm.ToValue(t), nil
	}
}

// evalObjectTemplateNative evaluates the marker expression and recursively
// reloads the result into plain Go values (map[string]interface{},
// []interface{}, rendered strings), for use in RecursiveRender's
// one-shot, non-lazy walk of an action's argument tree — as opposed to
// evalObjectTemplate's goja.Value result, used when the marker lives
// inside the lazily re-evaluated context tree.
func (t *Templar) evalObjectTemplateNative(expr string) (interface{}, error) {
	v, err := t.evalExpression(expr)
	if err != nil {
		return nil, err
	}
	return reloadNative(t, v.Export())
}

// reloadNative mirrors reloadValue but produces plain Go values instead
// of goja objects, rendering nested templated strings eagerly since
// RecursiveRender has no further lazy-access point to defer them to.
func reloadNative(t *Templar, v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case string:
		if types.IsPotentiallyRenderable(x) {
			return t.renderInternal(x)
		}
		return x, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, v := range x {
			rv, err := reloadNative(t, v)
			if err != nil {
				return nil, err
			}
			out[k] = rv
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, v := range x {
			rv, err := reloadNative(t, v)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	default:
		return x, nil
	}
}
