package rendering

import (
	"fmt"

	"github.com/dop251/goja"
	"github.com/pithecene-io/grana/types"
)

// installFailFn exposes a single host function, __grana_fail, that JS-side
// proxy traps call to signal a classified render failure. It returns the
// encoded payload rather than throwing itself, so the JS call site does
// `throw __grana_fail(...)` — letting goja's ordinary exception machinery
// carry the payload back to Go as a *goja.Exception, instead of relying on
// undocumented behavior around panics raised from inside a host function.
// The proxy traps pass the bare missing property name; the human-readable
// message (spec §8 scenario 5: "Outcome key 'missing' not found") is built
// here, once, rather than duplicated across every proxy source string.
func installFailFn(vm *goja.Runtime) {
	vm.Set("__grana_fail", func(kind, prop string) string {
		k := parseKindTag(kind)
		return encodeRenderPanic(k, missingKeyMessage(k, prop))
	})
}

// missingKeyMessage renders the detail message for a missing-key render
// error, matching the literal phrasing spec §8 scenario 5 requires.
func missingKeyMessage(kind ErrorKind, prop string) string {
	switch kind {
	case KindActionNotFound:
		return fmt.Sprintf("Action '%s' not found", prop)
	case KindOutcomeKeyMissing:
		return fmt.Sprintf("Outcome key '%s' not found", prop)
	case KindContextKeyMissing:
		return fmt.Sprintf("Context key '%s' not found", prop)
	default:
		return prop
	}
}

func parseKindTag(tag string) ErrorKind {
	switch tag {
	case "action-not-found":
		return KindActionNotFound
	case "outcome-key-missing":
		return KindOutcomeKeyMissing
	case "context-key-missing":
		return KindContextKeyMissing
	case "restricted-builtin":
		return KindRestrictedBuiltin
	case "recursion-depth-exceeded":
		return KindRecursionDepthExceeded
	default:
		return KindOther
	}
}

// outcomeProxySource builds the outcomes container: outcomes[actionName]
// is itself a dict of yielded keys, strict or loose per configuration;
// outcomes[unknownActionName] always fails with action-not-found,
// regardless of strictness.
const outcomeProxySource = `
(function(data, strict) {
  function wrapOutcome(obj) {
    return new Proxy(obj, {
      get: function(target, prop) {
        if (typeof prop === "symbol") { return target[prop]; }
        if (Object.prototype.hasOwnProperty.call(target, prop)) { return target[prop]; }
        if (strict) { throw __grana_fail("outcome-key-missing", String(prop)); }
        return "";
      }
    });
  }
  var wrapped = {};
  for (var name in data) {
    wrapped[name] = wrapOutcome(data[name]);
  }
  return new Proxy(wrapped, {
    get: function(target, prop) {
      if (typeof prop === "symbol") { return target[prop]; }
      if (Object.prototype.hasOwnProperty.call(target, prop)) { return target[prop]; }
      throw __grana_fail("action-not-found", String(prop));
    }
  });
})
`

// statusProxySource builds the status container: status[actionName] is a
// flat string, status[unknownActionName] fails with action-not-found.
const statusProxySource = `
(function(data) {
  return new Proxy(data, {
    get: function(target, prop) {
      if (typeof prop === "symbol") { return target[prop]; }
      if (Object.prototype.hasOwnProperty.call(target, prop)) { return target[prop]; }
      throw __grana_fail("action-not-found", String(prop));
    }
  });
})
`

// looseFlatProxySource builds a container whose missing keys resolve to
// the empty string rather than failing (used for the environment map).
const looseFlatProxySource = `
(function(data) {
  return new Proxy(data, {
    get: function(target, prop) {
      if (typeof prop === "symbol") { return target[prop]; }
      if (Object.prototype.hasOwnProperty.call(target, prop)) { return target[prop]; }
      return "";
    }
  });
})
`

// strictFlatProxySource builds a container whose missing top-level keys
// fail with the given kind tag (used for the top-level context object).
const strictFlatProxySource = `
(function(data, kind) {
  return new Proxy(data, {
    get: function(target, prop) {
      if (typeof prop === "symbol") { return target[prop]; }
      if (Object.prototype.hasOwnProperty.call(target, prop)) { return target[prop]; }
      throw __grana_fail(kind, String(prop));
    }
  });
})
`

func runBuilder(vm *goja.Runtime, source string, args ...interface{}) (goja.Value, error) {
	fnVal, err := vm.RunString(source)
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return nil, errNotFunction
	}
	jsArgs := make([]goja.Value, len(args))
	for i, a := range args {
		jsArgs[i] = vm.ToValue(a)
	}
	return fn(goja.Undefined(), jsArgs...)
}

var errNotFunction = &buildError{"container builder did not produce a function"}

type buildError struct{ msg string }

func (e *buildError) Error() string { return e.msg }

func buildOutcomesValue(vm *goja.Runtime, outcomes map[string]types.OutcomeMap, strict bool) (goja.Value, error) {
	data := make(map[string]map[string]string, len(outcomes))
	for name, om := range outcomes {
		inner := make(map[string]string, len(om))
		for k, v := range om {
			inner[k] = v
		}
		data[name] = inner
	}
	return runBuilder(vm, outcomeProxySource, data, strict)
}

func buildStatusValue(vm *goja.Runtime, statuses map[string]types.ActionStatus) (goja.Value, error) {
	data := make(map[string]string, len(statuses))
	for name, st := range statuses {
		data[name] = string(st)
	}
	return runBuilder(vm, statusProxySource, data)
}

func buildEnvironmentValue(vm *goja.Runtime, env map[string]string) (goja.Value, error) {
	return runBuilder(vm, looseFlatProxySource, env)
}
