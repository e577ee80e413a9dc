package actions

import (
	"encoding/base64"
	"regexp"
	"strings"
)

// serviceMessagePattern matches one `##grana[<verb> <b64-arg>*]##` marker
// anchored at end-of-line, capturing any preceding content on the same
// line and the message body.
var serviceMessagePattern = regexp.MustCompile(`^(.*?)##grana\[([A-Za-z0-9+/=\- ]+)]##$`)

// EmissionScanner wraps a Base and interprets its stdout for embedded
// service messages of the form `##grana[<verb> <b64-arg>*]##`, as
// described for shell-family actions. Construct one per action body and
// call Emit for every stdout line instead of calling Base.Emit directly;
// EmitStderr bypasses scanning, matching the source's Stderr exemption.
type EmissionScanner struct {
	base *Base
}

func NewEmissionScanner(base *Base) *EmissionScanner {
	return &EmissionScanner{base: base}
}

// Emit scans message for embedded service-message lines, re-emitting
// ordinary content and acting on recognized verbs. message may contain
// multiple lines; each is scanned independently.
func (s *EmissionScanner) Emit(message string) {
	var prefix strings.Builder
	for _, line := range strings.Split(message, "\n") {
		if !strings.HasSuffix(line, "]##") {
			s.base.Emit(prefix.String() + line)
			prefix.Reset()
			continue
		}
		m := serviceMessagePattern.FindStringSubmatch(line)
		if m == nil {
			s.base.Emit(prefix.String() + line)
			prefix.Reset()
			continue
		}
		prefix.WriteString(m[1])
		s.processServiceMessage(m[2])
	}
	if prefix.Len() > 0 {
		s.base.Emit(prefix.String())
	}
}

// EmitStderr bypasses scanning entirely.
func (s *EmissionScanner) EmitStderr(message string) {
	s.base.EmitStderr(message)
}

func (s *EmissionScanner) processServiceMessage(expression string) {
	fields := strings.Fields(expression)
	if len(fields) == 0 {
		return
	}
	verb := fields[0]
	args := fields[1:]
	decoded := make([]string, 0, len(args))
	for _, a := range args {
		raw, err := base64.StdEncoding.DecodeString(a)
		if err != nil {
			if s.base.logger != nil {
				s.base.logger.Sugar().Warnf("failed decoding service message argument: %v", err)
			}
			return
		}
		decoded = append(decoded, string(raw))
	}
	switch verb {
	case "skip":
		// Scanning happens on a reader goroutine, not the action body's
		// own goroutine, so unwind via state transition only: Skip()'s
		// panic is reserved for direct, synchronous use from within Run.
		s.base.internalSkip()
	case "yield-outcome-b64":
		if len(decoded) != 2 {
			if s.base.logger != nil {
				s.base.logger.Sugar().Warnf("yield-outcome-b64 expects 2 arguments, got %d", len(decoded))
			}
			return
		}
		s.base.YieldOutcome(decoded[0], decoded[1])
	default:
		if s.base.logger != nil {
			s.base.logger.Sugar().Warnf("unrecognized service message verb: %q", verb)
		}
	}
}

// ShellPrelude is the fixed shell snippet defining the yield_outcome and
// skip helper functions, prepended to shell-action commands that opt in.
const ShellPrelude = `yield_outcome(){
  [ "$1" = "" ] && echo "Missing key (first argument)" && return 1
  command -v base64 >/dev/null || ( echo "Missing command: base64" && return 2 )
  [ "$2" = "" ] && value="$(cat /dev/stdin)" || value="$2"
  echo "##grana[yield-outcome-b64 $(
    printf "$1" | base64 | tr -d '\n'
  ) $(
    printf "$value" | base64 | tr -d '\n'
  )]##"
  return 0
}
skip(){
  echo "##grana[skip]##"
  exit 0
}
`
