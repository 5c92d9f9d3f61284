package sim

import "fmt"

// InputParseError reports a malformed input record: wrong field count,
// a non-numeric field, an unknown action kind or an out-of-range value.
type InputParseError struct {
	Source string // file path or URL; empty for in-memory input
	Line   int    // 1-based line number; 0 when not line oriented
	Record string // offending record text
	Reason string
	Err    error
}

func (e *InputParseError) Error() string {
	loc := e.Source
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Source, e.Line)
	}
	msg := fmt.Sprintf("parsing %q: %s", e.Record, e.Reason)
	if loc != "" {
		msg = loc + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InputParseError) Unwrap() error { return e.Err }

// FileUnavailableError reports an input source that is missing or unreadable.
type FileUnavailableError struct {
	Path string
	Err  error
}

func (e *FileUnavailableError) Error() string {
	return fmt.Sprintf("input %s unavailable: %v", e.Path, e.Err)
}

func (e *FileUnavailableError) Unwrap() error { return e.Err }

// InvalidConfigurationError reports a run parameter that cannot be honoured,
// such as a quantum below 1 or an unknown policy name.
type InvalidConfigurationError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
