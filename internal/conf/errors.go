package conf

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// SourceError reports a configuration file that could not be read or parsed.
type SourceError struct {
	Op   string // "read" or "parse"
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// DecodeError reports a merged document whose values do not fit the typed
// model. The underlying TOML error names the offending key.
type DecodeError struct {
	Err error
}

// tomlLinePrefix matches the line number TOML errors carry. The merged
// document is decoded from memory, so its line numbers match no file.
var tomlLinePrefix = regexp.MustCompile(`^toml: line \d+ ?`)

func (e *DecodeError) Error() string {
	var perr toml.ParseError
	if errors.As(e.Err, &perr) {
		if perr.LastKey != "" {
			return fmt.Sprintf("failed to decode configuration key %q: %s", perr.LastKey, perr.Message)
		}
		return fmt.Sprintf("failed to decode configuration: %s", perr.Message)
	}
	return fmt.Sprintf("failed to decode configuration: %s", tomlLinePrefix.ReplaceAllString(e.Err.Error(), ""))
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// MissingFieldsError lists required keys absent from the merged document.
type MissingFieldsError struct {
	Paths []string
}

func (e *MissingFieldsError) Error() string {
	if len(e.Paths) == 1 {
		return fmt.Sprintf("missing required field %q", e.Paths[0])
	}
	quoted := make([]string, len(e.Paths))
	for i, path := range e.Paths {
		quoted[i] = strconv.Quote(path)
	}
	return "missing required fields " + strings.Join(quoted, ", ")
}

// UnknownKeysError lists keys that no decode target recognized. It is only
// returned in strict mode.
type UnknownKeysError struct {
	Keys []string
}

func (e *UnknownKeysError) Error() string {
	return fmt.Sprintf("unknown configuration keys: %s", strings.Join(e.Keys, ", "))
}
