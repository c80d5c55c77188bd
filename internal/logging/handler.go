// Package logging routes slog records to the leveled terminal logger or, when
// the process runs under systemd with stderr connected to the journal, to
// journald.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"git.sr.ht/~spc/go-log"
	"github.com/coreos/go-systemd/v22/journal"
)

// sink receives fully rendered records.
type sink interface {
	emit(level slog.Level, msg string, fields map[string]string) error
}

// Handler is a slog.Handler that renders records as "message key=value ..."
// and passes them to a sink.
type Handler struct {
	level slog.Leveler
	sink  sink
	attrs []slog.Attr
	group string
}

// NewHandler returns a Handler at the given go-log level name ("error",
// "warn", "info", "debug" or "trace").
func NewHandler(levelName string) (*Handler, error) {
	level, err := log.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", levelName, err)
	}
	log.SetLevel(level)

	var s sink = terminalSink{}
	if ok, _ := journal.StderrIsJournalStream(); ok {
		s = journalSink{}
	}
	return &Handler{level: slogLevel(level), sink: s}, nil
}

func slogLevel(level log.Level) slog.Level {
	switch {
	case level >= log.LevelDebug:
		return slog.LevelDebug
	case level >= log.LevelInfo:
		return slog.LevelInfo
	case level >= log.LevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	fields := make(map[string]string, len(h.attrs)+record.NumAttrs())
	var b strings.Builder
	b.WriteString(record.Message)

	write := func(key string, value slog.Value) {
		rendered := value.Resolve().String()
		fmt.Fprintf(&b, " %s=%q", key, rendered)
		fields[key] = rendered
	}
	// Stored attrs are already qualified by the group that was open when
	// they were added.
	for _, a := range h.attrs {
		write(a.Key, a.Value)
	}
	record.Attrs(func(a slog.Attr) bool {
		if !a.Equal(slog.Attr{}) {
			write(h.qualify(a.Key), a.Value)
		}
		return true
	})

	return h.sink.emit(record.Level, b.String(), fields)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := *h
	derived.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	derived.attrs = append(derived.attrs, h.attrs...)
	for _, a := range attrs {
		if a.Equal(slog.Attr{}) {
			continue
		}
		a.Key = h.qualify(a.Key)
		derived.attrs = append(derived.attrs, a)
	}
	return &derived
}

func (h *Handler) qualify(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	derived := *h
	if h.group != "" {
		derived.group = h.group + "." + name
	} else {
		derived.group = name
	}
	return &derived
}

type terminalSink struct{}

func (terminalSink) emit(level slog.Level, msg string, _ map[string]string) error {
	switch {
	case level >= slog.LevelError:
		log.Errorf("%s", msg)
	case level >= slog.LevelWarn:
		log.Warnf("%s", msg)
	case level >= slog.LevelInfo:
		log.Infof("%s", msg)
	default:
		log.Debugf("%s", msg)
	}
	return nil
}

type journalSink struct{}

func (journalSink) emit(level slog.Level, msg string, fields map[string]string) error {
	vars := make(map[string]string, len(fields))
	for key, value := range fields {
		vars[journalField(key)] = value
	}
	return journal.Send(msg, journalPriority(level), vars)
}

func journalPriority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// journalField maps an attribute key to a valid journal field name:
// upper case letters, digits and underscores, not starting with an
// underscore.
func journalField(key string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, key)
	return "EDGED_" + name
}
