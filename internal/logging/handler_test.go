package logging

import (
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type entry struct {
	Level  slog.Level
	Msg    string
	Fields map[string]string
}

type recordingSink struct {
	entries *[]entry
}

func (s recordingSink) emit(level slog.Level, msg string, fields map[string]string) error {
	*s.entries = append(*s.entries, entry{Level: level, Msg: msg, Fields: fields})
	return nil
}

func TestHandler(t *testing.T) {
	tests := []struct {
		description string
		log         func(logger *slog.Logger)
		want        []entry
	}{
		{
			description: "below level",
			log:         func(logger *slog.Logger) { logger.Debug("hidden") },
		},
		{
			description: "attrs before group stay unqualified",
			log: func(logger *slog.Logger) {
				logger.With("source", "/etc/aziot/edged/config.toml").
					WithGroup("proxy").
					Warn("unknown key", "key", "sidecar")
			},
			want: []entry{
				{
					Level: slog.LevelWarn,
					Msg:   `unknown key source="/etc/aziot/edged/config.toml" proxy.key="sidecar"`,
					Fields: map[string]string{
						"source":    "/etc/aziot/edged/config.toml",
						"proxy.key": "sidecar",
					},
				},
			},
		},
		{
			description: "attrs after group are qualified once",
			log: func(logger *slog.Logger) {
				logger.WithGroup("g").With("a", 1).Info("loaded", "b", 2)
			},
			want: []entry{
				{
					Level:  slog.LevelInfo,
					Msg:    `loaded g.a="1" g.b="2"`,
					Fields: map[string]string{"g.a": "1", "g.b": "2"},
				},
			},
		},
		{
			description: "nested groups",
			log: func(logger *slog.Logger) {
				logger.WithGroup("a").With("x", "1").WithGroup("b").Error("failed", "y", "2")
			},
			want: []entry{
				{
					Level:  slog.LevelError,
					Msg:    `failed a.x="1" a.b.y="2"`,
					Fields: map[string]string{"a.x": "1", "a.b.y": "2"},
				},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			var entries []entry
			test.log(slog.New(&Handler{level: slog.LevelInfo, sink: recordingSink{&entries}}))
			if diff := cmp.Diff(test.want, entries); diff != "" {
				t.Errorf("entries mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"error", slog.LevelError},
		{"warn", slog.LevelWarn},
		{"info", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"trace", slog.LevelDebug},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			h, err := NewHandler(test.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := h.level.Level(); got != test.want {
				t.Errorf("%v != %v", got, test.want)
			}
		})
	}
}

func TestNewHandler_InvalidLevel(t *testing.T) {
	if _, err := NewHandler("loud"); err == nil {
		t.Errorf("expected error for unknown level")
	}
}

func TestJournalField(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"source", "EDGED_SOURCE"},
		{"proxy.key", "EDGED_PROXY_KEY"},
		{"drop-in", "EDGED_DROP_IN"},
	}
	for _, test := range tests {
		if got := journalField(test.input); got != test.want {
			t.Errorf("journalField(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}
