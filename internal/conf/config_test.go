package conf

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestSourceFromLookup(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected ConfigSource
	}{
		{
			name: "defaults",
			env:  map[string]string{},
			expected: ConfigSource{
				Path:      "/etc/aziot/edged/config.toml",
				DropInDir: DefaultConfigDir,
			},
		},
		{
			name: "both overridden",
			env: map[string]string{
				ConfigEnvVar:    "/tmp/edged.toml",
				ConfigDirEnvVar: "/tmp/edged.d",
			},
			expected: ConfigSource{
				Path:      "/tmp/edged.toml",
				DropInDir: "/tmp/edged.d",
			},
		},
		{
			name: "empty value still overrides",
			env: map[string]string{
				ConfigDirEnvVar: "",
			},
			expected: ConfigSource{
				Path:      "/etc/aziot/edged/config.toml",
				DropInDir: "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := func(key string) (string, bool) {
				v, ok := tt.env[key]
				return v, ok
			}
			result := sourceFromLookup(lookup, "/etc/aziot/edged/config.toml")
			if diff := cmp.Diff(tt.expected, *result); diff != "" {
				t.Errorf("sourceFromLookup() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSourceFromEnv(t *testing.T) {
	t.Setenv(ConfigEnvVar, "/custom/config.toml")
	t.Setenv(ConfigDirEnvVar, "/custom/config.d")

	cs := SourceFromEnv("/etc/aziot/edged/config.toml")
	if cs.Path != "/custom/config.toml" {
		t.Errorf("expected Path=/custom/config.toml, got %s", cs.Path)
	}
	if cs.DropInDir != "/custom/config.d" {
		t.Errorf("expected DropInDir=/custom/config.d, got %s", cs.DropInDir)
	}
}

func TestParseDocument(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectError bool
		expected    Document
	}{
		{
			name: "nested tables",
			input: `
namespace = "edge"
[proxy]
image = "proxy:1"
`,
			expected: Document{
				"namespace": "edge",
				"proxy":     map[string]any{"image": "proxy:1"},
			},
		},
		{
			name:     "empty string",
			input:    "",
			expected: Document{},
		},
		{
			name:        "invalid TOML",
			input:       "not valid toml ===",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseDocument(tt.input)

			if tt.expectError && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.expectError {
				if diff := cmp.Diff(tt.expected, result); diff != "" {
					t.Errorf("parseDocument() mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestConfigSource_FullStack(t *testing.T) {
	tmpDir := t.TempDir()
	mainConfigPath := filepath.Join(tmpDir, "config.toml")
	dropinDir := filepath.Join(tmpDir, "config.d")
	if err := os.Mkdir(dropinDir, 0755); err != nil {
		t.Fatalf("failed to create drop-in directory: %v", err)
	}

	writeFile(t, mainConfigPath, `
namespace = "a"
hostname = "main"
[watchdog]
max_retries = 3
`)
	dropinFiles := map[string]string{
		"10-namespace.toml": `namespace = "b"`,
		"20-namespace.toml": `namespace = "c"`,
		"30-listen.toml": `
[listen]
workload_uri = "unix:///run/workload.sock"
`,
	}
	for filename, content := range dropinFiles {
		writeFile(t, filepath.Join(dropinDir, filename), content)
	}

	cs := &ConfigSource{
		Path:      mainConfigPath,
		DropInDir: dropinDir,
		Defaults: `
auto_reprovisioning_mode = "Dynamic"
[watchdog]
max_retries = "infinite"
`,
	}
	result, err := cs.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Defaults < Main < Drop-ins (in order)
	expected := Document{
		"auto_reprovisioning_mode": "Dynamic",
		"namespace":                "c",
		"hostname":                 "main",
		"watchdog":                 map[string]any{"max_retries": int64(3)},
		"listen":                   map[string]any{"workload_uri": "unix:///run/workload.sock"},
	}
	if diff := cmp.Diff(expected, result); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigSource_DropInEligibility(t *testing.T) {
	base := `namespace = "a"`
	expected := Document{"namespace": "a"}

	tests := []struct {
		name  string
		setup func(t *testing.T, dir string)
	}{
		{
			name:  "directory missing",
			setup: func(t *testing.T, dir string) {},
		},
		{
			name: "directory empty",
			setup: func(t *testing.T, dir string) {
				if err := os.Mkdir(dir, 0755); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name: "no eligible files",
			setup: func(t *testing.T, dir string) {
				if err := os.Mkdir(dir, 0755); err != nil {
					t.Fatal(err)
				}
				writeFile(t, filepath.Join(dir, "10-namespace.conf"), `namespace = "b"`)
				writeFile(t, filepath.Join(dir, "README"), `not toml at all ===`)
				if err := os.Mkdir(filepath.Join(dir, "20-nested.toml"), 0755); err != nil {
					t.Fatal(err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			mainConfigPath := filepath.Join(tmpDir, "config.toml")
			dropinDir := filepath.Join(tmpDir, "config.d")
			writeFile(t, mainConfigPath, base)
			tt.setup(t, dropinDir)

			cs := &ConfigSource{Path: mainConfigPath, DropInDir: dropinDir}
			result, err := cs.Read()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(expected, result); diff != "" {
				t.Errorf("Read() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfigSource_SymlinkedDropIn(t *testing.T) {
	tmpDir := t.TempDir()
	mainConfigPath := filepath.Join(tmpDir, "config.toml")
	dropinDir := filepath.Join(tmpDir, "config.d")
	if err := os.Mkdir(dropinDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, mainConfigPath, `namespace = "a"`)
	target := filepath.Join(tmpDir, "shared.toml")
	writeFile(t, target, `namespace = "linked"`)
	if err := os.Symlink(target, filepath.Join(dropinDir, "50-shared.toml")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	cs := &ConfigSource{Path: mainConfigPath, DropInDir: dropinDir}
	result, err := cs.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["namespace"] != "linked" {
		t.Errorf("expected namespace=linked, got %v", result["namespace"])
	}
}

func TestConfigSource_DanglingDropIn(t *testing.T) {
	tmpDir := t.TempDir()
	mainConfigPath := filepath.Join(tmpDir, "config.toml")
	dropinDir := filepath.Join(tmpDir, "config.d")
	if err := os.Mkdir(dropinDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, mainConfigPath, `namespace = "a"`)
	writeFile(t, filepath.Join(dropinDir, "10-override.toml"), `namespace = "b"`)
	if err := os.Symlink(filepath.Join(tmpDir, "removed.toml"), filepath.Join(dropinDir, "90-stale.toml")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	cs := &ConfigSource{Path: mainConfigPath, DropInDir: dropinDir}
	result, err := cs.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["namespace"] != "b" {
		t.Errorf("expected namespace=b, got %v", result["namespace"])
	}
}

func TestConfigSource_Errors(t *testing.T) {
	t.Run("missing main file", func(t *testing.T) {
		tmpDir := t.TempDir()
		cs := &ConfigSource{
			Path:      filepath.Join(tmpDir, "config.toml"),
			DropInDir: filepath.Join(tmpDir, "config.d"),
		}
		_, err := cs.Read()
		var sourceErr *SourceError
		if !errors.As(err, &sourceErr) {
			t.Fatalf("expected *SourceError, got %v", err)
		}
		if sourceErr.Op != "read" {
			t.Errorf("expected Op=read, got %s", sourceErr.Op)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("expected cause fs.ErrNotExist, got %v", err)
		}
	})

	t.Run("malformed main file", func(t *testing.T) {
		tmpDir := t.TempDir()
		mainConfigPath := filepath.Join(tmpDir, "config.toml")
		writeFile(t, mainConfigPath, "namespace = ")
		cs := &ConfigSource{Path: mainConfigPath, DropInDir: filepath.Join(tmpDir, "config.d")}

		_, err := cs.Read()
		var parseErr toml.ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected toml.ParseError in chain, got %v", err)
		}
	})

	t.Run("malformed drop-in", func(t *testing.T) {
		tmpDir := t.TempDir()
		mainConfigPath := filepath.Join(tmpDir, "config.toml")
		dropinDir := filepath.Join(tmpDir, "config.d")
		if err := os.Mkdir(dropinDir, 0755); err != nil {
			t.Fatal(err)
		}
		writeFile(t, mainConfigPath, `namespace = "a"`)
		badPath := filepath.Join(dropinDir, "10-bad.toml")
		writeFile(t, badPath, "[proxy")

		cs := &ConfigSource{Path: mainConfigPath, DropInDir: dropinDir}
		_, err := cs.Read()
		var sourceErr *SourceError
		if !errors.As(err, &sourceErr) {
			t.Fatalf("expected *SourceError, got %v", err)
		}
		if sourceErr.Path != badPath {
			t.Errorf("expected Path=%s, got %s", badPath, sourceErr.Path)
		}
	})
}
