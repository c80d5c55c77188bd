package conf

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// ConfigEnvVar overrides the path of the main configuration file.
	ConfigEnvVar = "AZIOT_EDGED_CONFIG"
	// ConfigDirEnvVar overrides the path of the drop-in directory.
	ConfigDirEnvVar = "AZIOT_EDGED_CONFIG_DIR"
	// DefaultConfigDir is the drop-in directory used when ConfigDirEnvVar is unset.
	DefaultConfigDir = "/etc/aziot/edged/config.d"
)

// Document is a parsed TOML document: tables are map[string]any, arrays of
// tables are []map[string]any.
type Document map[string]any

// ConfigSource orchestrates loading configuration from multiple sources.
// See the Read method.
type ConfigSource struct {
	Path      string
	DropInDir string
	// Defaults is a TOML document applied beneath the main configuration file.
	Defaults string
}

// SourceFromEnv returns the ConfigSource described by the process environment.
// A variable that is set wins over the default even when it is empty.
func SourceFromEnv(defaultPath string) *ConfigSource {
	return sourceFromLookup(os.LookupEnv, defaultPath)
}

func sourceFromLookup(lookup func(string) (string, bool), defaultPath string) *ConfigSource {
	cs := &ConfigSource{
		Path:      defaultPath,
		DropInDir: DefaultConfigDir,
	}
	if path, ok := lookup(ConfigEnvVar); ok {
		cs.Path = path
	}
	if dir, ok := lookup(ConfigDirEnvVar); ok {
		cs.DropInDir = dir
	}
	return cs
}

// Read loads and returns the merged Document of all layers:
// 1. Embedded defaults
// 2. Main configuration file
// 3. Drop-in files
func (cs *ConfigSource) Read() (Document, error) {
	resolved := Document{}

	if cs.Defaults != "" {
		dto, err := parseDocument(cs.Defaults)
		if err != nil {
			slog.Error("failed to parse embedded defaults", "error", err)
			return nil, &SourceError{Op: "parse", Path: "embedded defaults", Err: err}
		}
		Merge(resolved, dto)
	}

	// Unlike drop-ins, the main file is mandatory.
	data, err := os.ReadFile(cs.Path)
	if err != nil {
		return nil, &SourceError{Op: "read", Path: cs.Path, Err: err}
	}
	mainDTO, err := parseDocument(string(data))
	if err != nil {
		return nil, &SourceError{Op: "parse", Path: cs.Path, Err: err}
	}
	Merge(resolved, mainDTO)

	paths, err := cs.findDropInFiles()
	if err != nil {
		slog.Error("failed to load drop-in files", "error", err, "dir", cs.DropInDir)
		return nil, err
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &SourceError{Op: "read", Path: path, Err: err}
		}
		dropInDTO, err := parseDocument(string(data))
		if err != nil {
			return nil, &SourceError{Op: "parse", Path: path, Err: err}
		}
		Merge(resolved, dropInDTO)
		slog.Debug("applied drop-in file", "path", path)
	}

	return resolved, nil
}

// parseDocument parses a TOML string into a Document.
func parseDocument(data string) (Document, error) {
	doc := Document{}
	if _, err := toml.Decode(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// findDropInFiles finds and returns sorted paths to drop-in configuration files.
// Returns nil if the drop-in directory doesn't exist (not an error).
func (cs *ConfigSource) findDropInFiles() ([]string, error) {
	if _, err := os.Stat(cs.DropInDir); os.IsNotExist(err) {
		return nil, nil
	}

	entries, err := os.ReadDir(cs.DropInDir)
	if err != nil {
		return nil, &SourceError{Op: "read", Path: cs.DropInDir, Err: err}
	}

	var filenames []string
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		path := filepath.Join(cs.DropInDir, entry.Name())
		// Stat follows symlinks; only regular files are drop-ins.
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("skipping dangling drop-in", "path", path)
			continue
		}
		if err != nil {
			return nil, &SourceError{Op: "read", Path: path, Err: err}
		}
		if !info.Mode().IsRegular() {
			continue
		}
		filenames = append(filenames, path)
	}

	sort.Strings(filenames)

	return filenames, nil
}

// String describes the source for log and error messages.
func (cs *ConfigSource) String() string {
	return fmt.Sprintf("%s (drop-ins: %s)", cs.Path, cs.DropInDir)
}
