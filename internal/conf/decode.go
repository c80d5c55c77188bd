package conf

import (
	"bytes"
	"io"
	"sort"

	"github.com/BurntSushi/toml"
)

// DecodeOptions control how a merged Document is decoded.
type DecodeOptions struct {
	// Strict rejects keys that none of the decode targets recognize.
	Strict bool
}

// Decode decodes doc into each of targets in turn. Every target sees the whole
// document, so targets may share one flat key namespace. A key counts as
// unknown only when no target decoded it.
func Decode(doc Document, opts DecodeOptions, targets ...any) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return &DecodeError{Err: err}
	}
	text := buf.String()

	var unknown map[string]toml.Key
	for i, target := range targets {
		md, err := toml.Decode(text, target)
		if err != nil {
			return &DecodeError{Err: err}
		}
		undecoded := make(map[string]toml.Key)
		for _, key := range md.Undecoded() {
			undecoded[key.String()] = key
		}
		if i == 0 {
			unknown = undecoded
			continue
		}
		for name := range unknown {
			if _, ok := undecoded[name]; !ok {
				delete(unknown, name)
			}
		}
	}

	if !opts.Strict || len(unknown) == 0 {
		return nil
	}

	// Report the outermost unknown key only.
	var keys []string
	for name, key := range unknown {
		if len(key) > 1 {
			if _, ok := unknown[key[:len(key)-1].String()]; ok {
				continue
			}
		}
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return &UnknownKeysError{Keys: keys}
}

// Encode writes sources as a single TOML document. Each source is encoded on
// its own and the results are merged in order, so sources may share one flat
// key namespace.
func Encode(w io.Writer, sources ...any) error {
	merged := Document{}
	for _, source := range sources {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(source); err != nil {
			return err
		}
		doc, err := parseDocument(buf.String())
		if err != nil {
			return err
		}
		Merge(merged, doc)
	}
	return toml.NewEncoder(w).Encode(merged)
}
