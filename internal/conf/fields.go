package conf

// Missing accumulates the dotted paths of required fields that were absent
// from a decoded document.
type Missing []string

// Add records path as missing.
func (m *Missing) Add(path string) {
	*m = append(*m, path)
}

// Err returns a *MissingFieldsError when any path was recorded.
func (m Missing) Err() error {
	if len(m) == 0 {
		return nil
	}
	return &MissingFieldsError{Paths: m}
}

// Required returns *v, recording path in m when v is nil.
func Required[T any](m *Missing, path string, v *T) T {
	if v == nil {
		m.Add(path)
		var zero T
		return zero
	}
	return *v
}

// Default returns *v, or def when v is nil.
func Default[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}

// Join builds a dotted field path.
func Join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
