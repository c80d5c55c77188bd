package core

// LoadError is returned for any failure while loading settings. The message
// is fixed; the underlying I/O, decode or domain error stays reachable
// through errors.Unwrap, errors.Is and errors.As.
type LoadError struct {
	Cause error
}

// NewLoadError wraps cause. An error that already is a *LoadError is
// returned unchanged.
func NewLoadError(cause error) *LoadError {
	if loadErr, ok := cause.(*LoadError); ok {
		return loadErr
	}
	return &LoadError{Cause: cause}
}

func (e *LoadError) Error() string {
	return "could not load settings"
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Causes returns the message of err followed by the message of every error
// it wraps, outermost first. Joined errors contribute each of their members.
func Causes(err error) []string {
	var causes []string
	for err != nil {
		causes = append(causes, err.Error())
		switch wrapped := err.(type) {
		case interface{ Unwrap() []error }:
			for _, member := range wrapped.Unwrap() {
				causes = append(causes, Causes(member)...)
			}
			return causes
		case interface{ Unwrap() error }:
			err = wrapped.Unwrap()
		default:
			return causes
		}
	}
	return causes
}
