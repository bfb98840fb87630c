package invoker

// ResultAdapter strips one layer from a framework result envelope.
// Unwrap returns the inner value and true when the adapter recognized the
// envelope; unknown values pass through unchanged.
type ResultAdapter interface {
	Unwrap(v any) (any, bool)
}

// Unwrapper is implemented by result envelope types that expose their payload.
type Unwrapper interface {
	ResultValue() any
}

// Typed is the generic typed-result envelope convention: one layer wrapping
// an inner value.
type Typed[T any] struct {
	Value T
}

// ResultValue unwraps the envelope to its inner value.
func (t Typed[T]) ResultValue() any { return t.Value }

// Status is the status-carrying envelope convention: a status code plus the
// payload the caller actually wants.
type Status struct {
	Code    int
	Payload any
}

// ResultValue unwraps the envelope down to its payload.
func (s Status) ResultValue() any { return s.Payload }

// envelopeAdapter unwraps any value implementing Unwrapper. Stacked
// envelopes (a typed result wrapping a status result) unwrap layer by
// layer through the adapter loop.
type envelopeAdapter struct{}

func (envelopeAdapter) Unwrap(v any) (any, bool) {
	if u, ok := v.(Unwrapper); ok {
		return u.ResultValue(), true
	}
	return nil, false
}
