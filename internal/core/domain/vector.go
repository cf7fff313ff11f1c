package domain

// Vector is an optional embedding vector. A note may exist before or
// without an embedding, so the zero value represents the absent case and
// every consumer must check Present before using the values.
type Vector struct {
	values []float32
}

// NewVector wraps embedding values in a present Vector.
// A nil or empty slice produces an absent Vector.
func NewVector(values []float32) Vector {
	if len(values) == 0 {
		return Vector{}
	}
	return Vector{values: values}
}

// AbsentVector returns the explicit absent case.
func AbsentVector() Vector {
	return Vector{}
}

// Present reports whether the vector carries embedding values.
func (v Vector) Present() bool {
	return len(v.values) > 0
}

// Values returns the embedding values, or nil when absent.
func (v Vector) Values() []float32 {
	return v.values
}

// Dimensions returns the vector length, 0 when absent.
func (v Vector) Dimensions() int {
	return len(v.values)
}
