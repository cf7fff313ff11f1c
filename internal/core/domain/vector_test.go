package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVector_ZeroValueIsAbsent(t *testing.T) {
	var v Vector
	assert.False(t, v.Present())
	assert.Nil(t, v.Values())
	assert.Zero(t, v.Dimensions())
}

func TestVector_AbsentVector(t *testing.T) {
	v := AbsentVector()
	assert.False(t, v.Present())
}

func TestNewVector(t *testing.T) {
	v := NewVector([]float32{0.1, 0.2, 0.3})
	assert.True(t, v.Present())
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, v.Values())
	assert.Equal(t, 3, v.Dimensions())
}

func TestNewVector_EmptyIsAbsent(t *testing.T) {
	assert.False(t, NewVector(nil).Present())
	assert.False(t, NewVector([]float32{}).Present())
}
