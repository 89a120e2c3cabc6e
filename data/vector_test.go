package data_test

import (
	"math"
	"testing"

	"marketscope/data"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	a := data.Vector{"a": 1, "b": 1, "not in b": 1}
	b := data.Vector{"a": 2, "b": 2, "not in a": 3}
	assert.Equal(t, math.Sqrt(2), a.Distance(b))
}

func TestDivide(t *testing.T) {
	a := data.Vector{"a": 2, "b": 2}
	assert.Equal(t, data.Vector{"a": 1, "b": 1}, a.Divide(2))
}

func TestAdd(t *testing.T) {
	a := data.Vector{"a": 1, "b": 1, "not in b": 1}
	b := data.Vector{"a": 2, "b": 2, "not in a": 2}
	assert.Equal(t, data.Vector{"a": 3, "b": 3, "not in b": 1}, a.Add(b))
}

func TestMean(t *testing.T) {
	vs := []data.Vector{
		{"a": 1, "b": 3},
		{"a": 3, "b": 5},
	}
	assert.Equal(t, data.Vector{"a": 2, "b": 4}, data.Mean(vs))
	assert.Equal(t, data.Vector{}, data.Mean(nil))
}
