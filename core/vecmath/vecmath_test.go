package vecmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDot(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"self", []float64{1, 2, 3, 4}, []float64{1, 2, 3, 4}, 30},
		{"mixed", []float64{4, 20, 2, 4}, []float64{1, 2, 3, 8}, 82},
		{"empty", []float64{}, []float64{}, 0},
		{"negative", []float64{-1, 2}, []float64{3, -4}, -11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Dot(tt.a, tt.b))
		})
	}
}

func TestDotLengthMismatchPanics(t *testing.T) {
	assert.Panics(t, func() {
		Dot([]float64{1, 2}, []float64{1, 2, 3})
	})
}

func TestNorm(t *testing.T) {
	tests := []struct {
		name string
		v    []float64
		want float64
	}{
		{"counting", []float64{1, 2, 3, 4}, 5.477225575051661},
		{"sqrt2", []float64{math.Sqrt2, -math.Sqrt2}, 2},
		{"zero", []float64{0, 0, 0}, 0},
		{"single negative", []float64{-3}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Norm(tt.v)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.GreaterOrEqual(t, got, 0.0)
		})
	}
}

func TestMean(t *testing.T) {
	assert.Equal(t, 2.5, Mean([]float64{1, 2, 3, 4}))
	assert.InDelta(t, 8.125, Mean([]float64{4.7, 20.2, 2.7, 4.9}), 1e-12)
	assert.True(t, math.IsNaN(Mean(nil)))
}

func TestVariance(t *testing.T) {
	// population variance: mean of squared deviations
	assert.InDelta(t, 1.25, Variance([]float64{1, 2, 3, 4}), 1e-12)
	assert.InDelta(t, 4.0, Variance([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
	assert.Equal(t, 0.0, Variance([]float64{3, 3, 3}))
	assert.True(t, math.IsNaN(Variance([]float64{})))
}

func TestStdDev(t *testing.T) {
	assert.InDelta(t, 2.0, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
}

func TestDistances(t *testing.T) {
	a := []float64{-4, 4}
	b := []float64{-1, 0}

	assert.Equal(t, 25.0, SquaredDistance(a, b))
	assert.Equal(t, 7.0, ManhattanDistance(a, b))
	assert.Equal(t, 0.0, ManhattanDistance(a, a))

	assert.Panics(t, func() { SquaredDistance(a, []float64{1}) })
	assert.Panics(t, func() { ManhattanDistance(a, []float64{1, 2, 3}) })
}

func TestPure(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{4, 5, 6}
	Dot(a, b)
	Norm(a)
	Variance(b)
	SquaredDistance(a, b)
	assert.Equal(t, []float64{1, 2, 3}, a)
	assert.Equal(t, []float64{4, 5, 6}, b)
}
