package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/numlearn/pkg/errors"
)

func TestNewDatumCopiesFeatures(t *testing.T) {
	features := []float64{1, 2}
	d := NewDatum(features, 1)
	features[0] = 99

	assert.Equal(t, []float64{1, 2}, d.Features)
	assert.Equal(t, 1, d.Label)
}

func TestPoint(t *testing.T) {
	p := Point{-4, 4}
	assert.Equal(t, -4.0, p.X())
	assert.Equal(t, 4.0, p.Y())
}

func TestFuncsAdapter(t *testing.T) {
	obj := Funcs{
		Label:      "square",
		LossFn:     func(_ []Datum, w []float64) float64 { return w[0] * w[0] },
		GradientFn: func(_ []Datum, w []float64) []float64 { return []float64{2 * w[0]} },
	}

	var _ Objective = obj
	assert.Equal(t, 9.0, obj.Loss(nil, []float64{3}))
	assert.Equal(t, []float64{6}, obj.Gradient(nil, []float64{3}))
	assert.Equal(t, "square", NameOf(obj))
	assert.Equal(t, "Funcs", Funcs{}.Name())
	assert.Equal(t, "unnamed", NameOf(struct{}{}))
}

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	assert.False(t, s.IsFitted())

	err := s.RequireFitted("Regression", "Predict")
	require.Error(t, err)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	s.SetDimensions(3, 100)
	s.SetFitted()
	assert.True(t, s.IsFitted())
	assert.NoError(t, s.RequireFitted("Regression", "Predict"))

	nFeatures, nSamples := s.GetDimensions()
	assert.Equal(t, 3, nFeatures)
	assert.Equal(t, 100, nSamples)

	assert.NoError(t, s.RequireFeatures("Predict", 3))
	err = s.RequireFeatures("Predict", 2)
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Got)

	s.Reset()
	assert.False(t, s.IsFitted())
	nFeatures, _ = s.GetDimensions()
	assert.Equal(t, 0, nFeatures)
}
