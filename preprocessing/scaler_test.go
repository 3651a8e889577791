package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/numlearn/core/model"
	"github.com/YuminosukeSato/numlearn/pkg/errors"
)

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 10,
		3, 10,
		4, 10,
	})

	s := NewStandardScalerDefault()
	Xs, err := s.FitTransform(X)
	require.NoError(t, err)
	require.True(t, s.IsFitted())

	assert.InDelta(t, 2.5, s.Mean[0], 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), s.Scale[0], 1e-12)
	// 定数列はスケール1のまま
	assert.Equal(t, 1.0, s.Scale[1])

	col := mat.Col(nil, 0, Xs)
	var sum, sumSq float64
	for _, v := range col {
		sum += v
		sumSq += v * v
	}
	assert.InDelta(t, 0.0, sum/4, 1e-12)
	assert.InDelta(t, 1.0, sumSq/4, 1e-12)
	assert.Equal(t, 0.0, Xs.At(0, 1))

	back, err := s.InverseTransform(Xs)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-12))
	assert.Contains(t, s.String(), "n_features=2")
}

func TestStandardScaler_Options(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{2, 6})

	s := NewStandardScaler(false, true)
	require.NoError(t, s.Fit(X))
	assert.Equal(t, 0.0, s.Mean[0])
	assert.InDelta(t, 2.0, s.Scale[0], 1e-12)

	s = NewStandardScaler(true, false)
	require.NoError(t, s.Fit(X))
	assert.InDelta(t, 4.0, s.Mean[0], 1e-12)
	assert.Equal(t, 1.0, s.Scale[0])
}

func TestStandardScaler_Data(t *testing.T) {
	data := []model.Datum{
		model.NewDatum([]float64{0, 5}, 1),
		model.NewDatum([]float64{2, 5}, 0),
	}
	s := NewStandardScalerDefault()
	require.NoError(t, s.FitData(data))

	out, err := s.TransformData(data)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 0}, out[0].Features)
	assert.Equal(t, []float64{1, 0}, out[1].Features)
	assert.Equal(t, 1, out[0].Label)
	// 元のデータは変更されない
	assert.Equal(t, []float64{0, 5}, data[0].Features)

	_, err = s.TransformData([]model.Datum{model.NewDatum([]float64{1}, 0)})
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestStandardScaler_Errors(t *testing.T) {
	s := NewStandardScalerDefault()

	_, err := s.Transform(mat.NewDense(1, 1, []float64{1}))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	err = s.FitData(nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	err = s.FitData([]model.Datum{model.NewDatum([]float64{1, 2}, 0), model.NewDatum([]float64{1}, 0)})
	assert.Error(t, err)

	require.NoError(t, s.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))
	_, err = s.Transform(mat.NewDense(1, 3, []float64{1, 2, 3}))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestMinMaxScaler(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		0, 7,
		5, 7,
		10, 7,
	})

	m := NewMinMaxScalerDefault()
	Xs, err := m.FitTransform(X)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1}, mat.Col(nil, 0, Xs), 1e-12)
	assert.Equal(t, []float64{0, 0, 0}, mat.Col(nil, 1, Xs))

	back, err := m.InverseTransform(Xs)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-12))

	m = NewMinMaxScaler([2]float64{-1, 1})
	Xs, err = m.FitTransform(X)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-1, 0, 1}, mat.Col(nil, 0, Xs), 1e-12)

	err = NewMinMaxScaler([2]float64{1, 1}).Fit(X)
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))
}

func TestMinMaxScaler_Data(t *testing.T) {
	data := []model.Datum{
		model.NewDatum([]float64{2, 1}, 1),
		model.NewDatum([]float64{4, 1}, 0),
		model.NewDatum([]float64{6, 1}, 1),
	}
	m := NewMinMaxScalerDefault()
	require.NoError(t, m.FitData(data))

	scaled, err := m.TransformData(data)
	require.NoError(t, err)
	want := [][]float64{{0, 0}, {0.5, 0}, {1, 0}}
	for i, d := range scaled {
		assert.InDeltaSlice(t, want[i], d.Features, 1e-12)
		assert.Equal(t, data[i].Label, d.Label)
	}
	assert.Equal(t, 2.0, data[0].Features[0])

	_, err = m.TransformData([]model.Datum{model.NewDatum([]float64{1}, 0)})
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	_, err = NewMinMaxScalerDefault().TransformData(data)
	var nfErr *errors.NotFittedError
	assert.True(t, errors.As(err, &nfErr))

	err = NewMinMaxScalerDefault().FitData(nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}
