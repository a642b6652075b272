package ols

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestAsConditionError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantExact     bool
		wantCondition float64
	}{
		{name: "near singular", err: fmt.Errorf("solve: %w", mat.Condition(1e17)), wantCondition: 1e17},
		{name: "exactly singular", err: fmt.Errorf("solve: %w", mat.Condition(math.Inf(1))), wantExact: true, wantCondition: math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := asConditionError(tt.err, nil)

			var condErr *ConditionError
			require.ErrorAs(t, err, &condErr)
			assert.Equal(t, tt.wantExact, errors.Is(err, ErrExactlySingular))
			assert.Equal(t, !tt.wantExact, errors.Is(err, ErrNearSingular))
			assert.Equal(t, tt.wantCondition, condErr.Condition())
			assert.Equal(t, tt.err.Error(), err.Error())
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestAsConditionErrorPassesOtherErrors(t *testing.T) {
	assert.NoError(t, asConditionError(nil, nil))

	other := errors.New("boom")
	assert.Same(t, other, asConditionError(other, nil))
}

func TestDegenerateSentinels(t *testing.T) {
	assert.ErrorIs(t, ErrTooManyExplanatoryVars, ErrDegenerateSystem)
	assert.NotErrorIs(t, ErrDimensionMismatch, ErrDegenerateSystem)
	assert.Equal(t, "", ConditionError{}.Error())
	assert.True(t, math.IsNaN(ConditionError{}.Condition()))
}

func TestNewExplanatoryVarHints(t *testing.T) {
	hints := newExplanatoryVarHints([]int{2, -1}, []string{"a", InterceptLabel}, []float64{1.5}, []float64{4})
	require.Len(t, hints, 2)
	assert.Equal(t, ExplanatoryVarHint{OriginalIndex: 2, Label: "a", Coeff: 1.5, VIF: 4}, hints[0])
	assert.Equal(t, -1, hints[1].OriginalIndex)
	assert.Equal(t, InterceptLabel, hints[1].Label)
	assert.Zero(t, hints[1].Coeff)
	assert.True(t, math.IsNaN(hints[1].VIF))
}

func TestVarianceInflationFactors(t *testing.T) {
	x0 := []float64{1, 2, 3, 4, 5, 6}
	x1 := []float64{2, 1, 4, 3, 6, 5}
	twice := []float64{2, 4, 6, 8, 10, 12}

	// 1 − r² with r = corr(x0, x1) = 29/35
	r := 29.0 / 35
	vifs := varianceInflationFactors([][]float64{x0, x1})
	require.Len(t, vifs, 2)
	assert.InDelta(t, 1/(1-r*r), vifs[0], 1e-9)
	assert.InDelta(t, 1/(1-r*r), vifs[1], 1e-9)

	assert.Equal(t, []float64{1}, varianceInflationFactors([][]float64{x0}))

	// perfectly collinear
	vifs = varianceInflationFactors([][]float64{x0, twice})
	assert.Greater(t, vifs[0], 1e12)
	assert.Greater(t, vifs[1], 1e12)
}

func TestAlignToDesign(t *testing.T) {
	assert.Equal(t, []float64{1, 2}, alignToDesign([]float64{1, 2}, -1))

	aligned := alignToDesign([]float64{1, 2}, 2)
	require.Len(t, aligned, 3)
	assert.Equal(t, []float64{1, 2}, aligned[:2])
	assert.True(t, math.IsNaN(aligned[2]))
}
