package ols

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrDegenerateSystem signals that the design matrix has no more rows than columns,
	// so the coefficients are not identifiable.
	ErrDegenerateSystem = errors.New("degenerate system: more predictors than observations")
	// ErrTooManyExplanatoryVars signals that there are too many explanatory variables for the number of observations being made.
	ErrTooManyExplanatoryVars = fmt.Errorf("%w: not enough observations to support this many explanatory variables", ErrDegenerateSystem)
	// ErrNotEnoughObservations signals that there weren't enough observations to train the model.
	ErrNotEnoughObservations = errors.New("not enough observations")
	// ErrNoExplanatoryVars signals that there is no explanatory variables to train the model.
	ErrNoExplanatoryVars = errors.New("no explanatory variables to train the model")
	// ErrDimensionMismatch signals that a vector or matrix does not have the shape the model expects.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrInvalidParameter signals that a numeric parameter, e.g. alpha, is out of its domain.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvalidArgument signals that any of given arguments to call the function was invalid.
	ErrInvalidArgument = errors.New("invalid argument")
)

var (
	ErrNearSingular    = &ConditionError{isExactlySingular: false}
	ErrExactlySingular = &ConditionError{isExactlySingular: true}

	matConditionErrorInf = mat.Condition(math.Inf(1)) // matrix exactly singular
)

// ConditionError reports that the design matrix, or its triangular factor,
// is singular or too badly conditioned to be trusted.
type ConditionError struct {
	err               error
	isExactlySingular bool
	Hint              *ConditionErrorHint
}

func (e ConditionError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e ConditionError) Is(err error) bool {
	if condErr, ok := err.(*ConditionError); ok {
		return e.isExactlySingular == condErr.isExactlySingular
	}
	return false
}

func (e ConditionError) Unwrap() error {
	return e.err
}

// Condition returns the condition number reported by gonum, +Inf when exactly singular.
func (e ConditionError) Condition() float64 {
	var c mat.Condition
	if errors.As(e.err, &c) {
		return float64(c)
	}
	return math.NaN()
}

func wrapAsConditionError(err error, hint *ConditionErrorHint) *ConditionError {
	return &ConditionError{
		err:               err,
		isExactlySingular: errors.Is(err, matConditionErrorInf),
		Hint:              hint,
	}
}

// asConditionError wraps err as a *ConditionError when it carries a gonum
// mat.Condition, and returns it unchanged otherwise.
func asConditionError(err error, hint *ConditionErrorHint) error {
	if err == nil {
		return nil
	}
	var cond mat.Condition // matrix singular or near-singular
	if errors.As(err, &cond) {
		return wrapAsConditionError(err, hint)
	}
	return err
}

// ConditionErrorHint carries what was known about the explanatory variables
// when the failure happened.
type ConditionErrorHint struct {
	ExplanatoryVars []ExplanatoryVarHint
}

type ExplanatoryVarHint struct {
	OriginalIndex int     // 元々のインデックス、定数項は -1
	Label         string  // 名称
	Coeff         float64 // 偏回帰係数 B
	VIF           float64 // 共線性の統計量 VIF
}

// newExplanatoryVarHints pairs every design matrix column with what is known of it.
// Coefficients and VIFs missing from the tails of coeffs and vifs are left as 0 and NaN.
func newExplanatoryVarHints(indexesTable []int, labels []string, coeffs, vifs []float64) []ExplanatoryVarHint {
	hints := make([]ExplanatoryVarHint, len(labels))
	for i := range labels {
		hints[i] = ExplanatoryVarHint{
			OriginalIndex: indexesTable[i],
			Label:         labels[i],
			VIF:           math.NaN(),
		}
		if i < len(coeffs) {
			hints[i].Coeff = coeffs[i]
		}
		if i < len(vifs) {
			hints[i].VIF = vifs[i]
		}
	}
	return hints
}
