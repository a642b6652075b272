package ols

import (
	"fmt"
	"math"
	"strings"

	"github.com/anyappinc/ols/logger"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Model : 回帰モデル
//
// A Model is immutable once returned by Fit and is safe for concurrent use.
// Every method returns freshly allocated values.
type Model struct {
	coeffs           []float64     // 偏回帰係数 B
	fittedVals       []float64     // 予測値
	residuals        []float64     // 残差
	response         []float64     // 目的変数の観測値
	design           *mat.Dense    // 設計行列
	r                *mat.TriDense // QR分解の上三角行列 R
	degreesOfFreedom int           // 残差の自由度
	sigma2           float64       // 残差の分散（誤差の分散の不偏推定）
	responseLabel    string        // 目的変数の名称
	labels           []string      // 各説明変数の名称
	indexesTable     []int         // 元のインデックスと実際のインデックスの対応表
	interceptIndex   int           // 定数項の列、無ければ -1
}

// Interval holds the point estimates and interval bounds for each
// row of new data, aligned by row index.
type Interval struct {
	Fit        []float64
	LowerLimit []float64
	UpperLimit []float64
}

func cloneFloats(s []float64) []float64 {
	return append([]float64(nil), s...)
}

func calcPredictedVal(observations []float64, coeffs []float64) (float64, error) {
	if len(observations) != len(coeffs) {
		return 0, fmt.Errorf("%w: got %d values for %d coefficients", ErrDimensionMismatch, len(observations), len(coeffs))
	}
	return floats.Dot(observations, coeffs), nil
}

func validateAlpha(alpha float64) error {
	if !(alpha > 0 && alpha < 1) {
		return fmt.Errorf("%w: alpha must be in (0, 1), got %v", ErrInvalidParameter, alpha)
	}
	return nil
}

// NumOfObservations returns the number of observations used to fit the model.
func (m *Model) NumOfObservations() int {
	return len(m.residuals)
}

// NumOfExplanatoryVars returns the number of columns of the design matrix.
func (m *Model) NumOfExplanatoryVars() int {
	return len(m.coeffs)
}

// Coefficients returns the estimated coefficients, one per design matrix column.
func (m *Model) Coefficients() []float64 {
	return cloneFloats(m.coeffs)
}

// FittedValues returns Ŷ = X·β̂ for the observations used in the fit.
func (m *Model) FittedValues() []float64 {
	return cloneFloats(m.fittedVals)
}

// Residuals returns Y − Ŷ.
func (m *Model) Residuals() []float64 {
	return cloneFloats(m.residuals)
}

// DegreesOfFreedom returns the residual degrees of freedom n − m.
func (m *Model) DegreesOfFreedom() int {
	return m.degreesOfFreedom
}

// Sigma2 returns the unbiased estimate of the error variance.
func (m *Model) Sigma2() float64 {
	return m.sigma2
}

// R returns a copy of the upper triangular factor of the design matrix.
func (m *Model) R() *mat.TriDense {
	r := mat.NewTriDense(len(m.coeffs), mat.Upper, nil)
	r.Copy(m.r)
	return r
}

// ObjectiveVarLabel returns the label of the response.
func (m *Model) ObjectiveVarLabel() string {
	return m.responseLabel
}

// Labels returns the labels of the design matrix columns.
func (m *Model) Labels() []string {
	return append([]string(nil), m.labels...)
}

// predictorColumns returns the columns of the design matrix except the intercept.
func (m *Model) predictorColumns() [][]float64 {
	_, c := m.design.Dims()
	columns := make([][]float64, 0, c)
	for j := 0; j < c; j++ {
		if j == m.interceptIndex {
			continue
		}
		columns = append(columns, mat.Col(nil, j, m.design))
	}
	return columns
}

// varianceInflationFactors returns the VIF of every design matrix column, NaN for the intercept.
func (m *Model) varianceInflationFactors() []float64 {
	return alignToDesign(varianceInflationFactors(m.predictorColumns()), m.interceptIndex)
}

// HasIntercept reports whether one of the columns is a constant term added by Regression.
func (m *Model) HasIntercept() bool {
	return m.interceptIndex >= 0
}

// Predict calculates newData·β for every row of newData.
func (m *Model) Predict(newData mat.Matrix) ([]float64, error) {
	k, c := newData.Dims()
	if c != len(m.coeffs) {
		return nil, fmt.Errorf("%w: new data has %d columns, model has %d coefficients", ErrDimensionMismatch, c, len(m.coeffs))
	}
	predicted := make([]float64, k)
	row := make([]float64, c)
	for i := range predicted {
		mat.Row(row, i, newData)
		val, err := calcPredictedVal(row, m.coeffs)
		if err != nil {
			return nil, err
		}
		predicted[i] = val
	}
	return predicted, nil
}

// PredictOne calculates the predicted value of a single observation.
func (m *Model) PredictOne(vars []float64) (float64, error) {
	return calcPredictedVal(vars, m.coeffs)
}

func (m *Model) inverseR() (*mat.TriDense, error) {
	rInv := mat.NewTriDense(len(m.coeffs), mat.Upper, nil)
	if err := rInv.InverseTri(m.r); err != nil {
		e := fmt.Errorf("cannot inverse a matrix(R): %w", err)

		logger.L().Error(e)

		return nil, asConditionError(e, &ConditionErrorHint{ExplanatoryVars: newExplanatoryVarHints(m.indexesTable, m.labels, m.coeffs, m.varianceInflationFactors())})
	}
	return rInv, nil
}

// Covariance computes the variance-covariance matrix of the coefficients,
// sigma2·R⁻¹·(R⁻¹)ᵗ, which equals sigma2·(XᵗX)⁻¹ without forming XᵗX.
//
// The matrix is recomputed on every call.
func (m *Model) Covariance() (*mat.SymDense, error) {
	rInv, err := m.inverseR()
	if err != nil {
		return nil, err
	}
	cov := mat.NewSymDense(len(m.coeffs), nil)
	cov.SymOuterK(m.sigma2, mat.DenseCopyOf(rInv))
	return cov, nil
}

// StandardErrors returns the standard errors of the coefficients,
// the square roots of the diagonal of Covariance.
func (m *Model) StandardErrors() ([]float64, error) {
	cov, err := m.Covariance()
	if err != nil {
		return nil, err
	}
	return standardErrorsOf(cov), nil
}

func standardErrorsOf(cov *mat.SymDense) []float64 {
	n := cov.SymmetricDim()
	ses := make([]float64, n)
	for i := range ses {
		ses[i] = math.Sqrt(cov.At(i, i))
	}
	return ses
}

func (m *Model) tDistribution() distuv.StudentsT {
	return distuv.StudentsT{
		Mu:    0,
		Sigma: 1,
		Nu:    float64(m.degreesOfFreedom),
	}
}

// PredictionInterval computes, for every row of newData, the interval expected
// to contain a new observation of the response with confidence 1 − alpha.
func (m *Model) PredictionInterval(newData mat.Matrix, alpha float64) (*Interval, error) {
	return m.interval(newData, alpha, m.sigma2)
}

// ConfidenceInterval is like PredictionInterval but for the mean response,
// so it leaves out the residual noise and is narrower.
func (m *Model) ConfidenceInterval(newData mat.Matrix, alpha float64) (*Interval, error) {
	return m.interval(newData, alpha, 0)
}

func (m *Model) interval(newData mat.Matrix, alpha, noise float64) (*Interval, error) {
	if err := validateAlpha(alpha); err != nil {
		return nil, err
	}
	fit, err := m.Predict(newData)
	if err != nil {
		return nil, err
	}
	cov, err := m.Covariance()
	if err != nil {
		return nil, err
	}

	t := m.tDistribution()
	tLower, tUpper := t.Quantile(alpha/2), t.Quantile(1-alpha/2)

	lower, upper := make([]float64, len(fit)), make([]float64, len(fit))
	x := mat.NewVecDense(len(m.coeffs), nil)
	for i := range fit {
		mat.Row(x.RawVector().Data, i, newData)
		se := math.Sqrt(mat.Inner(x, cov, x) + noise)
		lower[i] = fit[i] + tLower*se
		upper[i] = fit[i] + tUpper*se
	}

	return &Interval{
		Fit:        fit,
		LowerLimit: lower,
		UpperLimit: upper,
	}, nil
}

// CoefficientIntervals returns the 1 − alpha confidence bounds of every coefficient.
func (m *Model) CoefficientIntervals(alpha float64) (lower, upper []float64, err error) {
	if err := validateAlpha(alpha); err != nil {
		return nil, nil, err
	}
	ses, err := m.StandardErrors()
	if err != nil {
		return nil, nil, err
	}
	t := m.tDistribution().Quantile(1 - alpha/2)
	lower, upper = make([]float64, len(ses)), make([]float64, len(ses))
	for i, se := range ses {
		lower[i] = m.coeffs[i] - t*se
		upper[i] = m.coeffs[i] + t*se
	}
	return lower, upper, nil
}

func formatFloatForFormula(f float64) string {
	if f < 0 {
		return fmt.Sprintf(" - %.4f", -f)
	}
	return fmt.Sprintf(" + %.4f", f)
}

// FormulaString : 回帰モデル式を文字列で取得する
func (m *Model) FormulaString() string {
	formulaStrs := make([]string, 0, len(m.coeffs)*2+1)
	for i, coeff := range m.coeffs {
		if i == m.interceptIndex {
			continue
		}
		formulaStrs = append(formulaStrs, formatFloatForFormula(coeff), "*"+m.labels[i])
	}
	if m.HasIntercept() {
		formulaStrs = append(formulaStrs, formatFloatForFormula(m.coeffs[m.interceptIndex]))
	}
	return m.responseLabel + " =" + strings.Join(formulaStrs, "")
}
