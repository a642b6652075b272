package ols

import (
	"fmt"
	"strconv"

	"github.com/anyappinc/ols/logger"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Fit fits the linear model response = design·β + ε by ordinary least squares,
// using the QR decomposition of the design matrix.
//
// The design matrix must have more rows (observations) than columns (predictors).
// No intercept column is added; callers wanting one append a column of ones,
// or use Regression.SetIntercept.
//
// Fit works on its own copies of response and design; neither argument is modified
// and the returned *Model shares no memory with them.
func Fit(response mat.Vector, design mat.Matrix) (*Model, error) {
	n, m := design.Dims()
	if response.Len() != n {
		return nil, fmt.Errorf("%w: response has %d observations but design matrix has %d rows", ErrDimensionMismatch, response.Len(), n)
	}
	if m == 0 {
		return nil, ErrNoExplanatoryVars
	}
	if n <= m {
		return nil, fmt.Errorf("%w: %d observations for %d predictors", ErrDegenerateSystem, n, m)
	}

	labels, indexesTable := make([]string, m), make([]int, m)
	for i := range labels {
		labels[i] = "X" + strconv.Itoa(i)
		indexesTable[i] = i
	}

	y := mat.VecDenseCopyOf(response)

	// Factorize copies the design matrix into its own storage
	qr := new(mat.QR)
	qr.Factorize(design)

	// 偏回帰係数
	beta := mat.NewVecDense(m, nil)
	if err := qr.SolveVecTo(beta, false, y); err != nil {
		e := fmt.Errorf("cannot solve the least squares system: %w", err)

		logger.L().Error(e)

		return nil, asConditionError(e, &ConditionErrorHint{ExplanatoryVars: newExplanatoryVarHints(indexesTable, labels, nil, nil)})
	}

	// 直交行列 Q は n×n で得られるので、先頭の m 列だけを使う
	qrQ := new(mat.Dense)
	qr.QTo(qrQ)
	q := qrQ.Slice(0, n, 0, m)

	// 予測値 Ŷ = Q·Qᵗ·Y
	qTY := mat.NewVecDense(m, nil)
	qTY.MulVec(q.T(), y)
	fitted := mat.NewVecDense(n, nil)
	fitted.MulVec(q, qTY)

	// 残差
	residuals := make([]float64, n)
	floats.SubTo(residuals, y.RawVector().Data, fitted.RawVector().Data)

	degreesOfFreedom := n - m
	sigma2 := floats.Dot(residuals, residuals) / float64(degreesOfFreedom)

	// 上三角行列 R (m×m)
	qrR := new(mat.Dense)
	qr.RTo(qrR)
	r := mat.NewTriDense(m, mat.Upper, nil)
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			r.SetTri(i, j, qrR.At(i, j))
		}
	}

	logger.L().Debugw("fitted model",
		"observations", n,
		"predictors", m,
		"sigma2", sigma2,
	)

	return &Model{
		coeffs:           mat.Col(nil, 0, beta),
		fittedVals:       mat.Col(nil, 0, fitted),
		residuals:        residuals,
		response:         mat.Col(nil, 0, y),
		design:           mat.DenseCopyOf(design),
		r:                r,
		degreesOfFreedom: degreesOfFreedom,
		sigma2:           sigma2,
		responseLabel:    "Y",
		labels:           labels,
		indexesTable:     indexesTable,
		interceptIndex:   -1,
	}, nil
}
