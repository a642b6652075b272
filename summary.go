package ols

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ANOVA : 分散分析の結果
type ANOVA struct {
	RegressionSumOfSquares    float64 // 回帰の平方和
	RegressionDegreeOfFreedom int     // 回帰の自由度
	RegressionMeanOfSquares   float64 // 回帰の平均平方
	RegressionFstat           float64 // 回帰のF値
	RegressionProb            float64 // 回帰の有意確率
	ResidualSumOfSquares      float64 // 残差の平方和
	ResidualDegreeOfFreedom   int     // 残差の自由度
	ResidualMeanOfSquares     float64 // 残差の平均平方
	TotalSumOfSquares         float64 // 合計の平方和
	TotalDegreeOfFreedom      int     // 合計の自由度
}

// InterceptResult : 回帰分析により算出された定数（y切片）の結果
type InterceptResult struct {
	Value         float64 // 定数（y切片）の値
	StandardError float64 // 標準誤差（非標準化係数 標準誤差）
	TStat         float64 // t値
}

// ExplanatoryVarResult : 回帰分析により算出された説明変数の結果
//
// StandardizedCoeff and Correlation are NaN for the intercept. PartialCorrelation,
// PartCorrelation, Tolerance and VIF are measured against a constant term and are
// NaN unless the model has one.
type ExplanatoryVarResult struct {
	OriginalIndex      int     // 元々のインデックス、定数項は -1
	Label              string  // 名称
	Coeff              float64 // 偏回帰係数 B
	StandardError      float64 // 偏回帰係数の標準誤差
	StandardizedCoeff  float64 // 標準化偏回帰係数 β
	TStat              float64 // t値
	Prob               float64 // 有意確率（p値）
	Correlation        float64 // ゼロ次相関（通常の相関係数）
	PartialCorrelation float64 // 偏相関
	PartCorrelation    float64 // 部分相関
	Tolerance          float64 // 共線性の統計量 許容度 TOL
	VIF                float64 // 共線性の統計量 VIF
	IsIntercept        bool    // 定数項かどうか
}

// ObservationsAnalysis : 観測値に関する分析結果
type ObservationsAnalysis struct {
	MeanOfObjectiveVars                float64   // 目的変数の観測値の平均
	StandardDeviationOfObjectiveVars   float64   // 目的変数の観測値の標準偏差
	MeansOfExplanatoryVars             []float64 // 設計行列の各列の平均
	StandardDeviationOfExplanatoryVars []float64 // 設計行列の各列の標準偏差
}

// Summary : 回帰分析の要約
type Summary struct {
	NumOfObservations    int                    // 分析に用いた観測値の数
	NumOfExplanatoryVars int                    // 設計行列の列の数
	ObjectiveVarLabel    string                 // 目的変数の名称
	R2                   float64                // 決定係数
	AdjustedR2           float64                // 自由度調整済み決定係数
	StandardError        float64                // 回帰の標準誤差（推定値の標準偏差）
	ANOVA                *ANOVA                 // 分散分析
	Observations         *ObservationsAnalysis  // 観測値に関する分析結果
	Intercept            *InterceptResult       // 定数（y切片）の分析結果、定数項が無ければ nil
	ExplanatoryVars      []ExplanatoryVarResult // 各説明変数の分析結果
}

// centeredR2 : 平均まわりの決定係数
func centeredR2(response, residuals []float64) float64 {
	mean := stat.Mean(response, nil)
	var totalSumOfSquares float64
	for _, y := range response {
		totalSumOfSquares += (y - mean) * (y - mean)
	}
	return 1 - floats.Dot(residuals, residuals)/totalSumOfSquares
}

// varianceInflationFactors regresses every column on the other columns and a
// constant term and returns 1/(1 − R²) of each regression. A column the others
// reproduce exactly gets +Inf.
func varianceInflationFactors(columns [][]float64) []float64 {
	vifs := make([]float64, len(columns))
	if len(columns) < 2 {
		for i := range vifs {
			vifs[i] = 1
		}
		return vifs
	}
	n := len(columns[0])
	for i, target := range columns {
		d := mat.NewDense(n, len(columns), nil)
		col := 0
		for j, c := range columns {
			if j == i {
				continue
			}
			d.SetCol(col, c)
			col++
		}
		// 定数項
		for row := 0; row < n; row++ {
			d.Set(row, col, 1)
		}
		aux, err := Fit(mat.NewVecDense(n, target), d)
		if err != nil {
			vifs[i] = math.Inf(1)
			continue
		}
		vifs[i] = 1 / (1 - centeredR2(aux.response, aux.residuals))
	}
	return vifs
}

// alignToDesign inserts NaN at the intercept column.
func alignToDesign(values []float64, interceptIndex int) []float64 {
	if interceptIndex < 0 {
		return values
	}
	aligned := make([]float64, 0, len(values)+1)
	aligned = append(aligned, values[:interceptIndex]...)
	aligned = append(aligned, math.NaN())
	return append(aligned, values[interceptIndex:]...)
}

// partialCorrelation derives the partial correlation of a coefficient from its t value.
func partialCorrelation(tstat, degreesOfFreedom float64) float64 {
	if math.IsInf(tstat, 0) {
		return math.Copysign(1, tstat)
	}
	return tstat / math.Sqrt(tstat*tstat+degreesOfFreedom)
}

// Summary computes the usual regression table of the model.
//
// R² is centered around the mean of the response when the model has an
// intercept, and uncentered otherwise.
func (m *Model) Summary() (*Summary, error) {
	ses, err := m.StandardErrors()
	if err != nil {
		return nil, err
	}

	n, p := len(m.residuals), len(m.coeffs)

	// 残差の平方和
	residualSumOfSquares := floats.Dot(m.residuals, m.residuals)

	// 全変動
	var totalSumOfSquares float64
	totalDegreeOfFreedom, regressionDegreeOfFreedom := n, p
	if m.HasIntercept() {
		mean := stat.Mean(m.response, nil)
		for _, y := range m.response {
			totalSumOfSquares += (y - mean) * (y - mean)
		}
		totalDegreeOfFreedom--
		regressionDegreeOfFreedom--
	} else {
		totalSumOfSquares = floats.Dot(m.response, m.response)
	}
	regressionSumOfSquares := totalSumOfSquares - residualSumOfSquares
	residualDegreeOfFreedom := float64(m.degreesOfFreedom)

	r2 := 1 - residualSumOfSquares/totalSumOfSquares
	adjustedR2 := 1 - (residualSumOfSquares/residualDegreeOfFreedom)/(totalSumOfSquares/float64(totalDegreeOfFreedom))

	// F検定
	regressionFstat, regressionProb := math.NaN(), math.NaN()
	if regressionDegreeOfFreedom > 0 {
		regressionFstat = (regressionSumOfSquares / float64(regressionDegreeOfFreedom)) / (residualSumOfSquares / residualDegreeOfFreedom)
		if math.IsInf(regressionFstat, 1) {
			regressionProb = 0
		} else {
			regressionProb = distuv.F{
				D1: float64(regressionDegreeOfFreedom),
				D2: residualDegreeOfFreedom,
			}.Survival(regressionFstat)
		}
	}

	// 目的変数と説明変数の観測値の平均と標準偏差
	meanOfObjectiveVars, standardDeviationOfObjectiveVars := stat.MeanStdDev(m.response, nil)
	meansOfExplanatoryVars, standardDeviationOfExplanatoryVars := make([]float64, p), make([]float64, p)
	for i := range meansOfExplanatoryVars {
		meansOfExplanatoryVars[i], standardDeviationOfExplanatoryVars[i] = stat.MeanStdDev(mat.Col(nil, i, m.design), nil)
	}

	// 目的変数と説明変数を一つの行列にまとめ、変数間の相関行列を求める
	predictorColumns := m.predictorColumns()
	allDense := mat.NewDense(n, len(predictorColumns)+1, nil)
	allDense.SetCol(0, m.response)
	for j, col := range predictorColumns {
		allDense.SetCol(j+1, col)
	}
	corrDense := new(mat.SymDense)
	stat.CorrelationMatrix(corrDense, allDense, nil)

	// 許容度 及び 分散拡大係数（VIF）
	var coeffsVIFs []float64
	if m.HasIntercept() {
		coeffsVIFs = m.varianceInflationFactors()
	}

	tDistribution := m.tDistribution()
	explanatoryVars := make([]ExplanatoryVarResult, p)
	var intercept *InterceptResult
	predictor := 0
	for i, coeff := range m.coeffs {
		tstat := coeff / ses[i]
		ev := ExplanatoryVarResult{
			OriginalIndex:      m.indexesTable[i],
			Label:              m.labels[i],
			Coeff:              coeff,
			StandardError:      ses[i],
			StandardizedCoeff:  math.NaN(),
			TStat:              tstat,
			Prob:               tDistribution.Survival(math.Abs(tstat)) * 2,
			Correlation:        math.NaN(),
			PartialCorrelation: math.NaN(),
			PartCorrelation:    math.NaN(),
			Tolerance:          math.NaN(),
			VIF:                math.NaN(),
			IsIntercept:        i == m.interceptIndex,
		}
		if ev.IsIntercept {
			intercept = &InterceptResult{
				Value:         coeff,
				StandardError: ses[i],
				TStat:         tstat,
			}
			explanatoryVars[i] = ev
			continue
		}

		ev.StandardizedCoeff = coeff * standardDeviationOfExplanatoryVars[i] / standardDeviationOfObjectiveVars
		ev.Correlation = corrDense.At(0, predictor+1)
		predictor++

		if m.HasIntercept() {
			ev.VIF = coeffsVIFs[i]
			ev.Tolerance = 1 / ev.VIF
			ev.PartialCorrelation = partialCorrelation(tstat, residualDegreeOfFreedom)
			// 部分相関 = β·√TOL
			ev.PartCorrelation = ev.StandardizedCoeff * math.Sqrt(ev.Tolerance)
		}
		explanatoryVars[i] = ev
	}

	var regressionMeanOfSquares float64
	if regressionDegreeOfFreedom > 0 {
		regressionMeanOfSquares = regressionSumOfSquares / float64(regressionDegreeOfFreedom)
	}

	return &Summary{
		NumOfObservations:    n,
		NumOfExplanatoryVars: p,
		ObjectiveVarLabel:    m.responseLabel,
		R2:                   r2,
		AdjustedR2:           adjustedR2,
		StandardError:        math.Sqrt(m.sigma2),
		ANOVA: &ANOVA{
			RegressionSumOfSquares:    regressionSumOfSquares,
			RegressionDegreeOfFreedom: regressionDegreeOfFreedom,
			RegressionMeanOfSquares:   regressionMeanOfSquares,
			RegressionFstat:           regressionFstat,
			RegressionProb:            regressionProb,
			ResidualSumOfSquares:      residualSumOfSquares,
			ResidualDegreeOfFreedom:   m.degreesOfFreedom,
			ResidualMeanOfSquares:     m.sigma2,
			TotalSumOfSquares:         totalSumOfSquares,
			TotalDegreeOfFreedom:      totalDegreeOfFreedom,
		},
		Observations: &ObservationsAnalysis{
			MeanOfObjectiveVars:                meanOfObjectiveVars,
			StandardDeviationOfObjectiveVars:   standardDeviationOfObjectiveVars,
			MeansOfExplanatoryVars:             meansOfExplanatoryVars,
			StandardDeviationOfExplanatoryVars: standardDeviationOfExplanatoryVars,
		},
		Intercept:       intercept,
		ExplanatoryVars: explanatoryVars,
	}, nil
}
