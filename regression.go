package ols

import (
	"errors"
	"strconv"

	"github.com/anyappinc/ols/logger"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// InterceptLabel is the label of the constant column added by SetIntercept.
const InterceptLabel = "(Intercept)"

type observation struct {
	objectiveVar    float64   // 目的変数
	explanatoryVars []float64 // 説明変数
}

// NewObservation creates a well formed *observation used for training.
func NewObservation(o float64, es []float64) *observation {
	return &observation{objectiveVar: o, explanatoryVars: es}
}

// Regression collects labelled observations and fits them with Fit.
type Regression struct {
	objectiveVars                  []float64        // 目的変数の観測値
	objectiveVarLabel              *string          // 目的変数の名称
	explanatoryVarsMatrix          [][]float64      // 説明変数、各行が1説明変数、各列に説明変数ごとの観測値
	explanatoryVarsLabelMap        map[int]string   // 説明変数の名称
	disregardingExplanatoryVarsSet map[int]struct{} // 分析に使わない説明変数のインデックスのセット
	withIntercept                  bool             // 定数項を含めるかどうか
}

// NewRegression initializes the structure and returns it for interacting with regression APIs.
func NewRegression() *Regression {
	return &Regression{
		explanatoryVarsLabelMap:        map[int]string{},
		disregardingExplanatoryVarsSet: map[int]struct{}{},
	}
}

// SetObjectiveVariableLabel sets the label of the objective variable.
func (r *Regression) SetObjectiveVariableLabel(label string) {
	r.objectiveVarLabel = &label
}

// GetObjectiveVariableLabel gets the label of the objective variable.
func (r *Regression) GetObjectiveVariableLabel() string {
	if r.objectiveVarLabel == nil {
		return "Y"
	}
	return *r.objectiveVarLabel
}

// SetExplanatoryVariableLabel sets the label of i-th explanatory variable.
func (r *Regression) SetExplanatoryVariableLabel(i int, label string) {
	r.explanatoryVarsLabelMap[i] = label
}

// GetExplanatoryVariableLabel gets the label of i-th explanatory variable.
func (r *Regression) GetExplanatoryVariableLabel(i int) string {
	label, ok := r.explanatoryVarsLabelMap[i]
	if !ok {
		return "X" + strconv.Itoa(i)
	}
	return label
}

// SetIntercept controls whether a constant column is appended to the design matrix.
func (r *Regression) SetIntercept(on bool) {
	r.withIntercept = on
}

// DisregardIndex adds given index to the disregarding set
func (r *Regression) DisregardIndex(idx int) {
	r.disregardingExplanatoryVarsSet[idx] = struct{}{}
}

// ResetDisregarding : 無視する説明変数の設定をリセットする
func (r *Regression) ResetDisregarding() {
	r.disregardingExplanatoryVarsSet = map[int]struct{}{}
}

// NumOfObservations returns the number of observations added so far.
func (r *Regression) NumOfObservations() int {
	return len(r.objectiveVars)
}

// AddObservations adds observations.
func (r *Regression) AddObservations(observations ...*observation) error {
	if len(observations) == 0 {
		return nil
	}
	numOfExplanatoryVars := len(observations[0].explanatoryVars)
	if numOfExplanatoryVars == 0 {
		return ErrInvalidArgument
	}
	// すべての観測値の説明変数の数が一致していることを確認
	for _, obs := range observations[1:] {
		if len(obs.explanatoryVars) != numOfExplanatoryVars {
			return ErrInvalidArgument
		}
	}
	if r.explanatoryVarsMatrix != nil {
		// 観測値の説明変数の数と既にセットされている説明変数の数が一致していることを確認
		if numOfExplanatoryVars != len(r.explanatoryVarsMatrix) {
			return ErrInvalidArgument
		}
	} else {
		// 初期化
		r.explanatoryVarsMatrix = make([][]float64, numOfExplanatoryVars)
	}

	for _, obs := range observations {
		r.objectiveVars = append(r.objectiveVars, obs.objectiveVar)
		for i, ev := range obs.explanatoryVars {
			r.explanatoryVarsMatrix[i] = append(r.explanatoryVarsMatrix[i], ev)
		}
	}
	return nil
}

// Run builds the design matrix from the observations and fits it.
func (r *Regression) Run() (*Model, error) {
	numOfObservations := len(r.objectiveVars)
	if numOfObservations == 0 {
		return nil, ErrNotEnoughObservations
	}

	// 元のインデックスと実際のインデックスの対応表を作成する
	// 説明変数の名称を抽出する
	var indexesTable []int
	var labels []string
	for idx := range r.explanatoryVarsMatrix {
		if _, ok := r.disregardingExplanatoryVarsSet[idx]; ok {
			continue
		}
		indexesTable = append(indexesTable, idx)
		labels = append(labels, r.GetExplanatoryVariableLabel(idx))
	}
	for idx := range r.disregardingExplanatoryVarsSet {
		if idx < 0 || idx >= len(r.explanatoryVarsMatrix) {
			logger.L().Warnf("Cannot ignore index %d: index out of range [0:%d]", idx, len(r.explanatoryVarsMatrix))
		}
	}

	if len(indexesTable) == 0 {
		return nil, ErrNoExplanatoryVars
	}

	colLen := len(indexesTable)
	if r.withIntercept {
		colLen++ // +1: 定数項
	}
	if colLen >= numOfObservations {
		return nil, ErrTooManyExplanatoryVars
	}

	explanatoryVarsDense := mat.NewDense(numOfObservations, colLen, nil)
	for col, idx := range indexesTable {
		explanatoryVarsDense.SetCol(col, r.explanatoryVarsMatrix[idx])
	}
	interceptIndex := -1
	if r.withIntercept {
		// 定数項を1で初期化する
		interceptIndex = colLen - 1
		for i := 0; i < numOfObservations; i++ {
			explanatoryVarsDense.Set(i, interceptIndex, 1)
		}
		indexesTable = append(indexesTable, -1)
		labels = append(labels, InterceptLabel)
	}

	model, err := Fit(mat.NewVecDense(numOfObservations, r.objectiveVars), explanatoryVarsDense)
	if err != nil {
		var condErr *ConditionError
		if errors.As(err, &condErr) {
			columns := make([][]float64, 0, len(indexesTable))
			for _, idx := range indexesTable {
				if idx >= 0 {
					columns = append(columns, r.explanatoryVarsMatrix[idx])
				}
			}
			vifs := alignToDesign(varianceInflationFactors(columns), interceptIndex)
			condErr.Hint = &ConditionErrorHint{ExplanatoryVars: newExplanatoryVarHints(indexesTable, labels, nil, vifs)}
		}
		return nil, err
	}
	model.responseLabel = r.GetObjectiveVariableLabel()
	model.labels = labels
	model.indexesTable = indexesTable
	model.interceptIndex = interceptIndex

	logger.L().Infof("Completed: Number of explanatory variables = %d", len(labels))

	return model, nil
}

// ValidateExplanatoryVars returns indexes of invalid explanatory variables.
// It considers an explanatory variable is not valid if is has all same observed values.
func (r *Regression) ValidateExplanatoryVars() []int {
	var invalidExplanatoryVarIndexes []int
	for i, evs := range r.explanatoryVarsMatrix {
		if _, ok := r.disregardingExplanatoryVarsSet[i]; ok {
			continue
		}
		if len(evs) == 0 {
			continue
		}
		if floats.Min(evs) == floats.Max(evs) {
			invalidExplanatoryVarIndexes = append(invalidExplanatoryVarIndexes, i)
		}
	}
	return invalidExplanatoryVarIndexes
}

// BackwardElimination : 変数減少法で解析する
//
// 有意確率が p を超える説明変数のうち最も大きいものを除き、再度分析することを繰り返す。
// `forcedExpVarsIndexesSet`に指定したインデックスの説明変数は強制投入（必ず使用）される
// 定数項は除かれない。
func (r *Regression) BackwardElimination(p float64, forcedExpVarsIndexesSet map[int]struct{}) ([]*Model, error) {
	if err := validateAlpha(p); err != nil {
		return nil, err
	}
	originalDisregardingExplanatoryVarsSet := make(map[int]struct{}, len(r.disregardingExplanatoryVarsSet))
	for k, v := range r.disregardingExplanatoryVarsSet {
		originalDisregardingExplanatoryVarsSet[k] = v
	}
	defer func() {
		r.disregardingExplanatoryVarsSet = originalDisregardingExplanatoryVarsSet
	}()

	var models []*Model
	for {
		model, err := r.Run()
		if err != nil {
			return models, err
		}
		models = append(models, model)

		summary, err := model.Summary()
		if err != nil {
			return models, err
		}

		numOfVars := summary.NumOfExplanatoryVars
		if model.HasIntercept() {
			numOfVars--
		}
		if numOfVars == 1 {
			break
		}

		eliminationTarget, border := (*ExplanatoryVarResult)(nil), p
		for i := range summary.ExplanatoryVars {
			ev := &summary.ExplanatoryVars[i]
			if ev.IsIntercept {
				continue
			}
			// 強制投入する変数は除かない
			if _, ok := forcedExpVarsIndexesSet[ev.OriginalIndex]; ok {
				continue
			}
			if ev.Prob > border {
				eliminationTarget = ev
				border = ev.Prob
			}
		}
		if eliminationTarget == nil {
			break
		}
		logger.L().Infof("Eliminate %s having p-value = %f", eliminationTarget.Label, eliminationTarget.Prob)
		r.DisregardIndex(eliminationTarget.OriginalIndex)
	}
	return models, nil
}
