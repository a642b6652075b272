// Package main implements olsfit, a command-line front end that fits a linear
// model to a CSV file and prints the regression table and prediction intervals.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/anyappinc/ols"
	"github.com/anyappinc/ols/internal/config"
	"github.com/anyappinc/ols/internal/dataset"
	"github.com/anyappinc/ols/logger"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "olsfit",
		Short:   "Fit ordinary least squares models to CSV data",
		Version: version,
	}
	rootCmd.AddCommand(newFitCmd())
	return rootCmd
}

type fitFlags struct {
	configPath string
	data       string
	response   string
	predictors []string
	intercept  bool
	alpha      float64
	predict    string
	rowLabels  string
	logLevel   string
}

func newFitCmd() *cobra.Command {
	var flags fitFlags
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a model and print coefficients and prediction intervals",
		Long: `Fit the response column of a CSV file against the predictor columns by
ordinary least squares.

Settings come from flags, then OLSFIT_* environment variables, then the YAML
file given by --config.

Examples:
  # mpg against hp and cyl, without intercept
  olsfit fit --data mtcars.csv --response mpg --predictors hp,cyl

  # with an intercept, 90% intervals for the rows of another file
  olsfit fit --data mtcars.csv --response mpg --predictors hp,cyl \
    --intercept --alpha 0.1 --predict new.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFit(cmd, &flags)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "YAML config file")
	f.StringVar(&flags.data, "data", "", "CSV file with the observations")
	f.StringVar(&flags.response, "response", "", "response column")
	f.StringSliceVar(&flags.predictors, "predictors", nil, "predictor columns, comma separated")
	f.BoolVar(&flags.intercept, "intercept", false, "add a constant term")
	f.Float64Var(&flags.alpha, "alpha", 0.05, "miscoverage level of the prediction intervals")
	f.StringVar(&flags.predict, "predict", "", "CSV file with rows to predict (defaults to --data)")
	f.StringVar(&flags.rowLabels, "row-labels", "", "column used to label rows in the output")
	f.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")
	return cmd
}

func loadConfig(cmd *cobra.Command, flags *fitFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	changed := cmd.Flags().Changed
	if changed("data") {
		cfg.Data = flags.data
	}
	if changed("response") {
		cfg.Response = flags.response
	}
	if changed("predictors") {
		cfg.Predictors = flags.predictors
	}
	if changed("intercept") {
		cfg.Intercept = flags.intercept
	}
	if changed("alpha") {
		cfg.Alpha = flags.alpha
	}
	if changed("predict") {
		cfg.Predict = flags.predict
	}
	if changed("row-labels") {
		cfg.RowLabels = flags.rowLabels
	}
	if changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runFit(cmd *cobra.Command, flags *fitFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger.SetLogsOutput(cmd.ErrOrStderr())
	logger.SetLevel(level)

	train, err := dataset.Load(cfg.Data)
	if err != nil {
		return err
	}
	model, err := fitTable(train, cfg)
	if err != nil {
		return fmt.Errorf("failed to fit model: %w", err)
	}
	summary, err := model.Summary()
	if err != nil {
		return fmt.Errorf("failed to summarize model: %w", err)
	}

	out := cmd.OutOrStdout()
	printSummary(out, model, summary)

	target := train
	if cfg.Predict != "" {
		if target, err = dataset.Load(cfg.Predict); err != nil {
			return err
		}
	}
	newData, err := target.Design(cfg.Predictors, cfg.Intercept)
	if err != nil {
		return err
	}
	rowLabels, err := target.Labels(cfg.RowLabels)
	if err != nil {
		return err
	}
	pi, err := model.PredictionInterval(newData, cfg.Alpha)
	if err != nil {
		return fmt.Errorf("failed to compute prediction intervals: %w", err)
	}
	printIntervals(out, cfg.Alpha, rowLabels, pi)
	return nil
}

func fitTable(t *dataset.Table, cfg *config.Config) (*ols.Model, error) {
	response, err := t.Column(cfg.Response)
	if err != nil {
		return nil, err
	}
	columns := make([][]float64, len(cfg.Predictors))
	for j, name := range cfg.Predictors {
		if columns[j], err = t.Column(name); err != nil {
			return nil, err
		}
	}

	r := ols.NewRegression()
	r.SetObjectiveVariableLabel(cfg.Response)
	for j, name := range cfg.Predictors {
		r.SetExplanatoryVariableLabel(j, name)
	}
	r.SetIntercept(cfg.Intercept)
	for i, y := range response {
		xs := make([]float64, len(columns))
		for j := range columns {
			xs[j] = columns[j][i]
		}
		if err := r.AddObservations(ols.NewObservation(y, xs)); err != nil {
			return nil, err
		}
	}
	for _, idx := range r.ValidateExplanatoryVars() {
		logger.L().Warnf("predictor %s is constant", cfg.Predictors[idx])
	}
	return r.Run()
}

func printSummary(w io.Writer, model *ols.Model, s *ols.Summary) {
	terms := model.Labels()
	if model.HasIntercept() {
		terms = append(terms[:len(terms)-1], "1")
	} else {
		terms = append(terms, "0")
	}
	fmt.Fprintf(w, "Call: %s ~ %s\n", s.ObjectiveVarLabel, strings.Join(terms, " + "))
	fmt.Fprintf(w, "Formula: %s\n\n", model.FormulaString())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TERM\tESTIMATE\tSTD. ERROR\tT VALUE\tPR(>|T|)")
	for _, ev := range s.ExplanatoryVars {
		fmt.Fprintf(tw, "%s\t%.6f\t%.6f\t%.3f\t%.4g\n", ev.Label, ev.Coeff, ev.StandardError, ev.TStat, ev.Prob)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nResidual standard error: %.4f on %d degrees of freedom\n", s.StandardError, s.ANOVA.ResidualDegreeOfFreedom)
	fmt.Fprintf(w, "R-squared: %.4f, Adjusted R-squared: %.4f\n", s.R2, s.AdjustedR2)
	fmt.Fprintf(w, "F-statistic: %.4g on %d and %d DF, p-value: %.4g\n\n",
		s.ANOVA.RegressionFstat, s.ANOVA.RegressionDegreeOfFreedom, s.ANOVA.ResidualDegreeOfFreedom, s.ANOVA.RegressionProb)
}

func printIntervals(w io.Writer, alpha float64, rowLabels []string, pi *ols.Interval) {
	fmt.Fprintf(w, "Prediction intervals (%.4g%%):\n", (1-alpha)*100)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tFIT\tLOWER\tUPPER")
	for i := range pi.Fit {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\n", rowLabels[i], pi.Fit[i], pi.LowerLimit[i], pi.UpperLimit[i])
	}
	tw.Flush()
}
