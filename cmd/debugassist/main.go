// Package main implements the debugassist CLI: it classifies error
// descriptions into error families and prints confidence-gated remediation
// guidance.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/debugassist/internal/config"
	"github.com/fyrsmithlabs/debugassist/internal/corpus"
	"github.com/fyrsmithlabs/debugassist/internal/logging"
	"github.com/fyrsmithlabs/debugassist/internal/pipeline"
	"github.com/fyrsmithlabs/debugassist/internal/training"
	"github.com/fyrsmithlabs/debugassist/pkg/family"
	"github.com/fyrsmithlabs/debugassist/pkg/guidance"
)

var (
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "debugassist",
	Short: "Classify programming errors and suggest fixes",
	Long: `debugassist turns a free-text error description into an error-family
label plus a remediation checklist. High-confidence answers also include
similar solved cases from the historical corpus.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/debugassist/config.yaml)")
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(datasetCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(familiesCmd)
}

// loadStack loads config and builds the process logger.
func loadStack() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

var (
	classifyText string
	classifyCode string
	classifyTopK int
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify an error description",
	Long: `Classify an error description and print remediation guidance.

Examples:
  # Classify a pasted traceback
  debugassist classify --text "KeyError: 'user_id'"

  # Include the code around the failure
  debugassist classify -t "it crashes on startup" -c "result = total / count"

  # Read the description from stdin
  cat error.log | debugassist classify`,
	RunE: runClassify,
}

var (
	datasetOut      string
	datasetTotal    int
	datasetPerClass int
	datasetSeed     int64
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Generate a synthetic labeled corpus",
	Long: `Generate a synthetic corpus of labeled error cases for training.

Examples:
  # 1000 rows split evenly across families
  debugassist dataset --total 1000 --out data/debug_cases.csv

  # 150 rows per family
  debugassist dataset --per-class 150 --out data/debug_cases.csv`,
	RunE: runDataset,
}

var (
	trainData string
	trainSeed int64
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the classifier from a labeled corpus",
	Long: `Fit the TF-IDF vectorizer and the classifier on a labeled corpus CSV
and write both artifacts to the configured paths.

Examples:
  debugassist train --data data/debug_cases.csv`,
	RunE: runTrain,
}

var familiesCmd = &cobra.Command{
	Use:   "families",
	Short: "List the declared error families",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, f := range family.All() {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
		return nil
	},
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyText, "text", "t", "", "error description to classify (default stdin)")
	classifyCmd.Flags().StringVarP(&classifyCode, "code", "c", "", "code snippet around the failure")
	classifyCmd.Flags().IntVar(&classifyTopK, "top-k", 0, "similar cases to show (default from config)")

	datasetCmd.Flags().StringVar(&datasetOut, "out", "data/debug_cases.csv", "output CSV path")
	datasetCmd.Flags().IntVar(&datasetTotal, "total", 0, "total rows, split evenly across families")
	datasetCmd.Flags().IntVar(&datasetPerClass, "per-class", 0, "rows per family")
	datasetCmd.Flags().Int64Var(&datasetSeed, "seed", 42, "random seed")

	trainCmd.Flags().StringVar(&trainData, "data", "", "corpus CSV path (default from config)")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", 42, "train/eval shuffle seed")
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadStack()
	if err != nil {
		return err
	}
	defer logger.Sync()

	text := classifyText
	if text == "" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(raw)
	}

	if classifyTopK > 0 {
		cfg.Retrieval.TopK = classifyTopK
	}

	svc, err := pipeline.Load(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	result, err := svc.ClassifyWithCode(cmd.Context(), text, classifyCode)
	if err != nil {
		return err
	}

	printResult(cmd.OutOrStdout(), result)
	return nil
}

func runDataset(cmd *cobra.Command, args []string) error {
	_, logger, err := loadStack()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cases, err := corpus.Generate(corpus.GenerateOptions{
		Total:    datasetTotal,
		PerClass: datasetPerClass,
		Seed:     datasetSeed,
	})
	if err != nil {
		return err
	}
	if err := corpus.WriteCases(datasetOut, cases); err != nil {
		return err
	}

	logger.Info("dataset written",
		zap.String("path", datasetOut),
		zap.Int("rows", len(cases)),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d cases to %s\n", len(cases), datasetOut)
	return nil
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadStack()
	if err != nil {
		return err
	}
	defer logger.Sync()

	dataPath := trainData
	if dataPath == "" {
		dataPath = cfg.Artifacts.Corpus
	}

	cases, err := corpus.ReadCases(dataPath)
	if err != nil {
		return err
	}

	opts := training.DefaultOptions()
	opts.Seed = trainSeed
	vec, clf, report, err := training.Train(cases, opts, logger)
	if err != nil {
		return err
	}

	if err := vec.Save(cfg.Artifacts.Vectorizer); err != nil {
		return fmt.Errorf("saving vectorizer: %w", err)
	}
	if err := clf.Save(cfg.Artifacts.Classifier); err != nil {
		return fmt.Errorf("saving classifier: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Trained on %d rows (%d held out), %d features\n",
		report.TrainRows, report.EvalRows, report.FeatureDim)
	if report.EvalRows > 0 {
		fmt.Fprintf(out, "Macro F1: %.3f\n", report.MacroF1)
		for i, f := range family.All() {
			fmt.Fprintf(out, "  %-18s %.3f\n", f, report.PerFamily[i])
		}
	}
	fmt.Fprintf(out, "Artifacts: %s, %s\n", cfg.Artifacts.Vectorizer, cfg.Artifacts.Classifier)
	return nil
}

// printResult renders guidance for a terminal.
func printResult(w io.Writer, res *guidance.Result) {
	if res.Focused {
		p := res.Prediction
		fmt.Fprintf(w, "Family: %s (%.0f%% via %s)\n", p.Family, p.Confidence*100, p.Source)
		for _, cl := range res.Checklists {
			fmt.Fprintln(w, "\nChecklist:")
			for _, step := range cl.Steps {
				fmt.Fprintf(w, "  - %s\n", step)
			}
		}
		if len(res.SimilarCases) > 0 {
			fmt.Fprintln(w, "\nSimilar solved cases:")
			for _, c := range res.SimilarCases {
				fmt.Fprintf(w, "  [%.2f] %s: %s\n", c.Score, c.Family, preview(c.Text, 80))
				fmt.Fprintf(w, "         fix: %s\n", preview(c.Fix, 100))
			}
		}
		return
	}

	fmt.Fprintln(w, "Not sure yet. Most likely families:")
	for _, cl := range res.Checklists {
		fmt.Fprintf(w, "\n%s (%.0f%%):\n", cl.Family, cl.Probability*100)
		for _, step := range cl.Steps {
			fmt.Fprintf(w, "  - %s\n", step)
		}
	}
	if res.Prompt != "" {
		fmt.Fprintf(w, "\n%s\n", res.Prompt)
	}
}

// preview flattens and truncates text for one-line display. Truncation
// counts runes so multi-byte characters are never split.
func preview(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
