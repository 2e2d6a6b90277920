package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/playcall/internal/report"
)

var (
	analyzeCorpus string
	analyzeJSON   bool
	analyzeSit    situationFlags
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Recommend a play call for one game situation",
	Long: `Find historical plays from comparable situations and report the best
representative play, run vs pass comparison, play-type breakdown, risk, ideal
plays, and outcome likelihoods.

Examples:
  playcall analyze -q 1 -d 1 -t 10 -y 50 -c 7:30
  playcall analyze -q 4 -t 2 -y 98 -c 0:45 --two-point --json
  playcall analyze --corpus 2013 -q 2 -d 3 -t 4 -y 62 --strategy index`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeCorpus, "corpus", "", "corpus name (default: the only stored corpus)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the result as JSON")
	analyzeSit.register(analyzeCmd.Flags())
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	s, err := analyzeSit.situation()
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	corpus, err := loadCorpus(db, analyzeCorpus)
	if err != nil {
		return err
	}

	res, err := corpus.Analyze(cmd.Context(), s, cfg.Strategy)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	report.PrintSituation(os.Stdout, corpus.Name(), s)
	report.PrintResult(os.Stdout, res)
	return nil
}
