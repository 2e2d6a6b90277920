package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pable/playcall/internal/ingest"
	"github.com/pable/playcall/internal/model"
)

var (
	ingestName  string
	ingestForce bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <plays.csv[.zst|.gz|.bz2]>",
	Short: "Parse a play-by-play CSV export and store it as a corpus",
	Long: `Parse a play-by-play CSV export and store its plays as a named corpus.

Malformed rows are skipped and counted. Files whose accepted rows match an
already stored corpus are not stored again unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestName, "name", "n", "", "corpus name (default: file name without extension)")
	ingestCmd.Flags().BoolVarP(&ingestForce, "force", "f", false, "store even if an identical corpus exists")
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	name := ingestName
	if name == "" {
		name = ingest.CorpusName(path)
	}

	res, err := ingest.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if len(res.Plays) == 0 {
		return fmt.Errorf("%s: no valid plays in %d rows", path, res.Rows)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	existing, err := db.CorpusByFingerprint(res.Fingerprint)
	if err != nil {
		return fmt.Errorf("check fingerprint: %w", err)
	}
	if existing != nil && !ingestForce {
		fmt.Fprintf(os.Stdout, "Already stored as corpus %q (%d plays), skipping. Use --force to store again.\n",
			existing.Name, existing.PlayCount)
		return nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	summary := model.CorpusSummary{
		Name:        name,
		Fingerprint: res.Fingerprint,
		SourcePath:  abs,
		SkippedRows: res.Skipped,
	}
	if err := db.SaveCorpus(summary, res.Plays); err != nil {
		return fmt.Errorf("save corpus: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Stored corpus %q: %d plays from %d rows", name, len(res.Plays), res.Rows)
	if res.Skipped > 0 || res.Duplicates > 0 {
		fmt.Fprintf(os.Stdout, " (%d malformed, %d duplicate)", res.Skipped, res.Duplicates)
	}
	fmt.Fprintln(os.Stdout)
	return nil
}
