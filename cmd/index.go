package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/playcall/internal/report"
	"github.com/pable/playcall/internal/situation"
)

var (
	indexCorpus string
	indexSit    situationFlags
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Show situation index statistics for a corpus",
	Long: `Show capacity, load factor, and chain lengths of the situation index built
over a corpus. When any situation flag is given, also show the situation's code,
its bucket, and how many plays share that bucket.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexCorpus, "corpus", "", "corpus name (default: the only stored corpus)")
	indexSit.register(indexCmd.Flags())
}

func runIndex(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	corpus, err := loadCorpus(db, indexCorpus)
	if err != nil {
		return err
	}
	idx := corpus.Index()

	fmt.Fprintf(os.Stdout, "\nCorpus: %s  |  %d plays, %d indexed\n\n", corpus.Name(), corpus.Len(), idx.Len())
	report.PrintIndexStats(os.Stdout, idx.Stats())

	fs := cmd.Flags()
	if !(fs.Changed("quarter") || fs.Changed("down") || fs.Changed("togo") ||
		fs.Changed("yardline") || fs.Changed("clock") || fs.Changed("two-point")) {
		return nil
	}
	s, err := indexSit.situation()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\nSituation code %s -> bucket %d, %d plays in bucket\n",
		situation.CodeOfSituation(s), idx.Bucket(s), len(idx.Lookup(s)))
	return nil
}
