package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/playcall/internal/report"
	"github.com/pable/playcall/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored corpora",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	corpora, err := db.ListCorpora()
	if err != nil {
		return fmt.Errorf("list corpora: %w", err)
	}
	if len(corpora) == 0 {
		fmt.Fprintln(os.Stdout, "No corpora stored yet. Run 'playcall ingest <plays.csv>' to add one.")
		return nil
	}
	report.PrintCorpora(os.Stdout, corpora)
	return nil
}
