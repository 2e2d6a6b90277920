package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/playcall/internal/storage"
)

var dropForce bool

// dropCmd deletes one corpus and its plays.
var dropCmd = &cobra.Command{
	Use:   "drop <corpus>",
	Short: "Delete a stored corpus",
	Long:  "Permanently delete a corpus and all of its plays. Re-ingest the CSV afterwards to rebuild it.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
}

func runDrop(cmd *cobra.Command, args []string) error {
	name := args[0]
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete corpus %q from %s\n", name, dbPath)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	existed, err := db.DropCorpus(name)
	if err != nil {
		return fmt.Errorf("drop corpus: %w", err)
	}
	if !existed {
		fmt.Fprintf(os.Stdout, "Corpus %q does not exist, nothing to drop.\n", name)
		return nil
	}
	fmt.Fprintf(os.Stdout, "Deleted corpus %q\n", name)
	return nil
}
