package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v2"

	"github.com/pable/playcall/internal/model"
	"github.com/pable/playcall/internal/report"
)

var (
	batchCorpus  string
	batchWorkers int
	batchJSON    bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <situations.yaml>",
	Short: "Analyze every situation in a YAML file",
	Long: `Analyze a list of situations concurrently and print one summary line each.

File format:
  situations:
    - name: opening drive
      quarter: 1
      down: 1
      toGo: 10
      yardLine: 25
      clock: "15:00"
    - name: late two-point try
      quarter: 4
      toGo: 2
      yardLine: 98
      clock: "0:45"
      twoPoint: true

"clock" may be replaced by separate minutes and seconds fields.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchCorpus, "corpus", "", "corpus name (default: the only stored corpus)")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", runtime.NumCPU(), "situations analyzed at once")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "print full results as JSON")
}

type batchFile struct {
	Situations []batchEntry `yaml:"situations"`
}

type batchEntry struct {
	Name            string `yaml:"name"`
	Clock           string `yaml:"clock"`
	model.Situation `yaml:",inline"`
}

// readBatch decodes and validates a situations file.
func readBatch(r io.Reader) ([]batchEntry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var f batchFile
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("decode situations: %w", err)
	}
	if len(f.Situations) == 0 {
		return nil, fmt.Errorf("no situations in file")
	}

	for i := range f.Situations {
		e := &f.Situations[i]
		if e.Name == "" {
			e.Name = fmt.Sprintf("#%d", i+1)
		}
		if e.Clock != "" {
			e.Minutes, e.Seconds, err = parseClock(e.Clock)
			if err != nil {
				return nil, fmt.Errorf("situation %s: %w", e.Name, err)
			}
		}
		if e.IsTwoPointConversion {
			e.Down = 0
		}
		e.Normalize()
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("situation %s: %w", e.Name, err)
		}
	}
	return f.Situations, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	entries, err := readBatch(f)
	f.Close()
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	corpus, err := loadCorpus(db, batchCorpus)
	if err != nil {
		return err
	}

	rows := make([]report.BatchRow, len(entries))
	g, ctx := errgroup.WithContext(cmd.Context())
	if batchWorkers > 0 {
		g.SetLimit(batchWorkers)
	}
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			res, err := corpus.Analyze(ctx, e.Situation, cfg.Strategy)
			if err != nil {
				return fmt.Errorf("situation %s: %w", e.Name, err)
			}
			rows[i] = report.BatchRow{Name: e.Name, Situation: e.Situation, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if batchJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	fmt.Fprintf(os.Stdout, "\nCorpus: %s  |  %d situations  |  strategy %s\n\n", corpus.Name(), len(rows), cfg.Strategy)
	report.PrintBatch(os.Stdout, rows)
	return nil
}
