package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/playcall/internal/storage"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the play database",
	Long: `Run an arbitrary SQL query against the play database and print results as a table.

Schema overview:
  corpora(name, fingerprint, source_path, play_count, skipped_rows, ingested_at)
  plays(corpus, seq, game_id, game_date, quarter, minutes, seconds, offense,
    defense, down, to_go, yard_line, first_down, description, yards, formation,
    play_type, is_rush, is_pass, is_incomplete, is_touchdown, pass_type, is_sack,
    is_interception, is_fumble, is_two_point, is_two_point_success, rush_direction)

Boolean columns hold 0 or 1. Example:
  playcall sql "SELECT play_type, COUNT(*), AVG(yards) FROM plays WHERE down = 3 GROUP BY play_type"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}

