package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/playcall/internal/analysis"
	"github.com/pable/playcall/internal/report"
	"github.com/pable/playcall/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCorpus string

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long: `Load a corpus once and query situations interactively. Type 'help' for
available commands.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	shellCmd.Flags().StringVar(&shellCorpus, "corpus", "", "corpus to load (default: the only stored corpus)")
}

// shellSession is the state carried between prompts.
type shellSession struct {
	db       *storage.DB
	corpus   *analysis.Corpus
	strategy string
	out      io.Writer
}

func runShell(cmd *cobra.Command, _ []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	corpus, err := loadCorpus(db, shellCorpus)
	if err != nil {
		return err
	}
	sess := &shellSession{db: db, corpus: corpus, strategy: cfg.Strategy, out: os.Stdout}

	cGreeting.Println("playcall shell")
	cMuted.Printf("corpus %s (%d plays), strategy %s. type 'help' or 'exit'\n", corpus.Name(), corpus.Len(), sess.strategy)
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("playcall")
		cMuted.Printf("[%s]> ", sess.corpus.Name())
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		name, args := tokens[0], tokens[1:]

		switch name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "list":
			sess.list()
		case "use":
			if len(args) != 1 {
				cError.Fprintln(os.Stderr, "usage: use <corpus>")
				continue
			}
			sess.use(args[0])
		case "strategy":
			sess.setStrategy(args)
		case "stats":
			report.PrintIndexStats(sess.out, sess.corpus.Index().Stats())
		case "analyze":
			sess.analyze(cmd, args)
		default:
			// A line starting with a number is a bare situation.
			if name[0] >= '0' && name[0] <= '9' {
				sess.analyze(cmd, tokens)
				continue
			}
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
		}
	}
	return scanner.Err()
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"<q> <down> <togo> <yardline> <MM:SS>", "analyze a situation, e.g. 1 1 10 50 7:30"},
		{"<q> 0 <togo> <yardline> <MM:SS> 2pt", "analyze a two-point try"},
		{"analyze <situation>", "same as a bare situation"},
		{"strategy [filter|index]", "show or switch the candidate source"},
		{"stats", "show situation index statistics"},
		{"list", "list stored corpora"},
		{"use <corpus>", "switch to another corpus"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-40s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func (s *shellSession) analyze(cmd *cobra.Command, tokens []string) {
	sit, err := parseSituation(tokens)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	res, err := s.corpus.Analyze(cmd.Context(), sit, s.strategy)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintSituation(s.out, s.corpus.Name(), sit)
	report.PrintResult(s.out, res)
	fmt.Fprintln(s.out)
}

func (s *shellSession) setStrategy(args []string) {
	if len(args) == 0 {
		cHeader.Fprintf(s.out, "strategy: %s\n", s.strategy)
		return
	}
	if _, err := s.corpus.Source(args[0]); err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	s.strategy = args[0]
	cMuted.Fprintf(s.out, "strategy set to %s\n", s.strategy)
}

func (s *shellSession) list() {
	corpora, err := s.db.ListCorpora()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(corpora) == 0 {
		cMuted.Println("No corpora stored yet.")
		return
	}
	report.PrintCorpora(s.out, corpora)
}

func (s *shellSession) use(name string) {
	corpus, err := loadCorpus(s.db, name)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	s.corpus = corpus
	cMuted.Fprintf(s.out, "loaded %s (%d plays)\n", corpus.Name(), corpus.Len())
}
