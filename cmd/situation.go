package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/pable/playcall/internal/analysis"
	"github.com/pable/playcall/internal/model"
	"github.com/pable/playcall/internal/storage"
)

// situationFlags holds the flags shared by commands that take one situation.
type situationFlags struct {
	quarter  int
	down     int
	toGo     int
	yardLine int
	clock    string
	twoPoint bool
}

func (f *situationFlags) register(fs *pflag.FlagSet) {
	fs.IntVarP(&f.quarter, "quarter", "q", 1, "quarter (1-4)")
	fs.IntVarP(&f.down, "down", "d", 1, "down (1-4, 0 for a two-point try)")
	fs.IntVarP(&f.toGo, "togo", "t", 10, "yards to go")
	fs.IntVarP(&f.yardLine, "yardline", "y", 25, "yard line (1-99, offense's own 1 to opponent's 1)")
	fs.StringVarP(&f.clock, "clock", "c", "15:00", "time left in the quarter (MM:SS)")
	fs.BoolVar(&f.twoPoint, "two-point", false, "two-point conversion try (forces down 0)")
}

func (f *situationFlags) situation() (model.Situation, error) {
	minutes, seconds, err := parseClock(f.clock)
	if err != nil {
		return model.Situation{}, err
	}
	down := f.down
	if f.twoPoint {
		down = 0
	}
	s := model.NewSituation(f.quarter, down, f.toGo, f.yardLine, minutes, seconds, f.twoPoint)
	if err := s.Validate(); err != nil {
		return model.Situation{}, err
	}
	return s, nil
}

// parseClock accepts MM:SS or a bare number of minutes.
func parseClock(s string) (minutes, seconds int, err error) {
	s = strings.TrimSpace(s)
	m, sec, found := strings.Cut(s, ":")
	minutes, err = strconv.Atoi(m)
	if err != nil {
		return 0, 0, fmt.Errorf("clock %q: minutes: %w", s, err)
	}
	if found {
		seconds, err = strconv.Atoi(sec)
		if err != nil {
			return 0, 0, fmt.Errorf("clock %q: seconds: %w", s, err)
		}
	}
	return minutes, seconds, nil
}

// parseSituation reads "<quarter> <down> <togo> <yardline> <MM:SS> [2pt]".
func parseSituation(tokens []string) (model.Situation, error) {
	if len(tokens) < 5 || len(tokens) > 6 {
		return model.Situation{}, fmt.Errorf("want <quarter> <down> <togo> <yardline> <MM:SS> [2pt], got %d fields", len(tokens))
	}
	var nums [4]int
	for i := range nums {
		n, err := strconv.Atoi(tokens[i])
		if err != nil {
			return model.Situation{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		nums[i] = n
	}
	minutes, seconds, err := parseClock(tokens[4])
	if err != nil {
		return model.Situation{}, err
	}
	twoPoint := len(tokens) == 6 && strings.EqualFold(tokens[5], "2pt")
	if len(tokens) == 6 && !twoPoint {
		return model.Situation{}, fmt.Errorf("unexpected %q (only 2pt is allowed)", tokens[5])
	}
	s := model.NewSituation(nums[0], nums[1], nums[2], nums[3], minutes, seconds, twoPoint)
	if err := s.Validate(); err != nil {
		return model.Situation{}, err
	}
	return s, nil
}

func openStore() (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

// loadCorpus builds the named corpus. An empty name picks the only stored corpus.
func loadCorpus(db *storage.DB, name string) (*analysis.Corpus, error) {
	if name == "" {
		corpora, err := db.ListCorpora()
		if err != nil {
			return nil, fmt.Errorf("list corpora: %w", err)
		}
		switch len(corpora) {
		case 0:
			return nil, fmt.Errorf("no corpora stored; run 'playcall ingest <plays.csv>' first")
		case 1:
			name = corpora[0].Name
		default:
			names := make([]string, len(corpora))
			for i, c := range corpora {
				names[i] = c.Name
			}
			return nil, fmt.Errorf("several corpora stored (%s); pick one with --corpus", strings.Join(names, ", "))
		}
	}

	summary, err := db.GetCorpus(name)
	if err != nil {
		return nil, fmt.Errorf("get corpus: %w", err)
	}
	if summary == nil {
		return nil, fmt.Errorf("corpus %q not found", name)
	}
	plays, err := db.LoadPlays(name)
	if err != nil {
		return nil, fmt.Errorf("load plays: %w", err)
	}
	logrus.WithFields(logrus.Fields{"corpus": name, "plays": len(plays)}).Debug("plays loaded")
	return analysis.NewCorpus(name, plays, analysis.WithShards(cfg.Shards)), nil
}
