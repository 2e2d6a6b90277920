// Package ingest reads play-by-play CSV exports into model.Play records.
package ingest

import (
	"compress/bzip2"
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/segmentio/fasthash/jody"
	"github.com/sirupsen/logrus"

	"github.com/pable/playcall/internal/model"
)

// Column positions in the play-by-play export.
const (
	colGameID = iota
	colGameDate
	colQuarter
	colMinute
	colSecond
	colOffense
	colDefense
	colDown
	colToGo
	colYardLine
	colSeriesFirstDown
	colDescription
	colYards
	colFormation
	colPlayType
	colIsRush
	colIsPass
	colIsIncomplete
	colIsTouchdown
	colPassType
	colIsSack
	colIsInterception
	colIsFumble
	colIsTwoPointConversion
	colIsTwoPointConversionSuccessful
	colRushDirection
)

// minColumns is the shortest row accepted; trailing columns may be absent.
const minColumns = colIsTwoPointConversion + 1

// Result is a parsed corpus plus bookkeeping for the store.
type Result struct {
	Plays       []model.Play
	Fingerprint string // jody64 over accepted rows in order, hex
	Rows        int    // data rows read, header excluded
	Skipped     int    // malformed rows
	Duplicates  int    // rows identical to an earlier row
}

// ParseFile opens path and parses it with Parse. Files ending in .zst, .gz, or
// .bz2 are decompressed on the fly.
func ParseFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	var src io.Reader = f
	switch {
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		src = dec
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		src = gz
	case strings.HasSuffix(path, ".bz2"):
		src = bzip2.NewReader(f)
	}

	res, err := Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return res, nil
}

// CorpusName derives a default corpus name from a file path:
// "data/pbp-2013.csv.zst" -> "pbp-2013".
func CorpusName(path string) string {
	name := filepath.Base(path)
	for _, ext := range []string{".zst", ".gz", ".bz2", ".csv"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// Parse reads every row from r. Malformed rows are skipped and counted, exact
// duplicate rows are dropped, and weights are derived for every accepted play.
// Only I/O failures are returned as errors.
func Parse(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	res := &Result{}
	seen := make(map[uint64]struct{})
	fingerprint := jody.HashString64("")

	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			res.Rows++
			res.Skipped++
			logrus.WithFields(logrus.Fields{"row": row, "err": err}).Debug("skip unreadable row")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}
		if row == 1 && isHeader(record) {
			continue
		}
		res.Rows++

		h := hashRecord(record)
		if _, dup := seen[h]; dup {
			res.Duplicates++
			continue
		}

		p, err := ParseRow(record)
		if err != nil {
			res.Skipped++
			logrus.WithFields(logrus.Fields{"row": row, "err": err}).Debug("skip malformed row")
			continue
		}
		seen[h] = struct{}{}
		fingerprint = jody.AddUint64(fingerprint, h)
		res.Plays = append(res.Plays, p)
	}

	res.Fingerprint = strconv.FormatUint(fingerprint, 16)
	logrus.WithFields(logrus.Fields{
		"rows":       res.Rows,
		"plays":      len(res.Plays),
		"skipped":    res.Skipped,
		"duplicates": res.Duplicates,
	}).Info("csv parsed")
	return res, nil
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[colGameID]), "gameid")
}

func hashRecord(record []string) uint64 {
	h := jody.HashString64(record[0])
	for _, field := range record[1:] {
		// Separator keeps ("ab","c") and ("a","bc") apart.
		h = jody.AddString64(h, "\x1f")
		h = jody.AddString64(h, field)
	}
	return h
}

// ParseRow converts one CSV record. Empty numeric cells read as zero; anything
// else unparseable, too few columns, or an impossible outcome combination is an error.
func ParseRow(record []string) (model.Play, error) {
	if len(record) < minColumns {
		return model.Play{}, fmt.Errorf("row has %d columns, want at least %d", len(record), minColumns)
	}
	field := func(i int) string {
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var firstErr error
	num := func(i int) int {
		s := field(i)
		if s == "" {
			return 0
		}
		n, err := strconv.Atoi(s)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("column %d: %w", i, err)
		}
		return n
	}
	flag := func(i int) bool { return num(i) != 0 }

	p := model.Play{
		GameID:                         num(colGameID),
		GameDate:                       field(colGameDate),
		Quarter:                        num(colQuarter),
		Minutes:                        num(colMinute),
		Seconds:                        num(colSecond),
		Offense:                        field(colOffense),
		Defense:                        field(colDefense),
		Down:                           num(colDown),
		ToGo:                           num(colToGo),
		YardLine:                       num(colYardLine),
		ResultIsFirstDown:              flag(colSeriesFirstDown),
		Description:                    field(colDescription),
		ResultingYards:                 num(colYards),
		Formation:                      field(colFormation),
		PlayType:                       field(colPlayType),
		IsRush:                         flag(colIsRush),
		IsPass:                         flag(colIsPass),
		IsIncomplete:                   flag(colIsIncomplete),
		IsTouchdown:                    flag(colIsTouchdown),
		PassType:                       field(colPassType),
		IsSack:                         flag(colIsSack),
		IsInterception:                 flag(colIsInterception),
		IsFumble:                       flag(colIsFumble),
		IsTwoPointConversion:           flag(colIsTwoPointConversion),
		IsTwoPointConversionSuccessful: flag(colIsTwoPointConversionSuccessful),
		RushDirection:                  field(colRushDirection),
	}
	if firstErr != nil {
		return model.Play{}, firstErr
	}
	if err := p.CheckOutcome(); err != nil {
		return model.Play{}, err
	}
	model.DeriveWeights(&p)
	return p, nil
}
