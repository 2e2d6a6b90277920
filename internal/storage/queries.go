package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pable/playcall/internal/model"
)

// CorpusByFingerprint returns the corpus ingested from identical content, or nil.
func (db *DB) CorpusByFingerprint(fingerprint string) (*model.CorpusSummary, error) {
	return db.scanCorpus(db.conn.QueryRow(`
		SELECT name, fingerprint, source_path, play_count, skipped_rows, ingested_at
		FROM corpora WHERE fingerprint = ? LIMIT 1`, fingerprint))
}

// GetCorpus returns the named corpus summary, or nil if it does not exist.
func (db *DB) GetCorpus(name string) (*model.CorpusSummary, error) {
	return db.scanCorpus(db.conn.QueryRow(`
		SELECT name, fingerprint, source_path, play_count, skipped_rows, ingested_at
		FROM corpora WHERE name = ?`, name))
}

func (db *DB) scanCorpus(row *sql.Row) (*model.CorpusSummary, error) {
	var s model.CorpusSummary
	err := row.Scan(&s.Name, &s.Fingerprint, &s.SourcePath, &s.PlayCount, &s.SkippedRows, &s.IngestedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveCorpus stores plays under summary.Name in one transaction, replacing any
// corpus of the same name. Play order is preserved.
func (db *DB) SaveCorpus(summary model.CorpusSummary, plays []model.Play) error {
	if summary.IngestedAt == "" {
		summary.IngestedAt = time.Now().UTC().Format(time.RFC3339)
	}
	summary.PlayCount = len(plays)

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM plays WHERE corpus = ?", summary.Name); err != nil {
		return fmt.Errorf("clear plays: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM corpora WHERE name = ?", summary.Name); err != nil {
		return fmt.Errorf("clear corpus: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO corpora(name, fingerprint, source_path, play_count, skipped_rows, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		summary.Name, summary.Fingerprint, summary.SourcePath,
		summary.PlayCount, summary.SkippedRows, summary.IngestedAt,
	); err != nil {
		return fmt.Errorf("insert corpus: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO plays(
			corpus, seq, game_id, game_date, quarter, minutes, seconds,
			offense, defense, down, to_go, yard_line, first_down,
			description, yards, formation, play_type,
			is_rush, is_pass, is_incomplete, is_touchdown, pass_type,
			is_sack, is_interception, is_fumble,
			is_two_point, is_two_point_success, rush_direction
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range plays {
		_, err = stmt.Exec(
			summary.Name, i, p.GameID, p.GameDate, p.Quarter, p.Minutes, p.Seconds,
			p.Offense, p.Defense, p.Down, p.ToGo, p.YardLine, boolInt(p.ResultIsFirstDown),
			p.Description, p.ResultingYards, p.Formation, p.PlayType,
			boolInt(p.IsRush), boolInt(p.IsPass), boolInt(p.IsIncomplete), boolInt(p.IsTouchdown), p.PassType,
			boolInt(p.IsSack), boolInt(p.IsInterception), boolInt(p.IsFumble),
			boolInt(p.IsTwoPointConversion), boolInt(p.IsTwoPointConversionSuccessful), p.RushDirection,
		)
		if err != nil {
			return fmt.Errorf("insert play %d (game %d): %w", i, p.GameID, err)
		}
	}
	return tx.Commit()
}

// ListCorpora returns every stored corpus, newest first.
func (db *DB) ListCorpora() ([]model.CorpusSummary, error) {
	rows, err := db.conn.Query(`
		SELECT name, fingerprint, source_path, play_count, skipped_rows, ingested_at
		FROM corpora ORDER BY ingested_at DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CorpusSummary
	for rows.Next() {
		var s model.CorpusSummary
		if err := rows.Scan(&s.Name, &s.Fingerprint, &s.SourcePath, &s.PlayCount, &s.SkippedRows, &s.IngestedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LoadPlays returns a corpus's plays in ingestion order with weights derived.
func (db *DB) LoadPlays(name string) ([]model.Play, error) {
	rows, err := db.conn.Query(`
		SELECT game_id, game_date, quarter, minutes, seconds,
			offense, defense, down, to_go, yard_line, first_down,
			description, yards, formation, play_type,
			is_rush, is_pass, is_incomplete, is_touchdown, pass_type,
			is_sack, is_interception, is_fumble,
			is_two_point, is_two_point_success, rush_direction
		FROM plays WHERE corpus = ? ORDER BY seq`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Play
	for rows.Next() {
		var p model.Play
		var firstDown, rush, pass, incomplete, touchdown, sack, interception, fumble, twoPoint, twoPointOK int
		if err := rows.Scan(
			&p.GameID, &p.GameDate, &p.Quarter, &p.Minutes, &p.Seconds,
			&p.Offense, &p.Defense, &p.Down, &p.ToGo, &p.YardLine, &firstDown,
			&p.Description, &p.ResultingYards, &p.Formation, &p.PlayType,
			&rush, &pass, &incomplete, &touchdown, &p.PassType,
			&sack, &interception, &fumble,
			&twoPoint, &twoPointOK, &p.RushDirection,
		); err != nil {
			return nil, err
		}
		p.ResultIsFirstDown = firstDown != 0
		p.IsRush = rush != 0
		p.IsPass = pass != 0
		p.IsIncomplete = incomplete != 0
		p.IsTouchdown = touchdown != 0
		p.IsSack = sack != 0
		p.IsInterception = interception != 0
		p.IsFumble = fumble != 0
		p.IsTwoPointConversion = twoPoint != 0
		p.IsTwoPointConversionSuccessful = twoPointOK != 0
		model.DeriveWeights(&p)
		out = append(out, p)
	}
	return out, rows.Err()
}

// DropCorpus deletes a corpus and its plays. It reports whether the corpus existed.
func (db *DB) DropCorpus(name string) (bool, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM plays WHERE corpus = ?", name); err != nil {
		return false, fmt.Errorf("delete plays: %w", err)
	}
	res, err := tx.Exec("DELETE FROM corpora WHERE name = ?", name)
	if err != nil {
		return false, fmt.Errorf("delete corpus: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, tx.Commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
