package journal

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/wordmd/internal/apperr"
	"github.com/starford/wordmd/internal/models"
)

// SessionStarted inserts a session row.
func (db *DB) SessionStarted(rec models.SessionRecord) error {
	_, err := db.conn.Exec(`
		INSERT INTO sessions (id, container, editor, state, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ID, rec.Container, rec.Editor, rec.State, rec.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("journal: insert session: %w", err)
	}
	return nil
}

// Committed records one embed and bumps the session's commit counter.
func (db *DB) Committed(c models.Commit) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("journal: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`
		INSERT INTO commits (session_id, kind, checksum, bytes, assets, committed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.SessionID, string(c.Kind), c.Checksum, c.Bytes, c.Assets, c.CommittedAt.UTC()); err != nil {
		return fmt.Errorf("journal: insert commit: %w", err)
	}
	res, err := tx.Exec(`UPDATE sessions SET commits = commits + 1 WHERE id = ?`, c.SessionID)
	if err != nil {
		return fmt.Errorf("journal: count commit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("journal: session %s: %w", c.SessionID, apperr.ErrNotFound)
	}
	return tx.Commit()
}

// SessionFinished stores the terminal state of a session.
func (db *DB) SessionFinished(rec models.SessionRecord) error {
	res, err := db.conn.Exec(`
		UPDATE sessions SET state = ?, error = ?, finished_at = ? WHERE id = ?
	`, rec.State, rec.Error, rec.FinishedAt.UTC(), rec.ID)
	if err != nil {
		return fmt.Errorf("journal: finish session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("journal: session %s: %w", rec.ID, apperr.ErrNotFound)
	}
	return nil
}

// Recent returns up to limit sessions, newest first.
func (db *DB) Recent(limit int) ([]models.SessionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, container, editor, state, commits, error, started_at, finished_at
		FROM sessions ORDER BY started_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer rows.Close()

	var out []models.SessionRecord
	for rows.Next() {
		var (
			rec      models.SessionRecord
			finished sql.NullTime
		)
		if err := rows.Scan(&rec.ID, &rec.Container, &rec.Editor, &rec.State, &rec.Commits,
			&rec.Error, &rec.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("journal: scan session: %w", err)
		}
		if finished.Valid {
			rec.FinishedAt = finished.Time
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Session returns one session by id.
func (db *DB) Session(id string) (*models.SessionRecord, error) {
	var (
		rec      models.SessionRecord
		finished sql.NullTime
	)
	err := db.conn.QueryRow(`
		SELECT id, container, editor, state, commits, error, started_at, finished_at
		FROM sessions WHERE id = ?
	`, id).Scan(&rec.ID, &rec.Container, &rec.Editor, &rec.State, &rec.Commits,
		&rec.Error, &rec.StartedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("journal: session %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("journal: get session: %w", err)
	}
	if finished.Valid {
		rec.FinishedAt = finished.Time
	}
	return &rec, nil
}

// Commits returns the commits of a session in commit order.
func (db *DB) Commits(sessionID string) ([]models.Commit, error) {
	rows, err := db.conn.Query(`
		SELECT session_id, kind, checksum, bytes, assets, committed_at
		FROM commits WHERE session_id = ? ORDER BY rowid
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("journal: commits: %w", err)
	}
	defer rows.Close()

	var out []models.Commit
	for rows.Next() {
		var (
			c    models.Commit
			kind string
		)
		if err := rows.Scan(&c.SessionID, &kind, &c.Checksum, &c.Bytes, &c.Assets, &c.CommittedAt); err != nil {
			return nil, fmt.Errorf("journal: scan commit: %w", err)
		}
		c.Kind = models.CommitKind(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}
