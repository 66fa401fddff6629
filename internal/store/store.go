package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store handles all database operations
type Store struct {
	db *sql.DB
}

// Capture is one screenshot record
type Capture struct {
	ID         int64
	Target     string
	Interval   string
	URL        string
	Selector   string
	FilePath   string
	Width      int
	Height     int
	Tiled      bool
	CapturedAt time.Time
	SentAt     *time.Time
	SendError  string
}

// TargetStats aggregates capture outcomes for one target
type TargetStats struct {
	Target   string
	Captured int
	Sent     int
	Failed   int
}

// New creates a new Store with SQLite backend
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS captures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target TEXT NOT NULL,
		interval TEXT,
		url TEXT NOT NULL,
		selector TEXT,
		file_path TEXT NOT NULL,
		width INTEGER,
		height INTEGER,
		tiled BOOLEAN,
		captured_at DATETIME NOT NULL,
		sent_at DATETIME,
		send_error TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_captures_captured_at ON captures(captured_at);
	CREATE INDEX IF NOT EXISTS idx_captures_target ON captures(target);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveCapture inserts a capture record and sets its ID
func (s *Store) SaveCapture(c *Capture) error {
	res, err := s.db.Exec(`
		INSERT INTO captures (target, interval, url, selector, file_path, width, height, tiled, captured_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.Target, c.Interval, c.URL, c.Selector, c.FilePath, c.Width, c.Height, c.Tiled, c.CapturedAt)
	if err != nil {
		return err
	}

	c.ID, err = res.LastInsertId()
	return err
}

// MarkSent records successful delivery of a capture
func (s *Store) MarkSent(id int64, at time.Time) error {
	_, err := s.db.Exec(`UPDATE captures SET sent_at = ?, send_error = NULL WHERE id = ?`, at, id)
	return err
}

// MarkSendError records a delivery failure for a capture
func (s *Store) MarkSendError(id int64, msg string) error {
	_, err := s.db.Exec(`UPDATE captures SET send_error = ? WHERE id = ?`, msg, id)
	return err
}

// RecentCaptures returns captures taken at or after the given time, newest first
func (s *Store) RecentCaptures(since time.Time) ([]Capture, error) {
	rows, err := s.db.Query(`
		SELECT id, target, COALESCE(interval, ''), url, selector, file_path, width, height, tiled,
			captured_at, sent_at, COALESCE(send_error, '')
		FROM captures
		WHERE captured_at >= ?
		ORDER BY captured_at DESC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var captures []Capture
	for rows.Next() {
		var c Capture
		var sentAt sql.NullTime

		err := rows.Scan(
			&c.ID, &c.Target, &c.Interval, &c.URL, &c.Selector, &c.FilePath,
			&c.Width, &c.Height, &c.Tiled, &c.CapturedAt, &sentAt, &c.SendError,
		)
		if err != nil {
			return nil, err
		}
		if sentAt.Valid {
			t := sentAt.Time
			c.SentAt = &t
		}
		captures = append(captures, c)
	}
	return captures, rows.Err()
}

// StatsSince aggregates per-target capture and delivery counts since the given time
func (s *Store) StatsSince(since time.Time) ([]TargetStats, error) {
	rows, err := s.db.Query(`
		SELECT target,
			COUNT(*),
			SUM(CASE WHEN sent_at IS NOT NULL THEN 1 ELSE 0 END),
			SUM(CASE WHEN send_error IS NOT NULL AND send_error != '' THEN 1 ELSE 0 END)
		FROM captures
		WHERE captured_at >= ?
		GROUP BY target
		ORDER BY target
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []TargetStats
	for rows.Next() {
		var st TargetStats
		if err := rows.Scan(&st.Target, &st.Captured, &st.Sent, &st.Failed); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}
