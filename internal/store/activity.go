package store

import (
	"fmt"
	"time"
)

func (s *Store) LogActivity(kind ActivityKind, subject string) error {
	return s.logActivityAt(kind, subject, time.Now().UTC())
}

func (s *Store) logActivityAt(kind ActivityKind, subject string, at time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO activity (kind, subject, at) VALUES (?, ?, ?)`,
		string(kind), subject, at.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	return nil
}

// ListActivity returns the most recent events first.
func (s *Store) ListActivity(limit int) ([]Activity, error) {
	query := `SELECT id, kind, subject, at FROM activity ORDER BY at DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var a Activity
		var kind, at string
		if err := rows.Scan(&a.ID, &kind, &a.Subject, &at); err != nil {
			return nil, err
		}
		a.Kind = ActivityKind(kind)
		a.At, _ = time.Parse(time.RFC3339, at)
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetDailyActivity counts events per day and kind in [from, to).
func (s *Store) GetDailyActivity(from, to time.Time) ([]DailyActivity, error) {
	rows, err := s.db.Query(`
		SELECT date(at) AS day, kind, COUNT(*)
		FROM activity
		WHERE at >= ? AND at < ?
		GROUP BY day, kind
		ORDER BY day, kind`,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("daily activity: %w", err)
	}
	defer rows.Close()

	var out []DailyActivity
	for rows.Next() {
		var d DailyActivity
		var kind string
		if err := rows.Scan(&d.Date, &kind, &d.Count); err != nil {
			return nil, err
		}
		d.Kind = ActivityKind(kind)
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetTodayCount counts today's events of kind.
func (s *Store) GetTodayCount(kind ActivityKind) (int, error) {
	today := time.Now().UTC().Format("2006-01-02")
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM activity WHERE date(at) = ? AND kind = ?`, today, string(kind),
	).Scan(&n)
	return n, err
}
