package sqlite

import (
	"fmt"
	"time"

	"github.com/cpupd-dev/cpupd/internal/domain"
)

// RecordTransition appends a power transition to the journal.
func (d *DB) RecordTransition(t domain.Transition) error {
	_, err := d.db.Exec(
		`INSERT INTO transitions (at, domain, kind, state_index, param, cpus, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.At.UnixNano(), t.Domain, string(t.Kind), t.StateIndex, t.Param, t.Cpus, t.Status,
	)
	if err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}

// ListTransitions returns the most recent transitions, newest first.
// domainName filters when non-empty. limit <= 0 means 100.
func (d *DB) ListTransitions(domainName string, limit int) ([]domain.Transition, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, at, domain, kind, state_index, param, cpus, status
		FROM transitions`
	args := []any{}
	if domainName != "" {
		query += ` WHERE domain = ?`
		args = append(args, domainName)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transition
	for rows.Next() {
		var t domain.Transition
		var at int64
		var kind string
		if err := rows.Scan(&t.ID, &at, &t.Domain, &kind, &t.StateIndex, &t.Param, &t.Cpus, &t.Status); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		t.At = time.Unix(0, at).UTC()
		t.Kind = domain.TransitionKind(kind)
		out = append(out, t)
	}
	return out, rows.Err()
}

// PruneTransitions deletes journal entries older than the cutoff and
// returns how many were removed.
func (d *DB) PruneTransitions(before time.Time) (int64, error) {
	res, err := d.db.Exec(`DELETE FROM transitions WHERE at < ?`, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune transitions: %w", err)
	}
	return res.RowsAffected()
}

// CountTransitions returns the journal size.
func (d *DB) CountTransitions() (int, error) {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM transitions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transitions: %w", err)
	}
	return n, nil
}
