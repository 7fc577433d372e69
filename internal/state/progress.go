package state

import (
	"context"
	"database/sql"
	"errors"
	"time"

	dbutil "github.com/llehouerou/shadow/internal/db"
	"github.com/llehouerou/shadow/internal/progress"
)

// CollectionProgress is the restored study progress of one collection.
type CollectionProgress struct {
	CollectionID string
	ItemType     string
	PhraseIndex  int
	Kind         progress.Kind
	Total        int
	Viewed       []int
	Listened     []int
	UpdatedAt    time.Time

	Completions     int
	LastCompletedAt time.Time
}

// SaveProgress upserts the collection row and records any phrase not seen
// before. Earlier phrase records keep their first timestamp.
func (m *Manager) SaveProgress(ctx context.Context, s progress.Snapshot) error {
	return dbutil.WithTx(ctx, m.db, func(tx *sql.Tx) error {
		now := dbutil.UnixMilli(s.Timestamp)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO collection_progress (collection_id, item_type, phrase_index, kind, total, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(collection_id) DO UPDATE SET
				item_type = excluded.item_type,
				phrase_index = excluded.phrase_index,
				kind = excluded.kind,
				total = excluded.total,
				updated_at = excluded.updated_at
		`, s.CollectionID, s.ItemType, s.PhraseIndex, int(s.Kind), s.Total, now)
		if err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO phrase_progress (collection_id, phrase_index, kind, first_at)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for kind, set := range map[progress.Kind][]int{
			progress.Viewed:   s.Viewed,
			progress.Listened: s.Listened,
		} {
			for _, i := range set {
				if _, err := stmt.ExecContext(ctx, s.CollectionID, i, int(kind), now); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// MarkCompleted appends a completion record.
func (m *Manager) MarkCompleted(ctx context.Context, collectionID string, via progress.Completion, at time.Time) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO completions (collection_id, via, completed_at) VALUES (?, ?, ?)
	`, collectionID, int(via), dbutil.UnixMilli(at))
	return err
}

// GetProgress returns the saved progress of a collection, or nil if
// nothing was ever recorded for it.
func (m *Manager) GetProgress(ctx context.Context, collectionID string) (*CollectionProgress, error) {
	p := CollectionProgress{CollectionID: collectionID}

	var itemType sql.NullString
	var updated sql.NullInt64
	var kind int
	row := m.db.QueryRowContext(ctx, `
		SELECT item_type, phrase_index, kind, total, updated_at
		FROM collection_progress WHERE collection_id = ?
	`, collectionID)
	err := row.Scan(&itemType, &p.PhraseIndex, &kind, &p.Total, &updated)
	found := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	p.ItemType = dbutil.NullStringValue(itemType)
	p.Kind = progress.Kind(kind)
	p.UpdatedAt = dbutil.NullTime(updated)

	rows, err := m.db.QueryContext(ctx, `
		SELECT phrase_index, kind FROM phrase_progress
		WHERE collection_id = ?
		ORDER BY phrase_index
	`, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var index, k int
		if err := rows.Scan(&index, &k); err != nil {
			return nil, err
		}
		if progress.Kind(k) == progress.Listened {
			p.Listened = append(p.Listened, index)
		} else {
			p.Viewed = append(p.Viewed, index)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var last sql.NullInt64
	row = m.db.QueryRowContext(ctx, `
		SELECT COUNT(*), MAX(completed_at) FROM completions WHERE collection_id = ?
	`, collectionID)
	if err := row.Scan(&p.Completions, &last); err != nil {
		return nil, err
	}
	p.LastCompletedAt = dbutil.NullTime(last)

	if !found && p.Completions == 0 && len(p.Viewed) == 0 && len(p.Listened) == 0 {
		return nil, nil //nolint:nilnil // no progress is not an error
	}
	return &p, nil
}

// Completion is one recorded end of a list.
type Completion struct {
	Via progress.Completion
	At  time.Time
}

// Completions returns the completion history of a collection, newest first.
func (m *Manager) Completions(ctx context.Context, collectionID string) ([]Completion, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT via, completed_at FROM completions
		WHERE collection_id = ?
		ORDER BY completed_at DESC, id DESC
	`, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Completion
	for rows.Next() {
		var via int
		var at int64
		if err := rows.Scan(&via, &at); err != nil {
			return nil, err
		}
		out = append(out, Completion{Via: progress.Completion(via), At: time.UnixMilli(at)})
	}
	return out, rows.Err()
}
