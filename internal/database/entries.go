package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateEntry stores a diary entry holding photoIDs, in order, and returns
// its id. Repeated ids are stored once.
func (d *Database) CreateEntry(ctx context.Context, photoIDs []string) (id string, err error) {
	start := time.Now()
	defer func() { recordQuery("create_entry", start, err) }()

	if len(photoIDs) == 0 {
		return "", ErrEmptyEntry
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
			}
		}
	}()

	id = uuid.NewString()
	if _, err = tx.ExecContext(ctx, "INSERT INTO diary_entries (id, created_at) VALUES (?, ?)", id, time.Now().UnixNano()); err != nil {
		return "", fmt.Errorf("insert entry: %w", err)
	}
	for pos, photoID := range photoIDs {
		if _, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO diary_photos (entry_id, photo_id, position) VALUES (?, ?, ?)",
			id, photoID, pos); err != nil {
			return "", fmt.Errorf("insert entry photo: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// DeleteEntry removes an entry and returns the photo ids it held, or
// ErrNotFound.
func (d *Database) DeleteEntry(ctx context.Context, id string) (photoIDs []string, err error) {
	start := time.Now()
	defer func() { recordQuery("delete_entry", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
			}
		}
	}()

	rows, err := tx.QueryContext(ctx, "SELECT photo_id FROM diary_photos WHERE entry_id = ? ORDER BY position", id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var pid string
		if err = rows.Scan(&pid); err != nil {
			rows.Close()
			return nil, err
		}
		photoIDs = append(photoIDs, pid)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM diary_entries WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		err = fmt.Errorf("entry %s: %w", id, ErrNotFound)
		return nil, err
	}
	// Foreign key cascade removes diary_photos; delete explicitly in case
	// the connection was opened without foreign keys.
	if _, err = tx.ExecContext(ctx, "DELETE FROM diary_photos WHERE entry_id = ?", id); err != nil {
		return nil, err
	}
	return photoIDs, tx.Commit()
}

// ListEntries returns all entries, newest first.
func (d *Database) ListEntries(ctx context.Context) (entries []Entry, err error) {
	start := time.Now()
	defer func() { recordQuery("list_entries", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
	SELECT e.id, e.created_at, p.photo_id
	FROM diary_entries e
	LEFT JOIN diary_photos p ON p.entry_id = e.id
	ORDER BY e.created_at DESC, e.id, p.position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      string
			created int64
			photoID *string
		)
		if err = rows.Scan(&id, &created, &photoID); err != nil {
			return nil, err
		}
		if len(entries) == 0 || entries[len(entries)-1].ID != id {
			entries = append(entries, Entry{ID: id, CreatedAt: time.Unix(0, created)})
		}
		if photoID != nil {
			last := &entries[len(entries)-1]
			last.PhotoIDs = append(last.PhotoIDs, *photoID)
		}
	}
	err = rows.Err()
	return entries, err
}

// CountEntries returns the number of diary entries.
func (d *Database) CountEntries(ctx context.Context) (n int, err error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM diary_entries").Scan(&n)
	return n, err
}

// CurrentUsedIDs returns every photo id held by a diary entry, sorted. It
// implements photo.UsedProvider.
func (d *Database) CurrentUsedIDs(ctx context.Context) (ids []string, err error) {
	start := time.Now()
	defer func() { recordQuery("current_used_ids", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, "SELECT DISTINCT photo_id FROM diary_photos ORDER BY photo_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids = []string{}
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	err = rows.Err()
	return ids, err
}
