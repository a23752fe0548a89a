package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"photo-journal/internal/photo"
)

// UpsertPhotos inserts or updates records in one transaction and returns
// how many rows were inserted or actually changed. Unchanged rows are left
// alone, indexed_at included. A pinned capture time survives upserts that
// are not pinned.
func (d *Database) UpsertPhotos(ctx context.Context, records []PhotoRecord) (changed int64, err error) {
	if len(records) == 0 {
		return 0, nil
	}
	start := time.Now()
	defer func() { recordQuery("upsert_photos", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO photos (id, path, captured_at, captured_offset, capture_pinned, size, mime_type, indexed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
	ON CONFLICT(id) DO UPDATE SET
		path = excluded.path,
		captured_at = CASE WHEN photos.capture_pinned > excluded.capture_pinned
			THEN photos.captured_at ELSE excluded.captured_at END,
		captured_offset = CASE WHEN photos.capture_pinned > excluded.capture_pinned
			THEN photos.captured_offset ELSE excluded.captured_offset END,
		capture_pinned = MAX(photos.capture_pinned, excluded.capture_pinned),
		size = excluded.size,
		mime_type = excluded.mime_type,
		indexed_at = excluded.indexed_at
	WHERE photos.path IS NOT excluded.path
		OR photos.size IS NOT excluded.size
		OR photos.mime_type IS NOT excluded.mime_type
		OR photos.capture_pinned < excluded.capture_pinned
		OR (photos.capture_pinned = excluded.capture_pinned
			AND (photos.captured_at IS NOT excluded.captured_at
				OR photos.captured_offset IS NOT excluded.captured_offset))
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, offset := r.CapturedAt.Zone()
		pinned := 0
		if r.CapturePinned {
			pinned = 1
		}
		res, execErr := stmt.ExecContext(ctx, r.ID, r.Path, r.CapturedAt.UnixNano(), offset, pinned, r.Size, r.MimeType)
		if execErr != nil {
			err = fmt.Errorf("upsert %s: %w", r.ID, execErr)
			return 0, err
		}
		if n, raErr := res.RowsAffected(); raErr == nil {
			changed += n
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return changed, nil
}

// FetchPage returns up to limit photos captured within [start, end], newest
// first with ties broken by id, skipping offset rows. A zero start or end
// leaves that side open. It implements photo.Source.
func (d *Database) FetchPage(ctx context.Context, start, end time.Time, offset, limit int) (photos []photo.Descriptor, err error) {
	began := time.Now()
	defer func() { recordQuery("fetch_page", began, err) }()

	if limit <= 0 {
		return nil, nil
	}
	if offset < 0 {
		offset = 0
	}

	var where []string
	var args []any
	if !start.IsZero() {
		where = append(where, "captured_at >= ?")
		args = append(args, start.UnixNano())
	}
	if !end.IsZero() {
		where = append(where, "captured_at <= ?")
		args = append(args, end.UnixNano())
	}

	query := "SELECT id, captured_at, captured_offset FROM photos"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY captured_at DESC, id ASC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	photos = make([]photo.Descriptor, 0, limit)
	for rows.Next() {
		var (
			id     string
			nanos  int64
			offSec int
		)
		if err = rows.Scan(&id, &nanos, &offSec); err != nil {
			return nil, err
		}
		photos = append(photos, photo.Descriptor{ID: id, CapturedAt: capturedTime(nanos, offSec)})
	}
	err = rows.Err()
	return photos, err
}

// capturedTime rebuilds a capture time in its original UTC offset.
func capturedTime(nanos int64, offset int) time.Time {
	t := time.Unix(0, nanos)
	if offset == 0 {
		return t.UTC()
	}
	return t.In(time.FixedZone("", offset))
}

// PhotoPath returns the file path of id, or ErrNotFound.
func (d *Database) PhotoPath(ctx context.Context, id string) (path string, err error) {
	start := time.Now()
	defer func() { recordQuery("photo_path", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.db.QueryRowContext(ctx, "SELECT path FROM photos WHERE id = ?", id).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	return path, err
}

// CountPhotos returns the number of indexed photos.
func (d *Database) CountPhotos(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { recordQuery("count_photos", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM photos").Scan(&n)
	return n, err
}

// DeleteMissing removes every photo whose id is not in keepIDs and returns
// the number removed. Diary entries keep referencing removed ids.
func (d *Database) DeleteMissing(ctx context.Context, keepIDs []string) (removed int64, err error) {
	start := time.Now()
	defer func() { recordQuery("delete_missing", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
			}
		}
	}()

	// A temp table is scoped to the transaction's connection.
	if _, err = tx.ExecContext(ctx, "CREATE TEMP TABLE IF NOT EXISTS keep_ids (id TEXT PRIMARY KEY)"); err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM keep_ids"); err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO keep_ids (id) VALUES (?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for _, id := range keepIDs {
		if _, err = stmt.ExecContext(ctx, id); err != nil {
			return 0, err
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM photos WHERE id NOT IN (SELECT id FROM keep_ids)")
	if err != nil {
		return 0, err
	}
	if removed, err = res.RowsAffected(); err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM keep_ids"); err != nil {
		return 0, err
	}
	return removed, tx.Commit()
}
