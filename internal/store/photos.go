package store

import (
	"context"
	"database/sql"
	"fmt"
)

// PhotoURI returns the URI clients use to fetch a stored photo.
func PhotoURI(id int64) string {
	return fmt.Sprintf("/api/photos/%d", id)
}

// ParsePhotoURI extracts the photo id from a URI made by PhotoURI.
// It returns false for any other image reference.
func ParsePhotoURI(uri string) (int64, bool) {
	var id int64
	if _, err := fmt.Sscanf(uri, "/api/photos/%d", &id); err != nil || PhotoURI(id) != uri {
		return 0, false
	}
	return id, true
}

// CreatePhoto stores photo data and returns its id.
func CreatePhoto(ctx context.Context, db *sql.DB, data []byte, mime string) (int64, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO photos (data, mime) VALUES (?, ?)`,
		data, mime,
	)
	if err != nil {
		return 0, fmt.Errorf("creating photo: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting photo id: %w", err)
	}
	return id, nil
}

// GetPhoto returns a photo's data and MIME type, or nil data if it does not exist.
func GetPhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var data []byte
	var mime string
	err := db.QueryRowContext(ctx,
		`SELECT data, mime FROM photos WHERE id = ?`, id,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting photo: %w", err)
	}
	return data, mime, nil
}

// DeletePhoto removes a photo. Deleting a missing photo is not an error.
func DeletePhoto(ctx context.Context, db *sql.DB, id int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM photos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting photo: %w", err)
	}
	return nil
}
