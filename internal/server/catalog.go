package server

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Recording — одна запись каталога архивов.
type Recording struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	Width      uint32    `json:"width"`
	Height     uint32    `json:"height"`
	Frames     uint32    `json:"frames"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Catalog — SQLite-каталог записанных архивов.
type Catalog struct {
	db *sql.DB
}

const catalogSchema = `
CREATE TABLE IF NOT EXISTS recordings (
	id          TEXT PRIMARY KEY,
	path        TEXT NOT NULL,
	width       INTEGER NOT NULL,
	height      INTEGER NOT NULL,
	frames      INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at  TIMESTAMP NOT NULL
);`

// OpenCatalog открывает (или создает) базу каталога.
func OpenCatalog(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	if _, err := db.Exec(catalogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Add регистрирует завершенную запись.
func (c *Catalog) Add(rec Recording) error {
	_, err := c.db.Exec(
		`INSERT INTO recordings (id, path, width, height, frames, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Path, rec.Width, rec.Height, rec.Frames, rec.DurationMs, rec.CreatedAt,
	)
	return err
}

// List возвращает записи, новые первыми.
func (c *Catalog) List() ([]Recording, error) {
	rows, err := c.db.Query(
		`SELECT id, path, width, height, frames, duration_ms, created_at
		 FROM recordings ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recordings []Recording
	for rows.Next() {
		var rec Recording
		if err := rows.Scan(&rec.ID, &rec.Path, &rec.Width, &rec.Height,
			&rec.Frames, &rec.DurationMs, &rec.CreatedAt); err != nil {
			return nil, err
		}
		recordings = append(recordings, rec)
	}
	return recordings, rows.Err()
}

// Get возвращает запись по идентификатору.
func (c *Catalog) Get(id string) (Recording, error) {
	var rec Recording
	err := c.db.QueryRow(
		`SELECT id, path, width, height, frames, duration_ms, created_at
		 FROM recordings WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Path, &rec.Width, &rec.Height,
			&rec.Frames, &rec.DurationMs, &rec.CreatedAt)
	return rec, err
}

// Close закрывает базу.
func (c *Catalog) Close() error {
	return c.db.Close()
}
