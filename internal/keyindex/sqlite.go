package keyindex

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

var pragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA synchronous=NORMAL;",
	"PRAGMA temp_store=MEMORY;",
}

// Build writes a fresh table of n derived keys into the sqlite database at
// path, replacing any previous contents.
func Build(path string, n int) error {
	if path == "" {
		return fmt.Errorf("empty db path")
	}
	if n <= 0 {
		return fmt.Errorf("table size %d", n)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma: %w", err)
		}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS keymap(key TEXT PRIMARY KEY, idx INTEGER NOT NULL)`); err != nil {
		return err
	}
	if _, err := db.Exec(`DELETE FROM keymap`); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO keymap(key, idx) VALUES(?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	for i := 0; i < n; i++ {
		key, err := DeriveKey(i)
		if err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
		if _, err := stmt.Exec(key, i); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Open loads a table previously written by Build into memory.
func Open(path string) (*Table, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT key, idx FROM keymap`)
	if err != nil {
		return nil, fmt.Errorf("read keymap: %w", err)
	}
	defer rows.Close()

	byKey := make(map[string]int)
	for rows.Next() {
		var key string
		var idx int
		if err := rows.Scan(&key, &idx); err != nil {
			return nil, err
		}
		byKey[key] = idx
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(byKey) == 0 {
		return nil, fmt.Errorf("keymap %s is empty", path)
	}
	return &Table{byKey: byKey}, nil
}
