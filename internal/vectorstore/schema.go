package vectorstore

import (
	"database/sql"
	"fmt"
)

const createChunksTable = `
CREATE TABLE IF NOT EXISTS chunks (
	id            TEXT PRIMARY KEY,
	file_path     TEXT NOT NULL,
	language      TEXT NOT NULL,
	kind          TEXT NOT NULL,
	name          TEXT,
	docstring     TEXT,
	parent_name   TEXT,
	content       TEXT NOT NULL,
	start_line    INTEGER NOT NULL,
	end_line      INTEGER NOT NULL,
	metadata_json TEXT
)`

const createFilePathIndex = `CREATE INDEX IF NOT EXISTS idx_chunks_file_path ON chunks(file_path)`
const createKindIndex = `CREATE INDEX IF NOT EXISTS idx_chunks_kind ON chunks(kind)`

func createVectorTable(dimensions int) string {
	return fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS chunks_vec USING vec0(
		id TEXT PRIMARY KEY,
		embedding float[%d]
	)`, dimensions)
}

// createSchema creates the chunks table, its scalar indexes, and the
// sqlite-vec chunks_vec virtual table. The virtual table is created
// outside the chunks-table transaction, mirroring vec0's requirement that
// virtual table DDL run standalone.
func createSchema(db *sql.DB, dimensions int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, ddl := range []string{createChunksTable, createFilePathIndex, createKindIndex} {
		if _, err := tx.Exec(ddl); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}

	if _, err := db.Exec(createVectorTable(dimensions)); err != nil {
		return fmt.Errorf("create chunks_vec: %w", err)
	}
	return nil
}
