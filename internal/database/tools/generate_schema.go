// Command generate_schema writes the SQLite schema produced by the embedded migrations
// to internal/database/schema.sql, for reference when writing queries or reviewing
// migrations. Run it from the repository root.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"hr-go/internal/database"
	"hr-go/internal/database/migrations"
)

func main() {
	var out strings.Builder
	out.WriteString(`-- This file is auto-generated from migration files.
-- DO NOT EDIT MANUALLY. Run 'go run ./internal/database/tools' to regenerate.
-- Source: internal/database/migrations/files/*/*.sql
`)

	for _, set := range []migrations.Set{migrations.KV, migrations.Attachments} {
		schema, err := schemaFor(set)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", set, err)
			os.Exit(1)
		}
		fmt.Fprintf(&out, "\n-- %s database\n\n%s", set, schema)
	}

	outPath := filepath.Join("internal", "database", "schema.sql")
	if err := os.WriteFile(outPath, []byte(out.String()), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write schema file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s from migrations\n", outPath)
}

// schemaFor migrates a fresh in-memory database with set and returns its schema.
func schemaFor(set migrations.Set) (string, error) {
	db, err := database.OpenConnection(database.MemoryPath)
	if err != nil {
		return "", fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := migrations.MigrateUp(db, set); err != nil {
		return "", fmt.Errorf("migrating: %w", err)
	}
	return extractSchema(db)
}

// extractSchema returns the CREATE statements of all tables and indexes, tables first,
// leaving out SQLite internals and the migration bookkeeping table.
func extractSchema(db *sql.DB) (string, error) {
	query := `
		SELECT sql || ';'
		FROM sqlite_master
		WHERE type IN ('table', 'index')
		  AND sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		  AND tbl_name != 'schema_migrations'
		ORDER BY
		  CASE type
		    WHEN 'table' THEN 1
		    WHEN 'index' THEN 2
		  END,
		  name
	`

	rows, err := db.Query(query)
	if err != nil {
		return "", fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return "", fmt.Errorf("scan failed: %w", err)
		}
		b.WriteString(stmt)
		b.WriteString("\n\n")
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("rows error: %w", err)
	}
	return b.String(), nil
}
