package queryhub

import (
	"context"
	"database/sql"
	"fmt"
)

// ColumnInfo describes one column of an introspected table.
type ColumnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primaryKey"`
}

// TableInfo describes one introspected table.
type TableInfo struct {
	Name    string       `json:"name"`
	Columns []ColumnInfo `json:"columns"`
}

// Schema introspects a connector's tables and columns, for the query
// editor's reference panel.
func (h *Hub) Schema(ctx context.Context, connectorID string) ([]TableInfo, error) {
	db, err := h.pool(connectorID)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("queryhub: list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("queryhub: scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("queryhub: iterate tables: %w", err)
	}

	tables := make([]TableInfo, 0, len(names))
	for _, name := range names {
		cols, err := tableColumns(ctx, db, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, TableInfo{Name: name, Columns: cols})
	}
	return tables, nil
}

// tableColumns reads PRAGMA table_info for one table.
func tableColumns(ctx context.Context, db *sql.DB, table string) ([]ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("queryhub: table info %q: %w", table, err)
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("queryhub: scan column of %q: %w", table, err)
		}
		cols = append(cols, ColumnInfo{
			Name:       name,
			Type:       ctype,
			Nullable:   notNull == 0,
			PrimaryKey: pk > 0,
		})
	}
	return cols, rows.Err()
}

// DefaultQueries generates a select-all saved query per table, the
// starting point for a freshly connected database.
func (h *Hub) DefaultQueries(ctx context.Context, connectorID string) ([]Query, error) {
	tables, err := h.Schema(ctx, connectorID)
	if err != nil {
		return nil, err
	}
	out := make([]Query, 0, len(tables))
	for _, t := range tables {
		out = append(out, Query{
			ID:          connectorID + "-" + t.Name,
			Name:        "Select all from " + t.Name,
			Description: "All records from the " + t.Name + " table",
			ConnectorID: connectorID,
			SQL:         "SELECT * FROM " + t.Name,
		})
	}
	return out, nil
}
