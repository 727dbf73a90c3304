// Package queryhub executes saved queries against configured database
// connectors. It backs the query data source: a table widget references
// a saved query by id and the hub runs it, returning rows plus derived
// column metadata.
//
// Only SELECT statements run through the data source path. Statements
// without a LIMIT get a default one appended so a careless saved query
// cannot pull an entire table into a widget.
package queryhub

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/forma-dev/forma/pkg/datasource"
)

// DefaultRowLimit caps SELECT results when the query has no LIMIT.
const DefaultRowLimit = 1000

// Connector is one configured target database.
type Connector struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

// Query is one saved query definition.
type Query struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ConnectorID string `json:"connectorId"`
	SQL         string `json:"sql"`
}

// Hub holds the connector pool cache and the saved query set.
type Hub struct {
	logger *slog.Logger

	connectors map[string]Connector
	queries    map[string]Query
	order      []string // query ids in config order

	mu    sync.Mutex
	pools map[string]*sql.DB
}

// NewHub builds a hub from configured connectors and queries. Pools
// open lazily on first use.
func NewHub(connectors []Connector, queries []Query, logger *slog.Logger) (*Hub, error) {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		logger:     logger.With("component", "queryhub"),
		connectors: make(map[string]Connector, len(connectors)),
		queries:    make(map[string]Query, len(queries)),
		pools:      make(map[string]*sql.DB),
	}
	for _, c := range connectors {
		if c.ID == "" {
			return nil, fmt.Errorf("queryhub: connector without id")
		}
		if c.Driver != "sqlite3" {
			return nil, fmt.Errorf("queryhub: connector %q: unsupported driver %q", c.ID, c.Driver)
		}
		h.connectors[c.ID] = c
	}
	for _, q := range queries {
		if q.ID == "" {
			return nil, fmt.Errorf("queryhub: query without id")
		}
		if _, ok := h.connectors[q.ConnectorID]; !ok {
			return nil, fmt.Errorf("queryhub: query %q references unknown connector %q", q.ID, q.ConnectorID)
		}
		h.queries[q.ID] = q
		h.order = append(h.order, q.ID)
	}
	return h, nil
}

// Queries lists the saved queries in config order, for the
// query-reference editor.
func (h *Hub) Queries() []Query {
	out := make([]Query, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.queries[id])
	}
	return out
}

// Connectors lists the configured connectors.
func (h *Hub) Connectors() []Connector {
	out := make([]Connector, 0, len(h.connectors))
	for _, c := range h.connectors {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ExecuteQuery runs a saved query by id. Implements the data source
// client's executor contract.
func (h *Hub) ExecuteQuery(ctx context.Context, id string) (*datasource.Result, error) {
	q, ok := h.queries[id]
	if !ok {
		return nil, fmt.Errorf("queryhub: unknown query %q", id)
	}
	return h.Execute(ctx, q.ConnectorID, q.SQL, DefaultRowLimit)
}

var limitPattern = regexp.MustCompile(`(?i)\blimit\s+\d+`)

// Execute runs a SELECT against a connector and returns rows plus
// column metadata with display labels.
func (h *Hub) Execute(ctx context.Context, connectorID, sqlText string, limit int) (*datasource.Result, error) {
	if !isSelect(sqlText) {
		return nil, fmt.Errorf("queryhub: only SELECT statements may feed a data source")
	}

	db, err := h.pool(connectorID)
	if err != nil {
		return nil, err
	}

	stmt := strings.TrimRight(strings.TrimSpace(sqlText), ";")
	if limit > 0 && !limitPattern.MatchString(stmt) {
		stmt = fmt.Sprintf("%s LIMIT %d", stmt, limit)
	}

	rows, err := db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("queryhub: execute: %w", err)
	}
	defer rows.Close()

	keys, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("queryhub: columns: %w", err)
	}

	cols := make([]datasource.Column, len(keys))
	for i, k := range keys {
		cols[i] = datasource.Column{Key: k, Label: datasource.TitleLabel(k)}
	}

	var out []map[string]any
	values := make([]any, len(keys))
	ptrs := make([]any, len(keys))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("queryhub: scan: %w", err)
		}
		row := make(map[string]any, len(keys))
		for i, k := range keys {
			row[k] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("queryhub: iterate: %w", err)
	}

	h.logger.Debug("query executed", "connector", connectorID, "rows", len(out))
	return &datasource.Result{Columns: cols, Rows: out}, nil
}

// Validate dry-runs a SELECT with LIMIT 0: syntax, tables and columns
// check out without fetching data.
func (h *Hub) Validate(ctx context.Context, connectorID, sqlText string) error {
	if !isSelect(sqlText) {
		return fmt.Errorf("queryhub: only SELECT statements can be validated")
	}
	db, err := h.pool(connectorID)
	if err != nil {
		return err
	}

	stmt := strings.TrimRight(strings.TrimSpace(sqlText), ";")
	dry := fmt.Sprintf("SELECT * FROM (%s) AS validation_subquery LIMIT 0", stmt)
	rows, err := db.QueryContext(ctx, dry)
	if err != nil {
		// Some statements do not nest; retry with a plain LIMIT 0.
		dry = limitPattern.ReplaceAllString(stmt, "") + " LIMIT 0"
		rows, err = db.QueryContext(ctx, dry)
		if err != nil {
			return fmt.Errorf("queryhub: validate: %w", err)
		}
	}
	rows.Close()
	return nil
}

// TestConnection verifies a connector is reachable.
func (h *Hub) TestConnection(ctx context.Context, connectorID string) error {
	db, err := h.pool(connectorID)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("queryhub: connector %q: %w", connectorID, err)
	}
	return nil
}

// Close releases every open pool.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	var first error
	for id, db := range h.pools {
		if err := db.Close(); err != nil && first == nil {
			first = fmt.Errorf("queryhub: close connector %q: %w", id, err)
		}
		delete(h.pools, id)
	}
	return first
}

func (h *Hub) pool(connectorID string) (*sql.DB, error) {
	c, ok := h.connectors[connectorID]
	if !ok {
		return nil, fmt.Errorf("queryhub: unknown connector %q", connectorID)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if db, ok := h.pools[connectorID]; ok {
		return db, nil
	}
	db, err := sql.Open(c.Driver, c.DSN)
	if err != nil {
		return nil, fmt.Errorf("queryhub: open connector %q: %w", connectorID, err)
	}
	h.pools[connectorID] = db
	return db, nil
}

func isSelect(sqlText string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(sqlText)), "select")
}

// normalizeValue converts driver values into JSON-friendly shapes.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case []byte:
		return string(n)
	case int64:
		return float64(n)
	default:
		return v
	}
}
