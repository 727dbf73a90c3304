// Package datasource resolves a table's data source configuration into
// rows and columns. Three source types exist: a static row array, a
// saved query executed by id, and a URL fetched directly. Both remote
// types accept either a {columns, data} object or a bare row array.
package datasource

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// SourceType discriminates the data source configuration.
type SourceType string

const (
	SourceStatic SourceType = "static"
	SourceQuery  SourceType = "query"
	SourceURL    SourceType = "url"
)

// Source is a table instance's data source configuration, stored under
// the instance's props.
type Source struct {
	Type    SourceType       `json:"type"`
	Static  []map[string]any `json:"static,omitempty"`
	QueryID string           `json:"queryId,omitempty"`
	URL     string           `json:"url,omitempty"`
}

// SourceFromProps decodes a props value (as stored in the instance
// tree, i.e. JSON shapes) into a Source.
func SourceFromProps(v any) (Source, error) {
	var src Source
	data, err := json.Marshal(v)
	if err != nil {
		return src, fmt.Errorf("datasource: encode source config: %w", err)
	}
	if err := json.Unmarshal(data, &src); err != nil {
		return src, fmt.Errorf("datasource: decode source config: %w", err)
	}
	if src.Type == "" {
		src.Type = SourceStatic
	}
	return src, nil
}

// Column is one displayed data column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// ColumnConfig overrides which auto-detected columns are shown, in
// what order, and under what display name.
type ColumnConfig struct {
	Key     string  `json:"key"`
	Label   string  `json:"label,omitempty"`
	Visible bool    `json:"visible"`
	Width   float64 `json:"width,omitempty"`
}

// ColumnConfigsFromProps decodes a props value into column configs.
func ColumnConfigsFromProps(v any) ([]ColumnConfig, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("datasource: encode column config: %w", err)
	}
	var cfgs []ColumnConfig
	if err := json.Unmarshal(data, &cfgs); err != nil {
		return nil, fmt.Errorf("datasource: decode column config: %w", err)
	}
	return cfgs, nil
}

// Result is resolved tabular data.
type Result struct {
	Columns []Column         `json:"columns"`
	Rows    []map[string]any `json:"data"`
}

// DeriveColumns derives column definitions from the first row's keys,
// sorted for determinism, title-casing each key and replacing
// underscores with spaces ("user_name" becomes "User name").
func DeriveColumns(rows []map[string]any) []Column {
	if len(rows) == 0 {
		return nil
	}
	keys := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cols := make([]Column, len(keys))
	for i, k := range keys {
		cols[i] = Column{Key: k, Label: TitleLabel(k)}
	}
	return cols
}

// TitleLabel turns a column key into a display label: underscores
// become spaces and the first letter is upper-cased.
func TitleLabel(key string) string {
	s := strings.ReplaceAll(key, "_", " ")
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// ApplyColumnConfig filters and reorders columns per the config: config
// order wins, hidden columns drop out, and a non-empty config label
// overrides the derived one. An empty config returns cols unchanged.
func ApplyColumnConfig(cols []Column, cfgs []ColumnConfig) []Column {
	if len(cfgs) == 0 {
		return cols
	}
	derived := make(map[string]Column, len(cols))
	for _, c := range cols {
		derived[c.Key] = c
	}

	out := make([]Column, 0, len(cfgs))
	for _, cfg := range cfgs {
		if !cfg.Visible {
			continue
		}
		col := Column{Key: cfg.Key, Label: cfg.Label}
		if col.Label == "" {
			if d, ok := derived[cfg.Key]; ok {
				col.Label = d.Label
			} else {
				col.Label = TitleLabel(cfg.Key)
			}
		}
		out = append(out, col)
	}
	return out
}
