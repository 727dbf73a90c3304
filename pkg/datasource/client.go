package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "forma/datasource"

// QueryExecutor executes a saved query by id. Implemented by the
// query hub; the editor injects it so the client stays transport-free.
type QueryExecutor interface {
	ExecuteQuery(ctx context.Context, queryID string) (*Result, error)
}

// Client resolves Sources into Results.
type Client struct {
	httpClient *http.Client
	queries    QueryExecutor
	tracer     trace.Tracer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client used for URL sources.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets a fetch timeout for URL sources. There is none by
// default; a stalled request leaves the widget loading indefinitely.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient creates a resolver. queries may be nil when no query hub
// is configured; query sources then resolve to an error result.
func NewClient(queries QueryExecutor, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{},
		queries:    queries,
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve fetches the source's rows and columns. Columns are derived
// from the first row when the response does not carry any.
func (c *Client) Resolve(ctx context.Context, src Source) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "datasource.resolve",
		trace.WithAttributes(attribute.String("source.type", string(src.Type))))
	defer span.End()

	res, err := c.resolve(ctx, src)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("rows", len(res.Rows)))
	return res, nil
}

func (c *Client) resolve(ctx context.Context, src Source) (*Result, error) {
	switch src.Type {
	case SourceStatic, "":
		return &Result{Columns: DeriveColumns(src.Static), Rows: src.Static}, nil

	case SourceQuery:
		if c.queries == nil {
			return nil, fmt.Errorf("datasource: no query executor configured")
		}
		if src.QueryID == "" {
			return nil, fmt.Errorf("datasource: query source without queryId")
		}
		res, err := c.queries.ExecuteQuery(ctx, src.QueryID)
		if err != nil {
			return nil, err
		}
		return normalize(res), nil

	case SourceURL:
		if src.URL == "" {
			return nil, fmt.Errorf("datasource: url source without url")
		}
		return c.fetchURL(ctx, src.URL)

	default:
		return nil, fmt.Errorf("datasource: unknown source type %q", src.Type)
	}
}

func (c *Client) fetchURL(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("datasource: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("datasource: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("datasource: fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("datasource: read response: %w", err)
	}
	return DecodeResponse(body)
}

// DecodeResponse accepts the two collaborator response shapes: a
// {columns, data} object or a bare row array.
func DecodeResponse(body []byte) (*Result, error) {
	var envelope struct {
		Columns []Column         `json:"columns"`
		Data    []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && (envelope.Data != nil || envelope.Columns != nil) {
		return normalize(&Result{Columns: envelope.Columns, Rows: envelope.Data}), nil
	}

	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("datasource: response is neither {columns,data} nor a row array: %w", err)
	}
	return &Result{Columns: DeriveColumns(rows), Rows: rows}, nil
}

// normalize fills in derived columns when the response carried none.
func normalize(res *Result) *Result {
	if len(res.Columns) == 0 {
		res.Columns = DeriveColumns(res.Rows)
	}
	if res.Rows == nil {
		res.Rows = []map[string]any{}
	}
	return res
}
