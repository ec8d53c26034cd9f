package dataset

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"reflect"
	"regexp"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"golang.org/x/sync/errgroup"

	"datachat/internal/config"
)

// Provider supplies column schema and row data for a business identifier.
type Provider interface {
	// Fetch returns the pruned dataset for the given business. The
	// returned dataset may be empty; callers decide whether that is
	// terminal.
	Fetch(ctx context.Context, businessID string) (Dataset, error)
}

// identifierPattern restricts table names to plain identifiers. The table
// name comes from configuration, not from callers, but it is interpolated
// into SQL and therefore validated up front.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ClickHouseProvider fetches schema and rows from a ClickHouse table.
// The underlying connection pool is safe for concurrent sessions.
type ClickHouseProvider struct {
	conn   driver.Conn
	table  string
	logger *slog.Logger
}

// NewClickHouseProvider opens a ClickHouse connection pool for the
// configured dataset table.
func NewClickHouseProvider(cfg config.ClickHouseConfig, logger *slog.Logger) (*ClickHouseProvider, error) {
	if !identifierPattern.MatchString(cfg.DatasetTable) {
		return nil, fmt.Errorf("invalid dataset table name: %q", cfg.DatasetTable)
	}

	conn, err := OpenConn(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse connection: %w", err)
	}

	return &ClickHouseProvider{
		conn:   conn,
		table:  cfg.DatasetTable,
		logger: logger.With(slog.String("component", "dataset_provider")),
	}, nil
}

// NewClickHouseProviderWithConn wraps an existing connection. Used by tests
// and by callers that share a pool.
func NewClickHouseProviderWithConn(conn driver.Conn, table string, logger *slog.Logger) (*ClickHouseProvider, error) {
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid dataset table name: %q", table)
	}
	return &ClickHouseProvider{
		conn:   conn,
		table:  table,
		logger: logger.With(slog.String("component", "dataset_provider")),
	}, nil
}

// OpenConn builds a ClickHouse connection pool from configuration. The
// pool is lazy; no connection is dialed until first use. It is shared by
// the dataset provider and the conversation store.
func OpenConn(cfg config.ClickHouseConfig) (driver.Conn, error) {
	opts := &clickhouse.Options{
		Addr: []string{cfg.Host},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		DialTimeout: cfg.DialTimeout,
	}
	if cfg.Secure {
		opts.TLS = &tls.Config{}
	}
	return clickhouse.Open(opts)
}

// Fetch retrieves the schema and all rows for the business identifier
// concurrently, then prunes internal columns. Row values for denied
// columns never leave this method.
func (p *ClickHouseProvider) Fetch(ctx context.Context, businessID string) (Dataset, error) {
	var (
		columns []string
		rows    [][]any
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		columns, err = p.schema(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = p.rows(gctx, businessID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dataset{}, err
	}

	ds := New(columns, rows).Prune()
	p.logger.InfoContext(ctx, "dataset fetched",
		slog.String("business_id", businessID),
		slog.Int("rows", ds.NumRows()),
		slog.Int("columns", ds.NumColumns()))
	return ds, nil
}

// schema returns the ordered column names of the dataset table.
func (p *ClickHouseProvider) schema(ctx context.Context) ([]string, error) {
	rows, err := p.conn.Query(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = ?
		ORDER BY ordinal_position`, p.table)
	if err != nil {
		return nil, fmt.Errorf("failed to query schema: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schema iteration failed: %w", err)
	}
	return columns, nil
}

// rows fetches all rows for the business identifier. The business id is
// always bound, never interpolated.
func (p *ClickHouseProvider) rows(ctx context.Context, businessID string) ([][]any, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE businessId = ?", p.table)
	rows, err := p.conn.Query(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rows.Close()

	return scanAll(rows)
}

// scanAll scans every row into []any values using the driver's column
// scan types. The column set is not known at compile time.
func scanAll(rows driver.Rows) ([][]any, error) {
	types := rows.ColumnTypes()

	var out [][]any
	for rows.Next() {
		dests := make([]any, len(types))
		for i, ct := range types {
			dests[i] = reflect.New(ct.ScanType()).Interface()
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make([]any, len(dests))
		for i, d := range dests {
			row[i] = reflect.ValueOf(d).Elem().Interface()
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return out, nil
}

// Close releases the connection pool.
func (p *ClickHouseProvider) Close() error {
	return p.conn.Close()
}
