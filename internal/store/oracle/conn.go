package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// Conn is one connection checked out of a Pool. Release hands it back.
type Conn struct {
	pool *Pool
	conn *sql.Conn

	mu       sync.Mutex
	released bool
}

func (c *Conn) Cursor() (*Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return nil, ErrConnReleased
	}
	return &Cursor{conn: c}, nil
}

func (c *Conn) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return ErrConnReleased
	}
	return c.conn.PingContext(ctx)
}

func (c *Conn) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return nil
	}
	c.released = true
	return c.conn.Close()
}

func (c *Conn) raw() (*sql.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return nil, ErrConnReleased
	}
	return c.conn, nil
}

// Cursor runs statements over its Conn.
type Cursor struct {
	conn *Conn

	mu     sync.Mutex
	closed bool
}

// ResultSet is a fully materialised query result.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

func (cur *Cursor) target() (*sql.Conn, error) {
	cur.mu.Lock()
	closed := cur.closed
	cur.mu.Unlock()
	if closed {
		return nil, ErrCursorClosed
	}
	return cur.conn.raw()
}

// Execute runs a query. The caller closes the returned rows.
func (cur *Cursor) Execute(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	c, err := cur.target()
	if err != nil {
		return nil, err
	}
	rows, err := c.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	return rows, nil
}

func (cur *Cursor) Exec(ctx context.Context, stmt string, args ...any) (sql.Result, error) {
	c, err := cur.target()
	if err != nil {
		return nil, err
	}
	res, err := c.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("exec: %w", err)
	}
	return res, nil
}

// FetchAll reads every row. Raw bytes come back as strings.
func (cur *Cursor) FetchAll(ctx context.Context, query string, args ...any) (*ResultSet, error) {
	rows, err := cur.Execute(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	rs := &ResultSet{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		rs.Rows = append(rs.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return rs, nil
}

func (cur *Cursor) Close() error {
	cur.mu.Lock()
	defer cur.mu.Unlock()
	cur.closed = true
	return nil
}
