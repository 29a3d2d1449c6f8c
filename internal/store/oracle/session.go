package oracle

import (
	"context"
	"errors"
)

// Session bundles the pool with one acquired connection and its cursor.
type Session struct {
	Pool   *Pool
	Conn   *Conn
	Cursor *Cursor
}

// Connect opens the pool, acquires a connection and opens a cursor on it.
func Connect(ctx context.Context, p Params, opts ...Option) (*Session, error) {
	pool, err := Open(ctx, p, opts...)
	if err != nil {
		return nil, err
	}
	conn, err := pool.Acquire(ctx)
	if err != nil {
		_ = pool.Close()
		return nil, err
	}
	cur, err := conn.Cursor()
	if err != nil {
		_ = conn.Release()
		_ = pool.Close()
		return nil, err
	}
	return &Session{Pool: pool, Conn: conn, Cursor: cur}, nil
}

// Close tears down cursor, connection and pool in that order.
func (s *Session) Close() error {
	return errors.Join(s.Cursor.Close(), s.Conn.Release(), s.Pool.Close())
}
