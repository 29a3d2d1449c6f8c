package oracle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Pool owns the *sql.DB for the lifetime of the process. Growth beyond the
// warm-up set is left to database/sql, nudged by Increment in Acquire.
type Pool struct {
	db     *sql.DB
	params Params
	closed atomic.Bool
}

type Stats struct {
	Min          int           `json:"min"`
	Max          int           `json:"max"`
	Increment    int           `json:"increment"`
	Open         int           `json:"open"`
	InUse        int           `json:"inUse"`
	Idle         int           `json:"idle"`
	WaitCount    int64         `json:"waitCount"`
	WaitDuration time.Duration `json:"waitDurationNs"`
}

func (p *Pool) warmUp(ctx context.Context) error {
	return p.openIdle(ctx, p.params.Min)
}

// openIdle holds n fresh connections at once, then parks them idle.
func (p *Pool) openIdle(ctx context.Context, n int) error {
	held := make([]*sql.Conn, 0, n)
	defer func() {
		for _, c := range held {
			_ = c.Close()
		}
	}()
	for i := 0; i < n; i++ {
		if p.db.Stats().OpenConnections >= p.params.Max {
			return nil
		}
		c, err := p.db.Conn(ctx)
		if err != nil {
			return err
		}
		held = append(held, c)
	}
	return nil
}

// Acquire takes one connection, waiting at most AcquireTimeout. When nothing
// is idle and there is headroom, Increment-1 extra connections are parked.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}
	parent := ctx
	bounded := p.params.AcquireTimeout > 0
	if bounded {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.params.AcquireTimeout)
		defer cancel()
	}

	st := p.db.Stats()
	grow := st.Idle == 0 && st.OpenConnections < p.params.Max

	c, err := p.db.Conn(ctx)
	if err != nil {
		if p.closed.Load() {
			return nil, ErrPoolClosed
		}
		// only our own deadline counts as an acquire timeout
		if bounded && errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
			return nil, fmt.Errorf("%w (%s)", ErrAcquireTimeout, p.params.AcquireTimeout)
		}
		return nil, fmt.Errorf("acquire connection: %w", scrub(err, p.params.Password))
	}

	if grow && p.params.Increment > 1 {
		if err := p.openIdle(ctx, p.params.Increment-1); err != nil {
			log.Warn().Err(scrub(err, p.params.Password)).Msg("pool grow failed")
		}
	}
	return &Conn{pool: p, conn: c}, nil
}

func (p *Pool) Ping(ctx context.Context) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, scrub(err, p.params.Password))
	}
	return nil
}

func (p *Pool) Stats() Stats {
	s := p.db.Stats()
	return Stats{
		Min:          p.params.Min,
		Max:          p.params.Max,
		Increment:    p.params.Increment,
		Open:         s.OpenConnections,
		InUse:        s.InUse,
		Idle:         s.Idle,
		WaitCount:    s.WaitCount,
		WaitDuration: s.WaitDuration,
	}
}

// Close is safe to call more than once.
func (p *Pool) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	log.Info().Msg("oracle pool closed")
	return p.db.Close()
}
