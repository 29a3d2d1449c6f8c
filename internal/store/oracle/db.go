package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"oraconnect/internal/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	go_ora "github.com/sijms/go-ora/v2"
)

// DriverName is the database/sql name go-ora registers itself under.
const DriverName = "oracle"

// Params is everything the opener receives. DSN may be an easy-connect string
// (host:port/service) or a full TNS descriptor.
type Params struct {
	DSN            string
	User           string
	Password       string
	Min            int
	Max            int
	Increment      int
	Encoding       string
	AcquireTimeout time.Duration
	ConnectRetries int
}

func ParamsFromConfig(cfg config.Cfg) Params {
	return Params{
		DSN:            cfg.DB.DSN,
		User:           cfg.DB.User,
		Password:       cfg.DB.Password,
		Min:            cfg.Pool.Min,
		Max:            cfg.Pool.Max,
		Increment:      cfg.Pool.Increment,
		Encoding:       cfg.Pool.Encoding,
		AcquireTimeout: cfg.Pool.AcquireTimeout,
		ConnectRetries: cfg.Pool.ConnectRetries,
	}
}

func (p Params) validate() error {
	switch {
	case p.DSN == "":
		return fmt.Errorf("%w: dsn is empty", ErrInvalidParams)
	case p.User == "":
		return fmt.Errorf("%w: user is empty", ErrInvalidParams)
	case p.Password == "":
		return fmt.Errorf("%w: password is empty", ErrInvalidParams)
	case p.Max < 1:
		return fmt.Errorf("%w: max=%d", ErrInvalidParams, p.Max)
	case p.Min < 0 || p.Min > p.Max:
		return fmt.Errorf("%w: min=%d max=%d", ErrInvalidParams, p.Min, p.Max)
	case p.Increment < 1:
		return fmt.Errorf("%w: increment=%d", ErrInvalidParams, p.Increment)
	case !config.IsUTF8(p.Encoding):
		return fmt.Errorf("%w: encoding %q", ErrInvalidParams, p.Encoding)
	case p.AcquireTimeout < 0 || p.ConnectRetries < 0:
		return fmt.Errorf("%w: negative timeout or retries", ErrInvalidParams)
	}
	return nil
}

// Opener constructs the underlying *sql.DB from the pool parameters.
type Opener func(ctx context.Context, p Params) (*sql.DB, error)

// ConnString renders a go-ora URL. The DSN travels as connStr so TNS
// descriptors survive untouched.
func ConnString(p Params) string {
	return go_ora.BuildJDBC(p.User, p.Password, p.DSN, map[string]string{})
}

func openGoOra(_ context.Context, p Params) (*sql.DB, error) {
	return sql.Open(DriverName, ConnString(p))
}

type options struct {
	opener     Opener
	newBackOff func() backoff.BackOff
}

type Option func(*options)

// WithOpener swaps the go-ora opener, mostly for tests.
func WithOpener(o Opener) Option {
	return func(opts *options) { opts.opener = o }
}

// WithBackOff sets the policy used between connect retries.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(opts *options) { opts.newBackOff = f }
}

func defaultOptions() options {
	return options{
		opener: openGoOra,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			b.MaxElapsedTime = 0 // bounded by ConnectRetries instead
			return b
		},
	}
}

// Open builds the pool, checks the server answers, and warms up Min
// connections. Nothing is left open on failure.
func Open(ctx context.Context, p Params, opts ...Option) (*Pool, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	db, err := o.opener(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", scrub(err, p.Password))
	}
	ok := false
	defer func() {
		if !ok {
			_ = db.Close()
		}
	}()

	db.SetMaxOpenConns(p.Max)
	db.SetMaxIdleConns(p.Max)

	if err := ping(ctx, db, p, o.newBackOff()); err != nil {
		return nil, err
	}

	pool := &Pool{db: db, params: p}
	if err := pool.warmUp(ctx); err != nil {
		return nil, fmt.Errorf("%w: warm up: %w", ErrUnreachable, scrub(err, p.Password))
	}

	ok = true
	log.Info().
		Str("dsn", p.DSN).
		Str("user", p.User).
		Int("min", p.Min).
		Int("max", p.Max).
		Int("increment", p.Increment).
		Msg("oracle pool open")
	return pool, nil
}

func ping(ctx context.Context, db *sql.DB, p Params, b backoff.BackOff) error {
	attempt := 0
	op := func() error {
		attempt++
		return db.PingContext(ctx)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.ConnectRetries)), ctx)
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(scrub(err, p.Password)).Int("attempt", attempt).Dur("retry_in", wait).Msg("db ping failed")
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return fmt.Errorf("%w after %d attempt(s): %w", ErrUnreachable, attempt, scrub(err, p.Password))
	}
	return nil
}

// MustOpen is Open for entrypoints that cannot continue without a pool.
func MustOpen(ctx context.Context, p Params, opts ...Option) *Pool {
	pool, err := Open(ctx, p, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect fail")
	}
	return pool
}
