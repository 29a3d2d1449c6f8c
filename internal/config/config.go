package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

type AppCfg struct{ Env, Port, LogLevel string }

type DBCfg struct {
	DSN      string
	User     string
	Password string
}

type PoolCfg struct {
	Min            int
	Max            int
	Increment      int
	Encoding       string
	AcquireTimeout time.Duration
	ConnectRetries int
}

type SecurityCfg struct {
	AdminToken string // guards /stats when set
}

type Cfg struct {
	App  AppCfg
	DB   DBCfg
	Pool PoolCfg
	Sec  SecurityCfg
}

// String never prints the password.
func (c Cfg) String() string {
	return fmt.Sprintf("dsn=%s user=%s password=%s pool=[min=%d max=%d inc=%d enc=%s]",
		c.DB.DSN, c.DB.User, redact(c.DB.Password),
		c.Pool.Min, c.Pool.Max, c.Pool.Increment, c.Pool.Encoding)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

// ValidationError names the environment variable that failed validation.
type ValidationError struct {
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Key + ": " + e.Reason
}

const DefaultEnvFile = ".env"

// Load seeds the process env from envFile (missing file is fine; variables
// already set win) and reads the config through viper.
func Load(envFile string) (Cfg, error) {
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Cfg{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ORACLE_POOL_MIN", 2)
	v.SetDefault("ORACLE_POOL_MAX", 5)
	v.SetDefault("ORACLE_POOL_INCREMENT", 1)
	v.SetDefault("ORACLE_ENCODING", "UTF-8")
	v.SetDefault("ORACLE_ACQUIRE_TIMEOUT", "30s")
	v.SetDefault("ORACLE_CONNECT_RETRIES", 0)
	v.SetDefault("ADMIN_TOKEN", "")

	var errs settingErrors
	cfg := Cfg{
		App: AppCfg{
			Env:      v.GetString("APP_ENV"),
			Port:     v.GetString("APP_PORT"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		DB: DBCfg{
			DSN:      v.GetString("ORACLE_DSN"),
			User:     v.GetString("ORACLE_DB_USER"),
			Password: v.GetString("ORACLE_DB_PASSWORD"),
		},
		Pool: PoolCfg{
			Min:            errs.intSetting(v, "ORACLE_POOL_MIN"),
			Max:            errs.intSetting(v, "ORACLE_POOL_MAX"),
			Increment:      errs.intSetting(v, "ORACLE_POOL_INCREMENT"),
			Encoding:       v.GetString("ORACLE_ENCODING"),
			AcquireTimeout: errs.durationSetting(v, "ORACLE_ACQUIRE_TIMEOUT"),
			ConnectRetries: errs.intSetting(v, "ORACLE_CONNECT_RETRIES"),
		},
		Sec: SecurityCfg{
			AdminToken: strings.TrimSpace(v.GetString("ADMIN_TOKEN")),
		},
	}

	if errs.first != nil {
		return Cfg{}, errs.first
	}
	if err := cfg.Validate(); err != nil {
		return Cfg{}, err
	}
	return cfg, nil
}

// settingErrors keeps the first setting that failed to parse.
type settingErrors struct {
	first *ValidationError
}

func (s *settingErrors) fail(key, reason string) {
	if s.first == nil {
		s.first = &ValidationError{Key: key, Reason: reason}
	}
}

func (s *settingErrors) intSetting(v *viper.Viper, key string) int {
	n, err := cast.ToIntE(v.Get(key))
	if err != nil {
		s.fail(key, "not an integer")
		return 0
	}
	return n
}

// durationSetting rejects bare numbers; cast would read "30" as 30ns.
func (s *settingErrors) durationSetting(v *viper.Viper, key string) time.Duration {
	raw := v.Get(key)
	if str, ok := raw.(string); ok {
		str = strings.TrimSpace(str)
		if _, err := strconv.ParseFloat(str, 64); err == nil && str != "0" {
			s.fail(key, "duration needs a unit, e.g. 30s")
			return 0
		}
		raw = str
	}
	d, err := cast.ToDurationE(raw)
	if err != nil {
		s.fail(key, "not a duration")
		return 0
	}
	return d
}

// Validate fails fast on the first bad setting.
func (c Cfg) Validate() error {
	switch {
	case strings.TrimSpace(c.DB.DSN) == "":
		return &ValidationError{Key: "ORACLE_DSN", Reason: "is required"}
	case c.DB.User == "":
		return &ValidationError{Key: "ORACLE_DB_USER", Reason: "is required"}
	case c.DB.Password == "":
		return &ValidationError{Key: "ORACLE_DB_PASSWORD", Reason: "is required"}
	case c.Pool.Max < 1:
		return &ValidationError{Key: "ORACLE_POOL_MAX", Reason: "must be at least 1"}
	case c.Pool.Min < 0 || c.Pool.Min > c.Pool.Max:
		return &ValidationError{Key: "ORACLE_POOL_MIN", Reason: fmt.Sprintf("must be between 0 and %d", c.Pool.Max)}
	case c.Pool.Increment < 1:
		return &ValidationError{Key: "ORACLE_POOL_INCREMENT", Reason: "must be at least 1"}
	case !IsUTF8(c.Pool.Encoding):
		return &ValidationError{Key: "ORACLE_ENCODING", Reason: fmt.Sprintf("unsupported encoding %q", c.Pool.Encoding)}
	case c.Pool.AcquireTimeout < 0:
		return &ValidationError{Key: "ORACLE_ACQUIRE_TIMEOUT", Reason: "must not be negative"}
	case c.Pool.ConnectRetries < 0:
		return &ValidationError{Key: "ORACLE_CONNECT_RETRIES", Reason: "must not be negative"}
	}
	return nil
}

// IsUTF8 reports whether name is one of the spellings of UTF-8 we accept.
func IsUTF8(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "UTF-8", "UTF8", "AL32UTF8":
		return true
	}
	return false
}
