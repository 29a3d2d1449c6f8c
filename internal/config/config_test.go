package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var oracleKeys = []string{
	"ORACLE_DSN", "ORACLE_DB_USER", "ORACLE_DB_PASSWORD",
	"ORACLE_POOL_MIN", "ORACLE_POOL_MAX", "ORACLE_POOL_INCREMENT",
	"ORACLE_ENCODING", "ORACLE_ACQUIRE_TIMEOUT", "ORACLE_CONNECT_RETRIES",
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func setRequired(t *testing.T) {
	t.Setenv("ORACLE_DSN", "dbhost:1521/ORCLPDB1")
	t.Setenv("ORACLE_DB_USER", "scott")
	t.Setenv("ORACLE_DB_PASSWORD", "tiger")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "dbhost:1521/ORCLPDB1", cfg.DB.DSN)
	assert.Equal(t, "scott", cfg.DB.User)
	assert.Equal(t, "tiger", cfg.DB.Password)
	assert.Equal(t, 2, cfg.Pool.Min)
	assert.Equal(t, 5, cfg.Pool.Max)
	assert.Equal(t, 1, cfg.Pool.Increment)
	assert.Equal(t, "UTF-8", cfg.Pool.Encoding)
	assert.Equal(t, 30*time.Second, cfg.Pool.AcquireTimeout)
	assert.Equal(t, 0, cfg.Pool.ConnectRetries)
	assert.Equal(t, "8080", cfg.App.Port)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ORACLE_POOL_MIN", "1")
	t.Setenv("ORACLE_POOL_MAX", "10")
	t.Setenv("ORACLE_POOL_INCREMENT", "3")
	t.Setenv("ORACLE_ACQUIRE_TIMEOUT", "2s")
	t.Setenv("ORACLE_CONNECT_RETRIES", "4")
	t.Setenv("ADMIN_TOKEN", "  s3cret ")

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Pool.Min)
	assert.Equal(t, 10, cfg.Pool.Max)
	assert.Equal(t, 3, cfg.Pool.Increment)
	assert.Equal(t, 2*time.Second, cfg.Pool.AcquireTimeout)
	assert.Equal(t, 4, cfg.Pool.ConnectRetries)
	assert.Equal(t, "s3cret", cfg.Sec.AdminToken)
}

func TestLoad_FromEnvFile(t *testing.T) {
	for _, k := range oracleKeys {
		if _, ok := os.LookupEnv(k); ok {
			t.Skipf("%s already set in the environment", k)
		}
	}
	t.Cleanup(func() {
		for _, k := range oracleKeys {
			_ = os.Unsetenv(k)
		}
	})

	path := filepath.Join(t.TempDir(), ".env")
	content := strings.Join([]string{
		"# oracle",
		`ORACLE_DSN="(DESCRIPTION=(ADDRESS=(PROTOCOL=TCP)(HOST=db)(PORT=1521))(CONNECT_DATA=(SERVICE_NAME=XE)))"`,
		"ORACLE_DB_USER=app",
		"ORACLE_DB_PASSWORD='p@ss=word'",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "(DESCRIPTION=(ADDRESS=(PROTOCOL=TCP)(HOST=db)(PORT=1521))(CONNECT_DATA=(SERVICE_NAME=XE)))", cfg.DB.DSN)
	assert.Equal(t, "app", cfg.DB.User)
	assert.Equal(t, "p@ss=word", cfg.DB.Password)
}

func TestLoad_EnvWinsOverFile(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ORACLE_DB_USER=fromfile\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "scott", cfg.DB.User)
}

func TestLoad_MissingRequired(t *testing.T) {
	for _, key := range []string{"ORACLE_DSN", "ORACLE_DB_USER", "ORACLE_DB_PASSWORD"} {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, "")

			_, err := Load(noEnvFile(t))
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, key, verr.Key)
		})
	}
}

func TestLoad_MalformedSettings(t *testing.T) {
	tests := []struct {
		key    string
		value  string
		reason string
	}{
		{"ORACLE_POOL_MIN", "two", "not an integer"},
		{"ORACLE_POOL_MAX", "5x", "not an integer"},
		{"ORACLE_POOL_INCREMENT", "", ""},
		{"ORACLE_CONNECT_RETRIES", "three", "not an integer"},
		{"ORACLE_ACQUIRE_TIMEOUT", "30", "duration needs a unit, e.g. 30s"},
		{"ORACLE_ACQUIRE_TIMEOUT", "1.5", "duration needs a unit, e.g. 30s"},
		{"ORACLE_ACQUIRE_TIMEOUT", "soon", "not a duration"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load(noEnvFile(t))
			if tt.reason == "" {
				// empty falls back to the default
				require.NoError(t, err)
				assert.Equal(t, 1, cfg.Pool.Increment)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.key, verr.Key)
			assert.Equal(t, tt.reason, verr.Reason)
		})
	}
}

func TestLoad_FirstMalformedSettingWins(t *testing.T) {
	setRequired(t)
	t.Setenv("ORACLE_POOL_MIN", "two")
	t.Setenv("ORACLE_ACQUIRE_TIMEOUT", "30")
	t.Setenv("ORACLE_CONNECT_RETRIES", "three")

	_, err := Load(noEnvFile(t))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "ORACLE_POOL_MIN", verr.Key)
}

func TestLoad_ZeroTimeoutWithoutUnit(t *testing.T) {
	setRequired(t)
	t.Setenv("ORACLE_ACQUIRE_TIMEOUT", "0")

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.Pool.AcquireTimeout)
}

func TestValidate(t *testing.T) {
	valid := func() Cfg {
		return Cfg{
			DB:   DBCfg{DSN: "db/XE", User: "u", Password: "p"},
			Pool: PoolCfg{Min: 2, Max: 5, Increment: 1, Encoding: "UTF-8"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Cfg)
		key    string
	}{
		{"max zero", func(c *Cfg) { c.Pool.Max = 0 }, "ORACLE_POOL_MAX"},
		{"min above max", func(c *Cfg) { c.Pool.Min = 6 }, "ORACLE_POOL_MIN"},
		{"negative min", func(c *Cfg) { c.Pool.Min = -1 }, "ORACLE_POOL_MIN"},
		{"increment zero", func(c *Cfg) { c.Pool.Increment = 0 }, "ORACLE_POOL_INCREMENT"},
		{"latin1", func(c *Cfg) { c.Pool.Encoding = "WE8ISO8859P1" }, "ORACLE_ENCODING"},
		{"negative timeout", func(c *Cfg) { c.Pool.AcquireTimeout = -time.Second }, "ORACLE_ACQUIRE_TIMEOUT"},
		{"negative retries", func(c *Cfg) { c.Pool.ConnectRetries = -1 }, "ORACLE_CONNECT_RETRIES"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.key, verr.Key)
		})
	}

	assert.NoError(t, valid().Validate())
}

func TestIsUTF8(t *testing.T) {
	for _, s := range []string{"UTF-8", "utf-8", "UTF8", "al32utf8", " UTF-8 "} {
		assert.True(t, IsUTF8(s), s)
	}
	for _, s := range []string{"", "UTF-16", "WE8MSWIN1252"} {
		assert.False(t, IsUTF8(s), s)
	}
}

func TestCfgString_RedactsPassword(t *testing.T) {
	c := Cfg{DB: DBCfg{DSN: "db/XE", User: "scott", Password: "tiger"}}
	s := c.String()
	assert.NotContains(t, s, "tiger")
	assert.Contains(t, s, "user=scott")
}
