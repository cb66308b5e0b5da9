package testutil

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ratepipe/ratepipe/pkg/config"
)

// PostgresURLEnv names the variable holding the integration database URL.
const PostgresURLEnv = "RATEPIPE_TEST_POSTGRES_URL"

// PostgresSuite provides a live PostgreSQL connection to integration tests.
// Every test in the suite is skipped when PostgresURLEnv is unset.
type PostgresSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc

	// Pool is connected to the database named by PostgresURLEnv
	Pool *pgxpool.Pool
	// Config mirrors the connection settings for code that builds its own pool
	Config config.PostgresConfig

	tables []string
}

// SetupSuite runs before all tests in the suite
func (s *PostgresSuite) SetupSuite() {
	raw := os.Getenv(PostgresURLEnv)
	if raw == "" {
		s.T().Skipf("%s not set; skipping PostgreSQL integration tests", PostgresURLEnv)
	}

	cfg, err := PostgresConfigFromURL(raw)
	require.NoError(s.T(), err)
	s.Config = cfg

	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Minute)
	s.Pool, err = pgxpool.New(s.ctx, raw)
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.Pool.Ping(s.ctx))
}

// TearDownSuite drops the tables handed out by Table and closes the pool.
func (s *PostgresSuite) TearDownSuite() {
	if s.Pool == nil {
		return
	}
	for _, table := range s.tables {
		_, _ = s.Pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+pgx.Identifier{table}.Sanitize())
	}
	s.Pool.Close()
	s.cancel()
}

// Context returns the suite context
func (s *PostgresSuite) Context() context.Context {
	return s.ctx
}

// Table returns a table name unique to this run; it is dropped on teardown.
func (s *PostgresSuite) Table(prefix string) string {
	name := fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
	s.tables = append(s.tables, name)
	return name
}

// PostgresConfigFromURL converts a postgres:// URL into a PostgresConfig.
func PostgresConfigFromURL(raw string) (config.PostgresConfig, error) {
	cfg := config.Default().Postgres

	u, err := url.Parse(raw)
	if err != nil {
		return cfg, err
	}
	if h := u.Hostname(); h != "" {
		cfg.Host = h
	}
	if p := u.Port(); p != "" {
		cfg.Port, err = strconv.Atoi(p)
		if err != nil {
			return cfg, fmt.Errorf("invalid port %q: %w", p, err)
		}
	}
	if name := u.Path; len(name) > 1 {
		cfg.Name = name[1:]
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		if pass, ok := u.User.Password(); ok {
			cfg.Password = pass
		}
	}
	if mode := u.Query().Get("sslmode"); mode != "" {
		cfg.SSLMode = mode
	}
	return cfg, nil
}
