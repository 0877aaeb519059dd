package testkit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// Logical Redis databases of an Env. The rate cache and the task queue are kept apart
// so flushing one between tests keeps the other.
const (
	CacheDB = 0
	QueueDB = 1
)

// Env holds the connections integration tests run against: the migrated run history
// database, the cache Redis and the task queue Redis.
type Env struct {
	DB    *sql.DB
	Cache *redis.Client
	Queue *redis.Client
}

// Reset empties the run history and both Redis databases.
func (e *Env) Reset(ctx context.Context) error {
	if _, err := e.DB.ExecContext(ctx, "TRUNCATE TABLE report_runs"); err != nil {
		return fmt.Errorf("truncate report_runs: %w", err)
	}
	for _, rdb := range []*redis.Client{e.Cache, e.Queue} {
		if err := rdb.FlushDB(ctx).Err(); err != nil {
			return fmt.Errorf("flush redis db %d: %w", rdb.Options().DB, err)
		}
	}
	return nil
}

func (e *Env) close() error {
	var errs []error
	for _, rdb := range []*redis.Client{e.Queue, e.Cache} {
		if rdb != nil {
			errs = append(errs, rdb.Close())
		}
	}
	if e.DB != nil {
		errs = append(errs, e.DB.Close())
	}
	return errors.Join(errs...)
}

// Suite owns the Postgres and Redis containers and the Env opened on them.
type Suite struct {
	mu    sync.Mutex
	cfg   Config
	pg    *PostgresModule
	redis *RedisModule
	env   *Env
}

var (
	globalSuite *Suite
	globalOnce  sync.Once
)

// Global returns the singleton Suite instance.
func Global() *Suite {
	globalOnce.Do(func() {
		globalSuite = &Suite{cfg: LoadConfig()}
	})
	return globalSuite
}

// Setup starts Postgres and Redis side by side (or uses external overrides), applies
// migrate to the database and opens the Env.
func (s *Suite) Setup(ctx context.Context, migrate func(*sql.DB) error) (*Env, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.env != nil {
		return nil, errors.New("suite already set up; call Shutdown first")
	}

	var g errgroup.Group
	g.Go(func() error {
		pg, err := StartPostgres(ctx, &s.cfg)
		if err != nil {
			return fmt.Errorf("setup postgres: %w", err)
		}
		s.pg = pg
		return nil
	})
	g.Go(func() error {
		rdb, err := StartRedis(ctx, &s.cfg)
		if err != nil {
			return fmt.Errorf("setup redis: %w", err)
		}
		s.redis = rdb
		return nil
	})
	if err := g.Wait(); err != nil {
		s.terminate(ctx)
		return nil, err
	}

	env, err := s.openEnv(ctx, migrate)
	if err != nil {
		s.terminate(ctx)
		return nil, err
	}
	s.env = env
	return env, nil
}

func (s *Suite) openEnv(ctx context.Context, migrate func(*sql.DB) error) (*Env, error) {
	env := &Env{}
	var err error
	if env.DB, err = openDB(ctx, s.pg.DSN(), migrate); err != nil {
		return nil, err
	}
	if env.Cache, err = newRedisClient(ctx, s.redis.Addr(), CacheDB); err != nil {
		_ = env.close()
		return nil, err
	}
	if env.Queue, err = newRedisClient(ctx, s.redis.Addr(), QueueDB); err != nil {
		_ = env.close()
		return nil, err
	}
	return env, nil
}

// PostgresDSN returns the connection string of the test database.
func (s *Suite) PostgresDSN() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pg == nil {
		return ""
	}
	return s.pg.DSN()
}

// Shutdown closes the Env and terminates the containers unless
// RATEBOT_TEST_KEEP_CONTAINERS is set.
func (s *Suite) Shutdown(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.env == nil {
		return
	}
	if err := s.env.close(); err != nil {
		fmt.Fprintln(os.Stderr, "warning: failed to close test connections:", err)
	}
	s.env = nil
	s.terminate(ctx)
}

func (s *Suite) terminate(ctx context.Context) {
	if s.cfg.KeepContainers {
		fmt.Fprintln(os.Stderr, "RATEBOT_TEST_KEEP_CONTAINERS=true, skipping container cleanup")
		if s.pg != nil {
			fmt.Fprintln(os.Stderr, "  run history DSN:", s.pg.DSN())
		}
		if s.redis != nil {
			fmt.Fprintf(os.Stderr, "  Redis addr: %s (cache db %d, queue db %d)\n", s.redis.Addr(), CacheDB, QueueDB)
		}
		return
	}

	if s.redis != nil {
		if err := s.redis.Terminate(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "warning: failed to terminate redis container:", err)
		}
		s.redis = nil
	}
	if s.pg != nil {
		if err := s.pg.Terminate(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "warning: failed to terminate postgres container:", err)
		}
		s.pg = nil
	}
}

// Run sets up the suite, hands the Env to use, executes the tests, then shuts down.
// Intended for use in TestMain.
func (s *Suite) Run(m *testing.M, migrate func(*sql.DB) error, use func(*Env)) {
	ctx := context.Background()

	env, err := s.Setup(ctx, migrate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "integration test setup failed: %v\n", err)
		os.Exit(1)
	}
	use(env)

	code := m.Run()

	s.Shutdown(ctx)
	os.Exit(code)
}

// Run is a package-level convenience that delegates to Global().Run.
func Run(m *testing.M, migrate func(*sql.DB) error, use func(*Env)) {
	Global().Run(m, migrate, use)
}
