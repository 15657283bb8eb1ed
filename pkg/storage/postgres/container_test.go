package postgres_test

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"stockcache/config"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	pgOnce sync.Once
	pgCfg  config.PostgresConfig
	pgErr  error
)

// startPostgres starts one throw-away Postgres for the package and returns
// its connection settings. Tests are skipped when Docker is unavailable.
func startPostgres(t *testing.T) config.PostgresConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	pgOnce.Do(func() {
		ctx := context.Background()

		req := testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "postgres",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(90 * time.Second),
		}

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			pgErr = fmt.Errorf("start postgres container: %w", err)
			return
		}

		host, err := container.Host(ctx)
		if err != nil {
			pgErr = fmt.Errorf("get postgres host: %w", err)
			return
		}
		port, err := container.MappedPort(ctx, "5432/tcp")
		if err != nil {
			pgErr = fmt.Errorf("get postgres port: %w", err)
			return
		}
		portNum, _ := strconv.Atoi(port.Port())

		pgCfg = config.PostgresConfig{
			Host:     host,
			Port:     portNum,
			User:     "postgres",
			Password: "postgres",
			DBName:   "stockcache_test",
			SSLMode:  "disable",
			TimeZone: "UTC",
		}
	})

	if pgErr != nil {
		t.Fatalf("postgres container failed: %v", pgErr)
	}
	return pgCfg
}
