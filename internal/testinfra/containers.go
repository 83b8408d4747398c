//go:build integration

// Package testinfra поднимает Postgres и Redis в контейнерах для интеграционных тестов.
package testinfra

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage = "postgres:16-alpine"
	postgresPort  = "5432"
	redisImage    = "redis:7-alpine"
	redisPort     = "6379"

	startupTimeout = 2 * time.Minute
)

// StartPostgres запускает чистую базу и возвращает DSN
func StartPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{postgresPort + "/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "wellness",
			"POSTGRES_PASSWORD": "wellness",
			"POSTGRES_DB":       "wellness",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(postgresPort+"/tcp"),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithStartupTimeout(startupTimeout),
	}

	return fmt.Sprintf("postgres://wellness:wellness@%s/wellness?sslmode=disable", start(t, ctx, req))
}

// StartRedis запускает Redis и возвращает адрес host:port
func StartRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        redisImage,
		ExposedPorts: []string{redisPort + "/tcp"},
		WaitingFor:   wait.ForListeningPort(redisPort + "/tcp").WithStartupTimeout(startupTimeout),
	}

	return start(t, ctx, req)
}

// start возвращает host:port единственного открытого порта
func start(t *testing.T, ctx context.Context, req testcontainers.ContainerRequest) string {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start %s container: %v", req.Image, err)
	}
	t.Cleanup(func() {
		container.Terminate(context.Background()) //nolint:errcheck
	})

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("get container endpoint: %v", err)
	}

	return endpoint
}
