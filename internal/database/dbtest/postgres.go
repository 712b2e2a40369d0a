//go:build integration

// Package dbtest starts a throwaway pgvector PostgreSQL for integration tests
package dbtest

import (
	"context"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	Database = "facegate_test"

	defaultImage = "pgvector/pgvector:pg16"
	user         = "facegate"
	password     = "facegate"
)

// StartPostgres returns the DSN of a fresh database. FACEGATE_TEST_PG_IMAGE
// overrides the image. The container is removed in t.Cleanup.
func StartPostgres(t *testing.T) string {
	t.Helper()

	image := os.Getenv("FACEGATE_TEST_PG_IMAGE")
	if image == "" {
		image = defaultImage
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     user,
				"POSTGRES_PASSWORD": password,
				"POSTGRES_DB":       Database,
			},
			// postgres logs "ready" once for the init server and once for the real one
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort("5432/tcp"),
			).WithDeadline(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "start %s", image)

	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	endpoint, err := container.PortEndpoint(ctx, "5432/tcp", "")
	require.NoError(t, err)

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     endpoint,
		Path:     "/" + Database,
		RawQuery: "sslmode=disable",
	}
	return dsn.String()
}
