//go:build integration

package integration

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"pianosheets/internal/cache"
	"pianosheets/internal/models"
	"pianosheets/internal/repositories"
)

// startContainer runs image and returns host:port for the exposed port
func startContainer(t *testing.T, image, port string, waitFor wait.Strategy) string {
	t.Helper()
	ctx := context.Background()

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		Started: true,
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{port},
			WaitingFor:   waitFor,
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate %s: %v", image, err)
		}
	})

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, port)
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, mapped.Port())
}

func TestRunRepository_Mongo(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping database integration test in short mode")
	}

	addr := startContainer(t, "mongo:7", "27017/tcp", wait.ForListeningPort("27017/tcp"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := models.NewDatabase(ctx, "mongodb://"+addr, "pianosheets_test")
	require.NoError(t, err)
	defer db.Close(context.Background())
	require.NoError(t, db.CreateIndexes(ctx))

	repo := repositories.NewMongoRunRepository(db)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		run := models.NewRunSummary("catalog", base.Add(time.Duration(i)*time.Hour))
		run.Record(models.ItemResult{ID: fmt.Sprintf("song-%d", i), Status: models.ItemSucceeded})
		run.Finish(run.StartedAt.Add(time.Minute), nil)
		require.NoError(t, repo.Save(ctx, run))
		ids = append(ids, run.RunID)
	}

	// Saving the same run again replaces it
	again := models.NewRunSummary("catalog", base.Add(2*time.Hour))
	again.RunID = ids[2]
	again.Finish(again.StartedAt, fmt.Errorf("listing unreachable"))
	require.NoError(t, repo.Save(ctx, again))

	runs, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].RunID, "newest first")
	assert.True(t, runs[0].Aborted)
	assert.Equal(t, ids[1], runs[1].RunID)
	assert.Equal(t, 1, runs[1].Successful)
}

func TestMultiLevelCache_Valkey(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping cache integration test in short mode")
	}

	addr := startContainer(t, "valkey/valkey:8", "6379/tcp", wait.ForLog("Ready to accept connections"))

	c, err := cache.New("redis://"+addr, 16)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Health(ctx))

	key := cache.DocumentKey("test/piano-sheets-db", "main", "sheets/piano_sheets.json")
	value, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, value, "miss is (nil, nil)")

	require.NoError(t, c.Set(ctx, key, []byte(`{"sha":"abc"}`), time.Minute))
	value, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"sha":"abc"}`, string(value))

	require.NoError(t, c.Delete(ctx, key))
	value, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, value)
}
