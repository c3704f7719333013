package repository

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// testPool connects to TEST_DATABASE_URL and applies the schema inside a throwaway
// Postgres schema, so parallel runs never see each other's rows. pgmq is not needed
// by the repositories and its statements are left out.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL is not set, skip database integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	cfg, err := pgxpool.ParseConfig(url)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema + ",public"

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema))
		pool.Close()
	})

	_, err = pool.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)

	raw, err := os.ReadFile("../../migrations/001_init.sql")
	require.NoError(t, err)
	var kept []string
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.Contains(line, "pgmq") {
			continue
		}
		kept = append(kept, line)
	}
	_, err = pool.Exec(ctx, strings.Join(kept, "\n"))
	require.NoError(t, err)
	return pool
}

func seedProfile(t *testing.T, pool *pgxpool.Pool, plan string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO profiles (id, email, plan) VALUES ($1, $2, $3)`, id, id+"@example.com", plan)
	require.NoError(t, err)
	return id
}
