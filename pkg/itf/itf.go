// Package itf is the integration test harness: throwaway Postgres databases with the
// schema applied.
package itf

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/legacy-import/pkg/configuration"
	"github.com/iota-uz/legacy-import/pkg/dbmigrate"
)

const (
	// PostgreSQL database name maximum length is 63 characters
	maxDBNameLength  = 63
	hashSuffixLength = 9
)

// CanDialPostgres reports whether DB_HOST:DB_PORT accepts TCP connections.
func CanDialPostgres(tb testing.TB) bool {
	tb.Helper()

	host := strings.TrimSpace(os.Getenv("DB_HOST"))
	if host == "" {
		host = "localhost"
	}
	port := strings.TrimSpace(os.Getenv("DB_PORT"))
	if port == "" {
		port = "5432"
	}

	dialer := &net.Dialer{Timeout: 250 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// RequirePostgres skips the test when Postgres is unreachable, except on CI where it fails.
func RequirePostgres(tb testing.TB) {
	tb.Helper()
	if CanDialPostgres(tb) {
		return
	}
	if strings.TrimSpace(os.Getenv("CI")) != "" || strings.EqualFold(strings.TrimSpace(os.Getenv("GITHUB_ACTIONS")), "true") {
		tb.Fatalf("postgres is not reachable (DB_HOST/DB_PORT)")
	}
	tb.Skip("postgres is not reachable; skipping integration test")
}

func NewPool(dbOpts string) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	config, err := pgxpool.ParseConfig(dbOpts)
	if err != nil {
		panic(err)
	}
	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = time.Minute * 5
	config.MaxConnIdleTime = time.Second * 30

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		panic(fmt.Errorf("failed to create database pool: %w", err))
	}
	return pool
}

// CreateDB drops and recreates the database for name.
func CreateDB(name string) {
	c := configuration.Use()
	adminConnStr := fmt.Sprintf(
		"host=%s port=%s user=%s dbname=postgres password=%s sslmode=disable",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password,
	)
	db, err := sql.Open("postgres", adminConnStr)
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("[WARNING] Error closing CreateDB connection: %v", err)
		}
	}()

	sanitized := sanitizeDBName(name)
	if _, err := db.ExecContext(context.Background(), "DROP DATABASE IF EXISTS "+sanitized); err != nil {
		panic(err)
	}
	if _, err := db.ExecContext(context.Background(), "CREATE DATABASE "+sanitized); err != nil {
		panic(err)
	}
}

func DbOpts(name string) string {
	c := configuration.Use()
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		c.Database.Host, c.Database.Port, c.Database.User, sanitizeDBName(name), c.Database.Password,
	)
}

// Database is a migrated throwaway database owned by one test.
type Database struct {
	Pool  *pgxpool.Pool
	SQLDB *sql.DB
	Opts  string
}

// NewDatabase creates a database named after the test, applies the migrations and
// closes every handle on cleanup.
func NewDatabase(tb testing.TB) *Database {
	tb.Helper()
	RequirePostgres(tb)

	CreateDB(tb.Name())
	opts := DbOpts(tb.Name())

	sqlDB, err := sql.Open("postgres", opts)
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(tb, dbmigrate.Up(context.Background(), sqlDB, configuration.Use().MigrationsTable, nil))

	pool := NewPool(opts)
	tb.Cleanup(pool.Close)
	return &Database{Pool: pool, SQLDB: sqlDB, Opts: opts}
}

// sanitizeDBName lowercases name, replaces special characters with underscores and keeps
// the result within PostgreSQL's identifier limit.
func sanitizeDBName(name string) string {
	sanitized := strings.NewReplacer("/", "_", " ", "_", "-", "_", ".", "_", "(", "_", ")", "_", "[", "_", "]", "_").
		Replace(strings.ToLower(name))
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		sanitized = "test_db"
	}
	if len(sanitized) <= maxDBNameLength {
		return sanitized
	}
	sum := sha256.Sum256([]byte(name))
	return fmt.Sprintf("%s_%x", sanitized[:maxDBNameLength-hashSuffixLength], sum[:4])
}
