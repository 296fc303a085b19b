// store_test.go holds the shared database fixtures for the store
// integration tests. Everything skips when PostgreSQL is unreachable.
package store

import (
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"pressroom/internal/database"
	"pressroom/internal/models"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens the test database with a current schema, or skips.
// Defaults line up with docker-compose.yml.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "postgres://" +
		envOr("POSTGRES_USER", "pressroom") + ":" + envOr("POSTGRES_PASSWORD", "changeme") +
		"@" + envOr("POSTGRES_HOST", "localhost") + ":" + envOr("POSTGRES_PORT", "5432") +
		"/" + envOr("POSTGRES_DB", "pressroom") + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate test schema: %v", err)
	}
	// Migrate set goose's global FS to the app's embedded files; put it back.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testUser creates a throwaway user and registers cleanup. Content and
// asset rows referencing it must be cleaned first by their own cleanups.
func testUser(t *testing.T, db *sql.DB) *models.User {
	t.Helper()

	email := "store-test-" + uuid.NewString()[:8] + "@example.com"
	u, err := NewUserStore(db).Create(email, "test-password", "Store Test", models.RoleEditor)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM users WHERE id = $1", u.ID) })
	return u
}

// cleanUsers removes test users by email. Call in t.Cleanup().
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		if _, err := db.Exec("DELETE FROM users WHERE email = $1", email); err != nil {
			t.Errorf("cleanup users: %v", err)
		}
	}
}

// cleanContent removes test content by slug. Call in t.Cleanup().
func cleanContent(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, slug := range slugs {
		db.Exec("DELETE FROM content_items WHERE slug = $1", slug)
	}
}

// cleanRedirects removes test redirects by source path. Call in t.Cleanup().
func cleanRedirects(t *testing.T, db *sql.DB, sources ...string) {
	t.Helper()
	for _, src := range sources {
		db.Exec("DELETE FROM redirects WHERE source_path = $1", src)
	}
}

// cleanSubscribers removes test subscribers by email. Call in t.Cleanup().
func cleanSubscribers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM subscribers WHERE email = $1", email)
	}
}
