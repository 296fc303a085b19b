package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data.
// It creates a default admin user and a small set of content so the admin
// dashboard and public API have something to show. The admin will be
// prompted to set up 2FA on first login (totp_enabled = false).
func Seed(db *sql.DB) error {
	// Check if any users exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	// Hash the default admin password.
	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	// Insert default admin user. 2FA is not enabled — they must set it up
	// on first login.
	var adminID string
	err = db.QueryRow(`
		INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, "admin@pressroom.local", string(hash), "Admin", "admin", false).Scan(&adminID)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	// A published welcome post with one markdown block, free tier.
	var welcomeID string
	err = db.QueryRow(`
		INSERT INTO content_items (type, title, slug, summary, status, visibility, tier, published_at, author_id)
		VALUES ('post', 'Welcome to Pressroom', 'welcome', 'A first look around.', 'published', 'public', 'free', NOW(), $1)
		RETURNING id
	`, adminID).Scan(&welcomeID)
	if err != nil {
		return fmt.Errorf("seed insert welcome post: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO content_blocks (content_id, type, position, payload)
		VALUES ($1, 'markdown', 0, '{"source": "# Welcome\n\nThis site runs on Pressroom."}')
	`, welcomeID)
	if err != nil {
		return fmt.Errorf("seed insert welcome block: %w", err)
	}

	// A draft so the editor list is not empty.
	_, err = db.Exec(`
		INSERT INTO content_items (type, title, slug, summary, status, visibility, tier, author_id)
		VALUES ('post', 'First draft', 'first-draft', NULL, 'draft', 'public', 'free', $1)
	`, adminID)
	if err != nil {
		return fmt.Errorf("seed insert draft: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", "admin@pressroom.local",
		"password", "admin",
	)

	return nil
}
