package repo

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
	errx "github.com/ai-tutor-orchestrator/server/internal/core/error"
	logx "github.com/ai-tutor-orchestrator/server/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteProfileRepository stores profiles in a single-file SQLite database.
type SQLiteProfileRepository struct {
	db *sql.DB
}

// OpenSQLiteProfileRepository opens (or creates) the database at path and applies migrations.
// Pass ":memory:" for an in-memory database.
func OpenSQLiteProfileRepository(path string) (*SQLiteProfileRepository, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Single connection: ":memory:" databases are per-connection and writers must not race.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	r := &SQLiteProfileRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return r, nil
}

func (r *SQLiteProfileRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteProfileRepository) migrate() error {
	if _, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var current int
	if err := r.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for i, name := range names {
		version := i + 1
		if version <= current {
			continue
		}
		body, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		tx, err := r.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(body)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version, applied_at) VALUES (?, ?)",
			version, time.Now().UTC().Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
		logx.Debug().Str("migration", name).Msg("applied profile store migration")
	}
	return nil
}

func (r *SQLiteProfileRepository) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	var (
		p     model.UserProfile
		style string
		emo   string
	)
	err := r.db.QueryRowContext(ctx, `SELECT user_id, name, grade_level, learning_style_summary,
		emotional_state_summary, mastery_level_summary, preferred_teaching_style,
		current_emotional_state, current_mastery_level
		FROM user_profiles WHERE user_id = ?`, userID).Scan(
		&p.UserID, &p.Name, &p.GradeLevel, &p.LearningStyleSummary,
		&p.EmotionalStateSummary, &p.MasteryLevelSummary, &style, &emo, &p.CurrentMasteryLevel,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", model.ErrProfileNotFound, userID)
	}
	if err != nil {
		logx.Error().Err(err).Str("user_id", userID).Msg("failed to query user profile")
		return nil, errx.WrapStorage(err)
	}
	p.PreferredTeachingStyle = model.TeachingStyle(style)
	p.CurrentEmotionalState = model.EmotionalState(emo)
	return &p, nil
}

// UpsertProfile inserts or replaces a profile row.
func (r *SQLiteProfileRepository) UpsertProfile(ctx context.Context, p model.UserProfile) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO user_profiles (user_id, name, grade_level,
		learning_style_summary, emotional_state_summary, mastery_level_summary,
		preferred_teaching_style, current_emotional_state, current_mastery_level, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			name = excluded.name,
			grade_level = excluded.grade_level,
			learning_style_summary = excluded.learning_style_summary,
			emotional_state_summary = excluded.emotional_state_summary,
			mastery_level_summary = excluded.mastery_level_summary,
			preferred_teaching_style = excluded.preferred_teaching_style,
			current_emotional_state = excluded.current_emotional_state,
			current_mastery_level = excluded.current_mastery_level,
			updated_at = excluded.updated_at`,
		p.UserID, p.Name, p.GradeLevel, p.LearningStyleSummary, p.EmotionalStateSummary,
		p.MasteryLevelSummary, string(p.PreferredTeachingStyle), string(p.CurrentEmotionalState),
		p.CurrentMasteryLevel, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		logx.Error().Err(err).Str("user_id", p.UserID).Msg("failed to upsert user profile")
		return errx.WrapStorage(err)
	}
	return nil
}

// Seed upserts every given profile.
func (r *SQLiteProfileRepository) Seed(ctx context.Context, profiles []model.UserProfile) error {
	for _, p := range profiles {
		if err := r.UpsertProfile(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

var _ model.ProfileRepository = (*SQLiteProfileRepository)(nil)
