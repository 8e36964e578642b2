// Package sqlite is a single-file practice store for local installs and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/claude/poseflow/internal/models"
	"github.com/claude/poseflow/internal/practice"
	"github.com/claude/poseflow/internal/streak"
	_ "modernc.org/sqlite"
)

// Timestamps are stored as fixed-width UTC text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements practice.Store on SQLite.
type Store struct {
	db *sql.DB
}

var _ practice.Store = (*Store)(nil)

// Open opens or creates a SQLite database at the given path.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer at a time; also serialises UpdateStreak per database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS users (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		login        TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL,
		last_seen    TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_profiles (
		user_id          INTEGER PRIMARY KEY REFERENCES users(id),
		bio              TEXT,
		age              INTEGER,
		gender           TEXT,
		height_cm        REAL,
		weight_kg        REAL,
		experience_level TEXT CHECK (experience_level IN ('BEGINNER','INTERMEDIATE','ADVANCED')),
		updated_at       TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS practice_sessions (
		id               TEXT PRIMARY KEY,
		user_id          INTEGER NOT NULL REFERENCES users(id),
		pose_name        TEXT NOT NULL,
		average_accuracy REAL NOT NULL,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		practiced_at     TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_practice_sessions_user_time
		ON practice_sessions(user_id, practiced_at DESC);

	CREATE TABLE IF NOT EXISTS user_streaks (
		user_id            INTEGER PRIMARY KEY REFERENCES users(id),
		current_streak     INTEGER NOT NULL DEFAULT 0 CHECK (current_streak >= 0),
		max_streak         INTEGER NOT NULL DEFAULT 0 CHECK (max_streak >= current_streak),
		last_practice_date TEXT
	);
	`)
	return err
}

func now() string {
	return time.Now().UTC().Format(timeLayout)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var created string
	if err := row.Scan(&u.ID, &u.Login, &u.DisplayName, &created); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	u.CreatedAt = t
	return &u, nil
}

// EnsureUser finds or creates a user by login.
func (s *Store) EnsureUser(ctx context.Context, login, displayName string) (*models.User, error) {
	ts := now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (login, display_name, created_at, last_seen)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = excluded.last_seen,
			    display_name = COALESCE(NULLIF(excluded.display_name, ''), users.display_name)`,
		login, displayName, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return s.LookupUser(ctx, login)
}

// LookupUser returns the user with the given login, or models.ErrNotFound.
func (s *Store) LookupUser(ctx context.Context, login string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, login, display_name, created_at FROM users WHERE login = ?`, login))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

// GetProfile returns the user's profile, or nil if none has been saved.
func (s *Store) GetProfile(ctx context.Context, userID int) (*models.Profile, error) {
	var p models.Profile
	var level *string
	err := s.db.QueryRowContext(ctx,
		`SELECT bio, age, gender, height_cm, weight_kg, experience_level
		 FROM user_profiles WHERE user_id = ?`, userID).
		Scan(&p.Bio, &p.Age, &p.Gender, &p.HeightCm, &p.WeightKg, &level)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}
	p.ExperienceLevel = models.LevelFromText(level)
	return &p, nil
}

// SaveProfile inserts or replaces the user's profile.
func (s *Store) SaveProfile(ctx context.Context, userID int, p models.Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_profiles (user_id, bio, age, gender, height_cm, weight_kg, experience_level, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
			bio = excluded.bio, age = excluded.age, gender = excluded.gender,
			height_cm = excluded.height_cm, weight_kg = excluded.weight_kg,
			experience_level = excluded.experience_level, updated_at = excluded.updated_at`,
		userID, p.Bio, p.Age, p.Gender, p.HeightCm, p.WeightKg, models.LevelText(p.ExperienceLevel), now())
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// InsertSession inserts a practice session. Returns true if inserted, false if
// the user already has it, and models.ErrSessionConflict if another user does.
func (s *Store) InsertSession(ctx context.Context, ps models.PracticeSession) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO practice_sessions (id, user_id, pose_name, average_accuracy, duration_seconds, practiced_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		ps.ID.String(), ps.UserID, ps.PoseName, ps.AverageAccuracy, ps.DurationSeconds,
		ps.PracticedAt.UTC().Format(timeLayout))
	if err != nil {
		return false, fmt.Errorf("insert session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert session: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	var owner int
	if err := s.db.QueryRowContext(ctx,
		`SELECT user_id FROM practice_sessions WHERE id = ?`, ps.ID.String()).Scan(&owner); err != nil {
		return false, fmt.Errorf("check session owner: %w", err)
	}
	if owner != ps.UserID {
		return false, models.ErrSessionConflict
	}
	return false, nil
}

// RecentSessions returns a user's latest sessions, most recent first.
func (s *Store) RecentSessions(ctx context.Context, userID, limit int) ([]models.PracticeSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, pose_name, average_accuracy, duration_seconds, practiced_at
		 FROM practice_sessions
		 WHERE user_id = ?
		 ORDER BY practiced_at DESC, rowid DESC
		 LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var result []models.PracticeSession
	for rows.Next() {
		var ps models.PracticeSession
		var at string
		if err := rows.Scan(&ps.ID, &ps.UserID, &ps.PoseName, &ps.AverageAccuracy,
			&ps.DurationSeconds, &at); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if ps.PracticedAt, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("parse practiced_at: %w", err)
		}
		result = append(result, ps)
	}
	return result, rows.Err()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readStreak(ctx context.Context, q querier, userID int) (streak.State, error) {
	var st streak.State
	var last sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT current_streak, max_streak, last_practice_date FROM user_streaks WHERE user_id = ?`,
		userID).Scan(&st.CurrentStreak, &st.MaxStreak, &last)
	if err != nil {
		return st, err
	}
	if last.Valid {
		d, err := time.Parse(time.DateOnly, last.String)
		if err != nil {
			return st, fmt.Errorf("parse last_practice_date: %w", err)
		}
		st.LastPracticeDate = &d
	}
	return st, nil
}

// GetStreak returns the user's streak, or nil if the user has never practiced.
func (s *Store) GetStreak(ctx context.Context, userID int) (*streak.State, error) {
	st, err := readStreak(ctx, s.db, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query streak: %w", err)
	}
	return &st, nil
}

// UpdateStreak applies fn to the user's streak inside a transaction.
func (s *Store) UpdateStreak(ctx context.Context, userID int, fn func(streak.State) streak.State) (streak.State, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return streak.State{}, fmt.Errorf("begin streak tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_streaks (user_id) VALUES (?) ON CONFLICT (user_id) DO NOTHING`,
		userID); err != nil {
		return streak.State{}, fmt.Errorf("create streak row: %w", err)
	}

	cur, err := readStreak(ctx, tx, userID)
	if err != nil {
		return streak.State{}, fmt.Errorf("read streak: %w", err)
	}

	next := fn(cur)

	var last any
	if next.LastPracticeDate != nil {
		last = next.LastPracticeDate.UTC().Format(time.DateOnly)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE user_streaks SET current_streak = ?, max_streak = ?, last_practice_date = ?
		 WHERE user_id = ?`,
		next.CurrentStreak, next.MaxStreak, last, userID); err != nil {
		return streak.State{}, fmt.Errorf("save streak: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return streak.State{}, fmt.Errorf("commit streak: %w", err)
	}
	return next, nil
}
