// Package practice wires the streak and recommendation engines to storage.
// It owns user lookup, defaults for absent profile and streak records, and
// input validation; the engines themselves stay pure.
package practice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/poseflow/internal/catalog"
	"github.com/claude/poseflow/internal/metrics"
	"github.com/claude/poseflow/internal/models"
	"github.com/claude/poseflow/internal/recommend"
	"github.com/claude/poseflow/internal/streak"
)

// ErrUserNotFound is returned when a login has no user row.
var ErrUserNotFound = errors.New("user not found")

// DefaultSessionLimit bounds session listings when the caller gives no limit.
const DefaultSessionLimit = 50

// Service implements the practice operations exposed over HTTP and MCP.
type Service struct {
	store  Store
	engine *recommend.Engine
	loc    *time.Location
	now    func() time.Time
	log    *slog.Logger
}

// NewService creates a Service. Streak days are counted in loc (UTC if nil).
func NewService(store Store, engine *recommend.Engine, loc *time.Location, log *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:  store,
		engine: engine,
		loc:    loc,
		now:    time.Now,
		log:    log,
	}
}

// SetClock replaces the time source. Used by tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Catalog returns the pose catalog recommendations draw from.
func (s *Service) Catalog() *catalog.Catalog {
	return s.engine.Catalog()
}

// Poses lists catalog entries, optionally restricted to one difficulty name.
func (s *Service) Poses(_ context.Context, difficulty string) ([]catalog.Entry, error) {
	cat := s.Catalog()
	if difficulty == "" {
		return cat.Entries(), nil
	}
	d, err := catalog.ParseDifficulty(difficulty)
	if err != nil {
		return nil, err
	}
	entries := make([]catalog.Entry, 0)
	for _, name := range cat.PosesByDifficulty(d) {
		entries = append(entries, catalog.Entry{Name: name, Difficulty: d})
	}
	return entries, nil
}

func (s *Service) user(ctx context.Context, login string) (*models.User, error) {
	u, err := s.store.LookupUser(ctx, login)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, login)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	return u, nil
}

// LogSession validates and stores one practice session.
func (s *Service) LogSession(ctx context.Context, login string, in SessionInput) (*models.PracticeSession, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	u, err := s.user(ctx, login)
	if err != nil {
		return nil, err
	}

	session := in.toSession(u.ID, s.now())
	if _, err := s.store.InsertSession(ctx, session); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}
	metrics.SessionsLogged.WithLabelValues("api").Inc()
	return &session, nil
}

// IngestResult summarises a batch upload.
type IngestResult struct {
	Received int      `json:"received"`
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}

// IngestSessions stores a batch of sessions for login. Invalid entries and IDs
// owned by another user are rejected individually; sessions the user already
// has are skipped. The batch is taken oldest first: undated sessions are
// stamped a microsecond apart ending at now, so they keep their batch order.
func (s *Service) IngestSessions(ctx context.Context, login string, batch []SessionInput) (*IngestResult, error) {
	u, err := s.user(ctx, login)
	if err != nil {
		return nil, err
	}

	result := &IngestResult{Received: len(batch)}
	now := s.now()
	for i, in := range batch {
		if err := in.Validate(); err != nil {
			result.Rejected++
			result.Errors = append(result.Errors, fmt.Sprintf("session %d: %v", i, err))
			continue
		}
		at := now.Add(time.Duration(i-len(batch)+1) * time.Microsecond)
		inserted, err := s.store.InsertSession(ctx, in.toSession(u.ID, at))
		if errors.Is(err, models.ErrSessionConflict) {
			result.Rejected++
			result.Errors = append(result.Errors, fmt.Sprintf("session %d: %v", i, err))
			continue
		}
		if err != nil {
			return result, fmt.Errorf("storing session %d: %w", i, err)
		}
		if inserted {
			result.Inserted++
		} else {
			result.Skipped++
		}
	}

	metrics.SessionsLogged.WithLabelValues("ingest").Add(float64(result.Inserted))
	s.log.Info("sessions ingested", "login", login,
		"received", result.Received, "inserted", result.Inserted,
		"skipped", result.Skipped, "rejected", result.Rejected)
	return result, nil
}

// RecentSessions lists a user's sessions, most recent first.
func (s *Service) RecentSessions(ctx context.Context, login string, limit int) ([]models.PracticeSession, error) {
	if limit <= 0 {
		limit = DefaultSessionLimit
	}
	u, err := s.user(ctx, login)
	if err != nil {
		return nil, err
	}
	sessions, err := s.store.RecentSessions(ctx, u.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading sessions: %w", err)
	}
	return sessions, nil
}

// Recommendations computes fresh pose suggestions from the user's level and
// their last few sessions.
func (s *Service) Recommendations(ctx context.Context, login string) ([]recommend.Recommendation, error) {
	u, err := s.user(ctx, login)
	if err != nil {
		return nil, err
	}

	profile, err := s.store.GetProfile(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	recent, err := s.store.RecentSessions(ctx, u.ID, recommend.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("loading recent sessions: %w", err)
	}

	history := make([]recommend.Session, len(recent))
	for i, r := range recent {
		history[i] = recommend.Session{PoseName: r.PoseName, AverageAccuracy: r.AverageAccuracy}
	}

	recs := s.engine.Recommend(profile.Level(), history)
	for _, r := range recs {
		metrics.RecommendationsServed.WithLabelValues(string(r.Reason)).Inc()
	}
	return recs, nil
}

// Streak returns the stored streak, or the zero state for a user who has
// never marked a practice day.
func (s *Service) Streak(ctx context.Context, login string) (streak.State, error) {
	u, err := s.user(ctx, login)
	if err != nil {
		return streak.State{}, err
	}
	st, err := s.store.GetStreak(ctx, u.ID)
	if err != nil {
		return streak.State{}, fmt.Errorf("loading streak: %w", err)
	}
	if st == nil {
		return streak.Zero(), nil
	}
	return *st, nil
}

// MarkPracticed records that the user practiced today and returns the
// updated streak.
func (s *Service) MarkPracticed(ctx context.Context, login string) (streak.State, error) {
	u, err := s.user(ctx, login)
	if err != nil {
		return streak.State{}, err
	}

	today := streak.DateOf(s.now(), s.loc)
	var transition streak.Transition
	st, err := s.store.UpdateStreak(ctx, u.ID, func(cur streak.State) streak.State {
		transition = streak.Classify(cur, today)
		return streak.Advance(cur, today)
	})
	if err != nil {
		return streak.State{}, fmt.Errorf("updating streak: %w", err)
	}

	metrics.StreakTransitions.WithLabelValues(string(transition)).Inc()
	if transition == streak.Skewed {
		s.log.Warn("last practice date is after today, streak left unchanged",
			"login", login, "today", today.Format(time.DateOnly))
	}
	return st, nil
}

// Profile returns the user's profile; nil means none has been saved.
func (s *Service) Profile(ctx context.Context, login string) (*models.Profile, error) {
	u, err := s.user(ctx, login)
	if err != nil {
		return nil, err
	}
	p, err := s.store.GetProfile(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	return p, nil
}

// UpdateProfile replaces the user's profile.
func (s *Service) UpdateProfile(ctx context.Context, login string, in ProfileInput) (*models.Profile, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	u, err := s.user(ctx, login)
	if err != nil {
		return nil, err
	}
	p := in.toProfile()
	if err := s.store.SaveProfile(ctx, u.ID, p); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}
	return &p, nil
}

// EnsureUser creates the user on first sight. Identity middleware calls it.
func (s *Service) EnsureUser(ctx context.Context, login, displayName string) (*models.User, error) {
	u, err := s.store.EnsureUser(ctx, login, displayName)
	if err != nil {
		return nil, fmt.Errorf("ensuring user: %w", err)
	}
	return u, nil
}
