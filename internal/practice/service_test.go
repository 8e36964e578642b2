package practice_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/claude/poseflow/internal/catalog"
	"github.com/claude/poseflow/internal/models"
	"github.com/claude/poseflow/internal/practice"
	"github.com/claude/poseflow/internal/recommend"
	"github.com/claude/poseflow/internal/storage/sqlite"
	"github.com/google/uuid"
)

func newTestService(t *testing.T) (*practice.Service, *time.Time) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "practice.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := practice.NewService(store, recommend.NewEngine(catalog.Default(), 42), time.UTC, log)
	clock := time.Date(2026, 4, 1, 18, 30, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return clock })

	if _, err := svc.EnsureUser(context.Background(), "alice", "Alice"); err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	return svc, &clock
}

func acc(v float64) *float64 { return &v }

// TestUnknownUser verifies every per-user operation reports ErrUserNotFound.
func TestUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["streak"] = svc.Streak(ctx, "ghost")
	_, checks["mark"] = svc.MarkPracticed(ctx, "ghost")
	_, checks["recommend"] = svc.Recommendations(ctx, "ghost")
	_, checks["profile"] = svc.Profile(ctx, "ghost")
	_, checks["sessions"] = svc.RecentSessions(ctx, "ghost", 0)
	_, checks["ingest"] = svc.IngestSessions(ctx, "ghost", nil)
	for name, err := range checks {
		if !errors.Is(err, practice.ErrUserNotFound) {
			t.Errorf("%s: err = %v, want ErrUserNotFound", name, err)
		}
	}
}

// TestStreakDefaultsToZero verifies a new user reads the zero streak.
func TestStreakDefaultsToZero(t *testing.T) {
	svc, _ := newTestService(t)
	st, err := svc.Streak(context.Background(), "alice")
	if err != nil {
		t.Fatalf("streak: %v", err)
	}
	if st.CurrentStreak != 0 || st.MaxStreak != 0 || st.LastPracticeDate != nil {
		t.Errorf("streak = %+v, want zero", st)
	}
}

// TestMarkPracticedAcrossDays walks the clock through a run, a repeat and a gap.
func TestMarkPracticedAcrossDays(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	start := *clock

	steps := []struct {
		dayOffset    int
		current, max int
	}{
		{0, 1, 1},
		{0, 1, 1},
		{1, 2, 2},
		{2, 3, 3},
		{5, 1, 3},
		{6, 2, 3},
	}
	for i, s := range steps {
		*clock = start.AddDate(0, 0, s.dayOffset)
		st, err := svc.MarkPracticed(ctx, "alice")
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if st.CurrentStreak != s.current || st.MaxStreak != s.max {
			t.Errorf("step %d: streak = %d/%d, want %d/%d", i, st.CurrentStreak, st.MaxStreak, s.current, s.max)
		}
	}

	st, err := svc.Streak(ctx, "alice")
	if err != nil {
		t.Fatalf("streak: %v", err)
	}
	want := time.Date(2026, 4, 7, 0, 0, 0, 0, time.UTC)
	if st.LastPracticeDate == nil || !st.LastPracticeDate.Equal(want) {
		t.Errorf("last = %v, want %v", st.LastPracticeDate, want)
	}
}

// TestMarkPracticedClockSkew verifies a clock moved backwards leaves the streak as stored.
func TestMarkPracticedClockSkew(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	if _, err := svc.MarkPracticed(ctx, "alice"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	*clock = clock.AddDate(0, 0, -3)
	st, err := svc.MarkPracticed(ctx, "alice")
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if st.CurrentStreak != 1 || st.LastPracticeDate.Day() != 1 {
		t.Errorf("streak = %+v, want unchanged", st)
	}
}

// TestLogSessionValidation verifies invalid input never reaches storage.
func TestLogSessionValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.LogSession(ctx, "alice", practice.SessionInput{PoseName: "Tree", AverageAccuracy: acc(140)})
	var verr *practice.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}

	_, err = svc.LogSession(ctx, "alice", practice.SessionInput{PoseName: "   ", AverageAccuracy: acc(40)})
	if !errors.As(err, &verr) {
		t.Fatalf("blank pose err = %v, want ValidationError", err)
	}

	sessions, err := svc.RecentSessions(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("stored %d sessions, want 0", len(sessions))
	}
}

// TestIngestSessions verifies per-item rejection and duplicate skipping.
func TestIngestSessions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id := uuid.New()
	batch := []practice.SessionInput{
		{ID: &id, PoseName: "Tree", AverageAccuracy: acc(80)},
		{PoseName: "Cobra", AverageAccuracy: acc(55)},
		{PoseName: "", AverageAccuracy: acc(55)},
	}
	res, err := svc.IngestSessions(ctx, "alice", batch)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Received != 3 || res.Inserted != 2 || res.Rejected != 1 || res.Skipped != 0 {
		t.Errorf("first result = %+v", res)
	}
	if len(res.Errors) != 1 {
		t.Errorf("errors = %v, want one", res.Errors)
	}

	res, err = svc.IngestSessions(ctx, "alice", batch[:1])
	if err != nil {
		t.Fatalf("re-ingest: %v", err)
	}
	if res.Inserted != 0 || res.Skipped != 1 {
		t.Errorf("re-ingest result = %+v, want one skipped", res)
	}
}

// TestRecommendationsUseProfileAndHistory verifies the weak-pose suggestion
// comes from stored sessions and the profile level feeds level-match.
func TestRecommendationsUseProfileAndHistory(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	if _, err := svc.UpdateProfile(ctx, "alice", practice.ProfileInput{ExperienceLevel: "ADVANCED"}); err != nil {
		t.Fatalf("profile: %v", err)
	}
	// Tree is BEGINNER so level-match at ADVANCED cannot collide with it.
	*clock = clock.Add(time.Minute)
	if _, err := svc.LogSession(ctx, "alice", practice.SessionInput{PoseName: "Tree", AverageAccuracy: acc(40)}); err != nil {
		t.Fatalf("log: %v", err)
	}

	recs, err := svc.Recommendations(ctx, "alice")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(recs) != recommend.MaxResults {
		t.Fatalf("got %d recommendations, want %d", len(recs), recommend.MaxResults)
	}
	if recs[0].Reason != recommend.ReasonLevelMatch || recs[0].Difficulty != catalog.Advanced {
		t.Errorf("first = %+v, want ADVANCED level-match", recs[0])
	}
	if recs[1].PoseName != "Tree" || recs[1].Reason != recommend.ReasonImproveAccuracy {
		t.Errorf("second = %+v, want Tree improve-accuracy", recs[1])
	}
}

// TestRecommendationsWithoutProfile verifies the BEGINNER default.
func TestRecommendationsWithoutProfile(t *testing.T) {
	svc, _ := newTestService(t)
	recs, err := svc.Recommendations(context.Background(), "alice")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(recs) == 0 || recs[0].Difficulty != catalog.Beginner {
		t.Fatalf("recs = %+v, want BEGINNER first", recs)
	}
	// Empty history means the second pick is a challenge one tier up.
	if recs[1].Reason != recommend.ReasonChallenge || recs[1].Difficulty != catalog.Intermediate {
		t.Errorf("second = %+v, want INTERMEDIATE challenge", recs[1])
	}
}

// TestIngestSessionIDOwnedByAnotherUser verifies a session ID already stored
// for one user is rejected, not silently skipped, for another.
func TestIngestSessionIDOwnedByAnotherUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.EnsureUser(ctx, "bob", "Bob"); err != nil {
		t.Fatalf("ensure bob: %v", err)
	}

	id := uuid.New()
	if _, err := svc.IngestSessions(ctx, "alice", []practice.SessionInput{
		{ID: &id, PoseName: "Tree", AverageAccuracy: acc(80)},
	}); err != nil {
		t.Fatalf("alice ingest: %v", err)
	}

	res, err := svc.IngestSessions(ctx, "bob", []practice.SessionInput{
		{ID: &id, PoseName: "Cobra", AverageAccuracy: acc(30)},
	})
	if err != nil {
		t.Fatalf("bob ingest: %v", err)
	}
	if res.Inserted != 0 || res.Skipped != 0 || res.Rejected != 1 || len(res.Errors) != 1 {
		t.Errorf("bob result = %+v, want one rejected", res)
	}

	_, err = svc.LogSession(ctx, "bob", practice.SessionInput{ID: &id, PoseName: "Cobra", AverageAccuracy: acc(30)})
	if !errors.Is(err, models.ErrSessionConflict) {
		t.Errorf("log err = %v, want ErrSessionConflict", err)
	}

	alice, err := svc.RecentSessions(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("alice sessions: %v", err)
	}
	if len(alice) != 1 || alice[0].PoseName != "Tree" {
		t.Errorf("alice sessions = %+v, want Tree untouched", alice)
	}
}

// TestIngestUndatedKeepsBatchOrder verifies undated sessions in one batch get
// distinct times, so the latest entry is the most recent and the weak-pose
// pick is deterministic.
func TestIngestUndatedKeepsBatchOrder(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	if _, err := svc.UpdateProfile(ctx, "alice", practice.ProfileInput{ExperienceLevel: "ADVANCED"}); err != nil {
		t.Fatalf("profile: %v", err)
	}
	res, err := svc.IngestSessions(ctx, "alice", []practice.SessionInput{
		{PoseName: "Tree", AverageAccuracy: acc(40)},
		{PoseName: "Cobra", AverageAccuracy: acc(50)},
		{PoseName: "Pigeon", AverageAccuracy: acc(90)},
	})
	if err != nil || res.Inserted != 3 {
		t.Fatalf("ingest: %+v, %v", res, err)
	}

	sessions, err := svc.RecentSessions(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	want := []string{"Pigeon", "Cobra", "Tree"}
	if len(sessions) != len(want) {
		t.Fatalf("got %d sessions, want %d", len(sessions), len(want))
	}
	for i, name := range want {
		if sessions[i].PoseName != name {
			t.Errorf("sessions[%d] = %s, want %s", i, sessions[i].PoseName, name)
		}
	}
	if !sessions[0].PracticedAt.Equal(*clock) {
		t.Errorf("latest practiced_at = %v, want %v", sessions[0].PracticedAt, *clock)
	}
	if !sessions[1].PracticedAt.Before(sessions[0].PracticedAt) {
		t.Error("batch entries share a timestamp")
	}

	recs, err := svc.Recommendations(ctx, "alice")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(recs) < 2 || recs[1].PoseName != "Cobra" || recs[1].Reason != recommend.ReasonImproveAccuracy {
		t.Errorf("recs = %+v, want Cobra improve-accuracy second", recs)
	}
}
