// Package recommend selects up to three pose suggestions from a user's level
// and recent practice history.
//
// Four strategies run in a fixed order, each contributing at most one pose:
//
//  1. level-match: a random pose of the user's own tier
//  2. improve-accuracy: the most recent pose held below the accuracy threshold,
//     or, when there is none, challenge: a random pose of the next tier
//  3. try-new: a random pose absent from the recent history
//  4. daily-suggestion: random catalog poses until three are chosen
//
// A pose name never appears twice in one result.
package recommend

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/claude/poseflow/internal/catalog"
)

const (
	// MaxResults caps the number of recommendations returned.
	MaxResults = 3
	// AccuracyThreshold is the score below which a pose needs more practice.
	AccuracyThreshold = 70.0
	// HistoryLimit is how many recent sessions callers should supply.
	HistoryLimit = 5
)

// Session is the slice of a logged practice session the engine reads.
type Session struct {
	PoseName        string
	AverageAccuracy float64
}

// Engine produces recommendations against a fixed catalog.
// It is safe for concurrent use.
type Engine struct {
	catalog *catalog.Catalog

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine creates an engine. A zero seed seeds from the clock; any other
// value makes the sequence of results reproducible.
func NewEngine(cat *catalog.Catalog, seed uint64) *Engine {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Engine{
		catalog: cat,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Catalog returns the catalog the engine draws from.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Recommend returns up to MaxResults recommendations for a user at level with
// recent sessions ordered most recent first.
func (e *Engine) Recommend(level catalog.Difficulty, recent []Session) []Recommendation {
	e.mu.Lock()
	defer e.mu.Unlock()

	l := list{items: make([]Recommendation, 0, MaxResults)}

	// Level match
	if pose, ok := e.pick(e.catalog.PosesByDifficulty(level)); ok {
		l.add(pose, level, ReasonLevelMatch)
	}

	// Improve accuracy, or challenge when everything recent is above threshold
	if weak, ok := firstBelowThreshold(recent); ok {
		l.add(weak, e.catalog.DifficultyOf(weak), ReasonImproveAccuracy)
	} else {
		next := level.Next()
		if pose, ok := e.pick(e.catalog.PosesByDifficulty(next)); ok {
			l.add(pose, next, ReasonChallenge)
		}
	}

	// Something new
	practiced := make(map[string]bool, len(recent))
	for _, s := range recent {
		practiced[s.PoseName] = true
	}
	var novel []string
	for _, name := range e.catalog.Names() {
		if !practiced[name] {
			novel = append(novel, name)
		}
	}
	if pose, ok := e.pick(novel); ok {
		l.add(pose, e.catalog.DifficultyOf(pose), ReasonTryNew)
	}

	// Fill from the poses not yet chosen, sampling without replacement so a
	// small catalog cannot stall the loop.
	if len(l.items) < MaxResults {
		var rest []string
		for _, name := range e.catalog.Names() {
			if !l.has(name) {
				rest = append(rest, name)
			}
		}
		e.rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
		for _, pose := range rest {
			if len(l.items) >= MaxResults {
				break
			}
			l.add(pose, e.catalog.DifficultyOf(pose), ReasonDailySuggestion)
		}
	}

	if len(l.items) > MaxResults {
		l.items = l.items[:MaxResults]
	}
	return l.items
}

// pick returns a uniformly random element. Callers hold e.mu.
func (e *Engine) pick(names []string) (string, bool) {
	if len(names) == 0 {
		return "", false
	}
	return names[e.rng.IntN(len(names))], true
}

func firstBelowThreshold(recent []Session) (string, bool) {
	for _, s := range recent {
		if s.AverageAccuracy < AccuracyThreshold {
			return s.PoseName, true
		}
	}
	return "", false
}

// list is an insertion-ordered result that drops repeated pose names.
type list struct {
	items []Recommendation
}

func (l *list) has(pose string) bool {
	for _, r := range l.items {
		if r.PoseName == pose {
			return true
		}
	}
	return false
}

func (l *list) add(pose string, d catalog.Difficulty, reason Reason) {
	if l.has(pose) {
		return
	}
	l.items = append(l.items, Recommendation{
		PoseName:   pose,
		Difficulty: d,
		Reason:     reason,
		Message:    reason.Message(),
	})
}
