package recommend

import "github.com/claude/poseflow/internal/catalog"

// Reason tags why a pose was recommended.
type Reason string

const (
	ReasonLevelMatch      Reason = "level-match"
	ReasonImproveAccuracy Reason = "improve-accuracy"
	ReasonChallenge       Reason = "challenge"
	ReasonTryNew          Reason = "try-new"
	ReasonDailySuggestion Reason = "daily-suggestion"
)

// Reasons lists every reason tag in strategy order.
var Reasons = []Reason{
	ReasonLevelMatch,
	ReasonImproveAccuracy,
	ReasonChallenge,
	ReasonTryNew,
	ReasonDailySuggestion,
}

// Message returns the user-facing explanation for the reason.
func (r Reason) Message() string {
	switch r {
	case ReasonLevelMatch:
		return "Matches your experience level"
	case ReasonImproveAccuracy:
		return "Practice to improve accuracy"
	case ReasonChallenge:
		return "Challenge yourself"
	case ReasonTryNew:
		return "Try something new"
	case ReasonDailySuggestion:
		return "Daily suggestion"
	default:
		return ""
	}
}

// Recommendation is a single suggested pose. It is computed per request and
// never stored.
type Recommendation struct {
	PoseName   string             `json:"pose_name"`
	Difficulty catalog.Difficulty `json:"difficulty"`
	Reason     Reason             `json:"reason"`
	Message    string             `json:"message"`
}
