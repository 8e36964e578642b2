package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Difficulty is a pose tier. It doubles as a practitioner's experience level.
// The zero value is Unknown.
type Difficulty int

const (
	Unknown Difficulty = iota
	Beginner
	Intermediate
	Advanced
)

// String returns the upper-case wire name (BEGINNER, INTERMEDIATE, ADVANCED, UNKNOWN).
func (d Difficulty) String() string {
	switch d {
	case Beginner:
		return "BEGINNER"
	case Intermediate:
		return "INTERMEDIATE"
	case Advanced:
		return "ADVANCED"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether d is one of the three real tiers.
func (d Difficulty) Valid() bool {
	return d >= Beginner && d <= Advanced
}

// Next returns the tier above d, capped at Advanced.
// Unknown is treated as Beginner.
func (d Difficulty) Next() Difficulty {
	switch d {
	case Intermediate, Advanced:
		return Advanced
	default:
		return Intermediate
	}
}

// ParseDifficulty parses a tier name case-insensitively.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BEGINNER":
		return Beginner, nil
	case "INTERMEDIATE":
		return Intermediate, nil
	case "ADVANCED":
		return Advanced, nil
	}
	return Unknown, fmt.Errorf("unknown difficulty %q", s)
}

func (d Difficulty) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Difficulty) UnmarshalText(b []byte) error {
	if strings.EqualFold(string(b), "UNKNOWN") {
		*d = Unknown
		return nil
	}
	parsed, err := ParseDifficulty(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON keeps the JSON form a string even though Difficulty is an int.
func (d Difficulty) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Difficulty) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}
