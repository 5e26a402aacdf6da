package workout

import (
	"time"

	"backend-fittrack/internal/shared/geo"
)

type WorkoutType string

const (
	TypeRunning WorkoutType = "running"
	TypeWalking WorkoutType = "walking"
	TypeCycling WorkoutType = "cycling"
	TypeHiking  WorkoutType = "hiking"
)

// Valid reports whether t is one of the known workout types.
func (t WorkoutType) Valid() bool {
	switch t {
	case TypeRunning, TypeWalking, TypeCycling, TypeHiking:
		return true
	}
	return false
}

// GeoFix is a single geolocation reading from the fix source. AccuracyM is a
// provider quality hint carried through untouched; it does not affect any
// computation.
type GeoFix struct {
	geo.Coordinate
	CapturedAt int64   `json:"captured_at"`
	AccuracyM  float64 `json:"accuracy_m"`
}

// Session is one workout-tracking episode. A zero EndedAt means the session
// is still active. Calories are floor(distance / 10) — uniform across workout
// types, a deliberate simplification.
type Session struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id"`
	Type           WorkoutType      `json:"workout_type"`
	StartedAt      time.Time        `json:"started_at"`
	EndedAt        time.Time        `json:"ended_at,omitempty"`
	Path           []geo.Coordinate `json:"path"`
	TotalDistanceM float64          `json:"total_distance_m"`
	AvgPaceMps     float64          `json:"avg_pace_mps"`
	Calories       int              `json:"calories"`
}

// Active reports whether the session has not been finalized.
func (s Session) Active() bool {
	return s.EndedAt.IsZero()
}

// DurationMillis is the elapsed span in milliseconds, up to now for an active
// session or up to EndedAt for a finished one.
func (s Session) DurationMillis(now time.Time) int64 {
	end := s.EndedAt
	if end.IsZero() {
		end = now
	}
	return end.Sub(s.StartedAt).Milliseconds()
}

// snapshot returns a value copy with its own path slice, safe to hand out
// while the tracker keeps mutating the original.
func (s *Session) snapshot() Session {
	out := *s
	out.Path = append([]geo.Coordinate(nil), s.Path...)
	return out
}
