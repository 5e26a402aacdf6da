package workout

import (
	"context"
	"errors"
	"sync"
	"time"

	"backend-fittrack/internal/shared/geo"

	"github.com/google/uuid"
)

// ErrSessionActive is returned by StartSession while another session is still
// accumulating fixes. The previous session must be ended explicitly first.
var ErrSessionActive = errors.New("a workout session is already active")

// Tracker owns at most one active Session and serializes every mutation
// behind a single mutex, so readers always observe distance, pace and
// calories from the same update.
type Tracker struct {
	mu     sync.Mutex
	active *Session
	now    func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// StartSession transitions the tracker from Idle to Active and returns a
// snapshot of the new session. Starting while Active fails with
// ErrSessionActive rather than silently discarding the running session.
func (t *Tracker) StartSession(workoutType WorkoutType) (Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active != nil {
		return Session{}, ErrSessionActive
	}

	t.active = &Session{
		ID:        uuid.NewString(),
		Type:      workoutType,
		StartedAt: t.now(),
	}
	return t.active.snapshot(), nil
}

// AddFix appends the fix position to the active session's path and updates
// the derived metrics in the same critical section. While Idle the fix is
// dropped and false is returned; that is a documented no-op, never an error.
func (t *Tracker) AddFix(fix GeoFix) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil {
		return Session{}, false
	}

	s := t.active
	if n := len(s.Path); n > 0 {
		s.TotalDistanceM += geo.DistanceMeters(s.Path[n-1], fix.Coordinate)
	}
	s.Path = append(s.Path, fix.Coordinate)

	elapsed := t.now().Sub(s.StartedAt).Seconds()
	if elapsed > 0 {
		s.AvgPaceMps = s.TotalDistanceM / elapsed
	} else {
		s.AvgPaceMps = 0
	}
	s.Calories = int(s.TotalDistanceM / 10)

	return s.snapshot(), true
}

// CurrentSession returns a consistent snapshot of the active session, or
// false while Idle.
func (t *Tracker) CurrentSession() (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil {
		return Session{}, false
	}
	return t.active.snapshot(), true
}

// EndSession finalizes the active session, detaches it from the tracker and
// returns it. The session is frozen at its last-computed metrics; a second
// call returns false.
func (t *Tracker) EndSession() (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil {
		return Session{}, false
	}

	s := t.active
	s.EndedAt = t.now()
	t.active = nil
	return s.snapshot(), true
}

// Track consumes fixes in arrival order until the channel closes (returns
// nil) or ctx is cancelled (returns ctx.Err()). It never ends the session:
// stream termination of any kind leaves the last good state readable via
// CurrentSession, and finalizing remains the caller's explicit decision.
func (t *Tracker) Track(ctx context.Context, fixes <-chan GeoFix, observer func(Session)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fix, ok := <-fixes:
			if !ok {
				return nil
			}
			if snap, applied := t.AddFix(fix); applied && observer != nil {
				observer(snap)
			}
		}
	}
}
