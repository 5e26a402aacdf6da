package workout

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"backend-fittrack/internal/stream"
)

// Archiver receives terminal sessions for storage. Once Save returns, the
// tracker holds no reference to the session.
type Archiver interface {
	Save(ctx context.Context, session Session) error
}

// Service maintains one Tracker per user and fans live snapshots out through
// the stream hub.
type Service struct {
	mu       sync.Mutex
	trackers map[string]*Tracker
	hub      *stream.Hub
	archive  Archiver
}

func NewService(archive Archiver, hub *stream.Hub) *Service {
	return &Service{
		trackers: map[string]*Tracker{},
		hub:      hub,
		archive:  archive,
	}
}

// LiveUpdate is the payload broadcast to stream subscribers after every
// applied fix and on session end.
type LiveUpdate struct {
	Session  Session `json:"session"`
	Distance string  `json:"distance"`
	Pace     string  `json:"pace"`
	Duration string  `json:"duration"`
}

func (s *Service) trackerFor(userID string) *Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.trackers[userID]
	if t == nil {
		t = NewTracker()
		s.trackers[userID] = t
	}
	return t
}

func (s *Service) Start(userID string, workoutType WorkoutType) (Session, error) {
	snap, err := s.trackerFor(userID).StartSession(workoutType)
	if err != nil {
		return Session{}, err
	}
	snap.UserID = userID
	return snap, nil
}

// AddFix applies one fix to the user's active session and broadcasts the
// updated snapshot. While Idle the fix is dropped and false is returned.
func (s *Service) AddFix(userID string, fix GeoFix) (Session, bool) {
	snap, applied := s.trackerFor(userID).AddFix(fix)
	if !applied {
		return Session{}, false
	}
	snap.UserID = userID
	s.broadcast(snap)
	return snap, true
}

func (s *Service) Current(userID string) (Session, bool) {
	snap, ok := s.trackerFor(userID).CurrentSession()
	if !ok {
		return Session{}, false
	}
	snap.UserID = userID
	return snap, true
}

// End finalizes the user's active session, hands it to the archiver and
// broadcasts the terminal snapshot. The second return is false while Idle.
func (s *Service) End(ctx context.Context, userID string) (Session, bool, error) {
	snap, ok := s.trackerFor(userID).EndSession()
	if !ok {
		return Session{}, false, nil
	}
	snap.UserID = userID

	if s.archive != nil {
		if err := s.archive.Save(ctx, snap); err != nil {
			return snap, true, err
		}
	}
	s.broadcast(snap)
	return snap, true, nil
}

// StreamFixes drains a fix source into the user's tracker, broadcasting each
// applied snapshot, until the channel closes or ctx is cancelled. The session
// is left as-is either way; ending it stays an explicit call.
func (s *Service) StreamFixes(ctx context.Context, userID string, fixes <-chan GeoFix) error {
	return s.trackerFor(userID).Track(ctx, fixes, func(snap Session) {
		snap.UserID = userID
		s.broadcast(snap)
	})
}

func (s *Service) broadcast(snap Session) {
	if s.hub == nil {
		return
	}

	millis := snap.DurationMillis(time.Now())
	payload, _ := json.Marshal(LiveUpdate{
		Session:  snap,
		Distance: FormatDistance(snap.TotalDistanceM),
		Pace:     FormatPace(snap.AvgPaceMps),
		Duration: FormatDuration(millis),
	})
	s.hub.Broadcast(snap.ID, payload)
}
