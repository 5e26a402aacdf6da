package history

import (
	"context"

	"backend-fittrack/internal/db"
	"backend-fittrack/internal/shared/geo"
	"backend-fittrack/internal/workout"
)

// Service stores terminal workout sessions. It satisfies workout.Archiver.
type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Save persists a finished session and its path. Points keep their arrival
// order through the position column.
func (s *Service) Save(ctx context.Context, session workout.Session) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO workout_sessions (id, user_id, workout_type, started_at, ended_at, total_distance_m, avg_pace_mps, calories)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, session.ID, session.UserID, string(session.Type), session.StartedAt, session.EndedAt,
		session.TotalDistanceM, session.AvgPaceMps, session.Calories)
	if err != nil {
		return err
	}

	for i, p := range session.Path {
		_, err := s.db.Exec(ctx, `
			INSERT INTO workout_points (session_id, position, lat, lng)
			VALUES ($1,$2,$3,$4)
		`, session.ID, i, p.Lat, p.Lng)
		if err != nil {
			return err
		}
	}
	return nil
}

// List returns a user's archived sessions, newest first, without paths.
func (s *Service) List(ctx context.Context, userID string) ([]workout.Session, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, workout_type, started_at, ended_at, total_distance_m, avg_pace_mps, calories
		FROM workout_sessions WHERE user_id=$1
		ORDER BY started_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []workout.Session
	for rows.Next() {
		var sess workout.Session
		var workoutType string
		if err := rows.Scan(&sess.ID, &sess.UserID, &workoutType, &sess.StartedAt, &sess.EndedAt,
			&sess.TotalDistanceM, &sess.AvgPaceMps, &sess.Calories); err != nil {
			return nil, err
		}
		sess.Type = workout.WorkoutType(workoutType)
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// Get returns one archived session with its full path.
func (s *Service) Get(ctx context.Context, id string) (workout.Session, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, workout_type, started_at, ended_at, total_distance_m, avg_pace_mps, calories
		FROM workout_sessions WHERE id=$1
	`, id)

	var sess workout.Session
	var workoutType string
	if err := row.Scan(&sess.ID, &sess.UserID, &workoutType, &sess.StartedAt, &sess.EndedAt,
		&sess.TotalDistanceM, &sess.AvgPaceMps, &sess.Calories); err != nil {
		return workout.Session{}, err
	}
	sess.Type = workout.WorkoutType(workoutType)

	rows, err := s.db.Query(ctx, `
		SELECT lat, lng FROM workout_points
		WHERE session_id=$1
		ORDER BY position
	`, id)
	if err != nil {
		return workout.Session{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var p geo.Coordinate
		if err := rows.Scan(&p.Lat, &p.Lng); err != nil {
			return workout.Session{}, err
		}
		sess.Path = append(sess.Path, p)
	}
	return sess, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM workout_points WHERE session_id=$1`, id); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `DELETE FROM workout_sessions WHERE id=$1`, id)
	return err
}
