package fichadas

import (
	"context"
	"log/slog"

	"fichadas-sync/internal/timeutil"
)

// Matcher folds newly recorded clock events into the daily-session cache,
// pairing entrances with exits.
type Matcher struct {
	sessions SessionStore
	log      *slog.Logger
}

func NewMatcher(sessions SessionStore) *Matcher {
	return &Matcher{sessions: sessions, log: slog.Default()}
}

// Apply creates or updates the session for a record and returns it.
func (m *Matcher) Apply(ctx context.Context, rec AttendanceRecord) (DailySession, error) {
	if rec.IsEntrance {
		return m.openSession(ctx, rec)
	}
	return m.closeSession(ctx, rec)
}

// An entrance unconditionally opens a new session. Two entrances on the
// same day end up as two open sessions; those are corrected manually
// downstream, not here.
func (m *Matcher) openSession(ctx context.Context, rec AttendanceRecord) (DailySession, error) {
	ts := rec.Timestamp
	sess, err := m.sessions.Insert(ctx, DailySession{
		Agent:    rec.Agent,
		Day:      timeutil.TruncateDay(ts),
		Entrance: &ts,
	})
	if err != nil {
		return DailySession{}, err
	}
	m.log.Debug("session opened", "session_id", sess.ID.Hex(), "agente", sess.Agent.ID.Hex(), "entrada", ts)
	return sess, nil
}

// An exit tries to close the most recent open session of the agent. The
// search window covers the exit's day and the previous calendar day; the
// 24h elapsed check then guards against stale sessions that the day
// truncation lets through. The two guards are independent.
func (m *Matcher) closeSession(ctx context.Context, rec AttendanceRecord) (DailySession, error) {
	ts := rec.Timestamp
	day := timeutil.TruncateDay(ts)

	open, err := m.sessions.FindOpenInWindow(ctx, rec.Agent.ID, timeutil.SubtractOneDay(day), day)
	if err != nil {
		return DailySession{}, err
	}
	if open != nil && open.Entrance != nil && timeutil.DiffHours(ts, *open.Entrance) <= maxSessionHours {
		if err := m.sessions.SetExit(ctx, open.ID, ts); err != nil {
			return DailySession{}, err
		}
		open.Exit = &ts
		m.log.Debug("session closed", "session_id", open.ID.Hex(), "agente", open.Agent.ID.Hex(), "salida", ts)
		return *open, nil
	}

	// No usable entrance: keep the exit as an orphan session for manual
	// reconciliation.
	sess, err := m.sessions.Insert(ctx, DailySession{
		Agent: rec.Agent,
		Day:   day,
		Exit:  &ts,
	})
	if err != nil {
		return DailySession{}, err
	}
	m.log.Debug("orphan exit session", "session_id", sess.ID.Hex(), "agente", sess.Agent.ID.Hex(), "salida", ts)
	return sess, nil
}
