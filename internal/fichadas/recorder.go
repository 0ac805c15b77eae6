package fichadas

import (
	"context"
	"log/slog"
)

// Recorder persists raw clock events into the destination log and keeps
// the session cache in step. The session update runs synchronously so an
// archived source event is always fully reflected downstream.
type Recorder struct {
	agents  AgentResolver
	records RecordStore
	matcher *Matcher
	log     *slog.Logger
}

func NewRecorder(agents AgentResolver, records RecordStore, matcher *Matcher) *Recorder {
	return &Recorder{agents: agents, records: records, matcher: matcher, log: slog.Default()}
}

// Record resolves the agent, appends the immutable attendance record and
// folds it into the daily-session cache. Resolver failures propagate
// unchanged.
func (r *Recorder) Record(ctx context.Context, ev *ClockEvent) (AttendanceRecord, error) {
	ref, err := ParseAgentRef(ev.AgentRef, ev.AgentNumber)
	if err != nil {
		return AttendanceRecord{}, err
	}
	agent, err := r.agents.Resolve(ctx, ref)
	if err != nil {
		return AttendanceRecord{}, err
	}

	rec, err := r.records.Insert(ctx, AttendanceRecord{
		Agent:      agent,
		Timestamp:  ev.Timestamp,
		IsEntrance: ev.IsEntrance,
		DeviceRef:  ev.DeviceRef,
	})
	if err != nil {
		return AttendanceRecord{}, err
	}
	r.log.Debug("fichada saved", "record_id", rec.ID.Hex(), "agente", agent.ID.Hex(), "es_entrada", rec.IsEntrance)

	if _, err := r.matcher.Apply(ctx, rec); err != nil {
		return AttendanceRecord{}, err
	}
	return rec, nil
}
