package fichadas

import (
	"context"
	"crypto/rand"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Clock abstracts time so loop tests can run without sleeping.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type LoopState string

const (
	StateIdle       LoopState = "idle"
	StateProcessing LoopState = "processing"
	StateBackoff    LoopState = "backoff"
)

// Fetcher pulls the oldest pending clock event; nil means the pending
// set is empty.
type Fetcher interface {
	FetchNext(ctx context.Context) (*ClockEvent, error)
}

// Archiver removes a pending source event once recorded downstream.
type Archiver interface {
	Archive(ctx context.Context, id int64) error
}

// EventRecorder persists one event into the destination stores.
type EventRecorder interface {
	Record(ctx context.Context, ev *ClockEvent) (AttendanceRecord, error)
}

// Status is a snapshot of the loop for the ops API.
type Status struct {
	State       LoopState
	CycleID     string
	Processed   uint64
	Failed      uint64
	LastEventAt time.Time
	LastError   string
	LastErrorAt time.Time
}

// Loop drives the fetch → record → archive pipeline, one event at a
// time, in source timestamp order. Archival happens only after a
// successful record, so a crash in between leaves the event pending and
// it is reprocessed on restart (at-least-once).
//
// Exactly one Loop may run against a given source table: the matcher's
// open-session update is not safe against concurrent pipelines.
type Loop struct {
	fetcher  Fetcher
	recorder EventRecorder
	archiver Archiver
	clock    Clock
	id       IDGen
	poll     time.Duration
	retry    time.Duration
	log      *slog.Logger

	mu     sync.Mutex
	status Status
}

func NewLoop(fetcher Fetcher, recorder EventRecorder, archiver Archiver, poll, retry time.Duration) *Loop {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	if retry <= 0 {
		retry = DefaultRetryInterval
	}
	return &Loop{
		fetcher:  fetcher,
		recorder: recorder,
		archiver: archiver,
		clock:    realClock{},
		id:       ulidGen{},
		poll:     poll,
		retry:    retry,
		log:      slog.Default(),
		status:   Status{State: StateIdle},
	}
}

// Run executes the loop until ctx is cancelled. Every failure inside a
// cycle is logged and answered with the long retry pause; no error kind
// terminates the loop.
func (l *Loop) Run(ctx context.Context) {
	l.log.Info("sync loop started", "poll", l.poll, "retry", l.retry)
	for {
		pause := l.poll
		if err := l.cycle(ctx); err != nil {
			l.fail(err)
			l.log.Error("sync cycle failed, retrying after pause", "error", err, "code", string(CodeOf(err)), "retry", l.retry)
			pause = l.retry
		} else {
			l.setState(StateIdle)
		}

		select {
		case <-ctx.Done():
			l.log.Info("sync loop stopped")
			return
		case <-l.clock.After(pause):
		}
	}
}

// cycle processes at most one pending event end to end.
func (l *Loop) cycle(ctx context.Context) error {
	cid, err := l.id.New()
	if err != nil {
		cid = ""
	}
	l.beginCycle(cid)

	ev, err := l.fetcher.FetchNext(ctx)
	if err != nil {
		return err
	}
	if ev == nil {
		return nil
	}
	l.log.Debug("fichada fetched", "cycle", cid, "event_id", ev.ID, "fecha", ev.Timestamp, "es_entrada", ev.IsEntrance)

	if _, err := l.recorder.Record(ctx, ev); err != nil {
		return err
	}
	if err := l.archiver.Archive(ctx, ev.ID); err != nil {
		return err
	}
	l.log.Debug("fichada archived", "cycle", cid, "event_id", ev.ID)
	l.finishCycle(ev.Timestamp)
	return nil
}

func (l *Loop) beginCycle(cid string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status.State = StateProcessing
	l.status.CycleID = cid
}

func (l *Loop) finishCycle(eventAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status.Processed++
	l.status.LastEventAt = eventAt
}

func (l *Loop) fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status.State = StateBackoff
	l.status.Failed++
	l.status.LastError = err.Error()
	l.status.LastErrorAt = l.clock.Now()
}

func (l *Loop) setState(s LoopState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status.State = s
}

// Status returns a copy of the current loop status.
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}
