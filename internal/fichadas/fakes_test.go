package fichadas

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testContext() context.Context { return context.Background() }

// in-memory SessionStore with the same window semantics as the mongo one
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions []DailySession
	failNext error
}

func (f *fakeSessionStore) Insert(_ context.Context, s DailySession) (DailySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return DailySession{}, err
	}
	s.ID = primitive.NewObjectID()
	f.sessions = append(f.sessions, s)
	return s, nil
}

func (f *fakeSessionStore) SetExit(_ context.Context, id primitive.ObjectID, exit time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.sessions {
		if f.sessions[i].ID == id {
			t := exit
			f.sessions[i].Exit = &t
			return nil
		}
	}
	return ErrDestination(nil)
}

func (f *fakeSessionStore) FindOpenInWindow(_ context.Context, agentID primitive.ObjectID, from, to time.Time) (*DailySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var candidates []DailySession
	for _, s := range f.sessions {
		if s.Agent.ID == agentID && s.Open() && !s.Day.Before(from) && !s.Day.After(to) {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Day.After(candidates[j].Day) })
	out := candidates[0]
	return &out, nil
}

func (f *fakeSessionStore) List(_ context.Context, _ ListQuery) ([]DailySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]DailySession, len(f.sessions))
	copy(out, f.sessions)
	return out, nil
}

func (f *fakeSessionStore) byID(id primitive.ObjectID) *DailySession {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.sessions {
		if f.sessions[i].ID == id {
			s := f.sessions[i]
			return &s
		}
	}
	return nil
}

type fakeRecordStore struct {
	mu       sync.Mutex
	records  []AttendanceRecord
	failNext error
}

func (f *fakeRecordStore) Insert(_ context.Context, rec AttendanceRecord) (AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return AttendanceRecord{}, err
	}
	rec.ID = primitive.NewObjectID()
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *fakeRecordStore) List(_ context.Context, _ ListQuery) ([]AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]AttendanceRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

type fakeResolver struct {
	agent AgentSnapshot
	err   error
}

func (f *fakeResolver) Resolve(_ context.Context, _ AgentRef) (AgentSnapshot, error) {
	if f.err != nil {
		return AgentSnapshot{}, f.err
	}
	return f.agent, nil
}

// fakeSource models the pending table: fetch peeks, archive removes.
type fakeSource struct {
	mu       sync.Mutex
	pending  []*ClockEvent
	fetchErr error
	ops      *opLog
}

func (f *fakeSource) FetchNext(_ context.Context) (*ClockEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		err := f.fetchErr
		f.fetchErr = nil
		return nil, err
	}
	if len(f.pending) == 0 {
		f.ops.add("fetch:none")
		return nil, nil
	}
	ev := f.pending[0]
	f.ops.addf("fetch:%d", ev.ID)
	return ev, nil
}

func (f *fakeSource) Archive(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, ev := range f.pending {
		if ev.ID == id {
			f.pending = append(f.pending[:i], f.pending[i+1:]...)
			break
		}
	}
	f.ops.addf("archive:%d", id)
	return nil
}

func (f *fakeSource) remaining() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, 0, len(f.pending))
	for _, ev := range f.pending {
		out = append(out, ev.ID)
	}
	return out
}

type fakeEventRecorder struct {
	mu       sync.Mutex
	failFor  map[int64]error
	recorded []int64
	ops      *opLog
}

func (f *fakeEventRecorder) Record(_ context.Context, ev *ClockEvent) (AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[ev.ID]; ok {
		delete(f.failFor, ev.ID)
		return AttendanceRecord{}, err
	}
	f.recorded = append(f.recorded, ev.ID)
	f.ops.addf("record:%d", ev.ID)
	return AttendanceRecord{ID: primitive.NewObjectID(), Timestamp: ev.Timestamp, IsEntrance: ev.IsEntrance}, nil
}

// opLog records the pipeline step sequence across fakes.
type opLog struct {
	mu  sync.Mutex
	seq []string
}

func (l *opLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq = append(l.seq, s)
}

func (l *opLog) addf(format string, id int64) {
	l.add(fmt.Sprintf(format, id))
}

func (l *opLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.seq))
	copy(out, l.seq)
	return out
}

// fakeClock never sleeps: After returns a ready channel until maxAfter
// pauses have elapsed, then calls stop (cancelling the loop ctx) and
// blocks forever.
type fakeClock struct {
	mu       sync.Mutex
	now      time.Time
	pauses   []time.Duration
	maxAfter int
	stop     func()
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauses = append(c.pauses, d)
	if len(c.pauses) >= c.maxAfter {
		if c.stop != nil {
			c.stop()
			c.stop = nil
		}
		return make(chan time.Time) // never fires
	}
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func (c *fakeClock) recorded() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.pauses))
	copy(out, c.pauses)
	return out
}
