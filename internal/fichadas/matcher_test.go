package fichadas

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func entranceRecord(agent AgentSnapshot, at time.Time) AttendanceRecord {
	return AttendanceRecord{ID: primitive.NewObjectID(), Agent: agent, Timestamp: at, IsEntrance: true}
}

func exitRecord(agent AgentSnapshot, at time.Time) AttendanceRecord {
	return AttendanceRecord{ID: primitive.NewObjectID(), Agent: agent, Timestamp: at, IsEntrance: false}
}

func testAgent() AgentSnapshot {
	return AgentSnapshot{ID: primitive.NewObjectID(), FirstName: "Maria", LastName: "Gonzalez"}
}

func TestApplyEntranceAlwaysOpensNewSession(t *testing.T) {
	store := &fakeSessionStore{}
	m := NewMatcher(store)
	agent := testAgent()

	s1, err := m.Apply(context.Background(), entranceRecord(agent, ts("2024-01-10T08:00:00")))
	require.NoError(t, err)
	s2, err := m.Apply(context.Background(), entranceRecord(agent, ts("2024-01-10T08:05:00")))
	require.NoError(t, err)

	// duplicate entrances never merge; both stay open for manual correction
	assert.NotEqual(t, s1.ID, s2.ID)
	assert.Len(t, store.sessions, 2)
	assert.True(t, s1.Open())
	assert.True(t, s2.Open())
	assert.Equal(t, ts("2024-01-10T00:00:00"), s1.Day)
}

func TestApplyExitClosesOpenSessionAcrossMidnight(t *testing.T) {
	store := &fakeSessionStore{}
	m := NewMatcher(store)
	agent := testAgent()

	opened, err := m.Apply(context.Background(), entranceRecord(agent, ts("2024-01-10T23:50:00")))
	require.NoError(t, err)

	closed, err := m.Apply(context.Background(), exitRecord(agent, ts("2024-01-11T00:10:00")))
	require.NoError(t, err)

	// same session identity, mutated in place
	assert.Equal(t, opened.ID, closed.ID)
	assert.Len(t, store.sessions, 1)
	require.NotNil(t, closed.Entrance)
	require.NotNil(t, closed.Exit)
	assert.Equal(t, ts("2024-01-10T23:50:00"), *closed.Entrance)
	assert.Equal(t, ts("2024-01-11T00:10:00"), *closed.Exit)
	assert.Equal(t, ts("2024-01-10T00:00:00"), closed.Day)
}

func TestApplyExitAtExactly24HoursAttaches(t *testing.T) {
	store := &fakeSessionStore{}
	m := NewMatcher(store)
	agent := testAgent()

	opened, err := m.Apply(context.Background(), entranceRecord(agent, ts("2024-01-10T08:00:00")))
	require.NoError(t, err)

	closed, err := m.Apply(context.Background(), exitRecord(agent, ts("2024-01-11T08:00:00")))
	require.NoError(t, err)

	assert.Equal(t, opened.ID, closed.ID)
	assert.Len(t, store.sessions, 1)
}

func TestApplyExitBeyond24HoursCreatesOrphan(t *testing.T) {
	store := &fakeSessionStore{}
	m := NewMatcher(store)
	agent := testAgent()

	opened, err := m.Apply(context.Background(), entranceRecord(agent, ts("2024-01-10T08:00:00")))
	require.NoError(t, err)

	// 24h 00m 01s elapsed: day window still matches but the precise guard rejects
	orphan, err := m.Apply(context.Background(), exitRecord(agent, ts("2024-01-11T08:00:01")))
	require.NoError(t, err)

	assert.NotEqual(t, opened.ID, orphan.ID)
	assert.Nil(t, orphan.Entrance)
	require.NotNil(t, orphan.Exit)
	assert.Equal(t, ts("2024-01-11T08:00:01"), *orphan.Exit)

	// the stale entrance stays open
	stale := store.byID(opened.ID)
	require.NotNil(t, stale)
	assert.True(t, stale.Open())
}

func TestApplyExitWithNoEntranceCreatesOrphan(t *testing.T) {
	store := &fakeSessionStore{}
	m := NewMatcher(store)
	agent := testAgent()

	orphan, err := m.Apply(context.Background(), exitRecord(agent, ts("2024-01-10T17:00:00")))
	require.NoError(t, err)

	assert.Nil(t, orphan.Entrance)
	require.NotNil(t, orphan.Exit)
	assert.Equal(t, ts("2024-01-10T00:00:00"), orphan.Day)
	assert.Len(t, store.sessions, 1)
}

func TestApplyExitPrefersMostRecentOpenSession(t *testing.T) {
	store := &fakeSessionStore{}
	m := NewMatcher(store)
	agent := testAgent()

	_, err := m.Apply(context.Background(), entranceRecord(agent, ts("2024-01-09T22:00:00")))
	require.NoError(t, err)
	today, err := m.Apply(context.Background(), entranceRecord(agent, ts("2024-01-10T08:00:00")))
	require.NoError(t, err)

	closed, err := m.Apply(context.Background(), exitRecord(agent, ts("2024-01-10T17:00:00")))
	require.NoError(t, err)

	assert.Equal(t, today.ID, closed.ID)
}

func TestApplyExitIgnoresSessionsOlderThanOneDay(t *testing.T) {
	store := &fakeSessionStore{}
	m := NewMatcher(store)
	agent := testAgent()

	old, err := m.Apply(context.Background(), entranceRecord(agent, ts("2024-01-08T08:00:00")))
	require.NoError(t, err)

	// two days later: outside the [day-1, day] search window
	orphan, err := m.Apply(context.Background(), exitRecord(agent, ts("2024-01-10T17:00:00")))
	require.NoError(t, err)

	assert.NotEqual(t, old.ID, orphan.ID)
	assert.Nil(t, orphan.Entrance)
}

func TestApplyExitDoesNotTouchOtherAgents(t *testing.T) {
	store := &fakeSessionStore{}
	m := NewMatcher(store)

	other := testAgent()
	_, err := m.Apply(context.Background(), entranceRecord(other, ts("2024-01-10T08:00:00")))
	require.NoError(t, err)

	agent := testAgent()
	orphan, err := m.Apply(context.Background(), exitRecord(agent, ts("2024-01-10T17:00:00")))
	require.NoError(t, err)

	assert.Nil(t, orphan.Entrance)
	assert.Len(t, store.sessions, 2)
}
