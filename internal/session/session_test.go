package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/tierlist-backend/internal/engine"
	"github.com/DoyleJ11/tierlist-backend/internal/types"
)

// helper: receive one message with a timeout so tests never hang
func recvMsg(t *testing.T, ch <-chan any, within time.Duration) any {
	t.Helper()
	select {
	case m, ok := <-ch:
		if !ok {
			t.Fatalf("client outbox closed unexpectedly")
		}
		return m
	case <-time.After(within):
		t.Fatalf("timed out waiting for message")
		return nil // unreachable
	}
}

// recvUntil drains messages until one of type T arrives.
func recvUntil[T any](t *testing.T, ch <-chan any, within time.Duration) T {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case m, ok := <-ch:
			if !ok {
				t.Fatalf("client outbox closed unexpectedly")
			}
			if v, ok := m.(T); ok {
				return v
			}
		case <-deadline:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func recvNoMsg(t *testing.T, ch <-chan any, within time.Duration) {
	t.Helper()
	select {
	case m, ok := <-ch:
		if !ok {
			return
		}
		t.Fatalf("expected no message within %v, but got: %+v", within, m)
	case <-time.After(within):
	}
}

type memArchive struct {
	mu    sync.Mutex
	saved []Summary
}

func (m *memArchive) Save(_ context.Context, s Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, s)
	return nil
}

func (m *memArchive) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func newTestSession(t *testing.T, archive Archiver, items ...string) *Session {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s, err := New(ctx, Config{
		Items:        items,
		RoundUnits:   2,
		TickInterval: 20 * time.Millisecond,
		Archiver:     archive,
	})
	require.NoError(t, err)
	return s
}

func send(s *Session, a engine.Action) {
	s.Inbox() <- FromClient{ClientID: "c1", Cmd: Command{Action: a}}
}

func sendVote(s *Session, name string, tier engine.Tier) {
	s.Inbox() <- FromClient{ClientID: name, Cmd: Command{
		Action: engine.ActionVote,
		Tier:   tier,
		Person: engine.Participant{Name: name, Avatar: name + ".png"},
	}}
}

func TestNew_RejectsEmptyCatalog(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestSession_JoinSendsSnapshotToNewClientOnly(t *testing.T) {
	s := newTestSession(t, nil, "apple", "banana")

	first := make(chan any, 8)
	s.Inbox() <- Join{ClientID: "c1", Outbox: first}
	join := recvMsg(t, first, 200*time.Millisecond).(types.JoinMessage)
	assert.Equal(t, types.TypeJoin, join.Type)
	assert.Equal(t, engine.StateMenu, join.Data.State)
	assert.Equal(t, "apple", join.Data.Selection)
	assert.Equal(t, "2", join.Data.Timer)

	second := make(chan any, 8)
	s.Inbox() <- Join{ClientID: "c2", Outbox: second}
	_ = recvMsg(t, second, 200*time.Millisecond)
	recvNoMsg(t, first, 50*time.Millisecond)
}

func TestSession_PlaysWholeCatalog(t *testing.T) {
	archive := &memArchive{}
	s := newTestSession(t, archive, "apple", "banana", "cherry")

	out := make(chan any, 256)
	s.Inbox() <- Join{ClientID: "watcher", Outbox: out}
	_ = recvMsg(t, out, 200*time.Millisecond)

	send(s, engine.ActionJoin)
	send(s, engine.ActionStart)
	sendVote(s, "ann", engine.TierS)
	sendVote(s, "bob", engine.TierS)

	first := recvUntil[types.RoundResultMessage](t, out, time.Second)
	assert.Equal(t, "apple", first.Results.Item)
	require.NotNil(t, first.Results.Average)
	assert.Equal(t, engine.TierS, *first.Results.Average)

	send(s, engine.ActionNext)
	sendVote(s, "ann", engine.TierC)
	second := recvUntil[types.RoundResultMessage](t, out, time.Second)
	assert.Equal(t, "banana", second.Results.Item)

	send(s, engine.ActionNext)
	sendVote(s, "ann", engine.TierF)
	end := recvUntil[types.EndMessage](t, out, time.Second)
	assert.Equal(t, 3, end.Data.Results.Len())

	st, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Game.End)
	assert.Equal(t, 2, st.Game.Index)
	assert.Equal(t, 3, st.Results.Len())
	assert.True(t, st.Snapshot.End)

	assert.Eventually(t, func() bool { return archive.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestSession_TicksCountDown(t *testing.T) {
	s := newTestSession(t, nil, "apple", "banana")
	out := make(chan any, 64)
	s.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvMsg(t, out, 200*time.Millisecond)

	send(s, engine.ActionJoin)
	send(s, engine.ActionStart)

	var got []string
	for len(got) < 3 {
		got = append(got, recvUntil[types.TickMessage](t, out, time.Second).Time)
	}
	assert.Equal(t, []string{"2", "1", "0"}, got)
}

func TestSession_InvalidActionIsDropped(t *testing.T) {
	s := newTestSession(t, nil, "apple")
	out := make(chan any, 8)
	s.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvMsg(t, out, 200*time.Millisecond)

	send(s, engine.ActionNext)
	sendVote(s, "ann", engine.TierA)
	recvNoMsg(t, out, 50*time.Millisecond)

	st, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.StateMenu, st.State)
}

func TestSession_DropSlowClient(t *testing.T) {
	s := newTestSession(t, nil, "apple")

	out := make(chan any, 1)
	s.Inbox() <- Join{ClientID: "c1", Outbox: out}
	send(s, engine.ActionJoin) // join snapshot fills the buffer, this broadcast overflows it

	st, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.NumClients)
}

func TestSession_LeaveNotifiesOthers(t *testing.T) {
	s := newTestSession(t, nil, "apple")

	a := make(chan any, 8)
	b := make(chan any, 8)
	s.Inbox() <- Join{ClientID: "a", Outbox: a}
	s.Inbox() <- Join{ClientID: "b", Outbox: b}
	_ = recvMsg(t, a, 200*time.Millisecond)
	_ = recvMsg(t, b, 200*time.Millisecond)

	s.Inbox() <- Leave{ClientID: "b"}
	notice := recvMsg(t, a, 200*time.Millisecond)
	assert.Equal(t, types.NoticeMessage{Message: "someone has left the chat"}, notice)

	st, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, st.NumClients)
}

func TestSession_StaleTimerCallbacksAreDropped(t *testing.T) {
	s := newTestSession(t, nil, "apple")
	out := make(chan any, 8)
	s.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvMsg(t, out, 200*time.Millisecond)

	fired := make(chan struct{}, 1)
	s.Inbox() <- timerFired{gen: 42, fn: func() { fired <- struct{}{} }}

	_, err := s.Status(context.Background())
	require.NoError(t, err)
	select {
	case <-fired:
		t.Fatalf("stale timer callback ran")
	default:
	}
}

func TestSession_ShutdownClosesClients(t *testing.T) {
	s := newTestSession(t, nil, "apple")
	out := make(chan any, 8)
	s.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvMsg(t, out, 200*time.Millisecond)

	s.Inbox() <- Shutdown{}
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatalf("session did not stop")
	}
	_, ok := <-out
	assert.False(t, ok)

	_, err := s.Status(context.Background())
	assert.Error(t, err)
}
