package refilltimer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type recordingCompleter struct {
	mu  sync.Mutex
	ids []uint
	err error
}

func (r *recordingCompleter) CompleteRefill(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	return r.err
}

type published struct {
	room  string
	event string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (r *recordingPublisher) Publish(room, event string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{room: room, event: event})
}

type staticRemote struct {
	remaining time.Duration
	err       error
}

func (s staticRemote) RemainingFor(context.Context, string) (time.Duration, error) {
	return s.remaining, s.err
}

type fixture struct {
	clock     *fakeClock
	store     *MemoryStore
	completer *recordingCompleter
	publisher *recordingPublisher
	coord     *Coordinator
}

func newFixture(remote RemoteSource) *fixture {
	f := &fixture{
		clock:     &fakeClock{now: time.Date(2025, 11, 5, 18, 30, 0, 0, time.UTC)},
		store:     NewMemoryStore(),
		completer: &recordingCompleter{},
		publisher: &recordingPublisher{},
	}
	f.coord = NewCoordinator(f.store, f.completer, remote, f.publisher, Options{
		ExpiryDelay: time.Second,
		Now:         f.clock.Now,
		AfterFunc:   func(_ time.Duration, fn func()) { fn() },
	})
	return f
}

func intPtr(v int) *int { return &v }

func TestBeginWithMinutes(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	snap, err := f.coord.Begin(ctx, "T01", intPtr(30))
	require.NoError(t, err)
	assert.Equal(t, StatusOngoing, snap.Status)
	assert.Equal(t, "00:30:00", snap.Display)
	assert.Equal(t, int64(1800), snap.RemainingSeconds)
	assert.Equal(t, SourceLocal, snap.Source)
	assert.False(t, snap.Resumed)
}

func TestBeginDurationSelection(t *testing.T) {
	ctx := context.Background()

	t.Run("default two hours", func(t *testing.T) {
		f := newFixture(nil)
		snap, err := f.coord.Begin(ctx, "T01", nil)
		require.NoError(t, err)
		assert.Equal(t, "02:00:00", snap.Display)
	})

	t.Run("minimum one minute", func(t *testing.T) {
		f := newFixture(nil)
		snap, err := f.coord.Begin(ctx, "T01", intPtr(0))
		require.NoError(t, err)
		assert.Equal(t, int64(60), snap.DurationSeconds)
	})

	t.Run("configured duration", func(t *testing.T) {
		f := newFixture(nil)
		require.NoError(t, f.coord.Configure(ctx, "T01", 45*time.Minute))
		snap, err := f.coord.Begin(ctx, "T01", nil)
		require.NoError(t, err)
		assert.Equal(t, "00:45:00", snap.Display)
	})
}

func TestTickExpiresExactlyOnce(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	_, err := f.coord.Begin(ctx, "T01", intPtr(30))
	require.NoError(t, err)
	require.NoError(t, f.coord.RecordRefill(ctx, "T01", 42))

	f.clock.Advance(10*time.Minute + 500*time.Millisecond)
	snap, err := f.coord.Tick(ctx, "T01")
	require.NoError(t, err)
	assert.Equal(t, "00:19:59", snap.Display)
	require.NotNil(t, snap.LastRefillID)
	assert.Equal(t, uint(42), *snap.LastRefillID)

	f.clock.Advance(21 * time.Minute)
	snap, err = f.coord.Tick(ctx, "T01")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, "00:00:00", snap.Display)

	snap, err = f.coord.Tick(ctx, "T01")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, snap.Status)

	assert.Equal(t, []uint{42}, f.completer.ids)
	assert.Equal(t, []published{
		{room: "admin", event: "refill-timer-expired"},
		{room: "pos", event: "refill-timer-expired"},
	}, f.publisher.events)

	_, found, err := f.store.Deadline(ctx, "T01")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExpiryWithoutRefillSkipsCompletion(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	_, err := f.coord.Begin(ctx, "T02", intPtr(1))
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)
	snap, err := f.coord.Tick(ctx, "T02")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Empty(t, f.completer.ids)
	assert.Len(t, f.publisher.events, 2)
}

func TestCompleterFailureStillClearsState(t *testing.T) {
	f := newFixture(nil)
	f.completer.err = errors.New("already completed")
	ctx := context.Background()

	_, err := f.coord.Begin(ctx, "T03", intPtr(1))
	require.NoError(t, err)
	require.NoError(t, f.coord.RecordRefill(ctx, "T03", 7))

	f.clock.Advance(time.Minute)
	_, err = f.coord.Tick(ctx, "T03")
	require.NoError(t, err)

	codes, err := f.store.TableCodes(ctx)
	require.NoError(t, err)
	assert.Empty(t, codes)
	assert.Len(t, f.publisher.events, 2)
}

func TestBeginResumesRunningDeadline(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	first, err := f.coord.Begin(ctx, "T01", intPtr(30))
	require.NoError(t, err)

	f.clock.Advance(5 * time.Minute)
	second, err := f.coord.Begin(ctx, "T01", intPtr(90))
	require.NoError(t, err)
	assert.True(t, second.Resumed)
	assert.Equal(t, first.DeadlineMs, second.DeadlineMs)
	assert.Equal(t, "00:25:00", second.Display)
}

func TestBeginReplacesPastDeadline(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	past := Deadline{At: f.clock.Now().Add(-time.Minute), Duration: time.Hour}
	require.NoError(t, f.store.SetDeadline(ctx, "T01", past))

	snap, err := f.coord.Begin(ctx, "T01", intPtr(10))
	require.NoError(t, err)
	assert.False(t, snap.Resumed)
	assert.Equal(t, "00:10:00", snap.Display)
}

func TestRemoteRemainingOverridesLocal(t *testing.T) {
	f := newFixture(staticRemote{remaining: 15 * time.Minute})
	ctx := context.Background()

	snap, err := f.coord.Begin(ctx, "T01", intPtr(30))
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, snap.Source)
	assert.Equal(t, "00:15:00", snap.Display)

	stored, found, err := f.store.Deadline(ctx, "T01")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, f.clock.Now().Add(15*time.Minute), stored.At)
}

func TestRemoteFailureFallsBackToLocal(t *testing.T) {
	f := newFixture(staticRemote{err: errors.New("connection refused")})

	snap, err := f.coord.Begin(context.Background(), "T01", intPtr(30))
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, snap.Source)
	assert.Equal(t, "00:30:00", snap.Display)
}

func TestTickWithoutCountdown(t *testing.T) {
	f := newFixture(nil)
	_, err := f.coord.Tick(context.Background(), "T09")
	assert.ErrorIs(t, err, ErrNoCountdown)
}

func TestResumeProcessesOverdueCountdowns(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	now := f.clock.Now()
	require.NoError(t, f.store.SetDeadline(ctx, "T01", Deadline{At: now.Add(-time.Second), Duration: time.Hour}))
	require.NoError(t, f.store.SetLastRefillID(ctx, "T01", 3))
	require.NoError(t, f.store.SetDeadline(ctx, "T02", Deadline{At: now.Add(time.Hour), Duration: time.Hour}))

	require.NoError(t, f.coord.Resume(ctx))

	assert.Equal(t, []uint{3}, f.completer.ids)
	codes, err := f.store.TableCodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"T02"}, codes)
}

func TestResetKeepsConfiguredDuration(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	require.NoError(t, f.coord.Configure(ctx, "T01", 20*time.Minute))
	_, err := f.coord.Begin(ctx, "T01", nil)
	require.NoError(t, err)
	require.NoError(t, f.coord.Reset(ctx, "T01"))

	_, err = f.coord.Tick(ctx, "T01")
	assert.ErrorIs(t, err, ErrNoCountdown)

	d, ok, err := f.store.ConfiguredDuration(ctx, "T01")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 20*time.Minute, d)
	assert.Empty(t, f.completer.ids)
}

func TestWatchExpiresInBackground(t *testing.T) {
	store := NewMemoryStore()
	completer := &recordingCompleter{}
	publisher := &recordingPublisher{}
	coord := NewCoordinator(store, completer, nil, publisher, Options{
		TickInterval: 10 * time.Millisecond,
		AfterFunc:    func(_ time.Duration, fn func()) { fn() },
	})
	defer coord.Stop()

	ctx := context.Background()
	require.NoError(t, store.SetDeadline(ctx, "T05", Deadline{At: time.Now().Add(50 * time.Millisecond), Duration: time.Minute}))
	require.NoError(t, store.SetLastRefillID(ctx, "T05", 11))

	coord.Watch("T05")

	assert.Eventually(t, func() bool {
		completer.mu.Lock()
		defer completer.mu.Unlock()
		return len(completer.ids) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestActiveSkipsFinishedCountdowns(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	_, err := f.coord.Begin(ctx, "T01", intPtr(10))
	require.NoError(t, err)
	_, err = f.coord.Begin(ctx, "T02", intPtr(60))
	require.NoError(t, err)

	f.clock.Advance(15 * time.Minute)
	active, err := f.coord.Active(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "T02", active[0].TableCode)
	assert.Equal(t, "00:45:00", active[0].Display)

	// Active hanya membaca, ekspirasi tetap menunggu Tick
	assert.Empty(t, f.completer.ids)
	assert.Empty(t, f.publisher.events)
}

// pausingStore menahan satu pembacaan Deadline sampai release ditutup
type pausingStore struct {
	*MemoryStore
	mu      sync.Mutex
	armed   bool
	read    chan struct{}
	release chan struct{}
}

func (p *pausingStore) Deadline(ctx context.Context, code string) (Deadline, bool, error) {
	d, ok, err := p.MemoryStore.Deadline(ctx, code)
	p.mu.Lock()
	hold := p.armed
	p.armed = false
	p.mu.Unlock()
	if hold {
		close(p.read)
		<-p.release
	}
	return d, ok, err
}

func TestStaleTickDoesNotExpireNewCountdown(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 11, 5, 18, 30, 0, 0, time.UTC)}
	store := &pausingStore{MemoryStore: NewMemoryStore(), read: make(chan struct{}), release: make(chan struct{})}
	completer := &recordingCompleter{}
	publisher := &recordingPublisher{}
	coord := NewCoordinator(store, completer, nil, publisher, Options{
		Now:       clock.Now,
		AfterFunc: func(_ time.Duration, fn func()) { fn() },
	})

	_, err := coord.Begin(ctx, "T01", intPtr(1))
	require.NoError(t, err)
	require.NoError(t, coord.RecordRefill(ctx, "T01", 7))
	clock.Advance(2 * time.Minute)

	store.mu.Lock()
	store.armed = true
	store.mu.Unlock()

	staleDone := make(chan Snapshot)
	go func() {
		snap, err := coord.Tick(ctx, "T01")
		assert.NoError(t, err)
		staleDone <- snap
	}()
	<-store.read

	snap, err := coord.Tick(ctx, "T01")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, snap.Status)

	fresh, err := coord.Begin(ctx, "T01", intPtr(30))
	require.NoError(t, err)
	assert.Equal(t, "00:30:00", fresh.Display)

	close(store.release)
	stale := <-staleDone
	assert.Equal(t, StatusCompleted, stale.Status)

	d, found, err := store.MemoryStore.Deadline(ctx, "T01")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, fresh.DeadlineMs, d.At.UnixMilli())

	assert.Equal(t, []uint{7}, completer.ids)
	assert.Len(t, publisher.events, 2)

	snap, err = coord.Tick(ctx, "T01")
	require.NoError(t, err)
	assert.Equal(t, StatusOngoing, snap.Status)
	assert.Equal(t, "00:30:00", snap.Display)
}

func TestExpiryCleanupKeepsReplacedDeadline(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	at := f.clock.Now().Add(time.Minute)
	require.NoError(t, f.store.SetDeadline(ctx, "T01", Deadline{At: at, Duration: time.Minute}))

	cleared, err := f.store.ClearDeadline(ctx, "T01", at.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, cleared)
	_, found, _ := f.store.Deadline(ctx, "T01")
	assert.True(t, found)

	cleared, err = f.store.ClearDeadline(ctx, "T01", at)
	require.NoError(t, err)
	assert.True(t, cleared)
	_, found, _ = f.store.Deadline(ctx, "T01")
	assert.False(t, found)
}
