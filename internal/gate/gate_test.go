package gate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Upsert(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockStore) Remove(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockStore) Exists(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func TestGate_Check(t *testing.T) {
	s := new(mockStore)
	s.On("Exists", mock.Anything, "valid").Return(true, nil)
	s.On("Exists", mock.Anything, "unknown").Return(false, nil)
	s.On("Exists", mock.Anything, "broken").Return(false, errors.New("connection refused"))

	g := New(s, false)
	ctx := context.Background()

	assert.NoError(t, g.Check(ctx, "valid"))
	assert.ErrorIs(t, g.Check(ctx, "unknown"), ErrUserNotFound)

	err := g.Check(ctx, "broken")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrUserNotFound)

	assert.ErrorIs(t, g.Check(ctx, ""), ErrUserNotFound)
	s.AssertNotCalled(t, "Exists", mock.Anything, "")
}

func TestGate_IsAuthorValidFailsClosed(t *testing.T) {
	s := new(mockStore)
	s.On("Exists", mock.Anything, "valid").Return(true, nil)
	s.On("Exists", mock.Anything, "broken").Return(true, errors.New("timeout"))

	g := New(s, true)
	assert.True(t, g.IsAuthorValid(context.Background(), "valid"))
	assert.False(t, g.IsAuthorValid(context.Background(), "broken"))
}

// slowStore blocks Exists until released so concurrent callers overlap.
type slowStore struct {
	mockStore
	calls   atomic.Int32
	release chan struct{}
}

func (s *slowStore) Exists(ctx context.Context, userID string) (bool, error) {
	s.calls.Add(1)
	<-s.release
	return true, nil
}

func TestGate_CoalescesConcurrentLookups(t *testing.T) {
	s := &slowStore{release: make(chan struct{})}
	g := New(s, true)

	const callers = 10
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- g.Check(context.Background(), "u1")
		}()
	}

	require.Eventually(t, func() bool { return s.calls.Load() >= 1 }, time.Second, time.Millisecond)
	// Give the other callers time to join the in-flight lookup.
	time.Sleep(20 * time.Millisecond)
	close(s.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Less(t, s.calls.Load(), int32(callers))
}

func TestGate_DoesNotCacheResults(t *testing.T) {
	s := new(mockStore)
	s.On("Exists", mock.Anything, "u1").Return(true, nil).Once()
	s.On("Exists", mock.Anything, "u1").Return(false, nil).Once()

	g := New(s, true)
	assert.NoError(t, g.Check(context.Background(), "u1"))
	assert.ErrorIs(t, g.Check(context.Background(), "u1"), ErrUserNotFound)
	s.AssertNumberOfCalls(t, "Exists", 2)
}

// ctxStore blocks like slowStore but gives up when its context ends.
type ctxStore struct {
	mockStore
	calls   atomic.Int32
	release chan struct{}
}

func (s *ctxStore) Exists(ctx context.Context, userID string) (bool, error) {
	s.calls.Add(1)
	select {
	case <-s.release:
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func TestGate_CancelledCallerDoesNotFailCoalescedCallers(t *testing.T) {
	s := &ctxStore{release: make(chan struct{})}
	g := New(s, true)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() { firstErr <- g.Check(firstCtx, "u1") }()
	require.Eventually(t, func() bool { return s.calls.Load() == 1 }, time.Second, time.Millisecond)

	secondErr := make(chan error, 1)
	go func() { secondErr <- g.Check(context.Background(), "u1") }()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(s.release)
	select {
	case err := <-secondErr:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("coalesced caller did not return")
	}
	assert.Equal(t, int32(1), s.calls.Load())
}
