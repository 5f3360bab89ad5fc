package thread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMutexRecursiveLockTolerance(t *testing.T) {
	require.NoError(t, Init(WithCarriers(1)))
	defer Deinit()

	m := NewMutex()
	done := make(chan error, 1)
	h, err := Create(func(any) any {
		if err := m.Lock(); err != nil {
			done <- err
			return nil
		}
		// Relocking from the current owner must not deadlock.
		err := m.Lock()
		done <- err
		_ = m.Unlock()
		_ = m.Unlock()
		return nil
	}, nil, ManyMany)
	require.NoError(t, err)

	select {
	case relockErr := <-done:
		require.NoError(t, relockErr)
	case <-time.After(2 * time.Second):
		t.Fatal("recursive lock deadlocked")
	}
	_, _ = Join(h)
}

func TestMutexTryLockReportsBusyWithoutBlocking(t *testing.T) {
	require.NoError(t, Init(WithCarriers(2)))
	defer Deinit()

	m := NewMutex()
	holderReady := make(chan struct{})
	release := make(chan struct{})

	holder, err := Create(func(any) any {
		require.NoError(t, m.Lock())
		close(holderReady)
		<-release
		require.NoError(t, m.Unlock())
		return nil
	}, nil, ManyMany)
	require.NoError(t, err)

	<-holderReady

	contender, err := Create(func(any) any {
		ok, lerr := m.TryLock()
		return [2]any{ok, lerr}
	}, nil, OneOne)
	require.NoError(t, err)

	r, err := Join(contender)
	require.NoError(t, err)
	result := r.([2]any)
	require.False(t, result[0].(bool))
	require.Nil(t, result[1])

	close(release)
	_, _ = Join(holder)
}

func TestMutexUnlockByNonOwnerIsInvalidArgument(t *testing.T) {
	require.NoError(t, Init(WithCarriers(1)))
	defer Deinit()

	m := NewMutex()
	h, err := Create(func(any) any {
		return m.Unlock()
	}, nil, ManyMany)
	require.NoError(t, err)

	r, err := Join(h)
	require.NoError(t, err)
	require.ErrorIs(t, r.(error), ErrInvalidArgument)
}

func TestMutexDestroyBusyWhileHeld(t *testing.T) {
	require.NoError(t, Init(WithCarriers(1)))
	defer Deinit()

	m := NewMutex()
	locked := make(chan struct{})
	release := make(chan struct{})
	h, err := Create(func(any) any {
		require.NoError(t, m.Lock())
		close(locked)
		<-release
		_ = m.Unlock()
		return nil
	}, nil, ManyMany)
	require.NoError(t, err)

	<-locked
	require.ErrorIs(t, m.Destroy(), ErrBusy)

	close(release)
	_, _ = Join(h)
	require.NoError(t, m.Destroy())
}

func TestSpinLockBasicMutualExclusion(t *testing.T) {
	require.NoError(t, Init(WithCarriers(4)))
	defer Deinit()

	s := NewSpinLock()
	counter := 0
	const perThread = 2000
	const threads = 3

	handles := make([]*Thread, threads)
	for i := range handles {
		h, err := Create(func(any) any {
			for j := 0; j < perThread; j++ {
				require.NoError(t, s.Lock())
				counter++
				require.NoError(t, s.Unlock())
			}
			return nil
		}, nil, ManyMany)
		require.NoError(t, err)
		handles[i] = h
	}
	for _, h := range handles {
		_, err := Join(h)
		require.NoError(t, err)
	}
	require.Equal(t, threads*perThread, counter)
}

func TestSpinLockUnlockByNonOwnerIsSilentNoOp(t *testing.T) {
	require.NoError(t, Init(WithCarriers(1)))
	defer Deinit()

	s := NewSpinLock()
	h, err := Create(func(any) any {
		return s.Unlock()
	}, nil, ManyMany)
	require.NoError(t, err)

	r, err := Join(h)
	require.NoError(t, err)
	require.Nil(t, r)
}
