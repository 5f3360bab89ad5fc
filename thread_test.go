package thread

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestReturnValuePropagation is scenario 1: create ... join returns the
// exact value passed to exit or returned from start.
func TestReturnValuePropagation(t *testing.T) {
	require.NoError(t, Init(WithCarriers(1)))
	defer Deinit()

	h, err := Create(func(any) any { return 456 }, nil, ManyMany)
	require.NoError(t, err)

	r, err := Join(h)
	require.NoError(t, err)
	require.Equal(t, 456, r)
}

// TestMixedMapping is scenario 2: a OneOne and a ManyMany thread running
// the same body both join successfully with the same value.
func TestMixedMapping(t *testing.T) {
	require.NoError(t, Init(WithCarriers(2)))
	defer Deinit()

	body := func(any) any { return 123 }

	h1, err := Create(body, nil, OneOne)
	require.NoError(t, err)
	h2, err := Create(body, nil, ManyMany)
	require.NoError(t, err)

	r1, err := Join(h1)
	require.NoError(t, err)
	r2, err := Join(h2)
	require.NoError(t, err)

	require.Equal(t, 123, r1)
	require.Equal(t, 123, r2)
}

// TestMutexContention is scenario 3: 3 ManyMany threads each incrementing
// a shared counter 10000 times under a mutex, across 4 carriers.
func TestMutexContention(t *testing.T) {
	require.NoError(t, Init(WithCarriers(4)))
	defer Deinit()

	m := NewMutex()
	counter := 0
	const perThread = 10000
	const threads = 3

	handles := make([]*Thread, threads)
	for i := range handles {
		h, err := Create(func(any) any {
			for j := 0; j < perThread; j++ {
				require.NoError(t, m.Lock())
				counter++
				require.NoError(t, m.Unlock())
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

// TestSelfJoinIsDeadlock is the self-join boundary case of scenario 4.
func TestSelfJoinIsDeadlock(t *testing.T) {
	require.NoError(t, Init(WithCarriers(1)))
	defer Deinit()

	done := make(chan error, 1)
	h, err := Create(func(any) any {
		self, serr := Self()
		require.NoError(t, serr)
		_, jerr := Join(self)
		done <- jerr
		return nil
	}, nil, ManyMany)
	require.NoError(t, err)

	select {
	case jerr := <-done:
		require.ErrorIs(t, jerr, ErrDeadlock)
	case <-time.After(2 * time.Second):
		t.Fatal("self-join did not report deadlock")
	}
	_, _ = Join(h)
}

// TestJoinByThirdPartyWhilePendingJoinerExists is the remaining
// boundary case of scenario 4: join(X) from Z while X already has
// pending joiner Y fails with invalid-argument.
func TestJoinByThirdPartyWhilePendingJoinerExists(t *testing.T) {
	require.NoError(t, Init(WithCarriers(2)))
	defer Deinit()

	release := make(chan struct{})
	target, err := Create(func(any) any {
		<-release
		return nil
	}, nil, ManyMany)
	require.NoError(t, err)

	yJoined := make(chan struct{})
	y, err := Create(func(any) any {
		_, _ = Join(target)
		close(yJoined)
		return nil
	}, nil, ManyMany)
	require.NoError(t, err)

	// Give Y time to register itself as target's joiner before Z tries.
	require.Eventually(t, func() bool {
		return target.joiner.Load() != nil
	}, time.Second, time.Millisecond)

	zErrCh := make(chan error, 1)
	z, err := Create(func(any) any {
		_, jerr := Join(target)
		zErrCh <- jerr
		return nil
	}, nil, ManyMany)
	require.NoError(t, err)

	var zErr error
	select {
	case zErr = <-zErrCh:
	case <-time.After(2 * time.Second):
		t.Fatal("third-party join did not return")
	}
	require.ErrorIs(t, zErr, ErrInvalidArgument)

	close(release)
	<-yJoined
	_, _ = Join(y)
	_, _ = Join(z)
}

// TestSignalTargetingUnderManyMany is scenario 5: killing a looping
// ManyMany thread with a signal whose handler calls Exit eventually lets
// join observe termination, regardless of which carrier ran it.
func TestSignalTargetingUnderManyMany(t *testing.T) {
	require.NoError(t, Init(WithCarriers(4), WithQuantum(2*time.Millisecond)))
	defer Deinit()

	const sig = 10
	require.NoError(t, SetSignalHandler(sig, func(int) {
		Exit(nil)
	}))
	defer SetSignalHandler(sig, nil)

	h, err := Create(func(any) any {
		for {
			if err := Yield(); err != nil {
				return nil
			}
		}
	}, nil, ManyMany)
	require.NoError(t, err)

	require.NoError(t, Kill(h, sig))

	done := make(chan struct{})
	go func() {
		_, _ = Join(h)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("killed thread never terminated")
	}
}

// TestManyManyJoinsOneOne exercises the cross-mapping rendezvous in
// the direction the futex cannot cover: a many-many joiner parks on
// its fiber and must be re-enqueued by the one-one target's exit path.
func TestManyManyJoinsOneOne(t *testing.T) {
	require.NoError(t, Init(WithCarriers(1)))
	defer Deinit()

	release := make(chan struct{})
	target, err := Create(func(any) any {
		<-release
		return 9
	}, nil, OneOne)
	require.NoError(t, err)

	res := make(chan any, 1)
	joiner, err := Create(func(any) any {
		r, jerr := Join(target)
		if jerr != nil {
			res <- jerr
		} else {
			res <- r
		}
		return nil
	}, nil, ManyMany)
	require.NoError(t, err)

	// Wait until the joiner is registered and parked before letting the
	// target exit, so the fiber-wakeup path is the one exercised.
	require.Eventually(t, func() bool {
		return target.joiner.Load() != nil
	}, time.Second, time.Millisecond)
	close(release)

	select {
	case r := <-res:
		require.Equal(t, 9, r)
	case <-time.After(2 * time.Second):
		t.Fatal("many-many joiner never resumed after one-one exit")
	}
	_, _ = Join(joiner)
}

// TestExitValuePropagation covers the explicit Exit path for both
// mappings: the stored value, not the start function's return, is what
// join reports.
func TestExitValuePropagation(t *testing.T) {
	require.NoError(t, Init(WithCarriers(1)))
	defer Deinit()

	for _, tc := range []struct {
		name    string
		mapping Mapping
	}{
		{"one-one", OneOne},
		{"many-many", ManyMany},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h, err := Create(func(any) any {
				Exit(789)
				return 0 // unreachable
			}, nil, tc.mapping)
			require.NoError(t, err)

			r, err := Join(h)
			require.NoError(t, err)
			require.Equal(t, 789, r)
		})
	}
}

// TestPanicSurfacesAsPanicError: a panicking start function must not
// take down the carrier; the panic is reported through join instead.
func TestPanicSurfacesAsPanicError(t *testing.T) {
	require.NoError(t, Init(WithCarriers(1)))
	defer Deinit()

	h, err := Create(func(any) any {
		panic("boom")
	}, nil, ManyMany)
	require.NoError(t, err)

	r, err := Join(h)
	require.NoError(t, err)
	pe, ok := r.(*PanicError)
	require.True(t, ok, "join result %T is not a *PanicError", r)
	require.Equal(t, h.ID(), pe.ThreadID)
	require.Contains(t, pe.Error(), "boom")
}

// TestJoinAfterJoinedIsInvalidArgument: a handle is spent once joined.
func TestJoinAfterJoinedIsInvalidArgument(t *testing.T) {
	require.NoError(t, Init(WithCarriers(1)))
	defer Deinit()

	h, err := Create(func(any) any { return nil }, nil, ManyMany)
	require.NoError(t, err)

	_, err = Join(h)
	require.NoError(t, err)
	_, err = Join(h)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

// TestKillInvalidSignalNumber is a boundary case: kill(T, 32) is
// invalid-argument.
func TestKillInvalidSignalNumber(t *testing.T) {
	require.NoError(t, Init(WithCarriers(1)))
	defer Deinit()

	h, err := Create(func(any) any { return nil }, nil, ManyMany)
	require.NoError(t, err)

	err = Kill(h, 32)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, _ = Join(h)
}

// TestCreateWithNilStartIsInvalidArgument is a boundary case.
func TestCreateWithNilStartIsInvalidArgument(t *testing.T) {
	require.NoError(t, Init(WithCarriers(1)))
	defer Deinit()

	_, err := Create(nil, nil, ManyMany)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

// TestPreemptionStripping is scenario 6: blocking preemption via sigmask
// does not stop a sibling thread from making progress on another
// carrier.
func TestPreemptionStripping(t *testing.T) {
	require.NoError(t, Init(WithCarriers(2), WithQuantum(2*time.Millisecond)))
	defer Deinit()

	var siblingProgress atomic.Int64
	stop := make(chan struct{})

	blocker, err := Create(func(any) any {
		var old SigSet
		set := SigSet(1 << preemptSignal)
		_ = SigMask(SigBlock, &set, &old)
		for {
			select {
			case <-stop:
				return nil
			default:
			}
		}
	}, nil, ManyMany)
	require.NoError(t, err)

	sibling, err := Create(func(any) any {
		for i := 0; i < 5; i++ {
			siblingProgress.Add(1)
			if err := Yield(); err != nil {
				return nil
			}
		}
		return nil
	}, nil, ManyMany)
	require.NoError(t, err)

	_, err = Join(sibling)
	require.NoError(t, err)
	require.Equal(t, int64(5), siblingProgress.Load())

	close(stop)
	_, _ = Join(blocker)
}
