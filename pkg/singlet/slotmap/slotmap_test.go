package slotmap

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryClaimFirstCallerWins(t *testing.T) {
	m := New[string, int]()

	s1, claimed1 := m.TryClaim("a")
	require.True(t, claimed1)
	require.NotNil(t, s1)

	s2, claimed2 := m.TryClaim("a")
	assert.False(t, claimed2)
	assert.Same(t, s1, s2, "losers must receive the winner's slot")
}

func TestTryClaimConcurrentExactlyOneWinner(t *testing.T) {
	m := New[string, int]()

	const goroutines = 50
	var winners atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, claimed := m.TryClaim("key"); claimed {
				winners.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
	assert.Equal(t, 1, m.Len())
}

func TestResolveReleasesWaiters(t *testing.T) {
	m := New[string, int]()
	s, claimed := m.TryClaim("a")
	require.True(t, claimed)

	done := make(chan int)
	go func() {
		<-s.Done()
		v, err := s.Result()
		assert.NoError(t, err)
		done <- v
	}()

	m.Resolve("a", s, 42)
	assert.Equal(t, 42, <-done)

	got, ok := m.Get("a")
	require.True(t, ok)
	v, err := got.Result()
	assert.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestFailRemovesSlotBeforeRelease(t *testing.T) {
	m := New[string, int]()
	s, claimed := m.TryClaim("a")
	require.True(t, claimed)

	m.Fail("a", s, assert.AnError)

	// Waiters holding the slot still observe the error.
	<-s.Done()
	_, err := s.Result()
	assert.ErrorIs(t, err, assert.AnError)

	// The key is gone: a retry claims a fresh slot.
	_, ok := m.Get("a")
	assert.False(t, ok)
	s2, claimed2 := m.TryClaim("a")
	assert.True(t, claimed2)
	assert.NotSame(t, s, s2)
}

func TestResolvePanicsOnForeignSlot(t *testing.T) {
	m := New[string, int]()
	s, _ := m.TryClaim("a")
	m.Resolve("a", s, 1)

	other, _ := m.TryClaim("b")
	assert.Panics(t, func() { m.Resolve("a", other, 2) })
}

func TestResolvePanicsOnDoubleResolve(t *testing.T) {
	m := New[string, int]()
	s, _ := m.TryClaim("a")
	m.Resolve("a", s, 1)
	assert.Panics(t, func() { m.Resolve("a", s, 2) })
}

func TestRemove(t *testing.T) {
	m := New[string, int]()
	s, _ := m.TryClaim("a")
	m.Resolve("a", s, 1)

	assert.True(t, m.Remove("a"))
	assert.False(t, m.Remove("a"))
	assert.Equal(t, 0, m.Len())
}

func TestClear(t *testing.T) {
	m := New[string, int]()
	for _, k := range []string{"a", "b", "c"} {
		s, _ := m.TryClaim(k)
		m.Resolve(k, s, 1)
	}

	assert.Equal(t, 3, m.Clear())
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, m.Clear())
}

func TestKeys(t *testing.T) {
	m := New[string, int]()
	s, _ := m.TryClaim("a")
	m.Resolve("a", s, 1)
	s, _ = m.TryClaim("b")
	m.Resolve("b", s, 2)

	assert.ElementsMatch(t, []string{"a", "b"}, m.Keys())
}

func TestDependeeLink(t *testing.T) {
	m := New[string, int]()
	a, _ := m.TryClaim("a")
	b, _ := m.TryClaim("b")

	assert.Nil(t, a.Dependee())
	a.SetDependee(b)
	assert.Same(t, b, a.Dependee())
	a.ClearDependee()
	assert.Nil(t, a.Dependee())
}

func TestWaiterCount(t *testing.T) {
	m := New[string, int]()
	s, _ := m.TryClaim("a")

	assert.Equal(t, 0, s.Waiters())
	s.AddWaiter()
	s.AddWaiter()
	assert.Equal(t, 2, s.Waiters())
}
