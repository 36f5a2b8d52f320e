package audit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_RejectsBeyondCapacity(t *testing.T) {
	g := NewGate(2)

	s1, ok := g.TryAcquire()
	require.True(t, ok)
	_, ok = g.TryAcquire()
	require.True(t, ok)

	_, ok = g.TryAcquire()
	assert.False(t, ok, "third acquire must be rejected")
	assert.Equal(t, 2, g.InUse())

	s1.Release()
	_, ok = g.TryAcquire()
	assert.True(t, ok, "a released slot can be reused")
}

func TestSlot_DoubleReleaseIsNoop(t *testing.T) {
	g := NewGate(1)
	s, ok := g.TryAcquire()
	require.True(t, ok)

	assert.True(t, s.Release())
	assert.False(t, s.Release())
	assert.Equal(t, 0, g.InUse())
}

func TestSlot_ConcurrentReleaseOnce(t *testing.T) {
	g := NewGate(1)
	s, ok := g.TryAcquire()
	require.True(t, ok)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		released int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Release() {
				mu.Lock()
				released++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, released)
	assert.Equal(t, 0, g.InUse())
}

func TestNewGate_MinimumCapacity(t *testing.T) {
	assert.Equal(t, 1, NewGate(0).Capacity())
	assert.Equal(t, 1, NewGate(-3).Capacity())
	assert.Equal(t, 4, NewGate(4).Capacity())
}
