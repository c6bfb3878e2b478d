package exchange

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	var km keyedMutex
	var mu sync.Mutex
	events := make([]int, 0, 4)

	release := km.lock("k")
	done := make(chan struct{})
	go func() {
		defer close(done)
		r := km.lock("k")
		mu.Lock()
		events = append(events, 2)
		mu.Unlock()
		r()
	}()

	mu.Lock()
	events = append(events, 1)
	mu.Unlock()
	release()
	<-done

	require.Equal(t, []int{1, 2}, events)
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	var km keyedMutex

	r1 := km.lock("a")
	// A different key must not block.
	r2 := km.lock("b")
	r2()
	r1()
}

func TestKeyedMutexReleasesEntries(t *testing.T) {
	var km keyedMutex

	for i := 0; i < 3; i++ {
		release := km.lock("k")
		release()
	}

	km.mu.Lock()
	defer km.mu.Unlock()
	require.Empty(t, km.entries, "idle keys must not accumulate")
}

func TestKeyedMutexConcurrentCounter(t *testing.T) {
	var km keyedMutex
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := km.lock("counter")
			counter++
			release()
		}()
	}
	wg.Wait()

	require.Equal(t, 64, counter)
}
