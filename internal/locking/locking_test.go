package locking

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	locker := NewKeyedMutex()

	var mu sync.Mutex
	active := 0
	maxActive := 0

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), "copay:patient:1")
			assert.NoError(t, err)
			defer release()

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive)
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	locker := NewKeyedMutex()

	releaseA, err := locker.Acquire(context.Background(), "copay:patient:1")
	assert.NoError(t, err)

	// A held lock on one patient must not block another patient.
	done := make(chan struct{})
	go func() {
		releaseB, err := locker.Acquire(context.Background(), "copay:patient:2")
		assert.NoError(t, err)
		releaseB()
		close(done)
	}()
	<-done

	releaseA()

	// Re-acquiring a released key succeeds immediately.
	release, err := locker.Acquire(context.Background(), "copay:patient:1")
	assert.NoError(t, err)
	release()
}
