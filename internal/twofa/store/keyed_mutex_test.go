package store_test

import (
	"sync"
	"testing"

	"github.com/aussiebroadwan/twofa/internal/twofa/store"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	var km store.KeyedMutex
	var wg sync.WaitGroup
	counter := 0

	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("alice")
			defer unlock()
			v := counter
			v++
			counter = v
		}()
	}
	wg.Wait()

	require.Equal(t, 100, counter)
	require.Zero(t, km.Len(), "idle keys are released")
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	var km store.KeyedMutex
	unlockA := km.Lock("alice")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := km.Lock("bob")
		unlock()
		close(done)
	}()
	<-done
	require.Equal(t, 1, km.Len())
}
