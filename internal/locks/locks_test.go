package locks

import (
	"sync"
	"testing"
)

func TestKeyedMutualExclusion(t *testing.T) {
	k := NewKeyed()

	const goroutines = 50
	const increments = 100
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < increments; j++ {
				k.Lock(1)
				counter++
				k.Unlock(1)
			}
		}()
	}
	wg.Wait()

	if counter != goroutines*increments {
		t.Errorf("expected %d increments, got %d", goroutines*increments, counter)
	}
}

func TestKeyedIndependentKeys(t *testing.T) {
	k := NewKeyed()

	// Holding one key must not block another.
	k.Lock(1)
	done := make(chan struct{})
	go func() {
		k.Lock(2)
		k.Unlock(2)
		close(done)
	}()
	<-done
	k.Unlock(1)
}

func TestKeyedReuse(t *testing.T) {
	k := NewKeyed()

	k.Lock(9)
	k.Unlock(9)
	k.Lock(9)
	k.Unlock(9)
}
