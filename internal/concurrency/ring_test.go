// File: internal/concurrency/ring_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"math/rand"
	"testing"
)

func TestRingBufferPropertyBased(t *testing.T) {
	for seed := int64(0); seed < 10; seed++ {
		rng := rand.New(rand.NewSource(seed))
		ring := NewRingBuffer[int](64)

		size := 0
		for i := 0; i < 5000; i++ {
			switch rng.Intn(2) {
			case 0: // enqueue
				if ring.Enqueue(rng.Intn(100000)) {
					size++
				}
			case 1: // dequeue
				if _, ok := ring.Dequeue(); ok {
					size--
				}
			}
			if size != ring.Len() {
				t.Fatalf("seed %d: invariant failed: expected %d, got %d", seed, size, ring.Len())
			}
			if ring.Len() < 0 || ring.Len() > ring.Cap() {
				t.Fatalf("seed %d: ring length out of bounds: %d", seed, ring.Len())
			}
		}
	}
}

func TestRingBufferFullReturnsFalse(t *testing.T) {
	ring := NewRingBuffer[int](4)
	for i := 0; i < 4; i++ {
		if !ring.Enqueue(i) {
			t.Fatalf("unexpected full at i=%d", i)
		}
	}
	if ring.Enqueue(99) {
		t.Fatal("expected Enqueue to report full")
	}
}

func TestNewRingBufferRejectsNonPowerOfTwo(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-power-of-two size")
		}
	}()
	NewRingBuffer[int](3)
}
