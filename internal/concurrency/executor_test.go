// File: internal/concurrency/executor_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestExecutorSubmitBasic(t *testing.T) {
	ex := NewExecutor(4, -1)
	defer ex.Close()

	var counter int64
	task := func() { atomic.AddInt64(&counter, 1) }

	for i := 0; i < 100; i++ {
		if err := ex.Submit(task); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt64(&counter) < 100 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := atomic.LoadInt64(&counter); got != 100 {
		t.Fatalf("expected 100 completed tasks, got %d", got)
	}
}

func TestExecutorSubmitAfterCloseFails(t *testing.T) {
	ex := NewExecutor(2, -1)
	ex.Close()
	if err := ex.Submit(func() {}); err != ErrExecutorClosed {
		t.Fatalf("expected ErrExecutorClosed, got %v", err)
	}
}
