// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Lock-free concurrency primitives backing recycler's test and benchmark
// suites: a ring buffer, a bounded SPSC queue, and a small goroutine-pool
// executor with optional CPU pinning via the affinity package.
package concurrency
