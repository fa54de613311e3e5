// File: internal/concurrency/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "errors"

// ErrExecutorClosed is returned by Executor.Submit once Close has been
// called. Submit also returns it when a task fits in neither its worker's
// local queue nor the global queue.
var ErrExecutorClosed = errors.New("executor is closed")
