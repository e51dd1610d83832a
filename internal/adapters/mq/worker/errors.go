package worker

import (
	"errors"
	"fmt"

	"github.com/okian/lobbyrisk/internal/domain/lobby"
)

// Sentinel kinds for worker errors.
var (
	// ErrStopped is returned by Submit once the pool no longer accepts tasks.
	ErrStopped = fmt.Errorf("worker pool stopped: %w", lobby.ErrUnavailable)
	// ErrTaskPanic wraps a panic recovered from a task.
	ErrTaskPanic = errors.New("task panicked")
)
