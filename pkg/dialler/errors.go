package dialler

import "errors"

// Dialler errors.
var (
	// ErrQueueAborted is returned by RunSequence when a transport failure
	// (connect/write/shutdown) stopped the queue before it drained.
	ErrQueueAborted = errors.New("dialler: queue aborted by transport error")
)
