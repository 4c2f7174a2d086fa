package pipeline

import "errors"

// ErrAlreadyInProgress rejects a second concurrent processing request for
// the same upload. The request is refused, never queued.
var ErrAlreadyInProgress = errors.New("processing already in progress for this upload")

// ErrNotChunked rejects a processing request for an upload whose chunks
// have not all been persisted yet.
var ErrNotChunked = errors.New("upload has not been chunked yet")
