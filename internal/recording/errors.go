package recording

import "errors"

// Domain-specific errors for recording.
var (
	// ErrAlreadyRecording is returned by Start while a session is active.
	ErrAlreadyRecording = errors.New("recording: already recording")

	// ErrNotRecording is returned by Stop when no session is active.
	ErrNotRecording = errors.New("recording: not recording")
)
