package queue

import "errors"

var (
	// ErrJobNotFound is returned when a job id does not exist
	ErrJobNotFound = errors.New("job not found")

	// ErrNoPendingJobs is returned by ClaimNext when the queue holds no
	// claimable work right now
	ErrNoPendingJobs = errors.New("no pending jobs")

	// ErrInvalidTransition is returned when an operation finds the job in a
	// status it cannot legally leave from (completing a job that is not
	// processing, failing an already-failed job). It indicates either a
	// caller bug or a lost race with the stuck-job sweep, and is never
	// silently swallowed.
	ErrInvalidTransition = errors.New("invalid status transition")
)
