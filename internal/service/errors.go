package service

import "errors"

// Domain errors. All are recoverable, caller-facing failures: the service
// layer never retries internally, it returns one of these for the transport
// layer to map onto a response code.
var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAccessDenied is returned when no active assignment window permits
	// starting the exam, or an attempt is already in progress for the pair.
	ErrAccessDenied = errors.New("access denied: no active assignment window")
	// ErrSessionClosed is returned when the attempt deadline has passed or
	// the attempt is already finalized.
	ErrSessionClosed = errors.New("session closed: deadline passed or attempt finalized")
	// ErrInvalidWindow is returned when a window's start is not before its end.
	ErrInvalidWindow = errors.New("invalid window: start must be before end")
	// ErrOverlapConflict is returned when a window overlaps an existing
	// non-completed window for the same user and exam.
	ErrOverlapConflict = errors.New("window overlaps an existing assignment for this user and exam")
	// ErrAlreadyInProgress is returned when editing or deleting a window an
	// attempt currently references.
	ErrAlreadyInProgress = errors.New("an attempt is in progress for this assignment")
	// ErrAttemptExists is returned by stores when a concurrent start already
	// created an in-progress attempt for the same user and exam.
	ErrAttemptExists = errors.New("attempt already exists for this user and exam")
	// ErrInvalidCredentials is returned on login or password-change failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotOwner is returned when an admin touches an exam they did not create.
	ErrNotOwner = errors.New("not the creator of this exam")
	// ErrConflict is returned when a unique field (username, email) is taken.
	ErrConflict = errors.New("resource already exists")
)
