package domain

import "errors"

var (
	// ErrNotFound indicates that no draft record matches the given id.
	ErrNotFound = errors.New("draft record not found")
	// ErrAlreadyFinalized indicates a transition was attempted on a record
	// that already left the pending state.
	ErrAlreadyFinalized = errors.New("draft record already finalized")
	// ErrInvalidOriginal indicates the original message cannot be replied to,
	// typically because it lacks a From header.
	ErrInvalidOriginal = errors.New("original message lacks addressing headers")
	// ErrEditTextRequired indicates a sent_with_edit transition was requested
	// without the replacement reply text.
	ErrEditTextRequired = errors.New("edited reply text is required for sent_with_edit")
	// ErrInvalidStatus indicates a transition to a non-terminal status.
	ErrInvalidStatus = errors.New("transition target must be a terminal status")
)
