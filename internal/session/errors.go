package session

import "errors"

var (
	// errIllegalMessage is raised when a decoded message's type is not
	// legal for the session's current state.
	errIllegalMessage = errors.New("session: message illegal in current state")

	// errHostileAction is raised when a ResetPuzzle action arrives while
	// server policy forbids it.
	errHostileAction = errors.New("session: forbidden action")
)
