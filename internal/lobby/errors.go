package lobby

import "errors"

var (
	// ErrAlreadyHostingOrPlaying is returned by Create and Join when the
	// calling session already owns an OpenMatch or a RunningMatch: a
	// session is never both at once, and never two of either.
	ErrAlreadyHostingOrPlaying = errors.New("lobby: session already hosting or playing")

	// ErrVariantNotAllowed is returned by Create when the configured
	// allow-list is non-empty and excludes the requested variant.
	ErrVariantNotAllowed = errors.New("lobby: variant not allowed")

	// ErrPublicFull is returned by Create when open_public is already at
	// its 13-slot cap and the request is for a public match.
	ErrPublicFull = errors.New("lobby: public match list is full")

	// ErrVisibilityBanned is returned by Create when the configured
	// policy disables the requested visibility outright.
	ErrVisibilityBanned = errors.New("lobby: match visibility disabled by policy")

	// ErrMatchNotFound is returned by Join when no open match carries the
	// given passcode, or when it is the caller's own open match.
	ErrMatchNotFound = errors.New("lobby: match not found")

	// ErrNotRunning is returned by StampAction and Forfeit when the
	// given match id (or session) is not a running participant.
	ErrNotRunning = errors.New("lobby: not a running match participant")

	// ErrCapacity is returned by Join when a process-wide running-match
	// cap is configured and already reached.
	ErrCapacity = errors.New("lobby: running match capacity reached")
)
