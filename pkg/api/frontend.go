package api

import "context"

// Frontend defines the standardized lifecycle interface for the operator-facing
// side of a conversation: where user lines come from and where model output goes.
type Frontend interface {
	ID() string
	Start(ctx context.Context) error
	Stop() error

	// Lines yields one user input line per element. The channel is closed when
	// the operator side ends the conversation (EOF, platform shutdown).
	Lines() <-chan string

	// Send delivers a complete, standalone message (system notices, transcript).
	Send(text string) error

	// Stream delivers one model turn as an ordered sequence of text fragments.
	// The call returns after the fragment channel is closed and everything has
	// been flushed to the operator.
	Stream(fragments <-chan string) error
}

// SignalingFrontend is an optional extension for frontends that react to
// control signals (e.g., "ready" to re-arm an input prompt, "thinking" to
// show a progress hint). Frontends without signal support are skipped.
type SignalingFrontend interface {
	Frontend
	Signal(signal string) error
}
