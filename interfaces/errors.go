package interfaces

import "errors"

// Boundary errors a SessionProvider or Session reports. The root
// package maps them onto its public taxonomy; providers should wrap
// these with fmt.Errorf("...: %w", ...) to add detail.
var (
	// ErrBadCredentials means the server rejected the supplied secret
	// or token.
	ErrBadCredentials = errors.New("bad credentials")

	// ErrTransport means the underlying connection failed.
	ErrTransport = errors.New("transport failure")

	// ErrChallengeAbandoned means an interactive challenge was not
	// resolved before the provider gave up.
	ErrChallengeAbandoned = errors.New("challenge abandoned")

	// ErrTargetMissing means the addressed entity does not exist.
	ErrTargetMissing = errors.New("target does not exist")

	// ErrRecallWindow means the protocol's recall time limit has
	// passed for the referenced message.
	ErrRecallWindow = errors.New("recall window passed")
)
