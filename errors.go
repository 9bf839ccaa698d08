package qqcore

import (
	"errors"
	"fmt"

	"github.com/opd-ai/qqcore/interfaces"
)

// The public error taxonomy. All failures surfaced by this package
// wrap one of these sentinels; classify with errors.Is.
var (
	// ErrAuthentication means the server rejected the credentials.
	ErrAuthentication = errors.New("qqcore: authentication failed")

	// ErrNetwork means the transport failed during an operation.
	ErrNetwork = errors.New("qqcore: network failure")

	// ErrChallengeTimeout means an interactive login challenge was not
	// resolved within Options.ChallengeTimeout.
	ErrChallengeTimeout = errors.New("qqcore: login challenge timed out")

	// ErrNotConnected means the operation's session has ended.
	ErrNotConnected = errors.New("qqcore: account not connected")

	// ErrNotFound means a selector resolved to a nonexistent entity.
	ErrNotFound = errors.New("qqcore: target not found")

	// ErrAlreadyRecalled means Recall was invoked a second time.
	ErrAlreadyRecalled = errors.New("qqcore: message already recalled")

	// ErrRecallWindowExpired means the protocol's recall time limit
	// has passed.
	ErrRecallWindowExpired = errors.New("qqcore: recall window expired")

	// ErrConfiguration means an unsupported capability or invalid
	// parameter was requested.
	ErrConfiguration = errors.New("qqcore: unsupported configuration")

	// ErrAccountBusy means a session handle already exists for the
	// account.
	ErrAccountBusy = errors.New("qqcore: account already logged in")
)

// mapLoginError classifies a provider handshake failure into the
// login-time taxonomy.
func mapLoginError(err error) error {
	switch {
	case errors.Is(err, interfaces.ErrBadCredentials):
		return fmt.Errorf("%w: %v", ErrAuthentication, err)
	case errors.Is(err, interfaces.ErrChallengeAbandoned):
		return fmt.Errorf("%w: %v", ErrChallengeTimeout, err)
	case errors.Is(err, interfaces.ErrTransport):
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	default:
		return err
	}
}

// mapActionError classifies a per-call session failure.
func mapActionError(err error) error {
	switch {
	case errors.Is(err, interfaces.ErrTargetMissing):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, interfaces.ErrRecallWindow):
		return fmt.Errorf("%w: %v", ErrRecallWindowExpired, err)
	case errors.Is(err, interfaces.ErrTransport):
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	default:
		return err
	}
}
