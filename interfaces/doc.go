// Package interfaces defines the session-provider boundary between the
// orchestration layer and the wire protocol.
//
// The orchestration layer never frames packets or performs handshakes;
// it consumes a [SessionProvider] that turns a login request into a
// running [Session], and drives every directory query, send, recall,
// and poke through that session. This split allows the same application
// code to run against a production protocol backend or the simulated
// provider in the testing package:
//
//	provider := qqtesting.NewSimulatedProvider()
//	opts := qqcore.NewOptions(provider)
//	handle, err := qqcore.Login(ctx, 12345678, qqcore.Password{Secret: "secret"}, opts)
//
// # Contracts
//
// A [Session] must deliver sequential sends to the same target in call
// order, must return from Run only on disconnect, fatal error, or
// context cancellation, and must report failures by wrapping the
// boundary errors declared in this package ([ErrBadCredentials],
// [ErrTransport], [ErrChallengeAbandoned], [ErrTargetMissing],
// [ErrRecallWindow]) so callers can classify them with errors.Is.
//
// A [SessionProvider] must treat the per-account data directory as the
// home of any cached credential material; the Token field of
// [PasswordRequest] carries a previously issued session token, and a
// provider that supports resumption should prefer it over a full
// handshake.
package interfaces
