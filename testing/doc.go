// Package testing provides a simulated session provider for
// deterministic tests and local development without a protocol
// backend.
//
// The simulator implements interfaces.SessionProvider over in-memory
// account fixtures. Tests configure accounts, then exercise the
// orchestration layer exactly as production code would:
//
//	provider := qqtesting.NewSimulatedProvider()
//	provider.AddAccount(&qqtesting.SimulatedAccount{
//	    Uin:    111,
//	    Secret: "secret",
//	    Friends: []interfaces.FriendInfo{
//	        {Uin: 222, Nickname: "alice"},
//	    },
//	})
//
//	opts := qqcore.NewOptions(provider)
//	handle, err := qqcore.Login(ctx, 111, qqcore.Password{Secret: "secret"}, opts)
//
// Knobs cover the failure modes the orchestration layer must classify:
// transport failures, captcha challenges, QR confirmation, session
// drops, short or already-expired recall windows, and paged friend
// directories.
package testing
