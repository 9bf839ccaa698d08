package qqcore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/qqcore"
	qqtesting "github.com/opd-ai/qqcore/testing"
)

// waitStage polls until the service reaches want or the deadline hits.
func waitStage(t *testing.T, svc *qqcore.Service, want qqcore.Stage) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if svc.Stage() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("service never reached stage %v, still %v", want, svc.Stage())
}

func passwordAccounts(uins ...int64) []qqcore.AccountLogin {
	out := make([]qqcore.AccountLogin, 0, len(uins))
	for _, uin := range uins {
		out = append(out, qqcore.AccountLogin{Uin: uin, Method: qqcore.Password{Secret: "secret"}})
	}
	return out
}

func TestServiceRunAndShutdown(t *testing.T) {
	provider := qqtesting.NewSimulatedProvider()
	provider.AddAccount(&qqtesting.SimulatedAccount{Uin: 5001, Secret: "secret"})
	provider.AddAccount(&qqtesting.SimulatedAccount{Uin: 5002, Secret: "secret"})
	opts := testOpts(t, provider)

	svc := qqcore.NewService(passwordAccounts(5001, 5002), opts)
	assert.Equal(t, qqcore.StageIdle, svc.Stage())

	done := make(chan error, 1)
	go func() { done <- svc.Run(context.Background()) }()

	waitStage(t, svc, qqcore.StageBlocking)

	// Logins happen sequentially in declaration order.
	assert.Equal(t, []int64{5001, 5002}, provider.Attempts())
	assert.True(t, provider.Session(5001).Online())
	assert.True(t, provider.Session(5002).Online())

	svc.Shutdown()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
	assert.Equal(t, qqcore.StageStopped, svc.Stage())

	// Teardown closed every handle.
	assert.False(t, provider.Session(5001).Online())
	assert.False(t, provider.Session(5002).Online())
}

func TestServicePreparingAbortsOnFirstFailure(t *testing.T) {
	provider := qqtesting.NewSimulatedProvider()
	provider.AddAccount(&qqtesting.SimulatedAccount{Uin: 5003, Secret: "secret"})
	// 5004 is unknown to the provider; 5005 is valid but must never be
	// attempted.
	provider.AddAccount(&qqtesting.SimulatedAccount{Uin: 5005, Secret: "secret"})
	opts := testOpts(t, provider)

	svc := qqcore.NewService(passwordAccounts(5003, 5004, 5005), opts)
	err := svc.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, qqcore.ErrAuthentication)
	assert.Contains(t, err.Error(), "5004")

	assert.Equal(t, []int64{5003, 5004}, provider.Attempts())
	assert.Equal(t, qqcore.StageStopped, svc.Stage())

	// No rollback: the account that logged in before the failure stays
	// connected; its teardown is the caller's.
	assert.True(t, provider.Session(5003).Online())

	raw, err := svc.Interface(qqcore.InterfaceAPI)
	require.NoError(t, err)
	for _, h := range raw.(*qqcore.API).Handles() {
		h.Close()
	}
	assert.False(t, provider.Session(5003).Online())
}

func TestServiceBlockingSurvivesAllSessionsEnding(t *testing.T) {
	provider := qqtesting.NewSimulatedProvider()
	provider.AddAccount(&qqtesting.SimulatedAccount{Uin: 5006, Secret: "secret"})
	provider.AddAccount(&qqtesting.SimulatedAccount{Uin: 5007, Secret: "secret"})
	opts := testOpts(t, provider)

	svc := qqcore.NewService(passwordAccounts(5006, 5007), opts)
	done := make(chan error, 1)
	go func() { done <- svc.Run(context.Background()) }()

	waitStage(t, svc, qqcore.StageBlocking)
	provider.Session(5006).Drop(nil)
	provider.Session(5007).Drop(nil)

	// Every session is gone, yet the service keeps blocking until told
	// to stop.
	select {
	case err := <-done:
		t.Fatalf("Run returned before Shutdown: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, qqcore.StageBlocking, svc.Stage())

	svc.Shutdown()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
}

func TestServiceShutdownIdempotent(t *testing.T) {
	provider := qqtesting.NewSimulatedProvider()
	provider.AddAccount(&qqtesting.SimulatedAccount{Uin: 5008, Secret: "secret"})
	opts := testOpts(t, provider)

	svc := qqcore.NewService(passwordAccounts(5008), opts)
	done := make(chan error, 1)
	go func() { done <- svc.Run(context.Background()) }()

	waitStage(t, svc, qqcore.StageBlocking)
	svc.Shutdown()
	svc.Shutdown()
	require.NoError(t, <-done)
}

func TestServiceContextCancellation(t *testing.T) {
	provider := qqtesting.NewSimulatedProvider()
	provider.AddAccount(&qqtesting.SimulatedAccount{Uin: 5009, Secret: "secret"})
	opts := testOpts(t, provider)

	svc := qqcore.NewService(passwordAccounts(5009), opts)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	waitStage(t, svc, qqcore.StageBlocking)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestServiceInterface(t *testing.T) {
	provider := qqtesting.NewSimulatedProvider()
	provider.AddAccount(&qqtesting.SimulatedAccount{Uin: 5010, Secret: "secret"})
	opts := testOpts(t, provider)

	svc := qqcore.NewService(passwordAccounts(5010), opts)
	done := make(chan error, 1)
	go func() { done <- svc.Run(context.Background()) }()
	defer func() {
		svc.Shutdown()
		<-done
	}()

	waitStage(t, svc, qqcore.StageBlocking)

	_, err := svc.Interface("no.such.capability")
	assert.ErrorIs(t, err, qqcore.ErrConfiguration)

	raw, err := svc.Interface(qqcore.InterfaceAPI)
	require.NoError(t, err)
	api, ok := raw.(*qqcore.API)
	require.True(t, ok)

	client, err := api.Client(5010)
	require.NoError(t, err)
	assert.True(t, client.IsOnline())

	_, err = api.Client(99999)
	assert.ErrorIs(t, err, qqcore.ErrNotConnected)

	handles := api.Handles()
	require.Len(t, handles, 1)
	assert.Equal(t, int64(5010), handles[0].Uin())
}

func TestServiceDeclarations(t *testing.T) {
	svc := qqcore.NewService(nil, nil)
	assert.Equal(t, []string{"preparing", "blocking"}, svc.Stages())
	assert.Nil(t, svc.RequiredServices())
	assert.Equal(t, "idle", svc.Stage().String())
}
