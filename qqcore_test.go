package qqcore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/qqcore"
	"github.com/opd-ai/qqcore/interfaces"
	"github.com/opd-ai/qqcore/message"
	qqtesting "github.com/opd-ai/qqcore/testing"
)

func TestInit(t *testing.T) {
	qqcore.Init()
	qqcore.Init()
	assert.NotEmpty(t, qqcore.Version)
	assert.NotEmpty(t, qqcore.Build)
}

// TestSendAndRecallFlow walks the canonical happy path: password login,
// friend list snapshot, selector send, single-use recall.
func TestSendAndRecallFlow(t *testing.T) {
	provider := qqtesting.NewSimulatedProvider()
	provider.AddAccount(&qqtesting.SimulatedAccount{
		Uin:    111,
		Secret: "hunter2",
		Info:   interfaces.AccountInfo{Nickname: "self"},
		Friends: []interfaces.FriendInfo{
			{Uin: 222, Nickname: "alice"},
			{Uin: 333, Nickname: "bob"},
		},
		FriendGroups: []interfaces.FriendGroupInfo{
			{ID: 0, Name: "My Friends", FriendCount: 2},
		},
		OnlineFriends: 2,
	})
	opts := testOpts(t, provider)

	handle, err := qqcore.Login(context.Background(), 111, qqcore.Password{Secret: "hunter2"}, opts)
	require.NoError(t, err)
	defer handle.Close()

	client := handle.Client()
	require.True(t, client.IsOnline())

	list, err := client.GetFriendList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, list.TotalCount)
	require.NotNil(t, list.FindFriend(222))
	require.NotNil(t, list.FindFriend(333))

	alice := list.FindFriend(222)
	receipt, err := alice.AsSelector().Send(context.Background(), message.New().Text("hi"))
	require.NoError(t, err)

	sent := provider.Session(111).Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(222), sent[0].FriendUin)
	require.Len(t, sent[0].Elements, 1)
	text, ok := sent[0].Elements[0].(message.Text)
	require.True(t, ok)
	assert.Equal(t, "hi", text.Text)

	require.NoError(t, receipt.Recall(context.Background()))
	assert.ErrorIs(t, receipt.Recall(context.Background()), qqcore.ErrAlreadyRecalled)
}
