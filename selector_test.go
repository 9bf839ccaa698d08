package qqcore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/qqcore"
	"github.com/opd-ai/qqcore/message"
	qqtesting "github.com/opd-ai/qqcore/testing"
)

func TestFriendSelectorSend(t *testing.T) {
	provider := qqtesting.NewSimulatedProvider()
	provider.AddAccount(newFriendAccount(3001))
	opts := testOpts(t, provider)

	handle := mustLogin(t, 3001, qqcore.Password{Secret: "secret"}, opts)
	client := handle.Client()

	receipt, err := client.Friend(222).Send(context.Background(),
		message.New().Text("hello ").At(333).Face(14))
	require.NoError(t, err)
	require.NotNil(t, receipt)

	sent := provider.Session(3001).Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(222), sent[0].FriendUin)
	assert.Len(t, sent[0].Elements, 3)
	assert.Equal(t, sent[0].Ref.Seqs, receipt.Seqs())
}

func TestSnapshotSelectorEquivalence(t *testing.T) {
	provider := qqtesting.NewSimulatedProvider()
	provider.AddAccount(newFriendAccount(3002))
	opts := testOpts(t, provider)

	handle := mustLogin(t, 3002, qqcore.Password{Secret: "secret"}, opts)
	client := handle.Client()

	list, err := client.GetFriendList(context.Background())
	require.NoError(t, err)
	alice := list.FindFriend(222)
	require.NotNil(t, alice)

	// A selector minted from a snapshot entry addresses the same target
	// as one minted directly from the key.
	_, err = alice.AsSelector().Send(context.Background(), message.New().Text("one"))
	require.NoError(t, err)
	_, err = client.Friend(222).Send(context.Background(), message.New().Text("two"))
	require.NoError(t, err)

	sent := provider.Session(3002).Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, sent[0].FriendUin, sent[1].FriendUin)
}

func TestFriendSelectorUnknownTarget(t *testing.T) {
	provider := qqtesting.NewSimulatedProvider()
	provider.AddAccount(newFriendAccount(3003))
	opts := testOpts(t, provider)

	handle := mustLogin(t, 3003, qqcore.Password{Secret: "secret"}, opts)
	sel := handle.Client().Friend(555)

	_, err := sel.Send(context.Background(), message.New().Text("hi"))
	assert.ErrorIs(t, err, qqcore.ErrNotFound)

	_, err = sel.Fetch(context.Background())
	assert.ErrorIs(t, err, qqcore.ErrNotFound)

	assert.ErrorIs(t, sel.Poke(context.Background()), qqcore.ErrNotFound)
}

func TestSelectorAfterClose(t *testing.T) {
	provider := qqtesting.NewSimulatedProvider()
	provider.AddAccount(newFriendAccount(3004))
	opts := testOpts(t, provider)

	handle := mustLogin(t, 3004, qqcore.Password{Secret: "secret"}, opts)
	sel := handle.Client().Friend(222)
	handle.Close()

	_, err := sel.Send(context.Background(), message.New().Text("hi"))
	assert.ErrorIs(t, err, qqcore.ErrNotConnected)
	_, err = sel.Fetch(context.Background())
	assert.ErrorIs(t, err, qqcore.ErrNotConnected)
	assert.ErrorIs(t, sel.Poke(context.Background()), qqcore.ErrNotConnected)
}

func TestSelectorRejectsEmptyContent(t *testing.T) {
	provider := qqtesting.NewSimulatedProvider()
	provider.AddAccount(newFriendAccount(3005))
	opts := testOpts(t, provider)

	handle := mustLogin(t, 3005, qqcore.Password{Secret: "secret"}, opts)
	sel := handle.Client().Friend(222)

	_, err := sel.Send(context.Background(), nil)
	assert.ErrorIs(t, err, qqcore.ErrConfiguration)
	_, err = sel.Send(context.Background(), message.New())
	assert.ErrorIs(t, err, qqcore.ErrConfiguration)
}

func TestFriendSelectorPoke(t *testing.T) {
	provider := qqtesting.NewSimulatedProvider()
	provider.AddAccount(newFriendAccount(3006))
	opts := testOpts(t, provider)

	handle := mustLogin(t, 3006, qqcore.Password{Secret: "secret"}, opts)
	require.NoError(t, handle.Client().Friend(222).Poke(context.Background()))

	pokes := provider.Session(3006).Pokes()
	require.Len(t, pokes, 1)
	assert.Equal(t, int64(222), pokes[0].FriendUin)
}

func TestGroupSelector(t *testing.T) {
	provider := qqtesting.NewSimulatedProvider()
	provider.AddAccount(newFriendAccount(3007))
	opts := testOpts(t, provider)

	handle := mustLogin(t, 3007, qqcore.Password{Secret: "secret"}, opts)
	client := handle.Client()

	group, err := client.Group(9001).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tea club", group.Name)

	_, err = client.Group(404).Fetch(context.Background())
	assert.ErrorIs(t, err, qqcore.ErrNotFound)

	receipt, err := group.AsSelector().Send(context.Background(),
		message.New().Text("meeting at ").At(222))
	require.NoError(t, err)
	require.NotNil(t, receipt)

	sent := provider.Session(3007).Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(9001), sent[0].GroupCode)
}

func TestMemberSelector(t *testing.T) {
	provider := qqtesting.NewSimulatedProvider()
	provider.AddAccount(newFriendAccount(3008))
	opts := testOpts(t, provider)

	handle := mustLogin(t, 3008, qqcore.Password{Secret: "secret"}, opts)
	client := handle.Client()

	member, err := client.Group(9001).Member(222).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", member.Nickname)

	_, err = client.Group(9001).Member(777).Fetch(context.Background())
	assert.ErrorIs(t, err, qqcore.ErrNotFound)

	require.NoError(t, member.AsSelector().Poke(context.Background()))
	pokes := provider.Session(3008).Pokes()
	require.Len(t, pokes, 1)
	assert.Equal(t, int64(9001), pokes[0].GroupCode)
	assert.Equal(t, int64(222), pokes[0].MemberUin)
}
