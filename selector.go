package qqcore

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/qqcore/message"
)

// Selectors address friends, groups and members without retaining a
// snapshot or a live connection. A selector carries identifying keys
// plus the owning account's uin; every action resolves the current
// client through the process-wide registry at call time, so a selector
// survives reconnects while the account stays logged in and fails with
// ErrNotConnected once it does not.

// resolveClient finds the live client for an account.
func resolveClient(account int64) (*Client, error) {
	c, ok := registry.lookup(account)
	if !ok {
		return nil, fmt.Errorf("%w: uin %d", ErrNotConnected, account)
	}
	return c, nil
}

func sendElements(content *message.Content) ([]message.Element, error) {
	if content == nil || content.Len() == 0 {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, message.ErrEmptyContent)
	}
	if err := content.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return content.Elements(), nil
}

// FriendSelector addresses one friend of one account.
type FriendSelector struct {
	account int64
	uin     int64
}

// Uin returns the addressed friend's uin.
func (s *FriendSelector) Uin() int64 {
	return s.uin
}

// Fetch downloads the friend's current snapshot entry.
func (s *FriendSelector) Fetch(ctx context.Context) (*Friend, error) {
	c, err := resolveClient(s.account)
	if err != nil {
		return nil, err
	}
	list, err := c.GetFriendList(ctx)
	if err != nil {
		return nil, err
	}
	f := list.FindFriend(s.uin)
	if f == nil {
		return nil, fmt.Errorf("%w: friend %d", ErrNotFound, s.uin)
	}
	return f, nil
}

// Poke sends a fire-and-forget nudge to the friend.
func (s *FriendSelector) Poke(ctx context.Context) error {
	c, err := resolveClient(s.account)
	if err != nil {
		return err
	}
	sess, err := c.session()
	if err != nil {
		return err
	}
	if err := sess.PokeFriend(ctx, s.uin); err != nil {
		return mapActionError(err)
	}
	return nil
}

// Send submits content to the friend as one atomic message and
// returns its recall receipt.
func (s *FriendSelector) Send(ctx context.Context, content *message.Content) (*Receipt, error) {
	elems, err := sendElements(content)
	if err != nil {
		return nil, err
	}
	c, err := resolveClient(s.account)
	if err != nil {
		return nil, err
	}
	sess, err := c.session()
	if err != nil {
		return nil, err
	}
	ref, err := sess.SendFriendMessage(ctx, s.uin, elems)
	if err != nil {
		return nil, mapActionError(err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Send",
		"uin":      s.account,
		"friend":   s.uin,
		"elements": len(elems),
	}).Debug("Friend message sent")

	return newFriendReceipt(s.account, s.uin, *ref), nil
}

// GroupSelector addresses one chat group of one account.
type GroupSelector struct {
	account int64
	code    int64
}

// Code returns the addressed group's code.
func (s *GroupSelector) Code() int64 {
	return s.code
}

// Fetch downloads the group's current snapshot entry.
func (s *GroupSelector) Fetch(ctx context.Context) (*Group, error) {
	c, err := resolveClient(s.account)
	if err != nil {
		return nil, err
	}
	groups, err := c.GetGroupList(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		if g.Code == s.code {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: group %d", ErrNotFound, s.code)
}

// Member mints a selector for a member of this group.
func (s *GroupSelector) Member(uin int64) *MemberSelector {
	return &MemberSelector{account: s.account, code: s.code, uin: uin}
}

// Send submits content to the group as one atomic message and returns
// its recall receipt.
func (s *GroupSelector) Send(ctx context.Context, content *message.Content) (*Receipt, error) {
	elems, err := sendElements(content)
	if err != nil {
		return nil, err
	}
	c, err := resolveClient(s.account)
	if err != nil {
		return nil, err
	}
	sess, err := c.session()
	if err != nil {
		return nil, err
	}
	ref, err := sess.SendGroupMessage(ctx, s.code, elems)
	if err != nil {
		return nil, mapActionError(err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Send",
		"uin":      s.account,
		"group":    s.code,
		"elements": len(elems),
	}).Debug("Group message sent")

	return newGroupReceipt(s.account, s.code, *ref), nil
}

// MemberSelector addresses one member of one group.
type MemberSelector struct {
	account int64
	code    int64
	uin     int64
}

// Code returns the group code.
func (s *MemberSelector) Code() int64 {
	return s.code
}

// Uin returns the member's uin.
func (s *MemberSelector) Uin() int64 {
	return s.uin
}

// Fetch downloads the member's current snapshot entry.
func (s *MemberSelector) Fetch(ctx context.Context) (*GroupMember, error) {
	c, err := resolveClient(s.account)
	if err != nil {
		return nil, err
	}
	members, err := c.GetGroupMemberList(ctx, s.code)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if m.Uin == s.uin {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: member %d of group %d", ErrNotFound, s.uin, s.code)
}

// Poke sends a fire-and-forget nudge to the member.
func (s *MemberSelector) Poke(ctx context.Context) error {
	c, err := resolveClient(s.account)
	if err != nil {
		return err
	}
	sess, err := c.session()
	if err != nil {
		return err
	}
	if err := sess.PokeGroupMember(ctx, s.code, s.uin); err != nil {
		return mapActionError(err)
	}
	return nil
}
