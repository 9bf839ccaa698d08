package qqcore

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/qqcore/interfaces"
)

// friendPageSize is how many friends one directory page requests.
const friendPageSize = 150

// Account is the logged-in identity's profile.
type Account struct {
	Uin      int64
	Nickname string
	Age      uint8
	Gender   uint8
}

// Client is the per-account facade. It wraps exactly one SessionHandle
// with a non-owning reference and must never close or replace it; once
// the handle ends every operation fails with ErrNotConnected.
type Client struct {
	uin    int64
	handle *SessionHandle
}

// Uin returns the account's numeric identity, fixed at login.
func (c *Client) Uin() int64 {
	return c.uin
}

// IsOnline reports current session liveness without blocking.
func (c *Client) IsOnline() bool {
	return c.handle.live() && c.handle.session.Online()
}

// session returns the live session or ErrNotConnected.
func (c *Client) session() (interfaces.Session, error) {
	if !c.handle.live() {
		return nil, fmt.Errorf("%w: uin %d", ErrNotConnected, c.uin)
	}
	return c.handle.session, nil
}

// GetAccountInfo queries the account's current profile.
func (c *Client) GetAccountInfo(ctx context.Context) (*Account, error) {
	sess, err := c.session()
	if err != nil {
		return nil, err
	}
	info, err := sess.AccountInfo(ctx)
	if err != nil {
		return nil, mapActionError(err)
	}
	return &Account{
		Uin:      c.uin,
		Nickname: info.Nickname,
		Age:      info.Age,
		Gender:   info.Gender,
	}, nil
}

// GetFriendList fetches a full snapshot of the friend directory,
// paging through the provider internally.
func (c *Client) GetFriendList(ctx context.Context) (*FriendList, error) {
	sess, err := c.session()
	if err != nil {
		return nil, err
	}

	var (
		friends []interfaces.FriendInfo
		first   *interfaces.FriendListPage
	)
	for start := 0; ; start = len(friends) {
		page, err := sess.FriendListPage(ctx, start, friendPageSize)
		if err != nil {
			return nil, mapActionError(err)
		}
		if first == nil {
			first = page
		}
		friends = append(friends, page.Friends...)
		if len(page.Friends) == 0 || len(friends) >= page.TotalCount {
			break
		}
	}

	logrus.WithFields(logrus.Fields{
		"function": "GetFriendList",
		"uin":      c.uin,
		"friends":  len(friends),
	}).Debug("Fetched friend list snapshot")

	return newFriendList(c, friends, first.FriendGroups, first.TotalCount, first.OnlineCount), nil
}

// GetFriends is a convenience flattening of GetFriendList.
func (c *Client) GetFriends(ctx context.Context) ([]*Friend, error) {
	list, err := c.GetFriendList(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Friend, 0, list.TotalCount)
	for f := range list.Friends() {
		out = append(out, f)
	}
	return out, nil
}

// GetGroupList fetches a snapshot of the joined chat groups.
func (c *Client) GetGroupList(ctx context.Context) ([]*Group, error) {
	sess, err := c.session()
	if err != nil {
		return nil, err
	}
	infos, err := sess.GroupList(ctx)
	if err != nil {
		return nil, mapActionError(err)
	}
	groups := make([]*Group, 0, len(infos))
	for _, info := range infos {
		groups = append(groups, newGroup(c.uin, info))
	}
	return groups, nil
}

// GetGroupMemberList fetches a snapshot of one group's members.
func (c *Client) GetGroupMemberList(ctx context.Context, code int64) ([]*GroupMember, error) {
	sess, err := c.session()
	if err != nil {
		return nil, err
	}
	infos, err := sess.GroupMemberList(ctx, code)
	if err != nil {
		return nil, mapActionError(err)
	}
	members := make([]*GroupMember, 0, len(infos))
	for _, info := range infos {
		members = append(members, newGroupMember(c.uin, code, info))
	}
	return members, nil
}

// Friend mints a selector for the given uin. Existence is not checked;
// actions on the selector fail with ErrNotFound if the target turns
// out invalid.
func (c *Client) Friend(uin int64) *FriendSelector {
	return &FriendSelector{account: c.uin, uin: uin}
}

// Group mints a selector for the given group code.
func (c *Client) Group(code int64) *GroupSelector {
	return &GroupSelector{account: c.uin, code: code}
}

// GroupMember mints a selector for a member of a group.
func (c *Client) GroupMember(code, uin int64) *MemberSelector {
	return &MemberSelector{account: c.uin, code: code, uin: uin}
}

// Alive blocks until the underlying session ends or ctx is cancelled;
// used to keep a process resident.
func (c *Client) Alive(ctx context.Context) error {
	return c.handle.Alive(ctx)
}
