package qqcore

import (
	"iter"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/qqcore/interfaces"
)

// Friend is one friend relationship inside a FriendList snapshot.
type Friend struct {
	Uin      int64
	Nickname string
	Remark   string
	FaceID   int16
	GroupID  uint8

	account int64
}

// AsSelector mints a selector for this friend. The selector carries
// only identifying data and resolves against the live client at call
// time, so it stays valid across snapshots.
func (f *Friend) AsSelector() *FriendSelector {
	return &FriendSelector{account: f.account, uin: f.Uin}
}

// FriendGroup is a user-defined bucket of friends.
type FriendGroup struct {
	ID          uint8
	Name        string
	FriendCount int
	OnlineCount int
}

// FriendList is a transient snapshot of an account's friend directory.
// It carries no lifecycle obligation; queries create a fresh one.
type FriendList struct {
	TotalCount  int
	OnlineCount int

	friends []*Friend
	byUin   map[int64]*Friend
	groups  []*FriendGroup
	byGroup map[uint8]*FriendGroup
}

func newFriendList(c *Client, friends []interfaces.FriendInfo, groups []interfaces.FriendGroupInfo, total, online int) *FriendList {
	fl := &FriendList{
		TotalCount:  total,
		OnlineCount: online,
		byUin:       make(map[int64]*Friend, len(friends)),
		byGroup:     make(map[uint8]*FriendGroup, len(groups)),
	}

	for _, info := range groups {
		fg := &FriendGroup{
			ID:          info.ID,
			Name:        info.Name,
			FriendCount: info.FriendCount,
			OnlineCount: info.OnlineCount,
		}
		fl.groups = append(fl.groups, fg)
		fl.byGroup[fg.ID] = fg
	}

	for _, info := range friends {
		if _, dup := fl.byUin[info.Uin]; dup {
			// The server must not repeat a uin across pages; keep the
			// first occurrence so the snapshot stays unique.
			logrus.WithFields(logrus.Fields{
				"function": "newFriendList",
				"uin":      c.uin,
				"friend":   info.Uin,
			}).Warn("Duplicate friend uin in directory page, ignoring")
			continue
		}
		if _, ok := fl.byGroup[info.GroupID]; !ok {
			// Every friend must sit in a declared friend group; keep the
			// entry but flag the inconsistent directory.
			logrus.WithFields(logrus.Fields{
				"function": "newFriendList",
				"uin":      c.uin,
				"friend":   info.Uin,
				"group_id": info.GroupID,
			}).Warn("Friend references an undeclared friend group")
		}
		f := &Friend{
			Uin:      info.Uin,
			Nickname: info.Nickname,
			Remark:   info.Remark,
			FaceID:   info.FaceID,
			GroupID:  info.GroupID,
			account:  c.uin,
		}
		fl.friends = append(fl.friends, f)
		fl.byUin[f.Uin] = f
	}

	return fl
}

// Friends returns a lazy, finite, restartable sequence over the
// snapshot's friends in directory order.
func (fl *FriendList) Friends() iter.Seq[*Friend] {
	return func(yield func(*Friend) bool) {
		for _, f := range fl.friends {
			if !yield(f) {
				return
			}
		}
	}
}

// FriendGroups returns the friend groups in declaration order.
func (fl *FriendList) FriendGroups() iter.Seq[*FriendGroup] {
	return func(yield func(*FriendGroup) bool) {
		for _, fg := range fl.groups {
			if !yield(fg) {
				return
			}
		}
	}
}

// FindFriend returns the friend with the given uin, or nil.
func (fl *FriendList) FindFriend(uin int64) *Friend {
	return fl.byUin[uin]
}

// FindFriendGroup returns the friend group with the given id, or nil.
func (fl *FriendList) FindFriendGroup(id uint8) *FriendGroup {
	return fl.byGroup[id]
}
