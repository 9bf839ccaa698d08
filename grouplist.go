package qqcore

import "github.com/opd-ai/qqcore/interfaces"

// Group is a transient snapshot of one joined chat group.
type Group struct {
	Uin            int64
	Code           int64
	Name           string
	Memo           string
	OwnerUin       int64
	MemberCount    uint16
	MaxMemberCount uint16

	account int64
}

func newGroup(account int64, info interfaces.GroupInfo) *Group {
	return &Group{
		Uin:            info.Uin,
		Code:           info.Code,
		Name:           info.Name,
		Memo:           info.Memo,
		OwnerUin:       info.OwnerUin,
		MemberCount:    info.MemberCount,
		MaxMemberCount: info.MaxMemberCount,
		account:        account,
	}
}

// AsSelector mints a selector for this group.
func (g *Group) AsSelector() *GroupSelector {
	return &GroupSelector{account: g.account, code: g.Code}
}

// GroupMember is a transient snapshot of one group member.
type GroupMember struct {
	Uin      int64
	Nickname string
	CardName string
	Role     interfaces.MemberRole

	account int64
	code    int64
}

func newGroupMember(account, code int64, info interfaces.GroupMemberInfo) *GroupMember {
	return &GroupMember{
		Uin:      info.Uin,
		Nickname: info.Nickname,
		CardName: info.CardName,
		Role:     info.Role,
		account:  account,
		code:     code,
	}
}

// AsSelector mints a selector for this member.
func (m *GroupMember) AsSelector() *MemberSelector {
	return &MemberSelector{account: m.account, code: m.code, uin: m.Uin}
}
