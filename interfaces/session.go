package interfaces

import (
	"context"
	"time"

	"github.com/opd-ai/qqcore/message"
)

// Device identifies the logical device a session presents to the
// server. The identifier is stable per account data directory.
type Device struct {
	ID string
}

// AccountInfo is the server-side view of the logged-in account.
type AccountInfo struct {
	Nickname string
	Age      uint8
	Gender   uint8
}

// FriendInfo is one friend relationship as reported by the server.
type FriendInfo struct {
	Uin      int64
	Nickname string
	Remark   string
	FaceID   int16
	GroupID  uint8
}

// FriendGroupInfo is a user-defined friend bucket.
type FriendGroupInfo struct {
	ID          uint8
	Name        string
	FriendCount int
	OnlineCount int
}

// FriendListPage is one page of the friend directory. The friend group
// table and the aggregate counts describe the whole directory and are
// repeated on every page.
type FriendListPage struct {
	Friends      []FriendInfo
	FriendGroups []FriendGroupInfo
	TotalCount   int
	OnlineCount  int
}

// GroupInfo is one joined chat group.
type GroupInfo struct {
	Uin            int64
	Code           int64
	Name           string
	Memo           string
	OwnerUin       int64
	MemberCount    uint16
	MaxMemberCount uint16
}

// GroupMemberInfo is one member of a chat group.
type GroupMemberInfo struct {
	Uin      int64
	Nickname string
	CardName string
	Role     MemberRole
}

// MemberRole is a member's permission level within a group.
type MemberRole uint8

const (
	RoleMember MemberRole = iota
	RoleAdministrator
	RoleOwner
)

// MessageRef identifies a sent message for later recall.
type MessageRef struct {
	Seqs  []int32
	Rands []int32
	Time  int64
}

// ChallengeResolver answers interactive login challenges issued by the
// server during password authentication. Implementations must honor
// context cancellation; the caller bounds each resolution.
type ChallengeResolver interface {
	// ResolveCaptcha returns the solution for the captcha at url.
	ResolveCaptcha(ctx context.Context, url string) (string, error)
	// ResolveSMS returns the verification code sent to phone.
	ResolveSMS(ctx context.Context, phone string) (string, error)
}

// PasswordRequest carries everything a provider needs for a password
// handshake. Token, when present, is a previously issued session token
// that may allow a fast login without re-authentication.
type PasswordRequest struct {
	Uin      int64
	Secret   string
	MD5      []byte
	Device   Device
	Token    []byte
	Resolver ChallengeResolver
}

// QRCodeRequest carries the parameters of a QR-code login. Display is
// invoked with the rendered code image; the provider then polls until
// the user confirms out-of-band or the context expires.
type QRCodeRequest struct {
	Uin          int64
	Device       Device
	Display      func(png []byte) error
	PollInterval time.Duration
}

// Session is a live, authenticated connection for one account. All
// methods except Run and Online may be called from any goroutine;
// sequential sends to the same target are delivered in call order.
type Session interface {
	// Run drives the keepalive/read loop. It returns only on
	// disconnect, fatal protocol error, or context cancellation.
	Run(ctx context.Context) error

	// Online reports current connection liveness without blocking.
	Online() bool

	// Token returns the reusable session token issued at login, or nil
	// if the provider does not support token resumption.
	Token() []byte

	AccountInfo(ctx context.Context) (*AccountInfo, error)

	// FriendListPage fetches up to count friends starting at start.
	FriendListPage(ctx context.Context, start, count int) (*FriendListPage, error)

	GroupList(ctx context.Context) ([]GroupInfo, error)
	GroupMemberList(ctx context.Context, code int64) ([]GroupMemberInfo, error)

	SendFriendMessage(ctx context.Context, uin int64, elems []message.Element) (*MessageRef, error)
	SendGroupMessage(ctx context.Context, code int64, elems []message.Element) (*MessageRef, error)

	RecallFriendMessage(ctx context.Context, uin int64, ref MessageRef) error
	RecallGroupMessage(ctx context.Context, code int64, ref MessageRef) error

	PokeFriend(ctx context.Context, uin int64) error
	PokeGroupMember(ctx context.Context, code, uin int64) error
}

// SessionProvider performs the wire-protocol handshake and yields a
// running Session. The orchestration layer treats it as opaque.
type SessionProvider interface {
	PasswordLogin(ctx context.Context, req *PasswordRequest) (Session, error)
	QRCodeLogin(ctx context.Context, req *QRCodeRequest) (Session, error)
}
