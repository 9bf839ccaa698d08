package testing

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/qqcore/interfaces"
	"github.com/opd-ai/qqcore/message"
)

// defaultRecallWindow mirrors the protocol's recall time limit.
const defaultRecallWindow = 2 * time.Minute

// SimulatedAccount is one account fixture. Fields are read by the
// simulator after AddAccount; mutate them only before logging in.
type SimulatedAccount struct {
	Uin    int64
	Secret string

	Info          interfaces.AccountInfo
	Friends       []interfaces.FriendInfo
	FriendGroups  []interfaces.FriendGroupInfo
	OnlineFriends int
	Groups        []interfaces.GroupInfo
	Members       map[int64][]interfaces.GroupMemberInfo

	// CaptchaURL, when set, makes password logins issue a captcha
	// challenge whose expected solution is CaptchaAnswer.
	CaptchaURL    string
	CaptchaAnswer string

	// QRAutoConfirm completes QR logins immediately after the code is
	// displayed; otherwise the login waits for ConfirmQR.
	QRAutoConfirm bool

	// RecallWindow overrides the recall time limit. Zero keeps the
	// default; a negative value makes every recall arrive too late.
	RecallWindow time.Duration

	// PageSize caps how many friends one directory page returns,
	// regardless of what the client requests. Zero means no cap.
	PageSize int

	qrConfirm chan struct{}
	qrOnce    sync.Once
	token     []byte
}

// ConfirmQR completes a pending QR login for this account.
func (a *SimulatedAccount) ConfirmQR() {
	a.qrOnce.Do(func() { close(a.qrConfirm) })
}

func (a *SimulatedAccount) recallWindow() time.Duration {
	if a.RecallWindow == 0 {
		return defaultRecallWindow
	}
	return a.RecallWindow
}

// SimulatedProvider implements interfaces.SessionProvider over
// in-memory fixtures.
type SimulatedProvider struct {
	mu            sync.Mutex
	accounts      map[int64]*SimulatedAccount
	sessions      map[int64]*SimulatedSession
	attempts      []int64
	failTransport bool
}

// NewSimulatedProvider creates an empty simulator.
func NewSimulatedProvider() *SimulatedProvider {
	return &SimulatedProvider{
		accounts: make(map[int64]*SimulatedAccount),
		sessions: make(map[int64]*SimulatedSession),
	}
}

// AddAccount registers a fixture and returns it for later inspection.
func (p *SimulatedProvider) AddAccount(acct *SimulatedAccount) *SimulatedAccount {
	acct.qrConfirm = make(chan struct{})
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts[acct.Uin] = acct
	return acct
}

// SetTransportFailure makes every subsequent login fail at the
// transport layer.
func (p *SimulatedProvider) SetTransportFailure(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failTransport = fail
}

// Attempts returns the uins of every login attempt, in order.
func (p *SimulatedProvider) Attempts() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int64, len(p.attempts))
	copy(out, p.attempts)
	return out
}

// Session returns the most recent session created for uin, or nil.
func (p *SimulatedProvider) Session(uin int64) *SimulatedSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessions[uin]
}

func (p *SimulatedProvider) begin(uin int64) (*SimulatedAccount, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts = append(p.attempts, uin)
	if p.failTransport {
		return nil, fmt.Errorf("dial server: %w", interfaces.ErrTransport)
	}
	acct, ok := p.accounts[uin]
	if !ok {
		return nil, fmt.Errorf("unknown account %d: %w", uin, interfaces.ErrBadCredentials)
	}
	return acct, nil
}

func (p *SimulatedProvider) newSession(acct *SimulatedAccount, dev interfaces.Device) *SimulatedSession {
	sess := &SimulatedSession{
		acct:    acct,
		device:  dev,
		running: true,
		dropped: make(chan struct{}),
	}
	p.mu.Lock()
	p.sessions[acct.Uin] = sess
	p.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "newSession",
		"uin":      acct.Uin,
		"device":   dev.ID,
	}).Debug("Simulated session established")
	return sess
}

// PasswordLogin implements interfaces.SessionProvider.
func (p *SimulatedProvider) PasswordLogin(ctx context.Context, req *interfaces.PasswordRequest) (interfaces.Session, error) {
	acct, err := p.begin(req.Uin)
	if err != nil {
		return nil, err
	}

	// Token resumption skips both the secret check and any challenge.
	if len(req.Token) > 0 && bytes.Equal(req.Token, acct.token) {
		return p.newSession(acct, req.Device), nil
	}

	if len(req.MD5) > 0 {
		sum := md5.Sum([]byte(acct.Secret))
		if !bytes.Equal(req.MD5, sum[:]) {
			return nil, fmt.Errorf("wrong password digest: %w", interfaces.ErrBadCredentials)
		}
	} else if req.Secret != acct.Secret {
		return nil, fmt.Errorf("wrong password: %w", interfaces.ErrBadCredentials)
	}

	if acct.CaptchaURL != "" {
		if req.Resolver == nil {
			return nil, fmt.Errorf("captcha required: %w", interfaces.ErrChallengeAbandoned)
		}
		answer, err := req.Resolver.ResolveCaptcha(ctx, acct.CaptchaURL)
		if err != nil {
			return nil, fmt.Errorf("resolve captcha: %w", err)
		}
		if answer != acct.CaptchaAnswer {
			return nil, fmt.Errorf("wrong captcha: %w", interfaces.ErrBadCredentials)
		}
	}

	if acct.token == nil {
		acct.token = make([]byte, 32)
		_, _ = rand.Read(acct.token)
	}
	return p.newSession(acct, req.Device), nil
}

// QRCodeLogin implements interfaces.SessionProvider.
func (p *SimulatedProvider) QRCodeLogin(ctx context.Context, req *interfaces.QRCodeRequest) (interfaces.Session, error) {
	acct, err := p.begin(req.Uin)
	if err != nil {
		return nil, err
	}

	if err := req.Display([]byte("simulated-qrcode-png")); err != nil {
		return nil, fmt.Errorf("display QR code: %w", err)
	}

	if !acct.QRAutoConfirm {
		select {
		case <-acct.qrConfirm:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if acct.token == nil {
		acct.token = make([]byte, 32)
		_, _ = rand.Read(acct.token)
	}
	return p.newSession(acct, req.Device), nil
}

// SentMessage is one message recorded by a simulated session.
type SentMessage struct {
	FriendUin int64
	GroupCode int64
	Elements  []message.Element
	Ref       interfaces.MessageRef
	SentAt    time.Time
	Recalled  bool
}

// Poke is one recorded nudge.
type Poke struct {
	FriendUin int64
	GroupCode int64
	MemberUin int64
}

// SimulatedSession implements interfaces.Session over its account
// fixture.
type SimulatedSession struct {
	acct   *SimulatedAccount
	device interfaces.Device

	mu      sync.Mutex
	running bool
	ended   bool
	seq     int32
	sent    []*SentMessage
	pokes   []Poke

	dropped  chan struct{}
	dropOnce sync.Once
	dropErr  error
}

// Run implements interfaces.Session.
func (s *SimulatedSession) Run(ctx context.Context) error {
	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case <-s.dropped:
		err = s.dropErr
	}

	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
	return err
}

// Drop simulates a disconnect; Run returns err, or a transport error
// when err is nil.
func (s *SimulatedSession) Drop(err error) {
	s.dropOnce.Do(func() {
		if err == nil {
			err = fmt.Errorf("connection reset: %w", interfaces.ErrTransport)
		}
		s.dropErr = err
		close(s.dropped)
	})
}

// Online implements interfaces.Session.
func (s *SimulatedSession) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && !s.ended
}

// Token implements interfaces.Session.
func (s *SimulatedSession) Token() []byte {
	return s.acct.token
}

func (s *SimulatedSession) guard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return fmt.Errorf("session ended: %w", interfaces.ErrTransport)
	}
	return nil
}

// AccountInfo implements interfaces.Session.
func (s *SimulatedSession) AccountInfo(ctx context.Context) (*interfaces.AccountInfo, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	info := s.acct.Info
	return &info, nil
}

// FriendListPage implements interfaces.Session.
func (s *SimulatedSession) FriendListPage(ctx context.Context, start, count int) (*interfaces.FriendListPage, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	if s.acct.PageSize > 0 && count > s.acct.PageSize {
		count = s.acct.PageSize
	}

	friends := s.acct.Friends
	if start > len(friends) {
		start = len(friends)
	}
	end := start + count
	if end > len(friends) {
		end = len(friends)
	}

	page := &interfaces.FriendListPage{
		Friends:      append([]interfaces.FriendInfo(nil), friends[start:end]...),
		FriendGroups: append([]interfaces.FriendGroupInfo(nil), s.acct.FriendGroups...),
		TotalCount:   len(friends),
		OnlineCount:  s.acct.OnlineFriends,
	}
	return page, nil
}

// GroupList implements interfaces.Session.
func (s *SimulatedSession) GroupList(ctx context.Context) ([]interfaces.GroupInfo, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return append([]interfaces.GroupInfo(nil), s.acct.Groups...), nil
}

// GroupMemberList implements interfaces.Session.
func (s *SimulatedSession) GroupMemberList(ctx context.Context, code int64) ([]interfaces.GroupMemberInfo, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	if !s.hasGroup(code) {
		return nil, fmt.Errorf("group %d: %w", code, interfaces.ErrTargetMissing)
	}
	return append([]interfaces.GroupMemberInfo(nil), s.acct.Members[code]...), nil
}

func (s *SimulatedSession) hasFriend(uin int64) bool {
	for _, f := range s.acct.Friends {
		if f.Uin == uin {
			return true
		}
	}
	return false
}

func (s *SimulatedSession) hasGroup(code int64) bool {
	for _, g := range s.acct.Groups {
		if g.Code == code {
			return true
		}
	}
	return false
}

func (s *SimulatedSession) record(msg *SentMessage) *interfaces.MessageRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	msg.Ref = interfaces.MessageRef{
		Seqs:  []int32{s.seq},
		Rands: []int32{s.seq ^ 0x5f37},
		Time:  msg.SentAt.Unix(),
	}
	s.sent = append(s.sent, msg)
	ref := msg.Ref
	return &ref
}

// SendFriendMessage implements interfaces.Session.
func (s *SimulatedSession) SendFriendMessage(ctx context.Context, uin int64, elems []message.Element) (*interfaces.MessageRef, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	if !s.hasFriend(uin) {
		return nil, fmt.Errorf("friend %d: %w", uin, interfaces.ErrTargetMissing)
	}
	return s.record(&SentMessage{
		FriendUin: uin,
		Elements:  append([]message.Element(nil), elems...),
		SentAt:    time.Now(),
	}), nil
}

// SendGroupMessage implements interfaces.Session.
func (s *SimulatedSession) SendGroupMessage(ctx context.Context, code int64, elems []message.Element) (*interfaces.MessageRef, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	if !s.hasGroup(code) {
		return nil, fmt.Errorf("group %d: %w", code, interfaces.ErrTargetMissing)
	}
	return s.record(&SentMessage{
		GroupCode: code,
		Elements:  append([]message.Element(nil), elems...),
		SentAt:    time.Now(),
	}), nil
}

func (s *SimulatedSession) recall(match func(*SentMessage) bool, ref interfaces.MessageRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range s.sent {
		if !match(msg) || len(msg.Ref.Seqs) == 0 || len(ref.Seqs) == 0 || msg.Ref.Seqs[0] != ref.Seqs[0] {
			continue
		}
		if msg.Recalled {
			return fmt.Errorf("message already gone: %w", interfaces.ErrTargetMissing)
		}
		if time.Since(msg.SentAt) > s.acct.recallWindow() {
			return fmt.Errorf("sent at %d: %w", msg.SentAt.Unix(), interfaces.ErrRecallWindow)
		}
		msg.Recalled = true
		return nil
	}
	return fmt.Errorf("no such message: %w", interfaces.ErrTargetMissing)
}

// RecallFriendMessage implements interfaces.Session.
func (s *SimulatedSession) RecallFriendMessage(ctx context.Context, uin int64, ref interfaces.MessageRef) error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.recall(func(m *SentMessage) bool { return m.FriendUin == uin }, ref)
}

// RecallGroupMessage implements interfaces.Session.
func (s *SimulatedSession) RecallGroupMessage(ctx context.Context, code int64, ref interfaces.MessageRef) error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.recall(func(m *SentMessage) bool { return m.GroupCode == code }, ref)
}

// PokeFriend implements interfaces.Session.
func (s *SimulatedSession) PokeFriend(ctx context.Context, uin int64) error {
	if err := s.guard(); err != nil {
		return err
	}
	if !s.hasFriend(uin) {
		return fmt.Errorf("friend %d: %w", uin, interfaces.ErrTargetMissing)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pokes = append(s.pokes, Poke{FriendUin: uin})
	return nil
}

// PokeGroupMember implements interfaces.Session.
func (s *SimulatedSession) PokeGroupMember(ctx context.Context, code, uin int64) error {
	if err := s.guard(); err != nil {
		return err
	}
	if !s.hasGroup(code) {
		return fmt.Errorf("group %d: %w", code, interfaces.ErrTargetMissing)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pokes = append(s.pokes, Poke{GroupCode: code, MemberUin: uin})
	return nil
}

// Sent returns a snapshot of the messages recorded so far.
func (s *SimulatedSession) Sent() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentMessage, 0, len(s.sent))
	for _, msg := range s.sent {
		out = append(out, *msg)
	}
	return out
}

// Pokes returns a snapshot of the nudges recorded so far.
func (s *SimulatedSession) Pokes() []Poke {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Poke(nil), s.pokes...)
}
