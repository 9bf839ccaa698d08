package qqcore

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/qqcore/interfaces"
)

// receiptKind distinguishes the recall path a receipt uses.
type receiptKind uint8

const (
	receiptFriend receiptKind = iota
	receiptGroup
)

// Receipt is the proof of a successfully sent message and the
// capability to recall it. Recall may succeed at most once; invoking
// it after the protocol-defined window fails without side effects.
type Receipt struct {
	account int64
	kind    receiptKind
	target  int64
	ref     interfaces.MessageRef

	mu       sync.Mutex
	recalled bool
}

func newFriendReceipt(account, friend int64, ref interfaces.MessageRef) *Receipt {
	return &Receipt{account: account, kind: receiptFriend, target: friend, ref: ref}
}

func newGroupReceipt(account, code int64, ref interfaces.MessageRef) *Receipt {
	return &Receipt{account: account, kind: receiptGroup, target: code, ref: ref}
}

// Time returns the server-assigned send time.
func (r *Receipt) Time() int64 {
	return r.ref.Time
}

// Seqs returns the message sequence ids.
func (r *Receipt) Seqs() []int32 {
	out := make([]int32, len(r.ref.Seqs))
	copy(out, r.ref.Seqs)
	return out
}

// Recall withdraws the message. The second successful call returns
// ErrAlreadyRecalled; past the protocol window it returns
// ErrRecallWindowExpired; after the session has ended it returns
// ErrNotConnected. A failed recall may be retried.
func (r *Receipt) Recall(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recalled {
		return ErrAlreadyRecalled
	}

	c, err := resolveClient(r.account)
	if err != nil {
		return err
	}
	sess, err := c.session()
	if err != nil {
		return err
	}

	switch r.kind {
	case receiptFriend:
		err = sess.RecallFriendMessage(ctx, r.target, r.ref)
	case receiptGroup:
		err = sess.RecallGroupMessage(ctx, r.target, r.ref)
	}
	if err != nil {
		return mapActionError(err)
	}

	r.recalled = true
	logrus.WithFields(logrus.Fields{
		"function": "Recall",
		"uin":      r.account,
		"target":   r.target,
		"seqs":     r.ref.Seqs,
	}).Debug("Message recalled")
	return nil
}
