package qqcore

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/qqcore/interfaces"
)

// SessionHandle is one account's live connection task. It is created
// by Login and completes only on disconnect, fatal session error, or
// cancellation. Completion deregisters the account, after which every
// selector scoped to it fails with ErrNotConnected.
type SessionHandle struct {
	uin     int64
	session interfaces.Session
	client  *Client
	cancel  context.CancelFunc
	done    chan struct{}

	mu  sync.Mutex
	err error
}

func newSessionHandle(uin int64, sess interfaces.Session) *SessionHandle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &SessionHandle{
		uin:     uin,
		session: sess,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	h.client = &Client{uin: uin, handle: h}
	registry.bind(uin, h.client)

	go h.run(ctx)
	return h
}

// run drives the provider's keepalive/read loop for the life of the
// connection.
func (h *SessionHandle) run(ctx context.Context) {
	err := h.session.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	} else if err != nil {
		err = mapActionError(err)
	}

	h.mu.Lock()
	h.err = err
	h.mu.Unlock()

	registry.release(h.uin)
	close(h.done)

	logrus.WithFields(logrus.Fields{
		"function": "run",
		"uin":      h.uin,
		"error":    err,
	}).Info("Session ended")
}

// Uin returns the account the handle belongs to.
func (h *SessionHandle) Uin() int64 {
	return h.uin
}

// Client returns the facade bound to this handle. The client holds a
// non-owning reference and becomes inert once the handle ends.
func (h *SessionHandle) Client() *Client {
	return h.client
}

// Done is closed when the session ends for any reason.
func (h *SessionHandle) Done() <-chan struct{} {
	return h.done
}

// Err reports why the session ended; nil while it is still running or
// after a clean cancellation.
func (h *SessionHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Alive blocks until the session ends or ctx is cancelled.
func (h *SessionHandle) Alive(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return h.Err()
	}
}

// Close cancels the session and waits for its task to finish.
func (h *SessionHandle) Close() {
	h.cancel()
	<-h.done
}

// live reports whether the session task is still running.
func (h *SessionHandle) live() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}
