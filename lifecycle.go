package qqcore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Stage is a named phase of the service lifecycle.
type Stage uint8

const (
	StageIdle Stage = iota
	StagePreparing
	StageBlocking
	StageStopped
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StagePreparing:
		return "preparing"
	case StageBlocking:
		return "blocking"
	case StageStopped:
		return "stopped"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

// AccountLogin pairs one account with its credential strategy. Order
// matters: the service logs accounts in following slice order.
type AccountLogin struct {
	Uin    int64
	Method LoginMethod
}

// InterfaceAPI names the capability Interface exposes for callers that
// want programmatic access to the running accounts.
const InterfaceAPI = "qqcore.api"

// Service is the multi-account supervisor. Run drives every account
// through login during the preparing stage, then holds the process in
// the blocking stage until the shutdown signal.
//
// Known asymmetry: a login failure during preparing aborts the stage
// and propagates, but accounts that already logged in stay connected;
// no rollback is performed.
type Service struct {
	accounts []AccountLogin
	opts     *Options

	mu      sync.Mutex
	handles []*SessionHandle

	stage        atomic.Uint32
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewService creates a supervisor for the given account order.
func NewService(accounts []AccountLogin, opts *Options) *Service {
	Init()
	return &Service{
		accounts: accounts,
		opts:     opts,
		shutdown: make(chan struct{}),
	}
}

// Stages declares the service's lifecycle stages for a hosting
// framework, in execution order.
func (s *Service) Stages() []string {
	return []string{"preparing", "blocking"}
}

// RequiredServices declares upstream dependencies; this service has
// none.
func (s *Service) RequiredServices() []string {
	return nil
}

// API is the capability handed out through Interface.
type API struct {
	service *Service
}

// Client returns the live client for uin, or ErrNotConnected.
func (a *API) Client(uin int64) (*Client, error) {
	return resolveClient(uin)
}

// Handles returns the session handles created during preparing.
func (a *API) Handles() []*SessionHandle {
	a.service.mu.Lock()
	defer a.service.mu.Unlock()
	out := make([]*SessionHandle, len(a.service.handles))
	copy(out, a.service.handles)
	return out
}

// Interface returns the named capability. Unsupported names fail with
// ErrConfiguration.
func (s *Service) Interface(name string) (any, error) {
	if name != InterfaceAPI {
		return nil, fmt.Errorf("%w: unsupported interface %q", ErrConfiguration, name)
	}
	return &API{service: s}, nil
}

// Stage reports the current lifecycle stage.
func (s *Service) Stage() Stage {
	return Stage(s.stage.Load())
}

// Shutdown fires the one-shot shutdown signal. It is the sole valid
// reason for the blocking stage to end; repeated calls are no-ops.
func (s *Service) Shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
	})
}

// Run executes the lifecycle: the preparing stage logs each account in,
// awaiting every login before the next, in the supplied order; the
// blocking stage then holds until the shutdown signal. Cancelling ctx
// counts as a shutdown request. Leaving the blocking stage closes all
// session handles as part of process teardown; a preparing-stage
// failure does not, accounts that already logged in stay connected.
func (s *Service) Run(ctx context.Context) error {
	defer s.stage.Store(uint32(StageStopped))

	if err := s.prepare(ctx); err != nil {
		return err
	}
	defer s.closeHandles()
	return s.block(ctx)
}

func (s *Service) prepare(ctx context.Context) error {
	s.stage.Store(uint32(StagePreparing))
	log := logrus.WithFields(logrus.Fields{
		"function": "prepare",
		"accounts": len(s.accounts),
	})
	log.Info("Entering preparing stage")

	for _, acct := range s.accounts {
		handle, err := Login(ctx, acct.Uin, acct.Method, s.opts)
		if err != nil {
			// Earlier accounts stay connected; the caller owns retry
			// policy and their teardown.
			return fmt.Errorf("prepare account %d: %w", acct.Uin, err)
		}
		s.mu.Lock()
		s.handles = append(s.handles, handle)
		s.mu.Unlock()
	}

	log.Info("Preparing stage complete")
	return nil
}

func (s *Service) block(ctx context.Context) error {
	s.stage.Store(uint32(StageBlocking))
	log := logrus.WithFields(logrus.Fields{"function": "block"})
	log.Info("Entering blocking stage")

	// Aggregate completion of every session handle. All accounts
	// ending on their own does not end the stage; only the shutdown
	// signal does.
	s.mu.Lock()
	handles := make([]*SessionHandle, len(s.handles))
	copy(handles, s.handles)
	s.mu.Unlock()

	allDone := make(chan struct{})
	go func() {
		for _, h := range handles {
			<-h.Done()
		}
		close(allDone)
	}()

	for {
		select {
		case <-s.shutdown:
			log.Info("Shutdown signal observed, leaving blocking stage")
			return nil
		case <-ctx.Done():
			log.WithError(ctx.Err()).Info("Context cancelled, leaving blocking stage")
			return ctx.Err()
		case <-allDone:
			// Disable the aggregate so the next iteration blocks on
			// the shutdown signal alone instead of spinning on an
			// already-completed wait.
			allDone = nil
			log.Warn("All sessions ended; still waiting for shutdown signal")
		}
	}
}

func (s *Service) closeHandles() {
	s.mu.Lock()
	handles := make([]*SessionHandle, len(s.handles))
	copy(handles, s.handles)
	s.mu.Unlock()
	for _, h := range handles {
		h.Close()
	}
}
