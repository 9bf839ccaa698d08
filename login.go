package qqcore

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/qqcore/device"
	"github.com/opd-ai/qqcore/interfaces"
)

// ChallengeResolver answers interactive login challenges (captcha or
// SMS verification) during password authentication.
type ChallengeResolver = interfaces.ChallengeResolver

// DefaultChallengeTimeout bounds each interactive login challenge and
// the whole QR-code confirmation wait.
const DefaultChallengeTimeout = 2 * time.Minute

// DefaultDataFolder is where per-account state lives unless overridden.
const DefaultDataFolder = "./bots"

// Options configures session establishment. A single Options value is
// typically shared by every account of a process.
type Options struct {
	// DataFolder is the root of per-account state; account uin
	// subdirectories are created beneath it as needed.
	DataFolder string

	// Provider performs the wire-protocol handshake. Required.
	Provider interfaces.SessionProvider

	// ChallengeTimeout bounds interactive login challenges.
	ChallengeTimeout time.Duration
}

// NewOptions creates Options with defaults for the given provider.
func NewOptions(provider interfaces.SessionProvider) *Options {
	return &Options{
		DataFolder:       DefaultDataFolder,
		Provider:         provider,
		ChallengeTimeout: DefaultChallengeTimeout,
	}
}

func (o *Options) challengeTimeout() time.Duration {
	if o.ChallengeTimeout <= 0 {
		return DefaultChallengeTimeout
	}
	return o.ChallengeTimeout
}

// LoginMethod is a credential strategy. The variant set is closed:
// Password and QRCode are the only implementations.
type LoginMethod interface {
	authenticate(ctx context.Context, env *loginEnv) (interfaces.Session, error)
}

// loginEnv bundles per-attempt state handed to a variant.
type loginEnv struct {
	uin   int64
	opts  *Options
	token []byte
	dev   interfaces.Device
}

// Password authenticates with a stored secret. Either Secret or MD5
// must be set; MD5 takes precedence when both are. A server-issued
// challenge is surfaced through Resolver; with no resolver the attempt
// fails as soon as a challenge arrives.
type Password struct {
	Secret   string
	MD5      []byte
	Resolver ChallengeResolver
}

func (m Password) authenticate(ctx context.Context, env *loginEnv) (interfaces.Session, error) {
	if m.Secret == "" && len(m.MD5) == 0 {
		return nil, fmt.Errorf("%w: password login requires a secret", ErrConfiguration)
	}

	var resolver ChallengeResolver
	if m.Resolver != nil {
		resolver = &boundedResolver{inner: m.Resolver, limit: env.opts.challengeTimeout()}
	}

	return env.opts.Provider.PasswordLogin(ctx, &interfaces.PasswordRequest{
		Uin:      env.uin,
		Secret:   m.Secret,
		MD5:      m.MD5,
		Device:   env.dev,
		Token:    env.token,
		Resolver: resolver,
	})
}

// boundedResolver applies the challenge timeout to each resolution.
// Only expiry of the challenge-scoped deadline counts as an abandoned
// challenge; a deadline the caller put on the login context passes
// through untouched.
type boundedResolver struct {
	inner ChallengeResolver
	limit time.Duration
}

func (r *boundedResolver) ResolveCaptcha(ctx context.Context, url string) (string, error) {
	bctx, cancel := context.WithTimeout(ctx, r.limit)
	defer cancel()
	answer, err := r.inner.ResolveCaptcha(bctx, url)
	return answer, challengeExpiry(err, bctx, ctx, r.limit)
}

func (r *boundedResolver) ResolveSMS(ctx context.Context, phone string) (string, error) {
	bctx, cancel := context.WithTimeout(ctx, r.limit)
	defer cancel()
	code, err := r.inner.ResolveSMS(bctx, phone)
	return code, challengeExpiry(err, bctx, ctx, r.limit)
}

// challengeExpiry rewrites a failure caused by the challenge-scoped
// deadline into ErrChallengeAbandoned. Failures while the outer context
// is itself done are left alone so caller-imposed deadlines surface as
// themselves.
func challengeExpiry(err error, bounded, outer context.Context, limit time.Duration) error {
	if err != nil && bounded.Err() != nil && outer.Err() == nil {
		return fmt.Errorf("no resolution within %v: %w", limit, interfaces.ErrChallengeAbandoned)
	}
	return err
}

// QRCode logs in by showing a scannable token through Display and
// polling until the user confirms out-of-band. The whole confirmation
// wait is bounded by Options.ChallengeTimeout.
type QRCode struct {
	Display func(png []byte) error

	// PollInterval overrides the provider's polling cadence; zero
	// keeps the provider default.
	PollInterval time.Duration
}

func (m QRCode) authenticate(ctx context.Context, env *loginEnv) (interfaces.Session, error) {
	if m.Display == nil {
		return nil, fmt.Errorf("%w: QR login requires a display callback", ErrConfiguration)
	}

	limit := env.opts.challengeTimeout()
	qctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	sess, err := env.opts.Provider.QRCodeLogin(qctx, &interfaces.QRCodeRequest{
		Uin:          env.uin,
		Device:       env.dev,
		Display:      m.Display,
		PollInterval: m.PollInterval,
	})
	return sess, challengeExpiry(err, qctx, ctx, limit)
}

// Login authenticates uin with the given method and returns the
// running session handle. The per-account subdirectory of
// Options.DataFolder is created if absent and holds the device
// identity and the cached session token.
//
// Login does not retry: ErrAuthentication, ErrNetwork and
// ErrChallengeTimeout are all terminal for the attempt. A second login
// for an account whose handle is still live fails with ErrAccountBusy.
func Login(ctx context.Context, uin int64, method LoginMethod, opts *Options) (*SessionHandle, error) {
	Init()

	if uin <= 0 {
		return nil, fmt.Errorf("%w: uin must be positive, got %d", ErrConfiguration, uin)
	}
	if method == nil {
		return nil, fmt.Errorf("%w: no login method", ErrConfiguration)
	}
	if opts == nil || opts.Provider == nil {
		return nil, fmt.Errorf("%w: no session provider", ErrConfiguration)
	}

	if !registry.reserve(uin) {
		return nil, fmt.Errorf("%w: uin %d", ErrAccountBusy, uin)
	}

	log := logrus.WithFields(logrus.Fields{
		"function": "Login",
		"uin":      uin,
	})
	log.Info("Logging in")

	store, err := device.Open(opts.DataFolder, uin)
	if err != nil {
		registry.release(uin)
		return nil, fmt.Errorf("open account storage: %w", err)
	}

	env := &loginEnv{
		uin:   uin,
		opts:  opts,
		token: store.LoadToken(),
		dev:   store.Device(),
	}

	sess, err := method.authenticate(ctx, env)
	if err != nil {
		registry.release(uin)
		err = mapLoginError(err)
		log.WithError(err).Error("Login failed")
		return nil, err
	}

	if token := sess.Token(); len(token) > 0 {
		if err := store.SaveToken(token); err != nil {
			log.WithError(err).Warn("Failed to cache session token")
		}
	}

	handle := newSessionHandle(uin, sess)
	log.Info("Login succeeded")
	return handle, nil
}
