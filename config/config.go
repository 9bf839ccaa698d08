// Package config loads the process configuration from a TOML file:
// the ordered account list with per-account login methods, the data
// folder, and the log level.
//
// Example configuration:
//
//	data_folder = "./bots"
//	log_level = "info"
//
//	[[accounts]]
//	uin = 12345678
//	method = "password"
//	password = "secret"
//
//	[[accounts]]
//	uin = 23456789
//	method = "qrcode"
package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/qqcore"
	"github.com/opd-ai/qqcore/interfaces"
)

// Account is one configured account entry. Accounts are logged in in
// declaration order.
type Account struct {
	Uin         int64  `toml:"uin"`
	Method      string `toml:"method"`       // "password", "password_md5" or "qrcode"
	Password    string `toml:"password"`     // for method = "password"
	PasswordMD5 string `toml:"password_md5"` // hex, for method = "password_md5"
}

// Config is the full process configuration.
type Config struct {
	DataFolder       string        `toml:"data_folder"`
	LogLevel         string        `toml:"log_level"`
	ChallengeTimeout time.Duration `toml:"challenge_timeout"`
	Accounts         []Account     `toml:"accounts"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if cfg.DataFolder == "" {
		cfg.DataFolder = qqcore.DefaultDataFolder
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	seen := make(map[int64]bool, len(c.Accounts))
	for i, acct := range c.Accounts {
		if acct.Uin <= 0 {
			return fmt.Errorf("%w: account %d: uin must be positive", qqcore.ErrConfiguration, i)
		}
		if seen[acct.Uin] {
			return fmt.Errorf("%w: duplicate account %d", qqcore.ErrConfiguration, acct.Uin)
		}
		seen[acct.Uin] = true

		switch acct.Method {
		case "password":
			if acct.Password == "" {
				return fmt.Errorf("%w: account %d: password required", qqcore.ErrConfiguration, acct.Uin)
			}
		case "password_md5":
			if _, err := hex.DecodeString(acct.PasswordMD5); err != nil || acct.PasswordMD5 == "" {
				return fmt.Errorf("%w: account %d: password_md5 must be hex", qqcore.ErrConfiguration, acct.Uin)
			}
		case "qrcode":
		default:
			return fmt.Errorf("%w: account %d: unknown method %q", qqcore.ErrConfiguration, acct.Uin, acct.Method)
		}
	}
	return nil
}

// Logins resolves the configured accounts into login methods, in
// declaration order. qrDisplay renders QR codes for accounts using
// method = "qrcode"; resolver answers password-login challenges and
// may be nil.
func (c *Config) Logins(qrDisplay func(uin int64, png []byte) error, resolver qqcore.ChallengeResolver) ([]qqcore.AccountLogin, error) {
	logins := make([]qqcore.AccountLogin, 0, len(c.Accounts))
	for _, acct := range c.Accounts {
		var method qqcore.LoginMethod
		switch acct.Method {
		case "password":
			method = qqcore.Password{Secret: acct.Password, Resolver: resolver}
		case "password_md5":
			md5sum, err := hex.DecodeString(acct.PasswordMD5)
			if err != nil {
				return nil, fmt.Errorf("%w: account %d: password_md5 must be hex", qqcore.ErrConfiguration, acct.Uin)
			}
			method = qqcore.Password{MD5: md5sum, Resolver: resolver}
		case "qrcode":
			if qrDisplay == nil {
				return nil, fmt.Errorf("%w: account %d: qrcode method needs a display callback", qqcore.ErrConfiguration, acct.Uin)
			}
			uin := acct.Uin
			method = qqcore.QRCode{Display: func(png []byte) error { return qrDisplay(uin, png) }}
		}
		logins = append(logins, qqcore.AccountLogin{Uin: acct.Uin, Method: method})
	}
	return logins, nil
}

// Options builds login options from the configuration.
func (c *Config) Options(provider interfaces.SessionProvider) *qqcore.Options {
	opts := qqcore.NewOptions(provider)
	opts.DataFolder = c.DataFolder
	if c.ChallengeTimeout > 0 {
		opts.ChallengeTimeout = c.ChallengeTimeout
	}
	return opts
}

// ApplyLogLevel sets the process log level from the configuration.
func (c *Config) ApplyLogLevel() error {
	if c.LogLevel == "" {
		return nil
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("%w: log level %q", qqcore.ErrConfiguration, c.LogLevel)
	}
	logrus.SetLevel(level)
	return nil
}
