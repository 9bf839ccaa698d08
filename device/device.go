// Package device manages the per-account data directory: a stable
// device identity presented to the server, and a sealed cache of the
// session token issued at login.
//
// The layout under <data folder>/<uin>/ is:
//
//	device.json  device identity and seal key, created on first login
//	token.bin    session token sealed with NaCl secretbox
//
// Losing device.json invalidates token.bin; the next login performs a
// full handshake and both files are recreated.
package device

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/opd-ai/qqcore/interfaces"
)

const (
	deviceFile = "device.json"
	tokenFile  = "token.bin"

	nonceSize = 24
	keySize   = 32
)

// record is the persisted form of the device identity.
type record struct {
	ID        string `json:"id"`
	SealKey   []byte `json:"seal_key"`
	CreatedAt int64  `json:"created_at"`
}

// Store is one account's slice of the data directory.
type Store struct {
	dir string
	rec record
}

// Open loads the device identity for uin under dataFolder, creating
// the account directory and a fresh identity if absent.
func Open(dataFolder string, uin int64) (*Store, error) {
	dir := filepath.Join(dataFolder, strconv.FormatInt(uin, 10))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create account directory: %w", err)
	}

	s := &Store{dir: dir}
	path := filepath.Join(dir, deviceFile)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &s.rec); err == nil && s.rec.ID != "" && len(s.rec.SealKey) == keySize {
			return s, nil
		}
		logrus.WithFields(logrus.Fields{
			"function": "Open",
			"uin":      uin,
			"path":     path,
		}).Warn("Corrupt device record, regenerating")
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read device record: %w", err)
	}

	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate seal key: %w", err)
	}
	s.rec = record{
		ID:        uuid.NewString(),
		SealKey:   key,
		CreatedAt: time.Now().Unix(),
	}
	data, err = json.Marshal(&s.rec)
	if err != nil {
		return nil, fmt.Errorf("encode device record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("write device record: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":  "Open",
		"uin":       uin,
		"device_id": s.rec.ID,
	}).Info("Created device identity")
	return s, nil
}

// Dir returns the account's data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Device returns the identity handed to the session provider.
func (s *Store) Device() interfaces.Device {
	return interfaces.Device{ID: s.rec.ID}
}

// SaveToken seals token with the device's key and persists it. A nil
// or empty token removes any cached one.
func (s *Store) SaveToken(token []byte) error {
	path := filepath.Join(s.dir, tokenFile)
	if len(token) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove token cache: %w", err)
		}
		return nil
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	var key [keySize]byte
	copy(key[:], s.rec.SealKey)

	sealed := secretbox.Seal(nonce[:], token, &nonce, &key)
	if err := os.WriteFile(path, sealed, 0o600); err != nil {
		return fmt.Errorf("write token cache: %w", err)
	}
	return nil
}

// LoadToken returns the cached session token, or nil when no usable
// cache exists. A token that fails to unseal is discarded rather than
// surfaced as an error; the caller falls back to a full handshake.
func (s *Store) LoadToken() []byte {
	path := filepath.Join(s.dir, tokenFile)
	sealed, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	if len(sealed) < nonceSize {
		return nil
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	var key [keySize]byte
	copy(key[:], s.rec.SealKey)

	token, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &key)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"function": "LoadToken",
			"path":     path,
		}).Warn("Cached token failed to unseal, discarding")
		_ = os.Remove(path)
		return nil
	}
	return token
}
