package qqcore

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Version is the library version.
const Version = "0.2.0"

// Build carries build metadata; override with
// -ldflags "-X github.com/opd-ai/qqcore.Build=...".
var Build = "dev"

var initOnce sync.Once

// Init performs one-time process-wide initialization. It is safe to
// call from multiple goroutines and repeated calls are no-ops; Login
// and NewService call it implicitly.
func Init() {
	initOnce.Do(func() {
		logrus.WithFields(logrus.Fields{
			"function": "Init",
			"version":  Version,
			"build":    Build,
		}).Debug("qqcore initialized")
	})
}
