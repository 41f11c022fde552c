package av

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Notifier receives the one-line, human-facing messages a video session
// produces ("Video capture starting.", "Failed to send video frame", ...).
type Notifier interface {
	Notify(peerID uint32, message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(peerID uint32, message string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(peerID uint32, message string) {
	f(peerID, message)
}

// logNotifier is used when no Notifier is configured.
type logNotifier struct{}

func (logNotifier) Notify(peerID uint32, message string) {
	logrus.WithFields(logrus.Fields{
		"function": "Notify",
		"peer_id":  peerID,
	}).Info(message)
}

// Default capture-path notice budget.
const (
	DefaultNoticeInterval = time.Second
	DefaultNoticeBurst    = 3
)

// noticeLimiter throttles notices raised from the capture path. Every failure
// is still logged by the caller; only the notice is suppressed.
type noticeLimiter struct {
	limiter *rate.Limiter

	mu         sync.Mutex
	suppressed uint64
}

func newNoticeLimiter(every time.Duration, burst int) *noticeLimiter {
	limit := rate.Inf
	if every > 0 {
		limit = rate.Every(every)
	}
	return &noticeLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// allow reports whether a notice may be raised now.
func (l *noticeLimiter) allow() bool {
	if l.limiter.Allow() {
		return true
	}
	l.mu.Lock()
	l.suppressed++
	l.mu.Unlock()
	return false
}

// suppressedCount returns how many notices were dropped.
func (l *noticeLimiter) suppressedCount() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.suppressed
}
