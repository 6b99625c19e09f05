// Package notify delivers per-role turn reports to whatever carries them to
// players: a log, the websocket gateway, or several of those at once.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"
)

// Report is one message for one channel.
type Report struct {
	Team    string `json:"team,omitempty"`
	Role    string `json:"role"`
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
	// Tick is the turn the report belongs to, 0 for command replies.
	Tick int64 `json:"tick,omitempty"`
}

// Notifier hands reports to a delivery channel.
type Notifier interface {
	Notify(ctx context.Context, r Report) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, r Report) error

func (f NotifierFunc) Notify(ctx context.Context, r Report) error { return f(ctx, r) }

// Log writes every report to a slog logger.
type Log struct {
	logger *slog.Logger
}

// NewLog returns a notifier logging through logger, or the default logger
// when nil.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, r Report) error {
	l.logger.InfoContext(ctx, "report",
		"team", r.Team,
		"role", r.Role,
		"channel", r.Channel,
		"tick", r.Tick,
		"text", r.Text)
	return nil
}

// Multi fans a report out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, r Report) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Limited throttles delivery per destination channel. Each channel gets its
// own token bucket.
type Limited struct {
	next  Notifier
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewLimited wraps next so that each channel receives at most perSecond
// reports per second after an initial burst.
func NewLimited(next Notifier, perSecond float64, burst int) *Limited {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Limited{
		next:     next,
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *Limited) limiter(channel string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[channel]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[channel] = lim
	}
	return lim
}

// Notify blocks until the channel's bucket allows the report or ctx ends.
func (l *Limited) Notify(ctx context.Context, r Report) error {
	key := r.Channel
	if key == "" {
		key = r.Team + "/" + r.Role
	}
	if err := l.limiter(key).Wait(ctx); err != nil {
		return err
	}
	return l.next.Notify(ctx, r)
}
