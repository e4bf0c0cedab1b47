package ratelimiter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	privateChatRate = time.Second
	groupChatRate   = 3 * time.Second
)

// RateLimiter paces outgoing messages per chat. Group chats (negative IDs)
// get a slower rate than private ones.
type RateLimiter struct {
	private  time.Duration
	group    time.Duration
	limiters map[int64]*rate.Limiter
	mu       sync.Mutex
	log      *slog.Logger
}

type Option func(*RateLimiter)

// WithRates overrides the minimal interval between messages.
func WithRates(private time.Duration, group time.Duration) Option {
	return func(rl *RateLimiter) {
		rl.private = private
		rl.group = group
	}
}

func New(log *slog.Logger, opts ...Option) *RateLimiter {
	rl := &RateLimiter{
		private:  privateChatRate,
		group:    groupChatRate,
		limiters: make(map[int64]*rate.Limiter),
		log:      log,
	}

	for _, opt := range opts {
		opt(rl)
	}

	return rl
}

// Wait blocks until a message may be sent to chatID or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context, chatID int64) error {
	lim := rl.limiter(chatID)

	if lim.Tokens() < 1 {
		rl.log.DebugContext(ctx, "Rate limiting message",
			"chatID", chatID,
			"interval", rl.interval(chatID))
	}

	if err := lim.Wait(ctx); err != nil {
		return fmt.Errorf("wait for chat %d: %w", chatID, err)
	}

	return nil
}

func (rl *RateLimiter) limiter(chatID int64) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	lim, ok := rl.limiters[chatID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(rl.interval(chatID)), 1)
		rl.limiters[chatID] = lim
	}

	return lim
}

func (rl *RateLimiter) interval(chatID int64) time.Duration {
	if chatID < 0 {
		return rl.group
	}
	return rl.private
}
