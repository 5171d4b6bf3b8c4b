package messaging

import (
	"fmt"
	"math"
	"time"

	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/account"
)

// Limiter throttles broadcasts per participant using only the participant's
// persisted LastMessageAt and MessagesSent.
type Limiter struct {
	Cooldown    time.Duration
	BurstWindow time.Duration
	BurstLimit  uint64
	Window      time.Duration
	WindowLimit uint64
}

// DefaultLimiter allows 60 messages a minute, at most 10 within 10 seconds,
// and never two within one second.
var DefaultLimiter = Limiter{
	Cooldown:    time.Second,
	BurstWindow: 10 * time.Second,
	BurstLimit:  10,
	Window:      time.Minute,
	WindowLimit: 60,
}

// Admit checks one broadcast at now and, when accepted, advances the
// participant's counters. Checks run cooldown first, then burst, then the
// window budget; a message inside the burst window that passes the burst
// check still counts toward the window.
func (l Limiter) Admit(p *account.Participant, now time.Time) error {
	if p.LastMessageAt.IsZero() {
		p.MessagesSent = 1
		p.LastMessageAt = now
		return nil
	}

	delta := now.Sub(p.LastMessageAt)
	switch {
	case delta < l.Cooldown:
		return apperrors.New(apperrors.CodeRateLimitCooldown, fmt.Sprintf("last message %s ago", delta))
	case delta < l.BurstWindow && min(p.MessagesSent, l.BurstLimit) >= l.BurstLimit:
		return apperrors.New(apperrors.CodeRateLimitBurst, fmt.Sprintf("%d messages inside the burst window", p.MessagesSent))
	}

	if delta < l.Window {
		if p.MessagesSent >= l.WindowLimit {
			return apperrors.New(apperrors.CodeRateLimitWindow, fmt.Sprintf("%d messages inside the window", p.MessagesSent))
		}
		if p.MessagesSent == math.MaxUint64 {
			return apperrors.New(apperrors.CodeRateLimitCounterOverflow, "message counter overflow")
		}
		p.MessagesSent++
	} else {
		p.MessagesSent = 1
	}
	p.LastMessageAt = now
	return nil
}
