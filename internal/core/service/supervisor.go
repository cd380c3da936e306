package service

import (
	"context"
	"errors"
	"time"

	"gamebot/internal/core/domain"
	"gamebot/internal/core/port"

	"github.com/rs/zerolog/log"
)

const (
	reconnectBaseDelay   = 3 * time.Second
	reconnectMaxDelay    = 60 * time.Second
	reconnectMaxAttempts = 10
	credentialCooldown   = 5 * time.Minute

	// a connection that stayed up this long counts as successful and resets
	// the backoff counter
	stableConnection = time.Minute
)

// Supervisor owns the single transport connection: it runs it, and on
// unexpected disconnects reconnects with capped exponential backoff. A
// terminal logout purges credentials immediately; exceeding the attempt
// budget forces a credential reset after a cooldown.
type Supervisor struct {
	transport port.Transport
	dispatch  func(ctx context.Context, msg *domain.Message)

	baseDelay   time.Duration
	maxDelay    time.Duration
	maxAttempts int
	resetPause  time.Duration
	stableAfter time.Duration
}

func NewSupervisor(transport port.Transport, dispatch func(ctx context.Context, msg *domain.Message)) *Supervisor {
	return &Supervisor{
		transport:   transport,
		dispatch:    dispatch,
		baseDelay:   reconnectBaseDelay,
		maxDelay:    reconnectMaxDelay,
		maxAttempts: reconnectMaxAttempts,
		resetPause:  credentialCooldown,
		stableAfter: stableConnection,
	}
}

// Run blocks until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) error {
	delay := s.baseDelay
	attempts := 0

	for {
		connectedAt := time.Now()
		err := s.transport.Run(ctx, s.handleMessage)

		if ctx.Err() != nil {
			log.Info().Msg("supervisor shutting down")
			return ctx.Err()
		}

		if errors.Is(err, domain.ErrLoggedOut) {
			log.Warn().Msg("transport logged out, resetting credentials")
			s.resetCredentials(ctx)
			delay = s.baseDelay
			attempts = 0
			continue
		}

		if time.Since(connectedAt) > s.stableAfter {
			delay = s.baseDelay
			attempts = 0
		}

		attempts++
		if attempts > s.maxAttempts {
			log.Error().Int("attempts", attempts-1).
				Msg("reconnect attempts exhausted, forcing credential reset")
			s.resetCredentials(ctx)
			if !s.sleep(ctx, s.resetPause) {
				return ctx.Err()
			}
			delay = s.baseDelay
			attempts = 0
			continue
		}

		log.Warn().Err(err).Int("attempt", attempts).Dur("delay", delay).
			Msg("transport disconnected, reconnecting")
		if !s.sleep(ctx, delay) {
			return ctx.Err()
		}

		delay = delay * 3 / 2
		if delay > s.maxDelay {
			delay = s.maxDelay
		}
	}
}

// handleMessage hands one inbound event to the dispatcher. Handlers for
// different messages are free to interleave; each invocation runs in its own
// goroutine and fails independently.
func (s *Supervisor) handleMessage(ctx context.Context, msg *domain.Message) {
	go s.dispatch(ctx, msg)
}

func (s *Supervisor) resetCredentials(ctx context.Context) {
	if err := s.transport.ResetCredentials(ctx); err != nil {
		log.Error().Err(err).Msg("failed to reset transport credentials")
	}
}

func (s *Supervisor) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
