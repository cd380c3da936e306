package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	cooldownMaxAge        = 24 * time.Hour
	cooldownSweepInterval = time.Hour
)

type cooldownKey struct {
	userKey string
	command string
}

type cooldownEntry struct {
	windowStartedAt time.Time
	uses            int
}

// CooldownTracker rate limits command use per (participant, command). A
// window starts on first use; within it every call counts, and calls beyond
// the command's max uses report on-cooldown. Entries older than 24 hours are
// swept regardless of their own window size.
type CooldownTracker struct {
	mutex   sync.Mutex
	entries map[cooldownKey]*cooldownEntry
}

func NewCooldownTracker(ctx context.Context) *CooldownTracker {
	t := &CooldownTracker{
		entries: make(map[cooldownKey]*cooldownEntry),
	}

	go t.sweep(ctx)

	return t
}

// CheckAndRecord records one use and reports whether the command is on
// cooldown for this participant. The rejected call still counts, so
// RemainingSeconds reflects continued pressure.
func (t *CooldownTracker) CheckAndRecord(userKey, command string, window time.Duration, maxUses int) bool {
	if maxUses <= 0 {
		maxUses = 1
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	key := cooldownKey{userKey: userKey, command: command}
	entry, ok := t.entries[key]

	now := time.Now()
	if !ok || now.Sub(entry.windowStartedAt) > window {
		t.entries[key] = &cooldownEntry{windowStartedAt: now, uses: 1}
		return false
	}

	entry.uses++

	return entry.uses > maxUses
}

// RemainingSeconds returns how long until the participant's window elapses,
// rounded up, floored at zero.
func (t *CooldownTracker) RemainingSeconds(userKey, command string, window time.Duration) int {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	entry, ok := t.entries[cooldownKey{userKey: userKey, command: command}]
	if !ok {
		return 0
	}

	remaining := window - time.Since(entry.windowStartedAt)
	if remaining <= 0 {
		return 0
	}

	return int((remaining + time.Second - 1) / time.Second)
}

// Reset clears the window for one participant and command, e.g. as an admin
// override.
func (t *CooldownTracker) Reset(userKey, command string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	delete(t.entries, cooldownKey{userKey: userKey, command: command})
}

func (t *CooldownTracker) sweep(ctx context.Context) {
	ticker := time.NewTicker(cooldownSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.mutex.Lock()
			now := time.Now()
			for key, entry := range t.entries {
				if now.Sub(entry.windowStartedAt) > cooldownMaxAge {
					delete(t.entries, key)
				}
			}
			t.mutex.Unlock()
			log.Debug().Msg("swept stale cooldown entries")
		case <-ctx.Done():
			log.Debug().Msg("stopping cooldown sweep")
			return
		}
	}
}
