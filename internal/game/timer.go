package game

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// persistEvery controls how often the in-flight countdown is written back
// to storage. Phase correctness never reads the persisted value while the
// process runs; it only bounds how many seconds a restart can lose.
const persistEvery = 5

// TimerScheduler runs one countdown per room code. Every countdown is
// generation tagged: arming a code supersedes the previous countdown, and
// a late tick from a superseded countdown is detected and discarded rather
// than trusted.
type TimerScheduler struct {
	store    Store
	hub      Broadcaster
	interval time.Duration
	dispatch func(Action)

	mu     sync.Mutex
	gen    uint64
	active map[string]*countdown
	gens   map[string]uint64 // generation of record per code, outlives retirement
}

type countdown struct {
	code      string
	gen       uint64
	remaining int
	stop      chan struct{}
}

func NewTimerScheduler(store Store, hub Broadcaster) *TimerScheduler {
	return &TimerScheduler{
		store:    store,
		hub:      hub,
		interval: time.Second,
		active:   make(map[string]*countdown),
		gens:     make(map[string]uint64),
	}
}

// SetDispatch wires the sink for synthetic deadline actions. Must be set
// before the first Arm.
func (t *TimerScheduler) SetDispatch(fn func(Action)) {
	t.dispatch = fn
}

// Arm starts a countdown for code, replacing any countdown already running
// for it.
func (t *TimerScheduler) Arm(code string, seconds int) {
	t.mu.Lock()
	if prev, ok := t.active[code]; ok {
		close(prev.stop)
	}
	t.gen++
	c := &countdown{code: code, gen: t.gen, remaining: seconds, stop: make(chan struct{})}
	t.active[code] = c
	t.gens[code] = c.gen
	t.mu.Unlock()

	go t.run(c)
}

// Disarm cancels the countdown for code, if any. Idempotent.
func (t *TimerScheduler) Disarm(code string) {
	t.mu.Lock()
	if c, ok := t.active[code]; ok {
		close(c.stop)
		delete(t.active, code)
	}
	delete(t.gens, code)
	t.mu.Unlock()
}

// Live reports whether gen is still the generation of record for code. A
// countdown that retired at zero stays live until the deadline it produced
// is superseded by an Arm or cancelled by a Disarm, so the receiver can
// tell a legitimate deadline from one delivered after a re-arm.
func (t *TimerScheduler) Live(code string, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	g, ok := t.gens[code]
	return ok && g == gen
}

func (t *TimerScheduler) run(c *countdown) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			// Check liveness, decrement and retire under one lock so a
			// racing Arm/Disarm can never produce a stale tick or a second
			// deadline.
			t.mu.Lock()
			if t.active[c.code] != c {
				t.mu.Unlock()
				return
			}
			c.remaining--
			remaining := c.remaining
			if remaining <= 0 {
				delete(t.active, c.code)
			}
			t.mu.Unlock()

			t.hub.Broadcast(c.code, EventTimerTick, remaining)

			if remaining <= 0 {
				t.dispatch(Action{Type: ActionDeadlineElapsed, Code: c.code, Gen: c.gen})
				return
			}
			if remaining%persistEvery == 0 {
				if err := t.store.UpdateRemaining(context.Background(), c.code, remaining); err != nil {
					log.Debug().Err(err).Str("code", c.code).Msg("persist countdown")
				}
			}
		}
	}
}
