package game

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Archu-ck/Truth-and-Dare/internal/models"
)

// newTestScheduler wires a scheduler to a millisecond interval so a full
// countdown finishes well inside the test deadline.
func newTestScheduler() (*TimerScheduler, *fakeStore, *fakeHub, *dispatchRecorder) {
	store := newFakeStore()
	hub := newFakeHub()
	rec := &dispatchRecorder{done: make(chan Action, 4)}

	t := NewTimerScheduler(store, hub)
	t.interval = 2 * time.Millisecond
	t.SetDispatch(rec.record)
	return t, store, hub, rec
}

type dispatchRecorder struct {
	mu      sync.Mutex
	actions []Action
	done    chan Action
}

func (d *dispatchRecorder) record(act Action) {
	d.mu.Lock()
	d.actions = append(d.actions, act)
	d.mu.Unlock()
	d.done <- act
}

func (d *dispatchRecorder) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.actions)
}

func waitDeadline(t *testing.T, rec *dispatchRecorder) Action {
	t.Helper()
	select {
	case act := <-rec.done:
		return act
	case <-time.After(2 * time.Second):
		t.Fatal("no deadline action dispatched")
		return Action{}
	}
}

// ticks extracts the timer_tick payloads broadcast for code, in order.
func ticks(hub *fakeHub, code string) []int {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	var out []int
	for _, rec := range hub.records {
		if rec.code == code && rec.event == EventTimerTick {
			out = append(out, rec.data.(int))
		}
	}
	return out
}

func currentGen(s *TimerScheduler, code string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[code]
}

func TestCountdownTicksToDeadline(t *testing.T) {
	sched, _, hub, rec := newTestScheduler()

	sched.Arm("GAME01", 3)
	act := waitDeadline(t, rec)

	assert.Equal(t, ActionDeadlineElapsed, act.Type)
	assert.Equal(t, "GAME01", act.Code)
	assert.True(t, sched.Live("GAME01", act.Gen), "a retired countdown stays the generation of record until re-armed")
	assert.Equal(t, []int{2, 1, 0}, ticks(hub, "GAME01"))

	// The countdown retires itself; no second deadline may follow.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestCountdownPersistsEveryFifthSecond(t *testing.T) {
	sched, store, _, rec := newTestScheduler()
	store.rooms["GAME02"] = &models.Room{Code: "GAME02", RemainingSeconds: 12}

	sched.Arm("GAME02", 12)
	waitDeadline(t, rec)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 5, store.rooms["GAME02"].RemainingSeconds,
		"last write-back lands on the final multiple of five")
}

func TestArmSupersedesPreviousCountdown(t *testing.T) {
	sched, _, hub, rec := newTestScheduler()

	sched.Arm("GAME03", 1000)
	time.Sleep(10 * time.Millisecond)
	sched.Arm("GAME03", 2)

	act := waitDeadline(t, rec)
	assert.Equal(t, "GAME03", act.Code)

	seen := ticks(hub, "GAME03")
	require.NotEmpty(t, seen)
	assert.Equal(t, 0, seen[len(seen)-1])
	// Once the replacement is armed no tick from the first countdown may
	// surface, so after the first small value the sequence never jumps
	// back up toward 1000.
	started := false
	for _, v := range seen {
		if v <= 2 {
			started = true
		}
		if started {
			assert.LessOrEqual(t, v, 2, "superseded countdown leaked a tick")
		}
	}
	assert.Equal(t, 1, rec.count(), "only the live countdown reaches its deadline")
}

func TestDisarmStopsCountdown(t *testing.T) {
	sched, _, hub, rec := newTestScheduler()
	sched.interval = 20 * time.Millisecond

	sched.Arm("GAME04", 3)
	sched.Disarm("GAME04")
	sched.Disarm("GAME04") // idempotent

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, rec.count(), "disarmed countdown must not fire a deadline")
	assert.Empty(t, ticks(hub, "GAME04"))
}

func TestLiveTracksGenerations(t *testing.T) {
	sched, _, _, _ := newTestScheduler()
	sched.interval = time.Hour

	sched.Arm("GAME07", 30)
	gen1 := currentGen(sched, "GAME07")
	assert.True(t, sched.Live("GAME07", gen1))

	sched.Arm("GAME07", 30)
	assert.False(t, sched.Live("GAME07", gen1), "superseded generation must read as dead")
	gen2 := currentGen(sched, "GAME07")
	assert.True(t, sched.Live("GAME07", gen2))

	sched.Disarm("GAME07")
	assert.False(t, sched.Live("GAME07", gen2), "cancelled countdown must read as dead")
	assert.False(t, sched.Live("GAME07", 0), "a code with no countdown matches nothing")
}

func TestDisarmUnknownCodeIsNoOp(t *testing.T) {
	sched, _, _, _ := newTestScheduler()
	sched.Disarm("NEVER1")
}

func TestIndependentCountdownsPerCode(t *testing.T) {
	sched, _, hub, rec := newTestScheduler()

	sched.Arm("GAME05", 2)
	sched.Arm("GAME06", 3)

	codes := map[string]bool{}
	codes[waitDeadline(t, rec).Code] = true
	codes[waitDeadline(t, rec).Code] = true

	assert.True(t, codes["GAME05"])
	assert.True(t, codes["GAME06"])
	assert.Equal(t, []int{1, 0}, ticks(hub, "GAME05"))
	assert.Equal(t, []int{2, 1, 0}, ticks(hub, "GAME06"))
}
