package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Archu-ck/Truth-and-Dare/internal/models"
)

// Store is the durable record access the router needs. GetByCode returns
// ErrRoomNotFound for unknown or expired codes; other failures are storage
// errors.
type Store interface {
	GetByCode(ctx context.Context, code string) (*models.Room, error)
	Save(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, room *models.Room) error
	CodeInUse(ctx context.Context, code string) (bool, error)
	UpdateRemaining(ctx context.Context, code string, seconds int) error
}

// Broadcaster fans out notifications to the subscribers of a room code.
// Implementations must not block the caller on slow consumers.
type Broadcaster interface {
	Subscribe(code, connID string)
	Unsubscribe(code, connID string)
	Broadcast(code, event string, data any)
	SendToConn(connID, event string, data any)
}

// Scheduler owns one countdown per room code. Live answers whether a
// deadline's generation still names the countdown of record for its code.
type Scheduler interface {
	Arm(code string, seconds int)
	Disarm(code string)
	Live(code string, gen uint64) bool
}

// Router serializes all actions per room code and runs each through
// load -> apply -> save -> timer -> broadcast as one unit. Actions for
// different codes run in parallel.
type Router struct {
	machine *Machine
	store   Store
	timers  Scheduler
	hub     Broadcaster
	locks   keyedMutex
}

func NewRouter(machine *Machine, store Store, timers Scheduler, hub Broadcaster) *Router {
	return &Router{
		machine: machine,
		store:   store,
		timers:  timers,
		hub:     hub,
		locks:   keyedMutex{entries: make(map[string]*lockEntry)},
	}
}

// Dispatch processes one action. A returned error is a rejection for the
// originating caller only; nothing was mutated or broadcast (except
// ErrStorage on save, where the computed transition is discarded as a
// whole).
func (r *Router) Dispatch(ctx context.Context, act Action) error {
	if act.Type == ActionCreateRoom {
		return r.create(ctx, act)
	}

	unlock := r.locks.lock(act.Code)
	defer unlock()

	// A countdown retires itself before its deadline is delivered, so an
	// action processed in that window can re-arm the code. Checking the
	// generation under the same lock drops the superseded deadline before
	// it can touch the room.
	if act.Type == ActionDeadlineElapsed && !r.timers.Live(act.Code, act.Gen) {
		return nil
	}

	room, err := r.store.GetByCode(ctx, act.Code)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	out, err := r.machine.Apply(room, act)
	if err != nil {
		return err
	}

	if out.Deleted {
		if err := r.store.Delete(ctx, room); err != nil {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		// Cancel the timer and detach the leaver inside the same locked
		// section that removes the room, so no further tick can observe it
		// and no reissued code inherits the subscription.
		r.timers.Disarm(act.Code)
		r.hub.Unsubscribe(act.Code, act.ConnID)
		log.Info().Str("code", act.Code).Msg("room deleted, last player left")
		return nil
	}

	if out.Changed {
		if err := r.store.Save(ctx, room); err != nil {
			// Do not broadcast a state the store does not hold.
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
	}

	switch out.Timer {
	case TimerArm:
		r.timers.Arm(act.Code, out.ArmSeconds)
	case TimerDisarm:
		r.timers.Disarm(act.Code)
	}

	switch act.Type {
	case ActionJoinRoom, ActionRequestRoomData:
		r.hub.Subscribe(act.Code, act.ConnID)
	case ActionLeaveRoom:
		// Unsubscribe first so the departure notification reaches the
		// remaining players only.
		r.hub.Unsubscribe(act.Code, act.ConnID)
	}

	r.publish(act.Code, act.ConnID, out.Events)
	return nil
}

func (r *Router) create(ctx context.Context, act Action) error {
	code, err := r.newCode(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	unlock := r.locks.lock(code)
	defer unlock()

	out := r.machine.NewRoom(code, act)
	if err := r.store.Save(ctx, out.Room); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	r.hub.Subscribe(code, act.ConnID)
	r.publish(code, act.ConnID, out.Events)
	log.Info().Str("code", code).Str("player_id", act.PlayerID).Msg("room created")
	return nil
}

func (r *Router) publish(code, connID string, events []Event) {
	for _, ev := range events {
		if ev.ToCaller {
			if connID != "" {
				r.hub.SendToConn(connID, ev.Type, ev.Data)
			}
			continue
		}
		r.hub.Broadcast(code, ev.Type, ev.Data)
	}
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func (r *Router) newCode(ctx context.Context) (string, error) {
	for {
		buf := make([]byte, 6)
		for i := range buf {
			buf[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
		}
		code := string(buf)

		inUse, err := r.store.CodeInUse(ctx, code)
		if err != nil {
			return "", err
		}
		if !inUse {
			return code, nil
		}
	}
}

// keyedMutex serializes work per room code. Entries are reference counted
// and removed once the last waiter releases, so abandoned codes do not
// accumulate.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(code string) (unlock func()) {
	k.mu.Lock()
	e, ok := k.entries[code]
	if !ok {
		e = &lockEntry{}
		k.entries[code] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, code)
		}
		k.mu.Unlock()
	}
}
