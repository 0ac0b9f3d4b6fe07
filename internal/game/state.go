package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/Archu-ck/Truth-and-Dare/internal/models"
)

const defaultRoundDuration = 60

// Placeholder texts substituted at the moment of phase advance, never
// before. The "Empty" variants cover explicit empty submissions, the "No"
// variants cover deadline backfill.
const (
	placeholderEmptyQuestion = "(Empty Question)"
	placeholderEmptyDare     = "(Empty Dare)"
	placeholderEmptyResponse = "(Empty Response)"
	placeholderNoQuestion    = "(No question provided)"
	placeholderNoDare        = "(No dare provided)"
	placeholderNoResponse    = "(No response provided)"
)

// Machine holds the pure transition logic: given a loaded room and an
// action it mutates the room in place and reports what the router must do.
// It performs no IO.
type Machine struct {
	roleCoin func() bool // true picks truth
	now      func() time.Time
}

func NewMachine() *Machine {
	return &Machine{
		roleCoin: func() bool { return rand.Intn(2) == 0 },
		now:      time.Now,
	}
}

// NewRoom builds the aggregate for a create action. Code uniqueness is the
// router's job.
func (m *Machine) NewRoom(code string, act Action) *Outcome {
	now := m.now()
	room := &models.Room{
		Code:          code,
		HostID:        act.PlayerID,
		Phase:         models.PhaseLobby,
		RoundDuration: defaultRoundDuration,
		CreatedAt:     now,
		Players: []models.Player{{
			PlayerID: act.PlayerID,
			ConnID:   act.ConnID,
			Nickname: act.Nickname,
			IsHost:   true,
			JoinedAt: now,
		}},
	}
	return &Outcome{
		Room:    room,
		Changed: true,
		Events: []Event{
			{Type: EventRoomCreated, Data: createdData{Code: code, Room: room}, ToCaller: true},
		},
	}
}

// Apply runs one action against a loaded room. On error the room must be
// discarded, not saved: rejected actions leave storage untouched.
func (m *Machine) Apply(room *models.Room, act Action) (*Outcome, error) {
	switch act.Type {
	case ActionJoinRoom:
		return m.join(room, act)
	case ActionStartGame:
		return m.startRound(room, act)
	case ActionSubmitInput:
		return m.submitPrompt(room, act)
	case ActionSubmitResponse:
		return m.submitResponse(room, act)
	case ActionNextRound:
		return m.nextRound(room, act)
	case ActionLeaveRoom:
		return m.leave(room, act)
	case ActionRequestRoomData:
		return m.refresh(room, act)
	case ActionDeadlineElapsed:
		return m.deadline(room)
	default:
		return nil, fmt.Errorf("unknown action %q", act.Type)
	}
}

// join appends a new player, or on a known playerId just refreshes the
// connection handle (reconnect). Valid in any phase; a brand-new joiner
// mid-round spectates without a role until the next round starts.
func (m *Machine) join(room *models.Room, act Action) (*Outcome, error) {
	if p := findPlayer(room, act.PlayerID); p != nil {
		p.ConnID = act.ConnID
	} else {
		room.Players = append(room.Players, models.Player{
			PlayerID: act.PlayerID,
			ConnID:   act.ConnID,
			Nickname: act.Nickname,
			Position: len(room.Players),
			JoinedAt: m.now(),
		})
	}
	return &Outcome{
		Room:    room,
		Changed: true,
		Events: []Event{
			{Type: EventPlayerJoined, Data: roomData{Room: room}},
			{Type: EventJoinedSuccess, Data: roomData{Room: room}, ToCaller: true},
		},
	}, nil
}

func (m *Machine) startRound(room *models.Room, act Action) (*Outcome, error) {
	if room.HostID != act.PlayerID {
		return nil, ErrForbidden
	}
	if room.Phase != models.PhaseLobby {
		return nil, ErrInvalidPhase
	}
	if len(room.Players) < 2 {
		return nil, ErrNotEnoughPlayers
	}

	duration := act.TurnTimer
	if duration <= 0 {
		duration = defaultRoundDuration
	}
	room.RoundDuration = duration
	room.Round = 1

	role := models.RoleDare
	if m.roleCoin() {
		role = models.RoleTruth
	}
	m.beginRound(room, role)

	return &Outcome{
		Room:       room,
		Changed:    true,
		Timer:      TimerArm,
		ArmSeconds: duration,
		Events:     []Event{{Type: EventGameStarted, Data: roomData{Room: room}}},
	}, nil
}

// beginRound resets every player for a fresh collecting phase: shared role
// for all, prompts/responses cleared, targets assigned as the cyclic
// successor (player i targets player i+1 mod n).
func (m *Machine) beginRound(room *models.Room, role string) {
	room.SharedRole = role
	n := len(room.Players)
	for i := range room.Players {
		p := &room.Players[i]
		p.Role = role
		p.Prompt = ""
		p.Response = ""
		p.IsReady = false
		p.TargetID = room.Players[(i+1)%n].PlayerID
	}
	room.Phase = models.PhaseCollecting
	room.RemainingSeconds = room.RoundDuration
}

func (m *Machine) submitPrompt(room *models.Room, act Action) (*Outcome, error) {
	if room.Phase != models.PhaseCollecting {
		return nil, ErrInvalidPhase
	}
	p := findPlayer(room, act.PlayerID)
	if p == nil {
		return nil, ErrForbidden
	}

	// An empty submission still counts as ready; the target just gets the
	// placeholder.
	p.IsReady = true
	if target := findPlayer(room, p.TargetID); target != nil {
		target.Prompt = act.Content
		if target.Prompt == "" {
			target.Prompt = emptySubmissionPlaceholder(target.Role)
		}
	}

	out := &Outcome{
		Room:    room,
		Changed: true,
		Events:  []Event{{Type: EventRoomUpdated, Data: roomData{Room: room}}},
	}
	if allReady(room) {
		m.advanceFromCollecting(room, out)
	}
	return out, nil
}

func (m *Machine) submitResponse(room *models.Room, act Action) (*Outcome, error) {
	if room.Phase != models.PhaseResponding {
		return nil, ErrInvalidPhase
	}
	p := findPlayer(room, act.PlayerID)
	if p == nil {
		return nil, ErrForbidden
	}

	p.Response = act.Content
	if p.Response == "" {
		p.Response = placeholderEmptyResponse
	}
	p.IsReady = true

	out := &Outcome{
		Room:    room,
		Changed: true,
		Events:  []Event{{Type: EventRoomUpdated, Data: roomData{Room: room}}},
	}
	if allReady(room) {
		m.enterReveal(room, out)
	}
	return out, nil
}

func (m *Machine) nextRound(room *models.Room, act Action) (*Outcome, error) {
	if room.HostID != act.PlayerID {
		return nil, ErrForbidden
	}
	if room.Phase != models.PhaseReveal {
		return nil, ErrInvalidPhase
	}

	room.Round++
	role := models.RoleTruth
	if room.SharedRole == models.RoleTruth {
		role = models.RoleDare
	}
	m.beginRound(room, role)

	return &Outcome{
		Room:       room,
		Changed:    true,
		Timer:      TimerArm,
		ArmSeconds: room.RoundDuration,
		Events:     []Event{{Type: EventGameStarted, Data: roomData{Room: room}}},
	}, nil
}

// deadline handles the scheduler's synthetic action. In an untimed phase
// the deadline is stale (a superseded timer fired late) and is discarded.
func (m *Machine) deadline(room *models.Room) (*Outcome, error) {
	out := &Outcome{Room: room}
	switch room.Phase {
	case models.PhaseCollecting:
		for i := range room.Players {
			p := &room.Players[i]
			if p.Role != models.RoleNone && p.Prompt == "" {
				p.Prompt = backfillPlaceholder(p.Role)
			}
		}
		out.Changed = true
		m.advanceFromCollecting(room, out)
	case models.PhaseResponding:
		for i := range room.Players {
			p := &room.Players[i]
			if p.Role != models.RoleNone && p.Response == "" {
				p.Response = placeholderNoResponse
			}
		}
		out.Changed = true
		m.enterReveal(room, out)
	}
	return out, nil
}

func (m *Machine) leave(room *models.Room, act Action) (*Outcome, error) {
	idx := playerIndex(room, act.PlayerID)
	if idx < 0 {
		return nil, ErrForbidden
	}
	leaver := room.Players[idx]
	wasHost := leaver.IsHost

	room.Players = append(room.Players[:idx], room.Players[idx+1:]...)
	for i := range room.Players {
		room.Players[i].Position = i
	}

	if len(room.Players) == 0 {
		return &Outcome{Room: room, Changed: true, Deleted: true, Timer: TimerDisarm}, nil
	}

	if wasHost {
		room.Players[0].IsHost = true
		room.HostID = room.Players[0].PlayerID
	}

	// A departure always resets the session to the lobby: the target cycle
	// is broken and any in-flight round is unrecoverable.
	room.Phase = models.PhaseLobby
	room.Round = 0
	room.RemainingSeconds = 0
	room.SharedRole = models.RoleNone
	for i := range room.Players {
		p := &room.Players[i]
		p.Prompt = ""
		p.Response = ""
		p.Role = models.RoleNone
		p.TargetID = ""
		p.IsReady = false
	}

	return &Outcome{
		Room:    room,
		Changed: true,
		Timer:   TimerDisarm,
		Events: []Event{
			{Type: EventPlayerLeft, Data: departureData{Nickname: leaver.Nickname, IsNewHost: wasHost}},
			{Type: EventRoomUpdated, Data: roomData{Room: room}},
		},
	}, nil
}

// refresh re-syncs the caller without touching game state beyond its
// connection handle.
func (m *Machine) refresh(room *models.Room, act Action) (*Outcome, error) {
	out := &Outcome{
		Room:   room,
		Events: []Event{{Type: EventRoomUpdated, Data: roomData{Room: room}, ToCaller: true}},
	}
	if p := findPlayer(room, act.PlayerID); p != nil && p.ConnID != act.ConnID {
		p.ConnID = act.ConnID
		out.Changed = true
	}
	return out, nil
}

// advanceFromCollecting applies the all-ready rule: truth rounds move to
// responding with a fresh countdown, dare rounds reveal immediately (the
// dare text itself is the content to perform).
func (m *Machine) advanceFromCollecting(room *models.Room, out *Outcome) {
	resetReady(room)
	if room.SharedRole == models.RoleTruth {
		room.Phase = models.PhaseResponding
		room.RemainingSeconds = room.RoundDuration
		out.Timer = TimerArm
		out.ArmSeconds = room.RoundDuration
	} else {
		room.Phase = models.PhaseReveal
		room.RemainingSeconds = 0
		out.Timer = TimerDisarm
	}
	out.Events = append(out.Events, Event{Type: EventPhaseChange, Data: phaseData{Room: room, Phase: room.Phase}})
}

func (m *Machine) enterReveal(room *models.Room, out *Outcome) {
	resetReady(room)
	room.Phase = models.PhaseReveal
	room.RemainingSeconds = 0
	out.Timer = TimerDisarm
	out.Events = append(out.Events, Event{Type: EventPhaseChange, Data: phaseData{Room: room, Phase: room.Phase}})
}

// allReady checks role-bearing players only, so mid-round spectators never
// gate a phase advance.
func allReady(room *models.Room) bool {
	active := 0
	for i := range room.Players {
		p := &room.Players[i]
		if p.Role == models.RoleNone {
			continue
		}
		active++
		if !p.IsReady {
			return false
		}
	}
	return active > 0
}

func resetReady(room *models.Room) {
	for i := range room.Players {
		room.Players[i].IsReady = false
	}
}

func findPlayer(room *models.Room, playerID string) *models.Player {
	if i := playerIndex(room, playerID); i >= 0 {
		return &room.Players[i]
	}
	return nil
}

func playerIndex(room *models.Room, playerID string) int {
	for i := range room.Players {
		if room.Players[i].PlayerID == playerID {
			return i
		}
	}
	return -1
}

func emptySubmissionPlaceholder(role string) string {
	if role == models.RoleTruth {
		return placeholderEmptyQuestion
	}
	return placeholderEmptyDare
}

func backfillPlaceholder(role string) string {
	if role == models.RoleTruth {
		return placeholderNoQuestion
	}
	return placeholderNoDare
}
