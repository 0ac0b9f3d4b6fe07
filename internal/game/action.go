package game

import "github.com/Archu-ck/Truth-and-Dare/internal/models"

type ActionType string

const (
	ActionCreateRoom      ActionType = "create_room"
	ActionJoinRoom        ActionType = "join_room"
	ActionStartGame       ActionType = "start_game"
	ActionSubmitInput     ActionType = "submit_input"
	ActionSubmitResponse  ActionType = "submit_response"
	ActionNextRound       ActionType = "next_round"
	ActionLeaveRoom       ActionType = "leave_room"
	ActionRequestRoomData ActionType = "request_room_data"

	// ActionDeadlineElapsed is synthetic: only the timer scheduler may
	// inject it, never a client.
	ActionDeadlineElapsed ActionType = "deadline_elapsed"
)

// Action is one inbound command for a room. ConnID identifies the
// originating connection so rejections and caller-only replies can be
// routed back to it.
type Action struct {
	Type      ActionType
	Code      string
	PlayerID  string
	Nickname  string
	Content   string
	TurnTimer int
	ConnID    string

	// Gen tags a synthetic deadline with the generation of the countdown
	// that produced it; always zero on client actions.
	Gen uint64
}

// Event names sent to subscribers.
const (
	EventRoomCreated   = "room_created"
	EventJoinedSuccess = "joined_success"
	EventPlayerJoined  = "player_joined"
	EventGameStarted   = "game_started"
	EventRoomUpdated   = "room_updated"
	EventPhaseChange   = "phase_change"
	EventTimerTick     = "timer_tick"
	EventPlayerLeft    = "player_left_notification"
	EventError         = "error"
)

// Event is one outbound notification produced by a transition. ToCaller
// restricts delivery to the originating connection.
type Event struct {
	Type     string
	Data     any
	ToCaller bool
}

type TimerDirective int

const (
	TimerKeep TimerDirective = iota
	TimerArm
	TimerDisarm
)

// Outcome is what the router must do after a successful transition.
type Outcome struct {
	Room       *models.Room
	Changed    bool
	Deleted    bool
	Timer      TimerDirective
	ArmSeconds int
	Events     []Event
}

type roomData struct {
	Room *models.Room `json:"room"`
}

type createdData struct {
	Code string       `json:"code"`
	Room *models.Room `json:"room"`
}

type phaseData struct {
	Room  *models.Room `json:"room"`
	Phase string       `json:"phase"`
}

type departureData struct {
	Nickname  string `json:"nickname"`
	IsNewHost bool   `json:"is_new_host"`
}
