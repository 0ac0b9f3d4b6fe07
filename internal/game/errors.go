package game

import "errors"

// Rejections are routine outcomes reported to the caller only; ErrStorage
// is the one class that indicates the room may not hold what we computed.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrForbidden        = errors.New("not allowed")
	ErrInvalidPhase     = errors.New("action not valid in current phase")
	ErrNotEnoughPlayers = errors.New("need 2 players to start")
	ErrStorage          = errors.New("storage unavailable")
)
