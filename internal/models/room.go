package models

import "time"

// Room is the root aggregate for one game session. Players are ordered by
// Position; the order drives target rotation and host succession.
type Room struct {
	ID               uint      `gorm:"primaryKey" json:"-"`
	Code             string    `gorm:"size:6;uniqueIndex" json:"code"`
	HostID           string    `gorm:"size:64;not null;index" json:"host_id"`
	Phase            string    `gorm:"size:20;not null;default:'lobby'" json:"phase"`
	SharedRole       string    `gorm:"size:10" json:"shared_role"`
	Round            int       `gorm:"not null;default:0" json:"round"`
	RemainingSeconds int       `gorm:"not null;default:0" json:"remaining_seconds"`
	RoundDuration    int       `gorm:"not null;default:60" json:"round_duration"`
	Players          []Player  `gorm:"foreignKey:RoomID" json:"players"`
	CreatedAt        time.Time `json:"created_at"`
}

const (
	PhaseLobby      = "lobby"
	PhaseCollecting = "collecting"
	PhaseResponding = "responding"
	PhaseReveal     = "reveal"
)

const (
	RoleTruth = "truth"
	RoleDare  = "dare"
	RoleNone  = ""
)
