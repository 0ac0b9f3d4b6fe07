package models

import "time"

// Player is one person in a room. PlayerID is the client-generated identity
// that survives reconnects; ConnID is the transport handle of the current
// websocket connection and is never used as identity.
type Player struct {
	ID       uint      `gorm:"primaryKey" json:"-"`
	RoomID   uint      `gorm:"not null;index" json:"-"`
	PlayerID string    `gorm:"size:64;not null" json:"player_id"`
	ConnID   string    `gorm:"size:64" json:"-"`
	Nickname string    `gorm:"size:100;not null" json:"nickname"`
	IsHost   bool      `gorm:"not null;default:false" json:"is_host"`
	TargetID string    `gorm:"size:64" json:"target_id"`
	Role     string    `gorm:"size:10" json:"role"`
	Prompt   string    `json:"prompt"`
	Response string    `json:"response"`
	IsReady  bool      `gorm:"not null;default:false" json:"is_ready"`
	Position int       `gorm:"not null" json:"-"`
	JoinedAt time.Time `json:"joined_at"`
}
