package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Archu-ck/Truth-and-Dare/internal/game"
	"github.com/Archu-ck/Truth-and-Dare/internal/models"
)

// RetentionWindow is how long an untouched room survives. Expiry is
// passive: an expired row reads as not found and is deleted lazily.
const RetentionWindow = 24 * time.Hour

// RoomStore is the gorm-backed implementation of game.Store. Saves replace
// the whole aggregate in one transaction; the router's per-code
// serialization makes the read-modify-write atomic.
type RoomStore struct {
	db *gorm.DB
}

func NewRoomStore(db *gorm.DB) *RoomStore {
	return &RoomStore{db: db}
}

var _ game.Store = (*RoomStore)(nil)

func (s *RoomStore) GetByCode(ctx context.Context, code string) (*models.Room, error) {
	var room models.Room
	err := s.db.WithContext(ctx).
		Where("code = ?", code).
		Preload("Players", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, game.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load room: %w", err)
	}

	if time.Since(room.CreatedAt) > RetentionWindow {
		_ = s.Delete(ctx, &room)
		return nil, game.ErrRoomNotFound
	}
	return &room, nil
}

func (s *RoomStore) Save(ctx context.Context, room *models.Room) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if room.ID == 0 {
			return tx.Create(room).Error
		}

		err := tx.Model(&models.Room{}).Where("id = ?", room.ID).Updates(map[string]any{
			"host_id":           room.HostID,
			"phase":             room.Phase,
			"shared_role":       room.SharedRole,
			"round":             room.Round,
			"remaining_seconds": room.RemainingSeconds,
			"round_duration":    room.RoundDuration,
		}).Error
		if err != nil {
			return err
		}

		// Replace the child rows wholesale; nothing references their
		// surrogate ids.
		if err := tx.Where("room_id = ?", room.ID).Delete(&models.Player{}).Error; err != nil {
			return err
		}
		if len(room.Players) == 0 {
			return nil
		}
		for i := range room.Players {
			room.Players[i].ID = 0
			room.Players[i].RoomID = room.ID
		}
		return tx.Create(&room.Players).Error
	})
}

func (s *RoomStore) Delete(ctx context.Context, room *models.Room) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", room.ID).Delete(&models.Player{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Room{}, room.ID).Error
	})
}

func (s *RoomStore) CodeInUse(ctx context.Context, code string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Room{}).
		Where("code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check code: %w", err)
	}
	return count > 0, nil
}

// UpdateRemaining persists the countdown value only. It deliberately skips
// the aggregate save path: the in-memory scheduler is authoritative while
// the process runs and an approximate value after restart is acceptable.
func (s *RoomStore) UpdateRemaining(ctx context.Context, code string, seconds int) error {
	return s.db.WithContext(ctx).Model(&models.Room{}).
		Where("code = ?", code).
		Update("remaining_seconds", seconds).Error
}
