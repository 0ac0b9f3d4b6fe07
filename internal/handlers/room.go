package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Archu-ck/Truth-and-Dare/internal/game"
)

type RoomHandler struct {
	store game.Store
}

func NewRoomHandler(store game.Store) *RoomHandler {
	return &RoomHandler{store: store}
}

// GetRoom godoc
// @Summary      Get a room by code
// @Description  Read-only view of the current room state
// @Tags         rooms
// @Produce      json
// @Param        code path string true "Room code"
// @Success      200 {object} Room
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/rooms/{code} [get]
func (h *RoomHandler) GetRoom(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))

	room, err := h.store.GetByCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, game.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "storage unavailable"})
		return
	}

	c.JSON(http.StatusOK, room)
}
