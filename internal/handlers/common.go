package handlers

import "github.com/Archu-ck/Truth-and-Dare/internal/models"

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

// Type aliases so swag can resolve models in annotations.
type Room = models.Room
type Player = models.Player
