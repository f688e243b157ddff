package domain

import (
	"fmt"
	"strings"
	"time"
)

type RoomType string

const (
	RoomSingle RoomType = "SINGLE"
	RoomDouble RoomType = "DOUBLE"
	RoomSuite  RoomType = "SUITE"
	RoomFamily RoomType = "FAMILY"
)

func (t RoomType) Valid() bool {
	switch t {
	case RoomSingle, RoomDouble, RoomSuite, RoomFamily:
		return true
	}
	return false
}

type Room struct {
	ID          string    `json:"id"`
	Number      string    `json:"number"`
	Name        string    `json:"name"`
	Type        RoomType  `json:"room_type"`
	Capacity    int       `json:"capacity"`
	Floor       *int      `json:"floor,omitempty"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoomPatch carries the fields of a partial room update; nil means untouched.
type RoomPatch struct {
	Number      *string
	Name        *string
	Type        *RoomType
	Capacity    *int
	Floor       *int
	Description *string
}

func (p RoomPatch) Apply(r Room) Room {
	if p.Number != nil {
		r.Number = *p.Number
	}
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Type != nil {
		r.Type = *p.Type
	}
	if p.Capacity != nil {
		r.Capacity = *p.Capacity
	}
	if p.Floor != nil {
		r.Floor = p.Floor
	}
	if p.Description != nil {
		r.Description = p.Description
	}
	return r
}

func (r Room) Validate() error {
	if strings.TrimSpace(r.Number) == "" {
		return fmt.Errorf("%w: room number is required", ErrValidation)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: room name is required", ErrValidation)
	}
	if !r.Type.Valid() {
		return fmt.Errorf("%w: unknown room type %q", ErrValidation, r.Type)
	}
	if r.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", ErrValidation)
	}
	return nil
}
