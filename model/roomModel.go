// model/room.go
package model

import "time"

type Room struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Capacity       int64     `json:"capacity"`
	CurrentBooking int64     `json:"current_booking"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
}

// Available is the derived spot count the frontend renders.
func (r Room) Available() int64 { return r.Capacity - r.CurrentBooking }
