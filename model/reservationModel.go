// model/reservation.go
package model

import "time"

type ReservationType string

const (
	ReservationBook ReservationType = "book"
	ReservationRoom ReservationType = "room"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationApproved  ReservationStatus = "approved"
	ReservationDeclined  ReservationStatus = "declined"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Reservation is the generalized booking path. Unlike the request workflows it
// takes availability optimistically at creation time, against the same
// counters, and gives it back on return.
type Reservation struct {
	ID         int64             `json:"id"`
	UserID     int64             `json:"user_id"`
	Type       ReservationType   `json:"type"`
	BookID     *int64            `json:"book_id,omitempty"`
	RoomID     *int64            `json:"room_id,omitempty"`
	SlotStart  *time.Time        `json:"slot_start,omitempty"`
	SlotEnd    *time.Time        `json:"slot_end,omitempty"`
	Status     ReservationStatus `json:"status"`
	PickupDate *time.Time        `json:"pickup_date,omitempty"`
	ReturnDate *time.Time        `json:"return_date,omitempty"`
	IsPickedUp bool              `json:"is_picked_up"`
	IsReturned bool              `json:"is_returned"`
	CreatedAt  time.Time         `json:"created_at"`
}
