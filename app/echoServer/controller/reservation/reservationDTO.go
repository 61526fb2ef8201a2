package reservation

import "time"

type CreateReq struct {
	Type       string     `json:"type" validate:"required,oneof=book room"`
	BookID     *int64     `json:"book_id"`
	RoomID     *int64     `json:"room_id"`
	SlotStart  *time.Time `json:"slot_start"`
	SlotEnd    *time.Time `json:"slot_end"`
	PickupDate *time.Time `json:"pickup_date"`
	ReturnDate *time.Time `json:"return_date"`
}

type StatusReq struct {
	Status string `json:"status" validate:"required,oneof=pending approved declined completed cancelled"`
}
