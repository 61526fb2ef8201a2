// model/roomRequest.go
package model

import "time"

// RoomRequest books one seat in a room for one calendar day. An approved
// request occupies the seat while IsActive; an approved leave sub-request
// releases it early.
type RoomRequest struct {
	ID                 int64          `json:"id"`
	RoomID             int64          `json:"room_id"`
	UserID             int64          `json:"user_id"`
	Purpose            string         `json:"purpose"`
	Date               time.Time      `json:"date"`
	Status             RequestStatus  `json:"status"`
	RequestDate        time.Time      `json:"request_date"`
	IsActive           bool           `json:"is_active"`
	LeaveRequestStatus *RequestStatus `json:"leave_request_status,omitempty"`
	LeaveRequestDate   *time.Time     `json:"leave_request_date,omitempty"`
}
