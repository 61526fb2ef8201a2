// model/bookRequest.go
package model

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// BookRequest is a member's intent to borrow a book. Created pending,
// processed exactly once by a librarian; an approved borrow may later carry a
// return sub-request through ReturnStatus.
type BookRequest struct {
	ID            int64          `json:"id"`
	BookID        int64          `json:"book_id"`
	UserID        int64          `json:"user_id"`
	Status        RequestStatus  `json:"status"`
	ReturnStatus  *RequestStatus `json:"return_status,omitempty"`
	IsReturned    bool           `json:"is_returned"`
	IsOverdue     bool           `json:"is_overdue"`
	RequestDate   time.Time      `json:"request_date"`
	DueDate       *time.Time     `json:"due_date,omitempty"`
	ProcessedDate *time.Time     `json:"processed_date,omitempty"`
	ProcessedBy   *int64         `json:"processed_by,omitempty"`
	Reason        *string        `json:"reason,omitempty"`
}
