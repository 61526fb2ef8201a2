// model/book.go
package model

import "time"

type Book struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	ISBN            string     `json:"isbn"`
	Copies          int64      `json:"copies"`
	AvailableCopies int64      `json:"available_copies"`
	Description     *string    `json:"description,omitempty"`
	Category        *string    `json:"category,omitempty"`
	ImageURL        *string    `json:"image_url,omitempty"`
	BorrowedBy      *int64     `json:"borrowed_by,omitempty"`
	BorrowedDueDate *time.Time `json:"borrowed_due_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
