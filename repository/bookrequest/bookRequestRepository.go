package bookreqrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/sunilverma11/town-book/model"
)

// ListRow carries the request together with the book and user fields the
// frontend shows in the librarian queue.
type ListRow struct {
	model.BookRequest
	BookTitle       string  `json:"book_title"`
	BookAuthor      string  `json:"book_author"`
	BookISBN        string  `json:"book_isbn"`
	UserName        string  `json:"user_name"`
	UserEmail       string  `json:"user_email"`
	ProcessedByName *string `json:"processed_by_name,omitempty"`
}

// ListFilter narrows the librarian queue; zero value means everything.
type ListFilter struct {
	UserID       *int64
	ReturnStatus *model.RequestStatus
}

type Repo interface {
	Insert(ctx context.Context, userID, bookID int64) (*model.BookRequest, error)
	List(ctx context.Context, f ListFilter) ([]ListRow, error)
	HasPending(ctx context.Context, userID, bookID int64) (bool, error)

	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.BookRequest, error)
	FindApprovedUnreturnedForUpdate(ctx context.Context, tx *sql.Tx, userID, bookID int64) (*model.BookRequest, error)
	MarkProcessed(ctx context.Context, tx *sql.Tx, id int64, status model.RequestStatus, processedBy int64, reason *string, due *time.Time) error
	SetReturnStatus(ctx context.Context, tx *sql.Tx, id int64, status model.RequestStatus, returned bool) error

	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const cols = `id, book_id, user_id, status, return_status, is_returned, is_overdue,
       request_date, due_date, processed_date, processed_by, reason`

func (r *repo) Insert(ctx context.Context, userID, bookID int64) (*model.BookRequest, error) {
	const q = `
		INSERT INTO book_requests (book_id, user_id)
		VALUES ($1, $2)
		RETURNING ` + cols
	return r.scanOne(r.db.QueryRowContext(ctx, q, bookID, userID))
}

func (r *repo) List(ctx context.Context, f ListFilter) ([]ListRow, error) {
	q := `
		SELECT br.id, br.book_id, br.user_id, br.status, br.return_status, br.is_returned, br.is_overdue,
		       br.request_date, br.due_date, br.processed_date, br.processed_by, br.reason,
		       b.title, b.author, b.isbn,
		       u.name, u.email,
		       p.name
		FROM book_requests br
		JOIN books b ON b.id = br.book_id
		JOIN users u ON u.id = br.user_id
		LEFT JOIN users p ON p.id = br.processed_by
		WHERE ($1::BIGINT IS NULL OR br.user_id = $1)
		AND ($2::TEXT IS NULL OR br.return_status = $2)
		ORDER BY br.request_date DESC, br.id DESC`
	rows, err := r.db.QueryContext(ctx, q, f.UserID, f.ReturnStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ListRow
	for rows.Next() {
		var row ListRow
		if err := rows.Scan(
			&row.ID, &row.BookID, &row.UserID, &row.Status, &row.ReturnStatus, &row.IsReturned, &row.IsOverdue,
			&row.RequestDate, &row.DueDate, &row.ProcessedDate, &row.ProcessedBy, &row.Reason,
			&row.BookTitle, &row.BookAuthor, &row.BookISBN,
			&row.UserName, &row.UserEmail,
			&row.ProcessedByName,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *repo) HasPending(ctx context.Context, userID, bookID int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM book_requests
			WHERE user_id = $1 AND book_id = $2 AND status = 'pending'
		)`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, userID, bookID).Scan(&exists)
	return exists, err
}

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.BookRequest, error) {
	const q = `SELECT ` + cols + ` FROM book_requests WHERE id = $1 FOR UPDATE`
	return r.scanOne(tx.QueryRowContext(ctx, q, id))
}

func (r *repo) FindApprovedUnreturnedForUpdate(ctx context.Context, tx *sql.Tx, userID, bookID int64) (*model.BookRequest, error) {
	const q = `
		SELECT ` + cols + `
		FROM book_requests
		WHERE user_id = $1 AND book_id = $2 AND status = 'approved' AND is_returned = FALSE
		ORDER BY request_date
		LIMIT 1
		FOR UPDATE`
	return r.scanOne(tx.QueryRowContext(ctx, q, userID, bookID))
}

func (r *repo) MarkProcessed(ctx context.Context, tx *sql.Tx, id int64, status model.RequestStatus, processedBy int64, reason *string, due *time.Time) error {
	const q = `
		UPDATE book_requests
		SET status = $2,
		    processed_date = now(),
		    processed_by = $3,
		    reason = $4,
		    due_date = $5
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, status, processedBy, reason, due)
	return err
}

func (r *repo) SetReturnStatus(ctx context.Context, tx *sql.Tx, id int64, status model.RequestStatus, returned bool) error {
	const q = `
		UPDATE book_requests
		SET return_status = $2,
		    is_returned = $3
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, status, returned)
	return err
}

// MarkOverdue flags approved, still-out borrows whose due date has passed.
func (r *repo) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	const q = `
		UPDATE book_requests
		SET is_overdue = TRUE
		WHERE status = 'approved'
		AND is_returned = FALSE
		AND is_overdue = FALSE
		AND due_date IS NOT NULL
		AND due_date < $1`
	res, err := r.db.ExecContext(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repo) scanOne(row *sql.Row) (*model.BookRequest, error) {
	var br model.BookRequest
	err := row.Scan(
		&br.ID, &br.BookID, &br.UserID, &br.Status, &br.ReturnStatus, &br.IsReturned, &br.IsOverdue,
		&br.RequestDate, &br.DueDate, &br.ProcessedDate, &br.ProcessedBy, &br.Reason,
	)
	if err != nil {
		return nil, err
	}
	return &br, nil
}
