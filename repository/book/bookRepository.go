package bookrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/sunilverma11/town-book/model"
)

const bookCols = `id, title, author, isbn, copies, available_copies,
       description, category, image_url, borrowed_by_user, borrowed_due_date, created_at`

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
	Update(ctx context.Context, b *model.Book) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)

	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Book, error)
	DecrementAvailable(ctx context.Context, tx *sql.Tx, id int64) (bool, error)
	IncrementAvailable(ctx context.Context, tx *sql.Tx, id int64) error
	SetBorrower(ctx context.Context, tx *sql.Tx, id, userID int64, due time.Time) error
	ClearBorrower(ctx context.Context, tx *sql.Tx, id int64) error
	MarkMatchingRequestReturned(ctx context.Context, tx *sql.Tx, bookID, userID int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, b *model.Book) error {
	const q = `
		INSERT INTO books (title, author, isbn, copies, available_copies, description, category, image_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, q,
		b.Title, b.Author, b.ISBN, b.Copies, b.AvailableCopies,
		b.Description, b.Category, b.ImageURL,
	).Scan(&b.ID, &b.CreatedAt)
}

func (r *repo) List(ctx context.Context) ([]model.Book, error) {
	const q = `SELECT ` + bookCols + ` FROM books ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := scanBook(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) Detail(ctx context.Context, id int64) (*model.Book, error) {
	const q = `SELECT ` + bookCols + ` FROM books WHERE id = $1`
	var b model.Book
	err := scanBook(r.db.QueryRowContext(ctx, q, id), &b)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// Update rewrites catalog fields. available_copies is clamped so a shrunk
// print run cannot leave more free copies than exist.
func (r *repo) Update(ctx context.Context, b *model.Book) (bool, error) {
	const q = `
		UPDATE books
		SET title = $2, author = $3, isbn = $4, copies = $5,
		    available_copies = LEAST(available_copies, $5),
		    description = $6, category = $7, image_url = $8
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q,
		b.ID, b.Title, b.Author, b.ISBN, b.Copies, b.Description, b.Category, b.ImageURL)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Book, error) {
	const q = `SELECT ` + bookCols + ` FROM books WHERE id = $1 FOR UPDATE`
	var b model.Book
	if err := scanBook(tx.QueryRowContext(ctx, q, id), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// DecrementAvailable takes one copy if any is free. The guard in the WHERE
// clause is what keeps available_copies from going negative under concurrent
// approvals.
func (r *repo) DecrementAvailable(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	const q = `
		UPDATE books
		SET available_copies = available_copies - 1
		WHERE id = $1
		AND available_copies > 0`
	res, err := tx.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

// IncrementAvailable gives one copy back, clamped at the print-run size.
func (r *repo) IncrementAvailable(ctx context.Context, tx *sql.Tx, id int64) error {
	const q = `
		UPDATE books
		SET available_copies = LEAST(available_copies + 1, copies)
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}

func (r *repo) SetBorrower(ctx context.Context, tx *sql.Tx, id, userID int64, due time.Time) error {
	const q = `
		UPDATE books
		SET borrowed_by_user = $2,
		    borrowed_due_date = $3
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, userID, due)
	return err
}

func (r *repo) ClearBorrower(ctx context.Context, tx *sql.Tx, id int64) error {
	const q = `
		UPDATE books
		SET borrowed_by_user = NULL,
		    borrowed_due_date = NULL
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}

// MarkMatchingRequestReturned closes the approved borrow request, if one
// exists, when the legacy direct-return path hands a copy back.
func (r *repo) MarkMatchingRequestReturned(ctx context.Context, tx *sql.Tx, bookID, userID int64) error {
	const q = `
		UPDATE book_requests
		SET is_returned = TRUE
		WHERE id IN (
			SELECT id FROM book_requests
			WHERE book_id = $1 AND user_id = $2 AND status = 'approved' AND is_returned = FALSE
			ORDER BY request_date
			LIMIT 1
		)`
	_, err := tx.ExecContext(ctx, q, bookID, userID)
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanBook(row rowScanner, b *model.Book) error {
	return row.Scan(
		&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Copies, &b.AvailableCopies,
		&b.Description, &b.Category, &b.ImageURL, &b.BorrowedBy, &b.BorrowedDueDate, &b.CreatedAt,
	)
}
