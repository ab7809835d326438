package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/qnowapp/qnow-backend/internal/model"
)

// ErrQueueNotFound is returned when a queue cannot be found in the DB.
var ErrQueueNotFound = errors.New("queue not found")

// QueueRepo encapsulates all database queries related to queues.
type QueueRepo struct {
	db *sql.DB
}

// NewQueueRepo constructs a QueueRepo with the provided DB handle.
func NewQueueRepo(db *sql.DB) *QueueRepo { return &QueueRepo{db: db} }

const queueCols = "id, business_owner_id, name, description, max_size, estimated_wait_time, is_active, created_at"

func scanQueue(row *sql.Row) (*model.Queue, error) {
	var q model.Queue
	var desc sql.NullString
	if err := row.Scan(&q.ID, &q.BusinessOwnerID, &q.Name, &desc, &q.MaxSize,
		&q.EstimatedWait, &q.IsActive, &q.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQueueNotFound
		}
		return nil, err
	}
	if desc.Valid {
		d := desc.String
		q.Description = &d
	}
	return &q, nil
}

// Create inserts a new queue.  On success the ID and CreatedAt fields
// are populated from the stored row so callers receive a full record.
func (r *QueueRepo) Create(ctx context.Context, q *model.Queue) error {
	const qInsert = `INSERT INTO queues (business_owner_id, name, description, max_size, estimated_wait_time, is_active)
	                 VALUES (?, ?, ?, ?, ?, ?)`
	var desc any
	if q.Description != nil {
		desc = *q.Description
	}
	res, err := r.db.ExecContext(ctx, qInsert,
		q.BusinessOwnerID, q.Name, desc, q.MaxSize, q.EstimatedWait, q.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	q.ID = uint64(id)

	// Query back to populate created_at set by the DB.
	const qSelect = "SELECT created_at FROM queues WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, q.ID).Scan(&q.CreatedAt)
}

// GetByID fetches a queue by its ID.  It returns ErrQueueNotFound when
// no row exists.
func (r *QueueRepo) GetByID(ctx context.Context, id uint64) (*model.Queue, error) {
	return scanQueue(r.db.QueryRowContext(ctx,
		"SELECT "+queueCols+" FROM queues WHERE id = ?", id))
}

// Update applies the non-nil fields of u to the queue and returns the
// updated record.  ErrQueueNotFound is returned when the queue does not
// exist.  id and created_at are never touched.
func (r *QueueRepo) Update(ctx context.Context, id uint64, u model.QueueUpdate) (*model.Queue, error) {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	if u.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *u.Name)
	}
	if u.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *u.Description)
	}
	if u.MaxSize != nil {
		sets = append(sets, "max_size = ?")
		args = append(args, *u.MaxSize)
	}
	if u.EstimatedWait != nil {
		sets = append(sets, "estimated_wait_time = ?")
		args = append(args, *u.EstimatedWait)
	}
	if u.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *u.IsActive)
	}
	if len(sets) > 0 {
		args = append(args, id)
		// RowsAffected is 0 both for a missing row and for a no-op update,
		// so existence is decided by the SELECT below.
		if _, err := r.db.ExecContext(ctx,
			"UPDATE queues SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes a queue by ID.  Memberships are intentionally left
// behind; see the waitlist service for the orphaning policy.
func (r *QueueRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM queues WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrQueueNotFound
	}
	return nil
}

// ListByOwner returns all queues owned by the given business account,
// newest first.
func (r *QueueRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Queue, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+queueCols+" FROM queues WHERE business_owner_id = ? ORDER BY created_at DESC", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	queues := make([]model.Queue, 0)
	for rows.Next() {
		var q model.Queue
		var desc sql.NullString
		if err := rows.Scan(&q.ID, &q.BusinessOwnerID, &q.Name, &desc, &q.MaxSize,
			&q.EstimatedWait, &q.IsActive, &q.CreatedAt); err != nil {
			return nil, err
		}
		if desc.Valid {
			d := desc.String
			q.Description = &d
		}
		queues = append(queues, q)
	}
	return queues, rows.Err()
}
