package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/qnowapp/qnow-backend/internal/model"
)

// ErrClientNotFound is returned when a queue client cannot be found.
var ErrClientNotFound = errors.New("queue client not found")

// QueueClientRepo encapsulates all database queries related to queue
// clients (memberships).  Position and capacity invariants are enforced
// one layer up in the waitlist service; a unique index on
// (queue_id, position) for active rows backstops them here.
type QueueClientRepo struct {
	db *sql.DB
}

// NewQueueClientRepo constructs a QueueClientRepo with the provided DB handle.
func NewQueueClientRepo(db *sql.DB) *QueueClientRepo { return &QueueClientRepo{db: db} }

const clientCols = "id, queue_id, user_id, name, phone, position, status, joined_at, notified_at, served_at"

func scanClient(scan func(dest ...any) error) (*model.QueueClient, error) {
	var c model.QueueClient
	var userID sql.NullInt64
	var notifiedAt, servedAt sql.NullTime
	if err := scan(&c.ID, &c.QueueID, &userID, &c.Name, &c.Phone, &c.Position,
		&c.Status, &c.JoinedAt, &notifiedAt, &servedAt); err != nil {
		return nil, err
	}
	if userID.Valid {
		uid := uint64(userID.Int64)
		c.UserID = &uid
	}
	if notifiedAt.Valid {
		t := notifiedAt.Time
		c.NotifiedAt = &t
	}
	if servedAt.Valid {
		t := servedAt.Time
		c.ServedAt = &t
	}
	return &c, nil
}

// Create inserts a new queue client.  On success the ID and JoinedAt
// fields are populated from the stored row.
func (r *QueueClientRepo) Create(ctx context.Context, c *model.QueueClient) error {
	const qInsert = `INSERT INTO queue_clients (queue_id, user_id, name, phone, position, status)
	                 VALUES (?, ?, ?, ?, ?, ?)`
	var userID any
	if c.UserID != nil {
		userID = *c.UserID
	}
	res, err := r.db.ExecContext(ctx, qInsert,
		c.QueueID, userID, c.Name, c.Phone, c.Position, c.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)

	const qSelect = "SELECT joined_at FROM queue_clients WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, c.ID).Scan(&c.JoinedAt)
}

// GetByID fetches a queue client by ID.  It returns ErrClientNotFound
// when no row exists.
func (r *QueueClientRepo) GetByID(ctx context.Context, id uint64) (*model.QueueClient, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+clientCols+" FROM queue_clients WHERE id = ?", id)
	c, err := scanClient(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return c, nil
}

// CountActive returns the number of clients still occupying a slot in
// the queue (status waiting or notified).
func (r *QueueClientRepo) CountActive(ctx context.Context, queueID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM queue_clients WHERE queue_id = ? AND status IN (?, ?)",
		queueID, model.StatusWaiting, model.StatusNotified).Scan(&n)
	return n, err
}

// MaxPosition returns the highest position ever assigned in the queue,
// or 0 when the queue has no clients.  Positions are monotonic: they
// are never reused after a removal.
func (r *QueueClientRepo) MaxPosition(ctx context.Context, queueID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), 0) FROM queue_clients WHERE queue_id = ?",
		queueID).Scan(&n)
	return n, err
}

// Update applies the non-nil fields of u to the client and returns the
// updated record.  ErrClientNotFound is returned when the client does
// not exist.
func (r *QueueClientRepo) Update(ctx context.Context, id uint64, u model.ClientUpdate) (*model.QueueClient, error) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	if u.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *u.Status)
	}
	if u.Position != nil {
		sets = append(sets, "position = ?")
		args = append(args, *u.Position)
	}
	if u.NotifiedAt != nil {
		sets = append(sets, "notified_at = ?")
		args = append(args, u.NotifiedAt.UTC())
	}
	if u.ServedAt != nil {
		sets = append(sets, "served_at = ?")
		args = append(args, u.ServedAt.UTC())
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := r.db.ExecContext(ctx,
			"UPDATE queue_clients SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes a queue client by ID (hard delete).
func (r *QueueClientRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM queue_clients WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrClientNotFound
	}
	return nil
}

// ListByQueue returns all clients of a queue ordered by position.
func (r *QueueClientRepo) ListByQueue(ctx context.Context, queueID uint64) ([]model.QueueClient, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+clientCols+" FROM queue_clients WHERE queue_id = ? ORDER BY position ASC", queueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := make([]model.QueueClient, 0)
	for rows.Next() {
		c, err := scanClient(rows.Scan)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

// ClientDetail is a queue client joined with its queue and, when the
// client is a registered user, the user's contact and push details.
// It is the unit the notification dispatcher works with.
type ClientDetail struct {
	Client    model.QueueClient
	QueueName string
	UserName  *string
	UserPhone *string
	UserEmail *string
	FCMToken  *string
}

const detailQuery = `SELECT c.id, c.queue_id, c.user_id, c.name, c.phone, c.position, c.status,
                            c.joined_at, c.notified_at, c.served_at,
                            q.name, u.name, u.phone, u.email, u.fcm_token
                     FROM queue_clients c
                     JOIN queues q ON q.id = c.queue_id
                     LEFT JOIN users u ON u.id = c.user_id`

func scanDetail(scan func(dest ...any) error) (*ClientDetail, error) {
	var d ClientDetail
	var userID sql.NullInt64
	var notifiedAt, servedAt sql.NullTime
	var uName, uPhone, uEmail, uToken sql.NullString
	if err := scan(&d.Client.ID, &d.Client.QueueID, &userID, &d.Client.Name, &d.Client.Phone,
		&d.Client.Position, &d.Client.Status, &d.Client.JoinedAt, &notifiedAt, &servedAt,
		&d.QueueName, &uName, &uPhone, &uEmail, &uToken); err != nil {
		return nil, err
	}
	if userID.Valid {
		uid := uint64(userID.Int64)
		d.Client.UserID = &uid
	}
	if notifiedAt.Valid {
		t := notifiedAt.Time
		d.Client.NotifiedAt = &t
	}
	if servedAt.Valid {
		t := servedAt.Time
		d.Client.ServedAt = &t
	}
	if uName.Valid {
		s := uName.String
		d.UserName = &s
	}
	if uPhone.Valid {
		s := uPhone.String
		d.UserPhone = &s
	}
	if uEmail.Valid {
		s := uEmail.String
		d.UserEmail = &s
	}
	if uToken.Valid {
		s := uToken.String
		d.FCMToken = &s
	}
	return &d, nil
}

// GetDetail fetches a client joined with queue and user data.  It
// returns ErrClientNotFound when no row exists.
func (r *QueueClientRepo) GetDetail(ctx context.Context, id uint64) (*ClientDetail, error) {
	row := r.db.QueryRowContext(ctx, detailQuery+" WHERE c.id = ?", id)
	d, err := scanDetail(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return d, nil
}

// ListWaitingDetails returns details for every waiting client of a
// queue ordered by position.  Used by queue-wide status fan-out.
func (r *QueueClientRepo) ListWaitingDetails(ctx context.Context, queueID uint64) ([]ClientDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		detailQuery+" WHERE c.queue_id = ? AND c.status = ? ORDER BY c.position ASC",
		queueID, model.StatusWaiting)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]ClientDetail, 0)
	for rows.Next() {
		d, err := scanDetail(rows.Scan)
		if err != nil {
			return nil, err
		}
		details = append(details, *d)
	}
	return details, rows.Err()
}
