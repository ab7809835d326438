package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/qnowapp/qnow-backend/internal/model"
)

// ErrUserNotFound is returned when a user cannot be found.
var ErrUserNotFound = errors.New("user not found")

// ErrPhoneExists is returned when registration collides with an
// existing phone number.
var ErrPhoneExists = errors.New("phone already registered")

// UserRepo encapsulates all database queries related to users.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo constructs a UserRepo with the provided DB handle.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userCols = "id, name, email, phone, password_hash, is_business, business_name, business_type, business_address, fcm_token, created_at"

func scanUser(scan func(dest ...any) error) (*model.User, error) {
	var u model.User
	var email, bName, bType, bAddr, token sql.NullString
	if err := scan(&u.ID, &u.Name, &email, &u.Phone, &u.PasswordHash, &u.IsBusiness,
		&bName, &bType, &bAddr, &token, &u.CreatedAt); err != nil {
		return nil, err
	}
	if email.Valid {
		s := email.String
		u.Email = &s
	}
	if bName.Valid {
		s := bName.String
		u.BusinessName = &s
	}
	if bType.Valid {
		s := bType.String
		u.BusinessType = &s
	}
	if bAddr.Valid {
		s := bAddr.String
		u.BusinessAddress = &s
	}
	if token.Valid {
		s := token.String
		u.FCMToken = &s
	}
	return &u, nil
}

// Create inserts a new user.  The PasswordHash field must already be
// hashed by the caller.  ErrPhoneExists is returned on a duplicate
// phone number (MySQL error 1062 on the unique index).
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `INSERT INTO users (name, email, phone, password_hash, is_business, business_name, business_type, business_address)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		u.Name, strPtr(u.Email), u.Phone, u.PasswordHash, u.IsBusiness,
		strPtr(u.BusinessName), strPtr(u.BusinessType), strPtr(u.BusinessAddress))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrPhoneExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return r.db.QueryRowContext(ctx, "SELECT created_at FROM users WHERE id = ?", u.ID).Scan(&u.CreatedAt)
}

func strPtr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userCols+" FROM users WHERE id = ? LIMIT 1", id)
	u, err := scanUser(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// GetByPhone fetches a user by phone number, the login identifier.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userCols+" FROM users WHERE phone = ? LIMIT 1",
		strings.TrimSpace(phone))
	u, err := scanUser(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// GetByEmail fetches a user by normalized email.  Used by the password
// reset flow.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userCols+" FROM users WHERE email = ? LIMIT 1",
		strings.ToLower(strings.TrimSpace(email)))
	u, err := scanUser(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// UpdateProfile overwrites the mutable profile fields of a user.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name string, email, bName, bType, bAddr *string) (*model.User, error) {
	const q = `UPDATE users SET name = ?, email = ?, business_name = ?, business_type = ?, business_address = ?
	           WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q,
		name, strPtr(email), strPtr(bName), strPtr(bType), strPtr(bAddr), id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a user account.  Refresh tokens are expected to be
// revoked by the caller before the row goes away.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetPassword replaces the stored password hash.  Existence is checked
// up front because RowsAffected cannot distinguish a missing row from a
// no-op update.
func (r *UserRepo) SetPassword(ctx context.Context, id uint64, hash string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", hash, id)
	return err
}

// SetFCMToken registers or clears the push delivery token for a user.
func (r *UserRepo) SetFCMToken(ctx context.Context, id uint64, token *string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, "UPDATE users SET fcm_token = ? WHERE id = ?", strPtr(token), id)
	return err
}
