package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/qnowapp/qnow-backend/internal/config"
	"github.com/qnowapp/qnow-backend/internal/email"
	"github.com/qnowapp/qnow-backend/internal/model"
	"github.com/qnowapp/qnow-backend/internal/repository"
	"github.com/qnowapp/qnow-backend/internal/utils"
)

// Matches the expiry promised in the reset email copy.
const resetTokenTTL = time.Hour

// Mailer sends account mail. Satisfied by email.Client; nil disables
// outbound mail (dev without SMTP configured).
type Mailer interface {
	SendPasswordReset(to, resetLink string) error
}

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	Mail   Mailer
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, m *email.Client) *AuthHandler {
	h := &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
	if m != nil {
		h.Mail = m
	}
	return h
}

// ----- DTOs -----

type registerReq struct {
	Name            string  `json:"name"`
	Phone           string  `json:"phone"`
	Password        string  `json:"password"`
	Email           *string `json:"email"`
	IsBusiness      bool    `json:"is_business"`
	BusinessName    *string `json:"business_name"`
	BusinessType    *string `json:"business_type"`
	BusinessAddress *string `json:"business_address"`
}
type loginReq struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID         uint64  `json:"id"`
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	Email      *string `json:"email,omitempty"`
	IsBusiness bool    `json:"is_business"`
	Role       string  `json:"role"`
}
type authData struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func toUserPart(u *model.User) userPart {
	return userPart{
		ID:         u.ID,
		Name:       u.Name,
		Phone:      u.Phone,
		Email:      u.Email,
		IsBusiness: u.IsBusiness,
		Role:       u.Role(),
	}
}

// issuePair creates an access/refresh token pair and stores the refresh
// hash. Used by Register, Login and Refresh.
func (h *AuthHandler) issuePair(ctx context.Context, u *model.User) (*authData, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role(), h.Cfg.AccessTTLMin)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return nil, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashToken(refresh.Raw), refresh.Exp); err != nil {
		return nil, err
	}
	return &authData{
		User:    toUserPart(u),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}

// Register creates a user keyed by phone number and returns tokens
// immediately. Business accounts set is_business plus the business fields.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Phone == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "name, phone and password are required")
	}
	if req.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*req.Email))
		if e == "" {
			req.Email = nil
		} else {
			req.Email = &e
		}
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, "could not hash password", err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u := &model.User{
		Name:            req.Name,
		Phone:           req.Phone,
		Email:           req.Email,
		PasswordHash:    hash,
		IsBusiness:      req.IsBusiness,
		BusinessName:    req.BusinessName,
		BusinessType:    req.BusinessType,
		BusinessAddress: req.BusinessAddress,
	}
	if err := h.Users.Create(ctx, u); err != nil {
		if err == repository.ErrPhoneExists {
			return fail(c, http.StatusConflict, "phone already registered")
		}
		return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, "could not create user", err)
	}

	data, err := h.issuePair(ctx, u)
	if err != nil {
		return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, "could not issue tokens", err)
	}
	return created(c, "registered", data)
}

// Login verifies phone + password and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Phone == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "phone and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByPhone(ctx, req.Phone)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return fail(c, http.StatusUnauthorized, "invalid credentials")
		}
		return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, "query failed", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "invalid credentials")
	}

	data, err := h.issuePair(ctx, u)
	if err != nil {
		return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, "could not issue tokens", err)
	}
	return ok(c, "logged in", data)
}

// Refresh validates a refresh token by hash, revokes it and issues a
// fresh pair (rotation).
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return fail(c, http.StatusBadRequest, "refresh_token required")
	}
	hash := utils.HashToken(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "invalid refresh token")
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, "load user failed", err)
	}
	data, err := h.issuePair(ctx, u)
	if err != nil {
		return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, "could not issue tokens", err)
	}
	return ok(c, "refreshed", data)
}

// Logout revokes either a specific refresh token or, when called with a
// JWT and no body token, every session of the current user.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if raw != "" {
		hash := utils.HashToken(raw)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return fail(c, http.StatusUnauthorized, "invalid refresh token")
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, "logout failed", err)
		}
		return ok(c, "logged out", nil)
	}

	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "provide refresh_token or Authorization header")
	}
	if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
		return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, "logout failed", err)
	}
	return ok(c, "logged out everywhere", nil)
}

// Profile returns the authenticated user's account.
func (h *AuthHandler) Profile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, "query failed", err)
	}
	return ok(c, "", map[string]any{
		"user":             toUserPart(u),
		"business_name":    u.BusinessName,
		"business_type":    u.BusinessType,
		"business_address": u.BusinessAddress,
		"created_at":       u.CreatedAt,
	})
}

type updateProfileReq struct {
	Name            string  `json:"name"`
	Email           *string `json:"email"`
	BusinessName    *string `json:"business_name"`
	BusinessType    *string `json:"business_type"`
	BusinessAddress *string `json:"business_address"`
}

// UpdateProfile overwrites the authenticated user's mutable profile
// fields. Phone and password stay untouched; password changes go
// through the reset flow.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fail(c, http.StatusBadRequest, "name is required")
	}
	if req.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*req.Email))
		if e == "" {
			req.Email = nil
		} else {
			req.Email = &e
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.UpdateProfile(ctx, uid, req.Name,
		req.Email, req.BusinessName, req.BusinessType, req.BusinessAddress)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, "could not update profile", err)
	}
	return ok(c, "profile updated", toUserPart(u))
}

// DeleteAccount removes the authenticated user's account after
// revoking every session it holds.
func (h *AuthHandler) DeleteAccount(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
		return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, "could not delete account", err)
	}
	if err := h.Users.Delete(ctx, uid); err != nil {
		if err == repository.ErrUserNotFound {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, "could not delete account", err)
	}
	return ok(c, "account deleted", map[string]any{"id": uid})
}

type fcmTokenReq struct {
	FCMToken *string `json:"fcm_token"`
}

// UpdateFCMToken stores or clears the device push token for the
// authenticated user. A null token unregisters the device.
func (h *AuthHandler) UpdateFCMToken(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req fcmTokenReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.FCMToken != nil && strings.TrimSpace(*req.FCMToken) == "" {
		req.FCMToken = nil
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.SetFCMToken(ctx, uid, req.FCMToken); err != nil {
		if err == repository.ErrUserNotFound {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, "could not save token", err)
	}
	return ok(c, "device token updated", nil)
}

type forgotReq struct {
	Email string `json:"email"`
}

// ForgotPassword issues a reset token and mails a reset link. The
// response is identical whether or not the address is registered, so
// the endpoint cannot be used to enumerate accounts.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	addr := strings.ToLower(strings.TrimSpace(req.Email))
	if addr == "" {
		return fail(c, http.StatusBadRequest, "email is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	const accepted = "if the address is registered, a reset link has been sent"

	u, err := h.Users.GetByEmail(ctx, addr)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return ok(c, accepted, nil)
		}
		return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, "query failed", err)
	}

	reset, err := utils.NewResetToken(resetTokenTTL)
	if err != nil {
		return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, "could not issue token", err)
	}
	if err := h.Tokens.StoreReset(ctx, u.ID, utils.HashToken(reset.Raw), reset.Exp); err != nil {
		return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, "could not store token", err)
	}

	if h.Mail != nil {
		link := h.Cfg.AppURL + "/reset-password?token=" + reset.Raw
		if err := h.Mail.SendPasswordReset(addr, link); err != nil {
			c.Logger().Errorf("password reset mail to %s: %v", addr, err)
			return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, "could not send mail", err)
		}
	}
	return ok(c, accepted, nil)
}

type resetReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPassword consumes a reset token, sets the new password and
// revokes every refresh token so stolen sessions die with the old
// password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Token) == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "token and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.ConsumeReset(ctx, utils.HashToken(strings.TrimSpace(req.Token)))
	if err != nil {
		return fail(c, http.StatusUnauthorized, "invalid or expired reset token")
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, "could not hash password", err)
	}
	if err := h.Users.SetPassword(ctx, userID, hash); err != nil {
		return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, "could not update password", err)
	}
	_ = h.Tokens.RevokeAllForUser(ctx, userID)

	return ok(c, "password updated", nil)
}
