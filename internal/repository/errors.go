// Package repository contains the data access layer, separated from HTTP
// handlers and domain services.  Each entity gets its own repository bound
// to a *sql.DB handle.  Sentinel errors defined here and next to the
// repositories let higher layers distinguish failure scenarios without
// inspecting driver errors.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by a different business account.  Handlers translate
// this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")
