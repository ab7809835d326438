package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateProfileUnauthorized(t *testing.T) {
	h := &AuthHandler{}
	c, rec := doJSON(http.MethodPut, "/api/auth/profile", `{"name":"Alice"}`)

	require.NoError(t, h.UpdateProfile(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
}

func TestUpdateProfileRequiresName(t *testing.T) {
	h := &AuthHandler{}
	c, rec := doJSON(http.MethodPut, "/api/auth/profile", `{"name":"   "}`)
	c.Set("user_id", uint64(4))

	require.NoError(t, h.UpdateProfile(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Contains(t, env.Error, "name")
}

func TestDeleteAccountUnauthorized(t *testing.T) {
	h := &AuthHandler{}
	c, rec := doJSON(http.MethodDelete, "/api/auth/profile", "")

	require.NoError(t, h.DeleteAccount(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
}
