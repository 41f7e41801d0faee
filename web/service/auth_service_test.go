package service

import (
	"testing"

	"user-center/database/model"
	"user-center/util/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	setupTestDB(t)
	svc := NewAuthService()
	admin := seededAdmin(t)

	user, pair, err := svc.Login(admin.Email, "admin", &RequestMeta{IP: "10.0.0.9"})
	require.NoError(t, err)
	assert.Equal(t, admin.Id, user.Id)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	rows := activityRows(t, ActionUserLogin)
	require.Len(t, rows, 1)
	assert.Equal(t, admin.Id, rows[0].UserId)
	assert.Equal(t, "10.0.0.9", rows[0].IPAddress)
}

func TestLoginBadCredentials(t *testing.T) {
	setupTestDB(t)
	svc := NewAuthService()
	admin := seededAdmin(t)

	_, _, err := svc.Login(admin.Email, "wrong-password", nil)
	assert.Equal(t, ErrInvalidCredentials, err)

	// unknown email yields the same error as a wrong password
	_, _, err = svc.Login("nobody@x.com", "admin", nil)
	assert.Equal(t, ErrInvalidCredentials, err)

	// failed attempts leave no login entry
	assert.Empty(t, activityRows(t, ActionUserLogin))
}

func TestLoginInactiveAccount(t *testing.T) {
	setupTestDB(t)
	svc := NewAuthService()
	users := NewUserService()
	admin := seededAdmin(t)

	_, err := users.Create(asPrincipal(admin), "Ann", "ann@x.com", "secret123", model.RoleUser, false, nil)
	require.NoError(t, err)

	_, _, err = svc.Login("ann@x.com", "secret123", nil)
	assert.Equal(t, ErrAccountInactive, err)
}

func TestRefresh(t *testing.T) {
	setupTestDB(t)
	svc := NewAuthService()
	admin := seededAdmin(t)

	_, pair, err := svc.Login(admin.Email, "admin", nil)
	require.NoError(t, err)

	user, fresh, err := svc.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, admin.Id, user.Id)
	assert.NotEmpty(t, fresh.AccessToken)

	// an access token cannot be used as a refresh token
	_, _, err = svc.Refresh(pair.AccessToken)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestRefreshDeactivatedAccount(t *testing.T) {
	setupTestDB(t)
	svc := NewAuthService()
	users := NewUserService()
	admin := seededAdmin(t)

	ann, err := users.Create(asPrincipal(admin), "Ann", "ann@x.com", "secret123", model.RoleUser, true, nil)
	require.NoError(t, err)

	_, pair, err := svc.Login("ann@x.com", "secret123", nil)
	require.NoError(t, err)

	_, err = users.ChangeStatus(asPrincipal(admin), ann.Slug, false)
	require.NoError(t, err)

	// deactivation cuts the session at the next refresh
	_, _, err = svc.Refresh(pair.RefreshToken)
	assert.Equal(t, ErrAccountInactive, err)
}

func TestChangePassword(t *testing.T) {
	setupTestDB(t)
	svc := NewAuthService()
	admin := seededAdmin(t)

	err := svc.ChangePassword(asPrincipal(admin), "wrong", "newpassword1")
	var reqErr *common.RequestError
	require.ErrorAs(t, err, &reqErr)

	require.NoError(t, svc.ChangePassword(asPrincipal(admin), "admin", "newpassword1"))

	_, _, err = svc.Login(admin.Email, "admin", nil)
	assert.Equal(t, ErrInvalidCredentials, err)
	_, _, err = svc.Login(admin.Email, "newpassword1", nil)
	assert.NoError(t, err)
}
