package service

import (
	"path/filepath"
	"testing"

	"user-center/database"
	"user-center/database/model"
	"user-center/logger"
	"user-center/util/common"
	"user-center/web/policy"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) {
	t.Setenv("UC_LOG_FOLDER", t.TempDir())
	t.Setenv("UC_JWT_SECRET", "test-signing-key")
	logger.InitLogger(logging.WARNING)

	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.InitDB(dbPath))
	t.Cleanup(func() {
		_ = database.CloseDB()
	})
}

func asPrincipal(u *model.User) policy.Principal {
	return policy.Principal{Id: u.Id, Slug: u.Slug, Role: u.Role, Active: u.Active}
}

// seededAdmin returns the admin account created by database.InitDB.
func seededAdmin(t *testing.T) *model.User {
	admin := &model.User{}
	require.NoError(t, database.GetDB().Where("role = ?", model.RoleAdmin).First(admin).Error)
	return admin
}

func activityRows(t *testing.T, action string) []model.ActivityLog {
	var rows []model.ActivityLog
	require.NoError(t, database.GetDB().Where("action = ?", action).Order("id ASC").Find(&rows).Error)
	return rows
}

func TestCreateUser(t *testing.T) {
	setupTestDB(t)
	svc := NewUserService()
	admin := seededAdmin(t)

	meta := &RequestMeta{IP: "10.0.0.1", UserAgent: "test-agent"}
	user, err := svc.Create(asPrincipal(admin), "Ann", "ann@x.com", "secret123", model.RoleUser, true, meta)
	require.NoError(t, err)
	assert.NotEmpty(t, user.Slug)
	assert.NotEqual(t, "secret123", user.Password)

	// creation is audited unconditionally, with the initial field values
	rows := activityRows(t, ActionCreatedUser)
	require.Len(t, rows, 1)
	assert.Equal(t, admin.Id, rows[0].UserId)
	assert.Equal(t, user.Slug, rows[0].TargetSlug)
	assert.Equal(t, "10.0.0.1", rows[0].IPAddress)
	assert.Contains(t, rows[0].Changes, "ann@x.com")
}

func TestCreateUserForbiddenForNonAdmin(t *testing.T) {
	setupTestDB(t)
	svc := NewUserService()
	admin := seededAdmin(t)

	user, err := svc.Create(asPrincipal(admin), "Bob", "bob@x.com", "secret123", model.RoleUser, true, nil)
	require.NoError(t, err)

	_, err = svc.Create(asPrincipal(user), "Eve", "eve@x.com", "secret123", model.RoleUser, true, nil)
	var forbidden *common.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Equal(t, policy.ReasonOnlyAdminCreate, forbidden.Reason)
	assert.Len(t, activityRows(t, ActionCreatedUser), 1)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	setupTestDB(t)
	svc := NewUserService()
	admin := seededAdmin(t)

	_, err := svc.Create(asPrincipal(admin), "Ann", "ann@x.com", "secret123", model.RoleUser, true, nil)
	require.NoError(t, err)

	_, err = svc.Create(asPrincipal(admin), "Ann Again", "ann@x.com", "secret123", model.RoleUser, true, nil)
	var fieldErr *common.FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "email", fieldErr.Field)
}

func TestUpdateUserAuditsDiff(t *testing.T) {
	setupTestDB(t)
	svc := NewUserService()
	admin := seededAdmin(t)

	user, err := svc.Create(asPrincipal(admin), "Ann", "ann@x.com", "secret123", model.RoleUser, true, nil)
	require.NoError(t, err)

	name := "Anne"
	updated, err := svc.Update(asPrincipal(user), user.Slug, policy.Mutation{Name: &name}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Anne", updated.Name)

	rows := activityRows(t, ActionUpdatedUser)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0].Changes, `"from":"Ann"`)
	assert.Contains(t, rows[0].Changes, `"to":"Anne"`)
}

func TestUpdateUserNoopRecordsNothing(t *testing.T) {
	setupTestDB(t)
	svc := NewUserService()
	admin := seededAdmin(t)

	user, err := svc.Create(asPrincipal(admin), "Ann", "ann@x.com", "secret123", model.RoleUser, true, nil)
	require.NoError(t, err)

	same := "Ann"
	_, err = svc.Update(asPrincipal(user), user.Slug, policy.Mutation{Name: &same}, nil)
	require.NoError(t, err)
	assert.Empty(t, activityRows(t, ActionUpdatedUser))
}

func TestUpdateUserPasswordNeverRecorded(t *testing.T) {
	setupTestDB(t)
	svc := NewUserService()
	admin := seededAdmin(t)

	user, err := svc.Create(asPrincipal(admin), "Ann", "ann@x.com", "secret123", model.RoleUser, true, nil)
	require.NoError(t, err)

	newPassword := "different456"
	_, err = svc.Update(asPrincipal(user), user.Slug, policy.Mutation{Password: &newPassword}, nil)
	require.NoError(t, err)

	rows := activityRows(t, ActionUpdatedUser)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0].Changes, `"password":{"changed":true}`)
	assert.NotContains(t, rows[0].Changes, "different456")
}

func TestUpdateSelfDropsRoleAndActive(t *testing.T) {
	setupTestDB(t)
	svc := NewUserService()
	admin := seededAdmin(t)

	user, err := svc.Create(asPrincipal(admin), "Ann", "ann@x.com", "secret123", model.RoleUser, true, nil)
	require.NoError(t, err)

	role := model.RoleAdmin
	inactive := false
	name := "Anne"
	updated, err := svc.Update(asPrincipal(user), user.Slug, policy.Mutation{
		Name:   &name,
		Role:   &role,
		Active: &inactive,
	}, nil)
	require.NoError(t, err)

	// the request succeeds, the gated fields are silently dropped
	assert.Equal(t, "Anne", updated.Name)
	assert.Equal(t, model.RoleUser, updated.Role)
	assert.True(t, updated.Active)
}

func TestUpdateOtherUserForbidden(t *testing.T) {
	setupTestDB(t)
	svc := NewUserService()
	admin := seededAdmin(t)

	ann, err := svc.Create(asPrincipal(admin), "Ann", "ann@x.com", "secret123", model.RoleUser, true, nil)
	require.NoError(t, err)
	bob, err := svc.Create(asPrincipal(admin), "Bob", "bob@x.com", "secret123", model.RoleUser, true, nil)
	require.NoError(t, err)

	name := "Hacked"
	_, err = svc.Update(asPrincipal(ann), bob.Slug, policy.Mutation{Name: &name}, nil)
	var forbidden *common.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Equal(t, policy.ReasonNotSelfNotAdmin, forbidden.Reason)
}

func TestUpdateEmailToTakenAddress(t *testing.T) {
	setupTestDB(t)
	svc := NewUserService()
	admin := seededAdmin(t)

	ann, err := svc.Create(asPrincipal(admin), "Ann", "ann@x.com", "secret123", model.RoleUser, true, nil)
	require.NoError(t, err)
	_, err = svc.Create(asPrincipal(admin), "Bob", "bob@x.com", "secret123", model.RoleUser, true, nil)
	require.NoError(t, err)

	taken := "bob@x.com"
	_, err = svc.Update(asPrincipal(admin), ann.Slug, policy.Mutation{Email: &taken}, nil)
	var fieldErr *common.FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "email", fieldErr.Field)

	// no mutation, no audit entry
	reloaded, err := svc.GetBySlug(ann.Slug)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", reloaded.Email)
	assert.Empty(t, activityRows(t, ActionUpdatedUser))
}

func TestDeleteUser(t *testing.T) {
	setupTestDB(t)
	svc := NewUserService()
	admin := seededAdmin(t)

	user, err := svc.Create(asPrincipal(admin), "Ann", "ann@x.com", "secret123", model.RoleUser, true, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(asPrincipal(admin), user.Slug, nil))

	_, err = svc.GetBySlug(user.Slug)
	assert.Equal(t, common.ErrNotFound, err)

	// deletion keeps the audit trail, referencing the target by slug only
	rows := activityRows(t, ActionDeletedUser)
	require.Len(t, rows, 1)
	assert.Equal(t, user.Slug, rows[0].TargetSlug)
}

func TestDeleteSelfForbidden(t *testing.T) {
	setupTestDB(t)
	svc := NewUserService()
	admin := seededAdmin(t)

	err := svc.Delete(asPrincipal(admin), admin.Slug, nil)
	var forbidden *common.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Equal(t, policy.ReasonSelfDelete, forbidden.Reason)
}

func TestChangeStatus(t *testing.T) {
	setupTestDB(t)
	svc := NewUserService()
	admin := seededAdmin(t)

	user, err := svc.Create(asPrincipal(admin), "Ann", "ann@x.com", "secret123", model.RoleUser, true, nil)
	require.NoError(t, err)

	updated, err := svc.ChangeStatus(asPrincipal(admin), user.Slug, false)
	require.NoError(t, err)
	assert.False(t, updated.Active)

	// self-deactivation is rejected, self-activation is not
	_, err = svc.ChangeStatus(asPrincipal(admin), admin.Slug, false)
	var forbidden *common.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Equal(t, policy.ReasonSelfDeactivate, forbidden.Reason)

	_, err = svc.ChangeStatus(asPrincipal(admin), admin.Slug, true)
	assert.NoError(t, err)
}

func TestSearchUsers(t *testing.T) {
	setupTestDB(t)
	svc := NewUserService()
	admin := seededAdmin(t)

	_, err := svc.Create(asPrincipal(admin), "Ann Example", "ann@x.com", "secret123", model.RoleUser, true, nil)
	require.NoError(t, err)
	_, err = svc.Create(asPrincipal(admin), "Bob Tester", "bob@y.com", "secret123", model.RoleUser, true, nil)
	require.NoError(t, err)

	users, total, err := svc.Search("ann", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, "ann@x.com", users[0].Email)

	_, total, err = svc.Search("", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total) // two created plus the seeded admin
}
