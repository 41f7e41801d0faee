package service

import (
	"testing"
	"time"

	"user-center/database"
	"user-center/database/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndList(t *testing.T) {
	setupTestDB(t)
	svc := NewActivityService()
	admin := seededAdmin(t)

	svc.Record(admin.Id, ActionUserLogin, "", map[string]any{"email": admin.Email},
		&RequestMeta{IP: "192.168.1.5", UserAgent: "curl/8.0"})
	svc.Record(admin.Id, ActionCreatedUser, "USR_abc123def456",
		map[string]any{"name": "Ann", "email": "ann@x.com"}, nil)

	entries, total, err := svc.List(ActivityFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, entries, 2)

	// newest first
	assert.Equal(t, ActionCreatedUser, entries[0].Action)
	assert.Equal(t, "User", entries[0].TargetType)
	assert.Equal(t, "USR_abc123def456", entries[0].TargetSlug)
	assert.Equal(t, "Ann", entries[0].Changes["name"])

	assert.Equal(t, ActionUserLogin, entries[1].Action)
	assert.Empty(t, entries[1].TargetType)
	assert.Equal(t, "192.168.1.5", entries[1].IPAddress)

	// the acting user is resolved onto each entry
	require.NotNil(t, entries[0].User)
	assert.Equal(t, admin.Slug, entries[0].User.Slug)
	assert.Equal(t, admin.Email, entries[0].User.Email)
}

func TestListFilters(t *testing.T) {
	setupTestDB(t)
	svc := NewActivityService()
	admin := seededAdmin(t)

	svc.Record(admin.Id, ActionUserLogin, "", nil, nil)
	svc.Record(admin.Id, ActionUserLogout, "", nil, nil)
	svc.Record(admin.Id+1000, ActionUserLogin, "", nil, nil)

	entries, total, err := svc.List(ActivityFilter{Action: ActionUserLogin})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, entries, 2)

	entries, total, err = svc.List(ActivityFilter{UserId: admin.Id})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, e := range entries {
		assert.Equal(t, admin.Id, e.UserId)
	}

	// an actor the user table no longer knows lists with a nil user
	entries, _, err = svc.List(ActivityFilter{UserId: admin.Id + 1000})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].User)
}

func TestListDateFilters(t *testing.T) {
	setupTestDB(t)
	svc := NewActivityService()
	admin := seededAdmin(t)

	// one entry today, one backdated a week
	svc.Record(admin.Id, ActionUserLogin, "", nil, nil)
	old := model.ActivityLog{
		Slug:      database.NewLogSlug(),
		UserId:    admin.Id,
		Action:    ActionUserLogout,
		CreatedAt: time.Now().AddDate(0, 0, -7),
	}
	require.NoError(t, database.GetDB().Create(&old).Error)

	today := time.Now().Format("2006-01-02")
	entries, total, err := svc.List(ActivityFilter{FromDate: today})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionUserLogin, entries[0].Action)

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	_, total, err = svc.List(ActivityFilter{ToDate: yesterday})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	// from-date bound is inclusive of the entry's own calendar day
	weekAgo := time.Now().AddDate(0, 0, -7).Format("2006-01-02")
	_, total, err = svc.List(ActivityFilter{FromDate: weekAgo, ToDate: today})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestListPagination(t *testing.T) {
	setupTestDB(t)
	svc := NewActivityService()
	admin := seededAdmin(t)

	for i := 0; i < 20; i++ {
		svc.Record(admin.Id, ActionUserLogin, "", nil, nil)
	}

	// default page size is 15
	entries, total, err := svc.List(ActivityFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 20, total)
	assert.Len(t, entries, 15)

	entries, _, err = svc.List(ActivityFilter{Page: 2})
	require.NoError(t, err)
	assert.Len(t, entries, 5)

	entries, _, err = svc.List(ActivityFilter{Page: 1, PerPage: 7})
	require.NoError(t, err)
	assert.Len(t, entries, 7)
}

func TestCleanOld(t *testing.T) {
	setupTestDB(t)
	svc := NewActivityService()
	admin := seededAdmin(t)

	svc.Record(admin.Id, ActionUserLogin, "", nil, nil)
	for _, age := range []int{10, 100, 200} {
		row := model.ActivityLog{
			Slug:      database.NewLogSlug(),
			UserId:    admin.Id,
			Action:    ActionUserLogout,
			CreatedAt: time.Now().AddDate(0, 0, -age),
		}
		require.NoError(t, database.GetDB().Create(&row).Error)
	}

	removed, err := svc.CleanOld(90)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	_, total, err := svc.List(ActivityFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	_, err = svc.CleanOld(0)
	assert.Error(t, err)
}

func TestCountSince(t *testing.T) {
	setupTestDB(t)
	svc := NewActivityService()
	admin := seededAdmin(t)

	svc.Record(admin.Id, ActionUserLogin, "", nil, nil)
	old := model.ActivityLog{
		Slug:      database.NewLogSlug(),
		UserId:    admin.Id,
		Action:    ActionUserLogout,
		CreatedAt: time.Now().AddDate(0, 0, -3),
	}
	require.NoError(t, database.GetDB().Create(&old).Error)

	count, err := svc.CountSince(time.Now().AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
