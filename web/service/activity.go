package service

import (
	"encoding/json"
	"fmt"
	"time"

	"user-center/database"
	"user-center/database/model"
	"user-center/logger"

	"gorm.io/gorm"
)

// Audit action tags. Stable strings: the frontend and stored rows key on them.
const (
	ActionCreatedUser         = "created_user"
	ActionUpdatedUser         = "updated_user"
	ActionDeletedUser         = "deleted_user"
	ActionUserLogin           = "user_login"
	ActionUserLogout          = "user_logout"
	ActionUpdatedProfilePhoto = "updated_profile_photo"
	ActionDeletedProfilePhoto = "deleted_profile_photo"
)

const targetTypeUser = "User"

// RequestMeta carries the originating network address and client string of
// a request. Nil for system-initiated actions.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// ActivityService records and lists audit entries.
type ActivityService struct {
	DB *gorm.DB
}

func NewActivityService() *ActivityService {
	return &ActivityService{DB: database.GetDB()}
}

// ActivityFilter narrows a listing. Zero values mean "no filter". FromDate
// and ToDate are inclusive calendar dates (YYYY-MM-DD), compared at day
// granularity against the row creation date.
type ActivityFilter struct {
	UserId   int
	Action   string
	FromDate string
	ToDate   string
	Page     int
	PerPage  int
}

// ActivityEntry is the listing shape, with changes decoded and the acting
// user resolved.
type ActivityEntry struct {
	Id         int            `json:"id"`
	Slug       string         `json:"slug"`
	UserId     int            `json:"user_id"`
	User       *ActorSummary  `json:"user,omitempty"`
	Action     string         `json:"action"`
	TargetType string         `json:"target_type,omitempty"`
	TargetSlug string         `json:"target_slug,omitempty"`
	Changes    map[string]any `json:"changes,omitempty"`
	IPAddress  string         `json:"ip_address,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ActorSummary is the acting user embedded in a listing row. Nil when the
// account has since been deleted.
type ActorSummary struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Record persists one audit entry. Failures are logged and swallowed:
// audit logging must never fail the user-facing mutation it trails
// (fire-and-forget, applied uniformly).
func (s *ActivityService) Record(actorId int, action, targetSlug string, changes map[string]any, meta *RequestMeta) {
	changesJSON := ""
	if len(changes) > 0 {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.Warning("failed to marshal activity changes:", err)
		} else {
			changesJSON = string(data)
		}
	}

	entry := model.ActivityLog{
		Slug:      database.NewLogSlug(),
		UserId:    actorId,
		Action:    action,
		Changes:   changesJSON,
		CreatedAt: time.Now(),
	}
	if targetSlug != "" {
		entry.TargetType = targetTypeUser
		entry.TargetSlug = targetSlug
	}
	if meta != nil {
		entry.IPAddress = meta.IP
		entry.UserAgent = meta.UserAgent
	}

	if err := s.DB.Create(&entry).Error; err != nil {
		logger.Warningf("failed to record activity: actor=%d, action=%s, error=%v", actorId, action, err)
	}
}

// List returns a page of audit entries matching the filter, newest first.
// Callers enforce scope: the web layer passes the caller's own id in
// filter.UserId for non-admin requests.
func (s *ActivityService) List(filter ActivityFilter) ([]ActivityEntry, int64, error) {
	query := s.DB.Model(&model.ActivityLog{})

	if filter.UserId > 0 {
		query = query.Where("user_id = ?", filter.UserId)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.FromDate != "" {
		query = query.Where("date(created_at) >= ?", filter.FromDate)
	}
	if filter.ToDate != "" {
		query = query.Where("date(created_at) <= ?", filter.ToDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, perPage := normalizePage(filter.Page, filter.PerPage)
	var logs []model.ActivityLog
	err := query.Order("created_at DESC, id DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}

	actors, err := s.loadActors(logs)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]ActivityEntry, 0, len(logs))
	for i := range logs {
		entries = append(entries, toEntry(&logs[i], actors))
	}
	return entries, total, nil
}

// CleanOld removes audit entries older than the given number of days and
// returns how many rows went away. This is the only path that deletes
// audit data.
func (s *ActivityService) CleanOld(days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("days must be greater than 0")
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	result := s.DB.Where("created_at < ?", cutoff).Delete(&model.ActivityLog{})
	if result.Error != nil {
		return 0, result.Error
	}

	logger.Infof("cleaned %d activity logs older than %d days", result.RowsAffected, days)
	return result.RowsAffected, nil
}

// CountSince returns the number of entries created at or after t.
func (s *ActivityService) CountSince(t time.Time) (int64, error) {
	var count int64
	err := s.DB.Model(&model.ActivityLog{}).Where("created_at >= ?", t).Count(&count).Error
	return count, err
}

func (s *ActivityService) loadActors(logs []model.ActivityLog) (map[int]*ActorSummary, error) {
	ids := make([]int, 0, len(logs))
	seen := make(map[int]bool)
	for i := range logs {
		if id := logs[i].UserId; id > 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	actors := make(map[int]*ActorSummary, len(ids))
	if len(ids) == 0 {
		return actors, nil
	}

	var users []model.User
	if err := s.DB.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		actors[users[i].Id] = &ActorSummary{
			Slug:  users[i].Slug,
			Name:  users[i].Name,
			Email: users[i].Email,
		}
	}
	return actors, nil
}

func toEntry(log *model.ActivityLog, actors map[int]*ActorSummary) ActivityEntry {
	entry := ActivityEntry{
		Id:         log.Id,
		Slug:       log.Slug,
		UserId:     log.UserId,
		User:       actors[log.UserId],
		Action:     log.Action,
		TargetType: log.TargetType,
		TargetSlug: log.TargetSlug,
		IPAddress:  log.IPAddress,
		UserAgent:  log.UserAgent,
		CreatedAt:  log.CreatedAt,
	}
	if log.Changes != "" {
		var changes map[string]any
		if err := json.Unmarshal([]byte(log.Changes), &changes); err == nil {
			entry.Changes = changes
		}
	}
	return entry
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 15
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}
