package service

import (
	"math"
	"time"

	"user-center/caching"
	"user-center/database"
	"user-center/database/model"

	"gorm.io/gorm"
)

const statsCacheKey = "dashboard:stats"

// DashboardStats are the aggregate counters shown on the dashboard.
type DashboardStats struct {
	TotalUsers       int64   `json:"total_users"`
	ActiveUsers      int64   `json:"active_users"`
	InactiveUsers    int64   `json:"inactive_users"`
	AdminUsers       int64   `json:"admin_users"`
	RegularUsers     int64   `json:"regular_users"`
	RecentUsers      int64   `json:"recent_users"`
	RecentActivities int64   `json:"recent_activities"`
	GrowthRate       float64 `json:"growth_rate"`
}

// ChartPoint is one day of the signup chart.
type ChartPoint struct {
	Date  string `json:"date"`
	Label string `json:"label"`
	Users int64  `json:"users"`
}

// DashboardService computes dashboard aggregates. Stats are cached briefly:
// the dashboard polls and the counts are not worth recomputing per request.
type DashboardService struct {
	DB       *gorm.DB
	cache    *caching.Cache
	activity *ActivityService
}

func NewDashboardService(cache *caching.Cache) *DashboardService {
	return &DashboardService{
		DB:       database.GetDB(),
		cache:    cache,
		activity: NewActivityService(),
	}
}

// Stats returns the aggregate counters, recomputing at most once a minute.
func (s *DashboardService) Stats() (*DashboardStats, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(statsCacheKey); ok {
			if stats, ok := cached.(*DashboardStats); ok {
				return stats, nil
			}
		}
	}

	stats := &DashboardStats{}
	users := func() *gorm.DB { return s.DB.Model(&model.User{}) }

	if err := users().Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := users().Where("active = ?", true).Count(&stats.ActiveUsers).Error; err != nil {
		return nil, err
	}
	if err := users().Where("role = ?", model.RoleAdmin).Count(&stats.AdminUsers).Error; err != nil {
		return nil, err
	}
	weekAgo := time.Now().AddDate(0, 0, -7)
	if err := users().Where("created_at >= ?", weekAgo).Count(&stats.RecentUsers).Error; err != nil {
		return nil, err
	}
	stats.InactiveUsers = stats.TotalUsers - stats.ActiveUsers
	stats.RegularUsers = stats.TotalUsers - stats.AdminUsers

	recentActivities, err := s.activity.CountSince(weekAgo)
	if err != nil {
		return nil, err
	}
	stats.RecentActivities = recentActivities

	rate, err := s.growthRate()
	if err != nil {
		return nil, err
	}
	stats.GrowthRate = rate

	if s.cache != nil {
		s.cache.Set(statsCacheKey, stats, time.Minute)
	}
	return stats, nil
}

// RecentUsers returns the most recently created accounts.
func (s *DashboardService) RecentUsers(limit int) ([]model.User, error) {
	if limit <= 0 || limit > 50 {
		limit = 5
	}
	var users []model.User
	err := s.DB.Model(&model.User{}).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// ActivityChart returns per-day signup counts for the trailing window,
// oldest day first.
func (s *DashboardService) ActivityChart(days int) ([]ChartPoint, error) {
	if days <= 0 || days > 90 {
		days = 7
	}

	points := make([]ChartPoint, 0, days)
	now := time.Now()
	for i := 0; i < days; i++ {
		day := now.AddDate(0, 0, -(days - 1 - i))
		date := day.Format("2006-01-02")

		var count int64
		err := s.DB.Model(&model.User{}).
			Where("date(created_at) = ?", date).
			Count(&count).Error
		if err != nil {
			return nil, err
		}

		points = append(points, ChartPoint{
			Date:  date,
			Label: day.Format("Jan 2"),
			Users: count,
		})
	}
	return points, nil
}

// growthRate compares this week's signups against last week's, as a
// percentage rounded to two decimals. Weeks start on Monday.
func (s *DashboardService) growthRate() (float64, error) {
	thisWeekStart := startOfWeek(time.Now())
	lastWeekStart := thisWeekStart.AddDate(0, 0, -7)

	var thisWeek, lastWeek int64
	err := s.DB.Model(&model.User{}).
		Where("created_at >= ?", thisWeekStart).
		Count(&thisWeek).Error
	if err != nil {
		return 0, err
	}
	err = s.DB.Model(&model.User{}).
		Where("created_at >= ? AND created_at < ?", lastWeekStart, thisWeekStart).
		Count(&lastWeek).Error
	if err != nil {
		return 0, err
	}

	if lastWeek == 0 {
		if thisWeek > 0 {
			return 100, nil
		}
		return 0, nil
	}
	rate := float64(thisWeek-lastWeek) / float64(lastWeek) * 100
	return math.Round(rate*100) / 100, nil
}

func startOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	day := t.AddDate(0, 0, -(weekday - 1))
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, t.Location())
}
