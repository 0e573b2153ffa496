package cstracker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Summary is the admin dashboard payload: totals plus the most recent
// sessions and page views.
type Summary struct {
	VisitorCount     int64            `json:"visitor_count"`
	ViewCount        int64            `json:"view_count"`
	AvgViewsPerVisit float64          `json:"avg_views_per_visit"`
	RecentSessions   []VisitorSession `json:"recent_sessions"`
	RecentPageViews  []PageView       `json:"recent_page_views"`
}

// Stats30Days aggregates the last 30 days for the dashboard charts.
type Stats30Days struct {
	TotalPageViews         int64          `json:"total_page_views"`
	UniqueVisitors         int64          `json:"unique_visitors"`
	AvgPageViewsPerVisitor float64        `json:"avg_page_views_per_visitor"`
	TopPages               []PageStat     `json:"top_pages"`
	TopReferrers           []ReferrerStat `json:"top_referrers"`
	TopSources             []SourceStat   `json:"top_sources"`
	DailyStats             []DailyStat    `json:"daily_stats"`
}

type PageStat struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

type ReferrerStat struct {
	Referrer string `json:"referrer"`
	Count    int64  `json:"count"`
}

type SourceStat struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

type DailyStat struct {
	Date           string `json:"date"`
	PageViews      int64  `json:"page_views"`
	UniqueVisitors int64  `json:"unique_visitors"`
}

const recentLimit = 50

// Summary builds the dashboard overview.
func (t *Tracker) Summary() (*Summary, error) {
	s := &Summary{}

	if err := t.db.Model(&VisitorSession{}).Count(&s.VisitorCount).Error; err != nil {
		return nil, fmt.Errorf("count visitors: %w", err)
	}
	if err := t.db.Model(&PageView{}).Count(&s.ViewCount).Error; err != nil {
		return nil, fmt.Errorf("count page views: %w", err)
	}
	if s.VisitorCount > 0 {
		s.AvgViewsPerVisit = float64(s.ViewCount) / float64(s.VisitorCount)
	}

	err := t.db.Order("last_visit desc").Limit(recentLimit).Find(&s.RecentSessions).Error
	if err != nil {
		return nil, fmt.Errorf("recent sessions: %w", err)
	}
	err = t.db.Order("created_at desc").Limit(recentLimit).Find(&s.RecentPageViews).Error
	if err != nil {
		return nil, fmt.Errorf("recent page views: %w", err)
	}

	return s, nil
}

// Stats30Days computes the 30-day aggregates.
func (t *Tracker) Stats30Days() (*Stats30Days, error) {
	thirtyDaysAgo := t.now().AddDate(0, 0, -30)

	stats := &Stats30Days{}

	err := t.db.Model(&PageView{}).
		Where("created_at >= ?", thirtyDaysAgo).
		Count(&stats.TotalPageViews).Error
	if err != nil {
		return nil, fmt.Errorf("error counting page views: %w", err)
	}

	err = t.db.Model(&PageView{}).
		Where("created_at >= ?", thirtyDaysAgo).
		Distinct("visitor_id").
		Count(&stats.UniqueVisitors).Error
	if err != nil {
		return nil, fmt.Errorf("error counting unique visitors: %w", err)
	}

	if stats.UniqueVisitors > 0 {
		stats.AvgPageViewsPerVisitor = float64(stats.TotalPageViews) / float64(stats.UniqueVisitors)
	}

	err = t.db.Model(&PageView{}).
		Select("path, COUNT(*) as views").
		Where("created_at >= ?", thirtyDaysAgo).
		Group("path").
		Order("views DESC").
		Limit(10).
		Scan(&stats.TopPages).Error
	if err != nil {
		return nil, fmt.Errorf("error getting top pages: %w", err)
	}

	err = t.db.Model(&PageView{}).
		Select("referrer, COUNT(*) as count").
		Where("created_at >= ? AND referrer != ''", thirtyDaysAgo).
		Group("referrer").
		Order("count DESC").
		Limit(10).
		Scan(&stats.TopReferrers).Error
	if err != nil {
		return nil, fmt.Errorf("error getting top referrers: %w", err)
	}

	err = t.db.Model(&VisitorSession{}).
		Select("source, COUNT(*) as count").
		Where("source != ''").
		Group("source").
		Order("count DESC").
		Limit(10).
		Scan(&stats.TopSources).Error
	if err != nil {
		return nil, fmt.Errorf("error getting top sources: %w", err)
	}

	dailyStats, err := t.getDailyStats(thirtyDaysAgo)
	if err != nil {
		return nil, fmt.Errorf("error getting daily stats: %w", err)
	}
	stats.DailyStats = dailyStats

	return stats, nil
}

func (t *Tracker) getDailyStats(since time.Time) ([]DailyStat, error) {
	type dailyCount struct {
		Date  string `json:"date"`
		Count int64  `json:"count"`
	}

	var dailyPageViews []dailyCount
	err := t.db.Model(&PageView{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&dailyPageViews).Error
	if err != nil {
		return nil, err
	}

	var result []DailyStat
	index := make(map[string]int, len(dailyPageViews))
	for _, dpv := range dailyPageViews {
		index[dpv.Date] = len(result)
		result = append(result, DailyStat{
			Date:      dpv.Date,
			PageViews: dpv.Count,
		})
	}

	var dailyVisitors []dailyCount
	err = t.db.Model(&PageView{}).
		Select("DATE(created_at) as date, COUNT(DISTINCT visitor_id) as count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&dailyVisitors).Error
	if err != nil {
		return nil, err
	}

	for _, dv := range dailyVisitors {
		if i, exists := index[dv.Date]; exists {
			result[i].UniqueVisitors = dv.Count
		}
	}

	return result, nil
}

// RealtimeStats reads today's counters from redis.
func (t *Tracker) RealtimeStats() (map[string]interface{}, error) {
	if t.redis == nil {
		return map[string]interface{}{
			"today_page_views":      int64(0),
			"today_unique_visitors": int64(0),
		}, nil
	}

	ctx := context.Background()
	today := t.now().Format("2006-01-02")

	pageViews, err := t.redis.HGet(ctx, "analytics:daily:"+today, "page_views").Int64()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	uniqueVisitors, err := t.redis.SCard(ctx, "analytics:visitors:"+today).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	return map[string]interface{}{
		"today_page_views":      pageViews,
		"today_unique_visitors": uniqueVisitors,
	}, nil
}

// StartRetention runs a nightly sweep deleting page views older than
// retentionDays. Sessions and visit history are kept forever; they are the
// dashboard's long-term record.
func (t *Tracker) StartRetention(retentionDays int) *cron.Cron {
	c := cron.New()

	// Every day at 02:00
	c.AddFunc("0 2 * * *", func() {
		if err := t.cleanupOldPageViews(retentionDays); err != nil {
			log.Error().Err(err).Msg("page view cleanup failed")
		} else {
			log.Info().Msg("page view cleanup completed")
		}
	})

	c.Start()
	return c
}

func (t *Tracker) cleanupOldPageViews(retentionDays int) error {
	cutoff := t.now().AddDate(0, 0, -retentionDays)

	result := t.db.Where("created_at < ?", cutoff).Delete(&PageView{})
	if result.Error != nil {
		return result.Error
	}

	log.Info().Int64("deleted", result.RowsAffected).Msg("old page views deleted")
	return nil
}
