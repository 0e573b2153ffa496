package cstracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// DefaultSessionTimeout is the idle gap after which the next event opens a
// new session. 30 minutes is the usual web-analytics boundary.
const DefaultSessionTimeout = 30 * time.Minute

// Tracker maintains the one-live-session-per-visitor state machine and the
// append-only page view / history logs.
type Tracker struct {
	db      *gorm.DB
	redis   *redis.Client
	timeout time.Duration
	now     func() time.Time
}

// New builds a Tracker. redisClient may be nil, in which case the realtime
// daily counters are skipped. A non-positive timeout falls back to the
// 30 minute default.
func New(db *gorm.DB, redisClient *redis.Client, timeout time.Duration) *Tracker {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	return &Tracker{
		db:      db,
		redis:   redisClient,
		timeout: timeout,
		now:     time.Now,
	}
}

// PageViewEvent carries one tracked page load.
type PageViewEvent struct {
	VisitorID string
	Path      string
	Referrer  string
	UserAgent string
	IPHash    string
	Country   string
	City      string
	// Host is the site's own hostname, used for source classification.
	Host string
}

// ValidationError rejects an event before any write.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// LookupResult tags how a visitor session was found, so the caller can
// decide whether to re-issue a canonical identifier to the client.
type LookupResult int

const (
	NotFound LookupResult = iota
	FoundByID
	FoundByIPHash
)

// RecordPageView appends the page view and reconciles the visitor's session:
// create on first contact, archive-and-reset after the idle timeout,
// increment otherwise.
func (t *Tracker) RecordPageView(ev PageViewEvent) error {
	if ev.VisitorID == "" || ev.Path == "" {
		return &ValidationError{Message: "visitorId and path are required"}
	}

	now := t.now()
	device := ClassifyDevice(ev.UserAgent)

	pv := PageView{
		VisitorID: ev.VisitorID,
		Path:      ev.Path,
		Referrer:  ev.Referrer,
		UserAgent: ev.UserAgent,
		IPHash:    ev.IPHash,
		Device:    device,
		Country:   ev.Country,
		City:      ev.City,
		CreatedAt: now,
	}
	if err := t.db.Create(&pv).Error; err != nil {
		return fmt.Errorf("record page view: %w", err)
	}

	var session VisitorSession
	err := t.db.Where("visitor_id = ?", ev.VisitorID).First(&session).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// First contact ever for this visitor.
		session = VisitorSession{
			VisitorID:       ev.VisitorID,
			IPHash:          ev.IPHash,
			FirstVisit:      now,
			LastVisit:       now,
			TotalVisits:     1,
			TotalPageViews:  1,
			SessionDuration: 0,
			Source:          ClassifySource(ev.Referrer, ev.Host),
			Country:         ev.Country,
			City:            ev.City,
		}
		if err := t.db.Create(&session).Error; err != nil {
			return fmt.Errorf("create visitor session: %w", err)
		}

	case err != nil:
		return fmt.Errorf("lookup visitor session: %w", err)

	case now.Sub(session.LastVisit) > t.timeout:
		// Returning visitor after the idle gap: archive the finished
		// session, then reset the live record for the new one.
		if err := t.archiveSession(&session, device); err != nil {
			return err
		}
		updates := map[string]interface{}{
			"first_visit":      now,
			"last_visit":       now,
			"total_visits":     gorm.Expr("total_visits + 1"),
			"total_page_views": 1,
			"session_duration": 0,
		}
		addGeoBackfill(updates, &session, ev.Country, ev.City)
		if err := t.db.Model(&session).Updates(updates).Error; err != nil {
			return fmt.Errorf("reset visitor session: %w", err)
		}

	default:
		// Same session, one more page.
		updates := map[string]interface{}{
			"last_visit":       now,
			"total_page_views": gorm.Expr("total_page_views + 1"),
			"session_duration": int(now.Sub(session.FirstVisit).Seconds()),
		}
		addGeoBackfill(updates, &session, ev.Country, ev.City)
		if err := t.db.Model(&session).Updates(updates).Error; err != nil {
			return fmt.Errorf("update visitor session: %w", err)
		}
	}

	t.bumpDailyCounters(ev.VisitorID, now)
	return nil
}

// RecordHeartbeat keeps sessionDuration live between navigations. It never
// creates a session and never touches totalPageViews; on an expired session
// it archives and resets like a page view would, but leaves the page-view
// count at zero until a real navigation arrives. The returned visitor id is
// the canonical one when the session was found through the IP-hash fallback.
func (t *Tracker) RecordHeartbeat(visitorID, ipHash, path string) (LookupResult, string, error) {
	session, res, err := t.ResolveVisitor(visitorID, ipHash)
	if err != nil {
		return NotFound, "", err
	}
	if res == NotFound {
		// Only page views open sessions.
		log.Debug().Str("visitor", visitorID).Str("path", path).Msg("heartbeat for unknown visitor ignored")
		return NotFound, "", nil
	}

	now := t.now()
	if now.Sub(session.LastVisit) > t.timeout {
		if err := t.archiveSession(session, "unknown"); err != nil {
			return res, session.VisitorID, err
		}
		err = t.db.Model(session).Updates(map[string]interface{}{
			"first_visit":      now,
			"last_visit":       now,
			"total_visits":     gorm.Expr("total_visits + 1"),
			"total_page_views": 0,
			"session_duration": 0,
		}).Error
		if err != nil {
			return res, session.VisitorID, fmt.Errorf("reset visitor session: %w", err)
		}
		return res, session.VisitorID, nil
	}

	err = t.db.Model(session).Updates(map[string]interface{}{
		"last_visit":       now,
		"session_duration": int(now.Sub(session.FirstVisit).Seconds()),
	}).Error
	if err != nil {
		return res, session.VisitorID, fmt.Errorf("update visitor session: %w", err)
	}
	return res, session.VisitorID, nil
}

// ResolveVisitor finds the live session for a visitor, first by identifier,
// then by salted IP hash (covers cleared client storage).
func (t *Tracker) ResolveVisitor(visitorID, ipHash string) (*VisitorSession, LookupResult, error) {
	var session VisitorSession

	if visitorID != "" {
		err := t.db.Where("visitor_id = ?", visitorID).First(&session).Error
		if err == nil {
			return &session, FoundByID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound, fmt.Errorf("lookup visitor session: %w", err)
		}
	}

	if ipHash != "" {
		err := t.db.Where("ip_hash = ?", ipHash).First(&session).Error
		if err == nil {
			return &session, FoundByIPHash, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound, fmt.Errorf("lookup visitor session by ip hash: %w", err)
		}
	}

	return nil, NotFound, nil
}

// LinkEmail attaches a newsletter address to the visitor's session.
func (t *Tracker) LinkEmail(visitorID, email string) error {
	if visitorID == "" || email == "" {
		return nil
	}
	err := t.db.Model(&VisitorSession{}).
		Where("visitor_id = ?", visitorID).
		Update("email", email).Error
	if err != nil {
		return fmt.Errorf("link email to visitor session: %w", err)
	}
	return nil
}

// archiveSession writes a VisitHistory row for the finished session. Zero
// duration sessions (single event) are not archived. Entry/exit pages and
// the page count come from the page views inside the session window.
func (t *Tracker) archiveSession(s *VisitorSession, device string) error {
	duration := int(s.LastVisit.Sub(s.FirstVisit).Seconds())
	if duration <= 0 {
		return nil
	}

	var views []PageView
	err := t.db.
		Where("visitor_id = ? AND created_at >= ? AND created_at <= ?", s.VisitorID, s.FirstVisit, s.LastVisit).
		Order("created_at asc").
		Find(&views).Error
	if err != nil {
		return fmt.Errorf("scan session page views: %w", err)
	}

	var entryPage, exitPage string
	if len(views) > 0 {
		entryPage = views[0].Path
		exitPage = views[len(views)-1].Path
	}

	source := s.Source
	if source == "" {
		source = SourceDirect
	}

	hist := VisitHistory{
		VisitorID:       s.VisitorID,
		SessionStart:    s.FirstVisit,
		SessionEnd:      s.LastVisit,
		DurationSeconds: duration,
		PagesViewed:     len(views),
		EntryPage:       entryPage,
		ExitPage:        exitPage,
		Device:          device,
		Source:          source,
	}
	if err := t.db.Create(&hist).Error; err != nil {
		return fmt.Errorf("archive visit history: %w", err)
	}
	return nil
}

// addGeoBackfill adds country/city updates only when the session does not
// know them yet; geolocation is never overwritten once set.
func addGeoBackfill(updates map[string]interface{}, s *VisitorSession, country, city string) {
	if country != "" && s.Country == "" {
		updates["country"] = country
	}
	if city != "" && s.City == "" {
		updates["city"] = city
	}
}

// bumpDailyCounters feeds the redis realtime counters, best effort.
func (t *Tracker) bumpDailyCounters(visitorID string, now time.Time) {
	if t.redis == nil {
		return
	}
	ctx := context.Background()
	day := now.Format("2006-01-02")

	cacheKey := "analytics:daily:" + day
	t.redis.HIncrBy(ctx, cacheKey, "page_views", 1)
	t.redis.Expire(ctx, cacheKey, 31*24*time.Hour)

	visitorKey := "analytics:visitors:" + day
	t.redis.SAdd(ctx, visitorKey, visitorID)
	t.redis.Expire(ctx, visitorKey, 31*24*time.Hour)
}
