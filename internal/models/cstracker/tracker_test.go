package cstracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ============= Setup =============

func setupTestDB(t *testing.T) *gorm.DB {
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = testDB.AutoMigrate(&VisitorSession{}, &PageView{}, &VisitHistory{})
	require.NoError(t, err)

	return testDB
}

type fakeClock struct {
	current time.Time
}

func (fc *fakeClock) now() time.Time {
	return fc.current
}

func (fc *fakeClock) advance(d time.Duration) {
	fc.current = fc.current.Add(d)
}

func setupTestTracker(t *testing.T) (*Tracker, *fakeClock) {
	clock := &fakeClock{current: time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)}
	tracker := New(setupTestDB(t), nil, DefaultSessionTimeout)
	tracker.now = clock.now
	return tracker, clock
}

func pageView(visitorID, path string) PageViewEvent {
	return PageViewEvent{
		VisitorID: visitorID,
		Path:      path,
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64)",
		IPHash:    HashIP("pepper", "203.0.113.7"),
		Host:      "clearsite.example",
	}
}

func loadSession(t *testing.T, tracker *Tracker, visitorID string) VisitorSession {
	var session VisitorSession
	err := tracker.db.Where("visitor_id = ?", visitorID).First(&session).Error
	require.NoError(t, err)
	return session
}

// ============= Page views =============

func TestRecordPageView_NewVisitor(t *testing.T) {
	tracker, clock := setupTestTracker(t)

	err := tracker.RecordPageView(pageView("v1", "/"))
	require.NoError(t, err)

	session := loadSession(t, tracker, "v1")
	assert.Equal(t, 1, session.TotalVisits)
	assert.Equal(t, 1, session.TotalPageViews)
	assert.Equal(t, 0, session.SessionDuration)
	assert.Equal(t, SourceDirect, session.Source)
	assert.WithinDuration(t, clock.current, session.FirstVisit, time.Second)

	var pvCount int64
	tracker.db.Model(&PageView{}).Count(&pvCount)
	assert.Equal(t, int64(1), pvCount)
}

func TestRecordPageView_MissingFields(t *testing.T) {
	tracker, _ := setupTestTracker(t)

	var verr *ValidationError
	assert.ErrorAs(t, tracker.RecordPageView(PageViewEvent{Path: "/"}), &verr)
	assert.ErrorAs(t, tracker.RecordPageView(PageViewEvent{VisitorID: "v1"}), &verr)
}

func TestRecordPageView_SameSession(t *testing.T) {
	tracker, clock := setupTestTracker(t)

	require.NoError(t, tracker.RecordPageView(pageView("v1", "/")))
	clock.advance(5 * time.Minute)
	require.NoError(t, tracker.RecordPageView(pageView("v1", "/services")))

	session := loadSession(t, tracker, "v1")
	assert.Equal(t, 1, session.TotalVisits)
	assert.Equal(t, 2, session.TotalPageViews)
	assert.Equal(t, 300, session.SessionDuration)

	var histCount int64
	tracker.db.Model(&VisitHistory{}).Count(&histCount)
	assert.Equal(t, int64(0), histCount)
}

func TestRecordPageView_TimeoutArchivesSession(t *testing.T) {
	tracker, clock := setupTestTracker(t)

	require.NoError(t, tracker.RecordPageView(pageView("v1", "/")))
	clock.advance(5 * time.Minute)
	require.NoError(t, tracker.RecordPageView(pageView("v1", "/about")))
	clock.advance(40 * time.Minute)
	require.NoError(t, tracker.RecordPageView(pageView("v1", "/contact")))

	var hist VisitHistory
	require.NoError(t, tracker.db.First(&hist).Error)
	assert.Equal(t, "v1", hist.VisitorID)
	assert.Equal(t, 300, hist.DurationSeconds)
	assert.Equal(t, 2, hist.PagesViewed)
	assert.Equal(t, "/", hist.EntryPage)
	assert.Equal(t, "/about", hist.ExitPage)
	assert.Equal(t, "desktop", hist.Device)

	session := loadSession(t, tracker, "v1")
	assert.Equal(t, 2, session.TotalVisits)
	assert.Equal(t, 1, session.TotalPageViews)
	assert.Equal(t, 0, session.SessionDuration)
	assert.WithinDuration(t, clock.current, session.FirstVisit, time.Second)
}

func TestRecordPageView_SingleEventSessionNotArchived(t *testing.T) {
	tracker, clock := setupTestTracker(t)

	require.NoError(t, tracker.RecordPageView(pageView("v1", "/")))
	clock.advance(2 * time.Hour)
	require.NoError(t, tracker.RecordPageView(pageView("v1", "/")))

	// Une session d'un seul événement a une durée nulle : rien à archiver.
	var histCount int64
	tracker.db.Model(&VisitHistory{}).Count(&histCount)
	assert.Equal(t, int64(0), histCount)

	session := loadSession(t, tracker, "v1")
	assert.Equal(t, 2, session.TotalVisits)
}

func TestRecordPageView_GeoBackfillOnly(t *testing.T) {
	tracker, clock := setupTestTracker(t)

	ev := pageView("v1", "/")
	require.NoError(t, tracker.RecordPageView(ev))

	clock.advance(time.Minute)
	ev.Country = "CH"
	ev.City = "Geneva"
	require.NoError(t, tracker.RecordPageView(ev))

	session := loadSession(t, tracker, "v1")
	assert.Equal(t, "CH", session.Country)
	assert.Equal(t, "Geneva", session.City)

	// Une fois connue, la géolocalisation n'est jamais écrasée.
	clock.advance(time.Minute)
	ev.Country = "FR"
	ev.City = "Paris"
	require.NoError(t, tracker.RecordPageView(ev))

	session = loadSession(t, tracker, "v1")
	assert.Equal(t, "CH", session.Country)
	assert.Equal(t, "Geneva", session.City)
}

// ============= Heartbeats =============

func TestRecordHeartbeat_UnknownVisitorIgnored(t *testing.T) {
	tracker, _ := setupTestTracker(t)

	res, _, err := tracker.RecordHeartbeat("ghost", "nohash", "/")
	require.NoError(t, err)
	assert.Equal(t, NotFound, res)

	var count int64
	tracker.db.Model(&VisitorSession{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestRecordHeartbeat_ActiveSession(t *testing.T) {
	tracker, clock := setupTestTracker(t)

	require.NoError(t, tracker.RecordPageView(pageView("v1", "/")))
	clock.advance(3 * time.Minute)

	res, _, err := tracker.RecordHeartbeat("v1", "", "/")
	require.NoError(t, err)
	assert.Equal(t, FoundByID, res)

	session := loadSession(t, tracker, "v1")
	assert.Equal(t, 180, session.SessionDuration)
	// Un heartbeat n'est pas une page vue.
	assert.Equal(t, 1, session.TotalPageViews)

	var pvCount int64
	tracker.db.Model(&PageView{}).Count(&pvCount)
	assert.Equal(t, int64(1), pvCount)
}

func TestRecordHeartbeat_IPHashFallback(t *testing.T) {
	tracker, clock := setupTestTracker(t)

	ev := pageView("v1", "/")
	require.NoError(t, tracker.RecordPageView(ev))
	clock.advance(time.Minute)

	// Stockage client effacé : identifiant inconnu mais même IP.
	res, canonical, err := tracker.RecordHeartbeat("fresh-id", ev.IPHash, "/")
	require.NoError(t, err)
	assert.Equal(t, FoundByIPHash, res)
	assert.Equal(t, "v1", canonical)
}

func TestRecordHeartbeat_ExpiredSession(t *testing.T) {
	tracker, clock := setupTestTracker(t)

	require.NoError(t, tracker.RecordPageView(pageView("v1", "/")))
	clock.advance(5 * time.Minute)
	require.NoError(t, tracker.RecordPageView(pageView("v1", "/pricing")))
	clock.advance(45 * time.Minute)

	res, _, err := tracker.RecordHeartbeat("v1", "", "/pricing")
	require.NoError(t, err)
	assert.Equal(t, FoundByID, res)

	var hist VisitHistory
	require.NoError(t, tracker.db.First(&hist).Error)
	assert.Equal(t, 300, hist.DurationSeconds)

	session := loadSession(t, tracker, "v1")
	assert.Equal(t, 2, session.TotalVisits)
	assert.Equal(t, 0, session.TotalPageViews)
	assert.Equal(t, 0, session.SessionDuration)
}

// ============= Divers =============

func TestLinkEmail(t *testing.T) {
	tracker, _ := setupTestTracker(t)

	require.NoError(t, tracker.RecordPageView(pageView("v1", "/")))
	require.NoError(t, tracker.LinkEmail("v1", "lead@example.com"))

	session := loadSession(t, tracker, "v1")
	assert.Equal(t, "lead@example.com", session.Email)

	// Sans identifiant ou email, no-op silencieux.
	assert.NoError(t, tracker.LinkEmail("", "x@example.com"))
	assert.NoError(t, tracker.LinkEmail("v1", ""))
}

func TestSummary(t *testing.T) {
	tracker, clock := setupTestTracker(t)

	require.NoError(t, tracker.RecordPageView(pageView("v1", "/")))
	require.NoError(t, tracker.RecordPageView(pageView("v2", "/")))
	clock.advance(time.Minute)
	require.NoError(t, tracker.RecordPageView(pageView("v1", "/about")))

	summary, err := tracker.Summary()
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.VisitorCount)
	assert.Equal(t, int64(3), summary.ViewCount)
	assert.InDelta(t, 1.5, summary.AvgViewsPerVisit, 0.001)
	assert.Len(t, summary.RecentSessions, 2)
	assert.Len(t, summary.RecentPageViews, 3)
}

func TestStats30Days(t *testing.T) {
	tracker, clock := setupTestTracker(t)

	ev := pageView("v1", "/")
	ev.Referrer = "https://www.google.com/search?q=automation"
	require.NoError(t, tracker.RecordPageView(ev))
	clock.advance(time.Minute)
	require.NoError(t, tracker.RecordPageView(pageView("v1", "/services")))
	ev2 := pageView("v2", "/services")
	ev2.Referrer = "https://www.google.com/"
	require.NoError(t, tracker.RecordPageView(ev2))

	stats, err := tracker.Stats30Days()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalPageViews)
	assert.Equal(t, int64(2), stats.UniqueVisitors)
	assert.InDelta(t, 1.5, stats.AvgPageViewsPerVisitor, 0.001)

	require.NotEmpty(t, stats.TopPages)
	assert.Equal(t, "/services", stats.TopPages[0].Path)
	assert.Equal(t, int64(2), stats.TopPages[0].Views)

	require.NotEmpty(t, stats.TopSources)
	assert.Equal(t, "google", stats.TopSources[0].Source)

	require.Len(t, stats.DailyStats, 1)
	assert.Equal(t, int64(3), stats.DailyStats[0].PageViews)
	assert.Equal(t, int64(2), stats.DailyStats[0].UniqueVisitors)
}

func TestCleanupOldPageViews(t *testing.T) {
	tracker, clock := setupTestTracker(t)

	require.NoError(t, tracker.RecordPageView(pageView("v1", "/")))
	clock.advance(100 * 24 * time.Hour)
	require.NoError(t, tracker.RecordPageView(pageView("v1", "/")))

	require.NoError(t, tracker.cleanupOldPageViews(90))

	var pvCount int64
	tracker.db.Model(&PageView{}).Count(&pvCount)
	assert.Equal(t, int64(1), pvCount)

	// Les sessions survivent toujours au nettoyage.
	var sessCount int64
	tracker.db.Model(&VisitorSession{}).Count(&sessCount)
	assert.Equal(t, int64(1), sessCount)
}
