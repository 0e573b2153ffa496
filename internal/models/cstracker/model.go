package cstracker

import "time"

// VisitorSession is the single live record per visitor. It always describes
// the current session; finished sessions live in VisitHistory.
type VisitorSession struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	VisitorID       string    `gorm:"uniqueIndex;not null" json:"visitor_id"`
	IPHash          string    `gorm:"index" json:"ip_hash"`
	FirstVisit      time.Time `json:"first_visit"`
	LastVisit       time.Time `gorm:"index" json:"last_visit"`
	TotalVisits     int       `json:"total_visits"`
	TotalPageViews  int       `json:"total_page_views"`
	SessionDuration int       `json:"session_duration"` // seconds
	Source          string    `json:"source"`
	Email           string    `json:"email,omitempty"`
	Country         string    `json:"country,omitempty"`
	City            string    `json:"city,omitempty"`
}

// PageView is one page-load event, append only.
type PageView struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	VisitorID string    `gorm:"index;not null" json:"visitor_id"`
	Path      string    `gorm:"index;not null" json:"path"`
	Referrer  string    `json:"referrer"`
	UserAgent string    `json:"user_agent"`
	IPHash    string    `json:"ip_hash"`
	Device    string    `json:"device"`
	Country   string    `json:"country,omitempty"`
	City      string    `json:"city,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// VisitHistory archives one completed session, append only.
type VisitHistory struct {
	ID              uint64    `gorm:"primaryKey" json:"id"`
	VisitorID       string    `gorm:"index;not null" json:"visitor_id"`
	SessionStart    time.Time `json:"session_start"`
	SessionEnd      time.Time `json:"session_end"`
	DurationSeconds int       `json:"duration_seconds"`
	PagesViewed     int       `json:"pages_viewed"`
	EntryPage       string    `json:"entry_page"`
	ExitPage        string    `json:"exit_page"`
	Device          string    `json:"device"`
	Source          string    `json:"source"`
}

func (VisitorSession) TableName() string {
	return "visitor_sessions"
}

func (PageView) TableName() string {
	return "page_views"
}

func (VisitHistory) TableName() string {
	return "visit_history"
}
