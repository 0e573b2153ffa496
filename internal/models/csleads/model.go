package csleads

import "time"

// NewsletterSubscriber is one signed-up address, optionally linked to the
// visitor that subscribed.
type NewsletterSubscriber struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Name         string    `json:"name,omitempty"`
	VisitorID    string    `gorm:"index" json:"visitor_id,omitempty"`
	SubscribedAt time.Time `json:"subscribed_at"`
	Source       string    `json:"source"` // popup, footer, ...
	Status       string    `gorm:"default:active" json:"status"`
}

// FormSubmission is one contact-form entry.
type FormSubmission struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"not null" json:"name"`
	Email          string    `gorm:"not null" json:"email"`
	SecondaryEmail string    `json:"secondary_email,omitempty"`
	Phone          string    `gorm:"not null" json:"phone"`
	Whatsapp       string    `json:"whatsapp,omitempty"`
	Services       string    `gorm:"type:text" json:"services"` // JSON array
	Message        string    `gorm:"type:text;not null" json:"message"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// JobApplication is one careers-form entry.
type JobApplication struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"not null" json:"email"`
	Phone     string    `gorm:"not null" json:"phone"`
	Positions string    `gorm:"type:text;not null" json:"positions"` // JSON array
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// CookieConsent keeps one row per visitor, overwritten on every change.
type CookieConsent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	VisitorID string    `gorm:"uniqueIndex;not null" json:"visitor_id"`
	Essential bool      `gorm:"default:true" json:"essential"`
	Marketing bool      `json:"marketing"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (NewsletterSubscriber) TableName() string {
	return "newsletter_subscribers"
}

func (FormSubmission) TableName() string {
	return "form_submissions"
}

func (JobApplication) TableName() string {
	return "job_applications"
}

func (CookieConsent) TableName() string {
	return "cookie_consent"
}
