package csleads

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ValidationError rejects a request before any write.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Service persists lead-capture data: newsletter signups, contact form
// submissions, job applications and cookie consent.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Subscribe registers a newsletter address. Re-subscribing the same address
// is a no-op, not an error.
func (s *Service) Subscribe(email, name, visitorID, source string) (*NewsletterSubscriber, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, &ValidationError{Message: "a valid email is required"}
	}
	if source == "" {
		source = "popup"
	}

	sub := NewsletterSubscriber{
		Email:        email,
		Name:         strings.TrimSpace(name),
		VisitorID:    visitorID,
		SubscribedAt: time.Now(),
		Source:       source,
		Status:       "active",
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&sub).Error
	if err != nil {
		return nil, fmt.Errorf("create subscriber: %w", err)
	}

	return &sub, nil
}

// ContactRequest is the contact form payload.
type ContactRequest struct {
	Name           string   `json:"nameOrCompany"`
	Email          string   `json:"email"`
	SecondaryEmail string   `json:"secondaryEmail"`
	Phone          string   `json:"phone"`
	Whatsapp       string   `json:"whatsapp"`
	Services       []string `json:"services"`
	Message        string   `json:"description"`
}

func (s *Service) SubmitContact(req ContactRequest) (*FormSubmission, error) {
	if strings.TrimSpace(req.Name) == "" ||
		strings.TrimSpace(req.Email) == "" ||
		strings.TrimSpace(req.Phone) == "" ||
		strings.TrimSpace(req.Message) == "" ||
		len(req.Services) == 0 {
		return nil, &ValidationError{Message: "missing required fields"}
	}

	services, err := json.Marshal(req.Services)
	if err != nil {
		return nil, fmt.Errorf("encode services: %w", err)
	}

	submission := FormSubmission{
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.TrimSpace(req.Email),
		SecondaryEmail: strings.TrimSpace(req.SecondaryEmail),
		Phone:          strings.TrimSpace(req.Phone),
		Whatsapp:       strings.TrimSpace(req.Whatsapp),
		Services:       string(services),
		Message:        req.Message,
	}
	if err := s.db.Create(&submission).Error; err != nil {
		return nil, fmt.Errorf("create form submission: %w", err)
	}
	return &submission, nil
}

// ApplicationRequest is the careers form payload.
type ApplicationRequest struct {
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Positions []string `json:"selectedPositions"`
}

func (s *Service) SubmitApplication(req ApplicationRequest) (*JobApplication, error) {
	if strings.TrimSpace(req.Name) == "" ||
		strings.TrimSpace(req.Email) == "" ||
		strings.TrimSpace(req.Phone) == "" ||
		len(req.Positions) == 0 {
		return nil, &ValidationError{Message: "missing required fields"}
	}

	positions, err := json.Marshal(req.Positions)
	if err != nil {
		return nil, fmt.Errorf("encode positions: %w", err)
	}

	application := JobApplication{
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Positions: string(positions),
	}
	if err := s.db.Create(&application).Error; err != nil {
		return nil, fmt.Errorf("create job application: %w", err)
	}
	return &application, nil
}

// SaveConsent upserts a visitor's cookie preferences.
func (s *Service) SaveConsent(visitorID string, essential, marketing bool) error {
	if visitorID == "" {
		return &ValidationError{Message: "missing visitorId"}
	}

	consent := CookieConsent{
		VisitorID: visitorID,
		Essential: essential,
		Marketing: marketing,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "visitor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"essential", "marketing", "updated_at"}),
	}).Create(&consent).Error
	if err != nil {
		return fmt.Errorf("save cookie consent: %w", err)
	}
	return nil
}
