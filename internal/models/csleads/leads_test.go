package csleads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestService(t *testing.T) *Service {
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = testDB.AutoMigrate(
		&NewsletterSubscriber{},
		&FormSubmission{},
		&JobApplication{},
		&CookieConsent{},
	)
	require.NoError(t, err)

	return NewService(testDB)
}

func TestSubscribe(t *testing.T) {
	s := setupTestService(t)

	sub, err := s.Subscribe("  Lead@Example.COM ", "Alex", "v1", "")
	require.NoError(t, err)
	assert.Equal(t, "lead@example.com", sub.Email)
	assert.Equal(t, "popup", sub.Source)
	assert.Equal(t, "active", sub.Status)
}

func TestSubscribe_DuplicateIsNoop(t *testing.T) {
	s := setupTestService(t)

	_, err := s.Subscribe("lead@example.com", "", "v1", "footer")
	require.NoError(t, err)
	_, err = s.Subscribe("lead@example.com", "", "v2", "popup")
	require.NoError(t, err)

	var count int64
	s.db.Model(&NewsletterSubscriber{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSubscribe_InvalidEmail(t *testing.T) {
	s := setupTestService(t)

	var verr *ValidationError
	_, err := s.Subscribe("", "", "", "")
	require.ErrorAs(t, err, &verr)

	_, err = s.Subscribe("not-an-email", "", "", "")
	require.ErrorAs(t, err, &verr)
}

func TestSubmitContact(t *testing.T) {
	s := setupTestService(t)

	submission, err := s.SubmitContact(ContactRequest{
		Name:     "Acme SA",
		Email:    "ceo@acme.example",
		Phone:    "+41 22 000 00 00",
		Services: []string{"automation", "integration"},
		Message:  "We need our invoicing automated.",
	})
	require.NoError(t, err)
	assert.Equal(t, `["automation","integration"]`, submission.Services)
}

func TestSubmitContact_MissingFields(t *testing.T) {
	s := setupTestService(t)

	var verr *ValidationError
	_, err := s.SubmitContact(ContactRequest{Name: "Acme"})
	require.ErrorAs(t, err, &verr)

	_, err = s.SubmitContact(ContactRequest{
		Name:    "Acme",
		Email:   "a@b.c",
		Phone:   "1",
		Message: "hi",
		// aucun service choisi
	})
	require.ErrorAs(t, err, &verr)
}

func TestSubmitApplication(t *testing.T) {
	s := setupTestService(t)

	app, err := s.SubmitApplication(ApplicationRequest{
		Name:      "Jo Smith",
		Email:     "jo@example.com",
		Phone:     "+33 6 00 00 00 00",
		Positions: []string{"automation-engineer"},
	})
	require.NoError(t, err)
	assert.Equal(t, `["automation-engineer"]`, app.Positions)

	var verr *ValidationError
	_, err = s.SubmitApplication(ApplicationRequest{Name: "Jo"})
	require.ErrorAs(t, err, &verr)
}

func TestSaveConsent_Upserts(t *testing.T) {
	s := setupTestService(t)

	require.NoError(t, s.SaveConsent("v1", true, false))
	require.NoError(t, s.SaveConsent("v1", true, true))

	var consents []CookieConsent
	s.db.Find(&consents)
	require.Len(t, consents, 1)
	assert.True(t, consents[0].Marketing)

	var verr *ValidationError
	err := s.SaveConsent("", true, false)
	require.ErrorAs(t, err, &verr)
}
