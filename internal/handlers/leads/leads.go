package handlers_leads

import (
	"errors"
	"net/http"

	"clearsite/internal/csmiddleware"
	"clearsite/internal/models/csleads"
	"clearsite/internal/models/cssite"
	"clearsite/internal/models/cstracker"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type LeadsHandler struct {
	service *csleads.Service
	tracker *cstracker.Tracker
}

func NewLeadsHandler(service *csleads.Service, tracker *cstracker.Tracker) *LeadsHandler {
	return &LeadsHandler{
		service: service,
		tracker: tracker,
	}
}

func respondLeadError(c *gin.Context, err error, fallback string) {
	var verr *csleads.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}

type subscribeRequest struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	VisitorID string `json:"visitorId"`
	Source    string `json:"source"`
}

// Subscribe inscrit une adresse à la newsletter et la rattache à la session
// du visiteur pour le tableau de bord.
func (lh *LeadsHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	visitorID := req.VisitorID
	if visitorID == "" {
		visitorID = csmiddleware.GetVisitorID(c)
	}

	sub, err := lh.service.Subscribe(req.Email, req.Name, visitorID, req.Source)
	if err != nil {
		respondLeadError(c, err, "Failed to subscribe")
		return
	}

	if err := lh.tracker.LinkEmail(visitorID, sub.Email); err != nil {
		// L'inscription est faite, le rattachement peut attendre.
		log.Warn().Err(err).Str("visitor", visitorID).Msg("email link failed")
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type contactRequest struct {
	csleads.ContactRequest
	CaptchaID     string `json:"captchaId"`
	CaptchaAnswer string `json:"captchaAnswer"`
}

// Contact enregistre une demande du formulaire de contact, captcha exigé.
func (lh *LeadsHandler) Contact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	captcha := cssite.GetInstance().Captcha
	if err := captcha.VerifyCaptcha(req.CaptchaID, req.CaptchaAnswer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid captcha"})
		return
	}

	if _, err := lh.service.SubmitContact(req.ContactRequest); err != nil {
		respondLeadError(c, err, "Failed to submit contact request")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Apply enregistre une candidature spontanée.
func (lh *LeadsHandler) Apply(c *gin.Context) {
	var req csleads.ApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if _, err := lh.service.SubmitApplication(req); err != nil {
		respondLeadError(c, err, "Failed to submit application")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type consentRequest struct {
	VisitorID string `json:"visitorId"`
	Essential bool   `json:"essential"`
	Marketing bool   `json:"marketing"`
}

// Consent mémorise le choix cookies du visiteur.
func (lh *LeadsHandler) Consent(c *gin.Context) {
	var req consentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	visitorID := req.VisitorID
	if visitorID == "" {
		visitorID = csmiddleware.GetVisitorID(c)
	}

	if err := lh.service.SaveConsent(visitorID, req.Essential, req.Marketing); err != nil {
		respondLeadError(c, err, "Failed to save consent")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
