package handlers_analytics

import (
	"errors"
	"net/http"

	"clearsite/internal/csmiddleware"
	"clearsite/internal/models/csgeo"
	"clearsite/internal/models/cssite"
	"clearsite/internal/models/cstracker"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	tracker *cstracker.Tracker
}

func NewAnalyticsHandler(tracker *cstracker.Tracker) *AnalyticsHandler {
	return &AnalyticsHandler{
		tracker: tracker,
	}
}

type trackRequest struct {
	VisitorID string `json:"visitorId"`
	Path      string `json:"path"`
	Referrer  string `json:"referrer"`
}

// Track enregistre une vue de page et réconcilie la session du visiteur.
func (ah *AnalyticsHandler) Track(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	visitorID := req.VisitorID
	if visitorID == "" {
		visitorID = csmiddleware.GetVisitorID(c)
	}
	if visitorID == "" || req.Path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "visitorId and path are required"})
		return
	}

	site := cssite.GetInstance()
	ip := csmiddleware.ClientIP(c)

	// Le CDN en frontal connaît déjà la géolocalisation; la base MaxMind
	// locale ne sert que de repli.
	country, city := csgeo.FromHeaders(c.Request.Header)
	if country == "" || city == "" {
		dbCountry, dbCity := site.Geo.Locate(ip)
		if country == "" {
			country = dbCountry
		}
		if city == "" {
			city = dbCity
		}
	}

	ev := cstracker.PageViewEvent{
		VisitorID: visitorID,
		Path:      req.Path,
		Referrer:  req.Referrer,
		UserAgent: c.Request.UserAgent(),
		IPHash:    cstracker.HashIP(site.Configuration.Analytics.IPSalt, ip),
		Country:   country,
		City:      city,
		Host:      c.Request.Host,
	}

	if err := ah.tracker.RecordPageView(ev); err != nil {
		var verr *cstracker.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record page view"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type heartbeatRequest struct {
	VisitorID string `json:"visitorId"`
	Path      string `json:"path"`
}

// Heartbeat garde sessionDuration à jour entre deux navigations. Quand la
// session a été retrouvée via le hash IP, l'identifiant canonique est
// renvoyé pour que le client le réadopte.
func (ah *AnalyticsHandler) Heartbeat(c *gin.Context) {
	var req heartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	visitorID := req.VisitorID
	if visitorID == "" {
		visitorID = csmiddleware.GetVisitorID(c)
	}

	site := cssite.GetInstance()
	ipHash := cstracker.HashIP(site.Configuration.Analytics.IPSalt, csmiddleware.ClientIP(c))

	res, canonical, err := ah.tracker.RecordHeartbeat(visitorID, ipHash, req.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record heartbeat"})
		return
	}

	resp := gin.H{"success": true}
	if res == cstracker.FoundByIPHash {
		resp["visitorId"] = canonical
	}
	c.JSON(http.StatusOK, resp)
}

// GetSummary retourne la vue d'ensemble du tableau de bord admin.
func (ah *AnalyticsHandler) GetSummary(c *gin.Context) {
	summary, err := ah.tracker.Summary()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve analytics",
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetStats30Days retourne les statistiques des 30 derniers jours
func (ah *AnalyticsHandler) GetStats30Days(c *gin.Context) {
	stats, err := ah.tracker.Stats30Days()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve analytics",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetRealtimeStats retourne les statistiques en temps réel
func (ah *AnalyticsHandler) GetRealtimeStats(c *gin.Context) {
	stats, err := ah.tracker.RealtimeStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve realtime stats",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}
