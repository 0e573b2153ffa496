package csmiddleware

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

const visitorCookie = "_visitor_id"

// VisitorID garantit qu'un identifiant anonyme est disponible pour chaque
// requete. Le cookie vit deux ans; si les cookies sont refuses, on derive
// un identifiant stable de IP + langue + User-Agent.
func VisitorID(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		visitorID, err := c.Cookie(visitorCookie)

		if err != nil || visitorID == "" {
			randomBytes := make([]byte, 16)
			rand.Read(randomBytes)
			visitorID = hex.EncodeToString(randomBytes)

			c.SetCookie(
				visitorCookie,
				visitorID,
				365*24*60*60*2, // 2 ans
				"/",
				"",
				production,
				true, // httpOnly
			)
		}

		if err != nil {
			// Cookies indisponibles : hash pour garder la coherence
			// entre les requetes de la meme session
			hash := sha256.Sum256([]byte(fmt.Sprintf("%s%s%s",
				ClientIP(c), extractLanguage(c), c.Request.UserAgent())))
			visitorID = hex.EncodeToString(hash[:])[:32]
		}

		c.Set("visitor_id", visitorID)
		c.Next()
	}
}

// GetVisitorID renvoie l'identifiant pose par VisitorID, ou la valeur du
// body si le client en fournit un explicitement.
func GetVisitorID(c *gin.Context) string {
	if id, ok := c.Get("visitor_id"); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// ClientIP récupère l'IP réelle du client
func ClientIP(c *gin.Context) string {
	ip := c.GetHeader("X-Real-IP")
	if ip == "" {
		ip = c.GetHeader("X-Forwarded-For")
		if ip != "" {
			ips := strings.Split(ip, ",")
			ip = strings.TrimSpace(ips[0])
		}
	}
	if ip == "" {
		ip = c.ClientIP()
	}
	return ip
}

// extractLanguage extrait la langue préférée du visiteur
func extractLanguage(c *gin.Context) string {
	acceptLang := c.GetHeader("Accept-Language")
	if acceptLang == "" {
		return "unknown"
	}

	parts := strings.Split(acceptLang, ",")
	if len(parts) > 0 {
		lang := strings.Split(parts[0], ";")[0]
		lang = strings.Split(lang, "-")[0]
		return strings.ToLower(strings.TrimSpace(lang))
	}

	return "unknown"
}
