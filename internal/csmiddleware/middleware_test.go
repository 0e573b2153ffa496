package csmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGenerateSecretKey(t *testing.T) {
	key := generateSecretKey()
	assert.Len(t, key, 32)

	// Vérifier que deux appels génèrent des clés différentes
	key2 := generateSecretKey()
	assert.NotEqual(t, key, key2)
}

func TestVisitorIDSetsCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(VisitorID(false))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetVisitorID(c))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	var found *http.Cookie
	for _, ck := range cookies {
		if ck.Name == visitorCookie {
			found = ck
		}
	}
	assert.NotNil(t, found)
	assert.NotEmpty(t, found.Value)
}

func TestVisitorIDKeepsExistingCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(VisitorID(false))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetVisitorID(c))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: visitorCookie, Value: "abc123def456"})
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc123def456", w.Body.String())
}

func TestClientIPHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		headers  map[string]string
		expected string
	}{
		{"x-real-ip", map[string]string{"X-Real-IP": "4.4.4.4"}, "4.4.4.4"},
		{"x-forwarded-for", map[string]string{"X-Forwarded-For": "9.9.9.9, 10.0.0.1"}, "9.9.9.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, ClientIP(c))
		})
	}
}

func TestExtractLanguage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		acceptLang string
		expected   string
	}{
		{"fr-FR,fr;q=0.9,en-US;q=0.8", "fr"},
		{"en-US", "en"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/", nil)
		if tt.acceptLang != "" {
			c.Request.Header.Set("Accept-Language", tt.acceptLang)
		}
		assert.Equal(t, tt.expected, extractLanguage(c))
	}
}
