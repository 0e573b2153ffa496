package handlers_about

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"clearsite/internal/models/csabout"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testImageData(t *testing.T) string {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func setupTestHandler(t *testing.T) (*gin.Engine, *csabout.Manager) {
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(&csabout.AboutSection{}))

	manager := csabout.NewManager(testDB)
	handler := NewAboutHandler(manager)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/about", handler.Get)
	r.POST("/admin/about", handler.Insert)
	r.DELETE("/admin/about/:id", handler.Delete)
	r.GET("/admin/about/preview", handler.Preview)

	return r, manager
}

func postSection(r *gin.Engine, payload map[string]interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/admin/about", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestInsertAndGet(t *testing.T) {
	r, _ := setupTestHandler(t)
	imageData := testImageData(t)

	w := postSection(r, map[string]interface{}{
		"title":     "Our story",
		"content":   "How it all started.",
		"imageData": imageData,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w2 := postSection(r, map[string]interface{}{
		"title":     "First things first",
		"content":   "The beginning.",
		"imageData": imageData,
		"position":  1,
	})
	assert.Equal(t, http.StatusCreated, w2.Code)

	req := httptest.NewRequest("GET", "/api/about", nil)
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, req)
	assert.Equal(t, http.StatusOK, w3.Code)

	var resp struct {
		Sections []csabout.AboutSection `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(w3.Body.Bytes(), &resp))
	require.Len(t, resp.Sections, 2)
	assert.Equal(t, "First things first", resp.Sections[0].Title)
	assert.Equal(t, 1, resp.Sections[0].DisplayOrder)
	assert.False(t, resp.Sections[0].Reverse)
	assert.True(t, resp.Sections[1].Reverse)
}

func TestInsertValidationError(t *testing.T) {
	r, _ := setupTestHandler(t)

	w := postSection(r, map[string]interface{}{
		"title":   "No image",
		"content": "Missing the image.",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInsertRejectsCorruptImage(t *testing.T) {
	r, manager := setupTestHandler(t)

	// Payload base64 valide mais qui ne décode pas en image.
	w := postSection(r, map[string]interface{}{
		"title":     "Broken",
		"content":   "Corrupt image payload.",
		"imageData": "data:image/png;base64,aGVsbG8=",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	sections, err := manager.List()
	require.NoError(t, err)
	assert.Empty(t, sections)
}

func TestDeleteSection(t *testing.T) {
	r, manager := setupTestHandler(t)

	section, err := manager.Insert(csabout.InsertParams{
		Title:     "Temp",
		Content:   "To be removed.",
		ImageData: "x",
	})
	require.NoError(t, err)

	req := httptest.NewRequest("DELETE", fmt.Sprintf("/admin/about/%d", section.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Une seconde suppression du même id renvoie 404.
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest("DELETE", fmt.Sprintf("/admin/about/%d", section.ID), nil))
	assert.Equal(t, http.StatusNotFound, w2.Code)
}

func TestDeleteInvalidID(t *testing.T) {
	r, _ := setupTestHandler(t)

	req := httptest.NewRequest("DELETE", "/admin/about/notanumber", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreviewEndpoint(t *testing.T) {
	r, manager := setupTestHandler(t)

	_, err := manager.Insert(csabout.InsertParams{Title: "A", Content: "a", ImageData: "x"})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/admin/about/preview?position=9", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Position int                    `json:"position"`
		Sections []csabout.AboutSection `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Position)
	assert.Len(t, resp.Sections, 1)
}
